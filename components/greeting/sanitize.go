package greeting

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	namePolicyOnce sync.Once
	namePolicy     *bluemonday.Policy
)

// sanitizeName strips every tag from raw and returns plain text. bluemonday
// escapes the text it keeps, so entities are decoded again; the template
// engine escapes on output.
func sanitizeName(raw string) string {
	cleaned := nameSanitizer().Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

func nameSanitizer() *bluemonday.Policy {
	namePolicyOnce.Do(func() {
		namePolicy = bluemonday.StrictPolicy()
	})
	return namePolicy
}
