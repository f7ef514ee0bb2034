package hyperdemo

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.tpl templates/layouts/*.tpl
var embeddedTemplates embed.FS

// EmbeddedTemplates exposes the built-in page, fragment and layout templates
// rooted at the templates directory, so names resolve as "greet" or
// "layouts/base".
func EmbeddedTemplates() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}
