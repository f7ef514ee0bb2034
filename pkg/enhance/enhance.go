// Package enhance detects requests sent by hypermedia enhancement libraries.
//
// Detection happens once at the request boundary and yields a plain Client
// value, so code deciding between page and fragment responses never looks at
// headers itself.
package enhance

import (
	"net/http"
	"strings"
)

// Library names a client-side enhancement library.
type Library string

const (
	HTMX   Library = "htmx"
	Unpoly Library = "unpoly"
	Turbo  Library = "turbo"
)

// Request headers set by the supported libraries.
const (
	HeaderHXRequest  = "HX-Request"
	HeaderHXTarget   = "HX-Target"
	HeaderHXBoosted  = "HX-Boosted"
	HeaderUpVersion  = "X-Up-Version"
	HeaderUpTarget   = "X-Up-Target"
	HeaderTurboFrame = "Turbo-Frame"
)

// Libraries lists every supported library in detection order.
func Libraries() []Library {
	return []Library{HTMX, Unpoly, Turbo}
}

// ParseLibrary maps a case-insensitive name to a Library.
func ParseLibrary(name string) (Library, bool) {
	switch Library(strings.ToLower(strings.TrimSpace(name))) {
	case HTMX:
		return HTMX, true
	case Unpoly:
		return Unpoly, true
	case Turbo:
		return Turbo, true
	default:
		return "", false
	}
}

// Client describes what an incoming request told us about its caller. The
// zero value is a plain browser request.
type Client struct {
	Library Library
	// Target is the element or frame the client intends to update, when it
	// said so.
	Target string
	// Boosted is set for htmx boosted navigation, which expects a full page.
	Boosted bool
}

// Enhanced reports whether the caller can apply a fragment response.
func (c Client) Enhanced() bool {
	return c.Library != "" && !c.Boosted
}

// Detect inspects r for enhancement markers. When libs is empty every
// supported library is considered; otherwise only the listed ones are.
func Detect(r *http.Request, libs ...Library) Client {
	if r == nil {
		return Client{}
	}
	if len(libs) == 0 {
		libs = Libraries()
	}
	for _, lib := range libs {
		if client, ok := detect(r.Header, lib); ok {
			return client
		}
	}
	return Client{}
}

func detect(h http.Header, lib Library) (Client, bool) {
	switch lib {
	case HTMX:
		if !strings.EqualFold(strings.TrimSpace(h.Get(HeaderHXRequest)), "true") {
			return Client{}, false
		}
		return Client{
			Library: HTMX,
			Target:  strings.TrimSpace(h.Get(HeaderHXTarget)),
			Boosted: strings.EqualFold(strings.TrimSpace(h.Get(HeaderHXBoosted)), "true"),
		}, true
	case Unpoly:
		target := strings.TrimSpace(h.Get(HeaderUpTarget))
		if target == "" && strings.TrimSpace(h.Get(HeaderUpVersion)) == "" {
			return Client{}, false
		}
		return Client{Library: Unpoly, Target: target}, true
	case Turbo:
		// Only frame navigations can apply a frame fragment. Turbo Drive
		// submissions advertise turbo-stream in Accept but replace the page.
		frame := strings.TrimSpace(h.Get(HeaderTurboFrame))
		if frame == "" {
			return Client{}, false
		}
		return Client{Library: Turbo, Target: frame}, true
	default:
		return Client{}, false
	}
}

// VaryHeaders lists the request headers that influence Detect for libs, for
// use in a Vary response header.
func VaryHeaders(libs ...Library) []string {
	if len(libs) == 0 {
		libs = Libraries()
	}
	seen := make(map[string]struct{})
	var out []string
	add := func(names ...string) {
		for _, name := range names {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	for _, lib := range libs {
		switch lib {
		case HTMX:
			add(HeaderHXRequest, HeaderHXBoosted)
		case Unpoly:
			add(HeaderUpTarget, HeaderUpVersion)
		case Turbo:
			add(HeaderTurboFrame)
		}
	}
	return out
}
