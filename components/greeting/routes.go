package greeting

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"code.soquee.net/mux"
)

// Route path segments relative to the base path.
const (
	RouteHome  = "/"
	RouteGreet = "/greet"
)

// MountPath returns the full path for routePath under basePath.
func MountPath(basePath, routePath string) string {
	basePath = strings.TrimSpace(basePath)
	routePath = strings.TrimSpace(routePath)

	if routePath == "" {
		routePath = "/"
	}
	if !strings.HasPrefix(routePath, "/") {
		routePath = "/" + routePath
	}

	if basePath == "" || basePath == "/" {
		return routePath
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	basePath = strings.TrimRight(basePath, "/")
	if routePath == "/" {
		return basePath
	}
	return basePath + routePath
}

// URLs maps the names templates use for links to mounted paths.
func URLs(opts Options) map[string]string {
	opts = NewOptions(func(o *Options) { *o = opts })
	urls := map[string]string{
		"home":  MountPath(opts.BasePath, RouteHome),
		"greet": MountPath(opts.BasePath, RouteGreet),
	}
	for id := range opts.LazyFragments {
		urls[id] = MountPath(opts.BasePath, id)
	}
	return urls
}

// Routes returns mux options registering every handler. GET routes also
// answer HEAD.
func (h *Handlers) Routes() ([]mux.Option, error) {
	if h == nil || h.renderer == nil {
		return nil, fmt.Errorf("greeting: missing renderer")
	}
	base := h.opts.BasePath

	routes := []mux.Option{}
	get := func(path string, fn http.HandlerFunc) {
		routes = append(routes,
			mux.HandleFunc(http.MethodGet, path, fn),
			mux.HandleFunc(http.MethodHead, path, fn),
		)
	}

	get(MountPath(base, RouteHome), h.Home)
	get(MountPath(base, RouteGreet), h.GreetForm)
	routes = append(routes, mux.HandleFunc(http.MethodPost, MountPath(base, RouteGreet), h.SubmitGreeting))

	ids := h.greeter.LazyFragmentIDs()
	sort.Strings(ids)
	for _, id := range ids {
		path := MountPath(base, id)
		if path == MountPath(base, RouteGreet) || path == MountPath(base, RouteHome) {
			return nil, fmt.Errorf("greeting: lazy fragment %q collides with a page route", id)
		}
		get(path, h.LazyFragment(id))
	}
	return routes, nil
}
