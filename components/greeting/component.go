package greeting

import (
	"net/http"

	"code.soquee.net/mux"
)

// Component bundles the greeting pages, their configuration and routing.
type Component struct {
	opts Options
}

// New constructs a component with default options plus any overrides.
func New(fns ...OptionFn) *Component {
	return &Component{opts: NewOptions(fns...)}
}

// Options returns a copy of the component configuration.
func (c *Component) Options() Options {
	if c == nil {
		return DefaultOptions()
	}
	return NewOptions(func(o *Options) { *o = c.opts })
}

// Greeter returns the transport-free operations for this configuration.
func (c *Component) Greeter() *Greeter {
	return &Greeter{opts: c.Options()}
}

// URLs returns the link map layouts and pages expect under the "urls" key.
func (c *Component) URLs() map[string]string {
	return URLs(c.Options())
}

// Handler returns an http.Handler serving every route of the component.
// Unknown paths get 404 and known paths with the wrong method get 405.
func (c *Component) Handler(renderer Renderer, extra ...mux.Option) (http.Handler, error) {
	handlers := NewHandlers(renderer, c.Options())
	routes, err := handlers.Routes()
	if err != nil {
		return nil, err
	}
	return mux.New(append(routes, extra...)...), nil
}
