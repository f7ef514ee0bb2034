package greeting

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-hyperdemo/pkg/enhance"
	"github.com/goliatone/go-hyperdemo/pkg/view"
)

// Template and fragment names used by the built-in pages.
const (
	TemplateHome      = "home"
	TemplateGreet     = "greet"
	TemplateFragments = "fragments"
	FragmentContent   = "content"
	FragmentLogo      = "logo"
	DefaultLayout     = "layouts/base"
)

// GuardFunc authorizes a request. A non-nil error rejects it; errors that
// implement HTTPError choose the status.
type GuardFunc func(r *http.Request) error

// Options configures the greeting component.
type Options struct {
	BasePath    string
	Layout      string
	Welcome     string
	DefaultName string
	NameParam   string
	// SanitizeInput strips markup from submitted names before they reach the
	// render context. Output is escaped by the template engine either way.
	SanitizeInput bool
	// Markers restricts which enhancement libraries count as enhanced
	// clients. Empty means all supported libraries.
	Markers []enhance.Library
	// LazyFragments maps a fragment id, which is also its route, to the
	// template containing it.
	LazyFragments map[string]string
	Now           func() time.Time
	Guard         GuardFunc
	Logger        *zap.Logger
}

// OptionFn mutates Options during NewOptions.
type OptionFn func(*Options)

// DefaultOptions returns the settings used when no OptionFn overrides them.
func DefaultOptions() Options {
	return Options{
		BasePath:    "/",
		Layout:      DefaultLayout,
		Welcome:     "Welcome to the hypermedia demo",
		DefaultName: "World",
		NameParam:   "name",
		LazyFragments: map[string]string{
			FragmentLogo: TemplateFragments,
		},
		Now:    time.Now,
		Logger: zap.NewNop(),
	}
}

// NewOptions applies fns over DefaultOptions and restores defaults for any
// field left empty.
func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	defaults := DefaultOptions()
	if strings.TrimSpace(opts.BasePath) == "" {
		opts.BasePath = defaults.BasePath
	}
	if strings.TrimSpace(opts.Layout) == "" {
		opts.Layout = defaults.Layout
	}
	if strings.TrimSpace(opts.Welcome) == "" {
		opts.Welcome = defaults.Welcome
	}
	if opts.DefaultName == "" {
		opts.DefaultName = defaults.DefaultName
	}
	if strings.TrimSpace(opts.NameParam) == "" {
		opts.NameParam = defaults.NameParam
	}
	if opts.LazyFragments == nil {
		opts.LazyFragments = defaults.LazyFragments
	}
	opts.LazyFragments = cloneFragments(opts.LazyFragments)
	if opts.Markers != nil {
		opts.Markers = append([]enhance.Library{}, opts.Markers...)
	}
	if opts.Now == nil {
		opts.Now = defaults.Now
	}
	if opts.Logger == nil {
		opts.Logger = defaults.Logger
	}
	return opts
}

// WithBasePath mounts every route under path.
func WithBasePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.BasePath = path
	}
}

// WithLayout sets the layout full pages render into.
func WithLayout(layout string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Layout = layout
	}
}

// WithWelcome sets the home page message.
func WithWelcome(message string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Welcome = message
	}
}

// WithDefaultName sets the name the greet form starts with.
func WithDefaultName(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.DefaultName = name
	}
}

// WithNameParam sets the form field read on submission.
func WithNameParam(param string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.NameParam = param
	}
}

// WithSanitizeInput toggles markup stripping of submitted names.
func WithSanitizeInput(enabled bool) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.SanitizeInput = enabled
	}
}

// WithMarkers limits which libraries count as enhanced clients.
func WithMarkers(libs ...enhance.Library) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Markers = append([]enhance.Library{}, libs...)
	}
}

// WithLazyFragment registers fragment id from template, served at /<id>.
func WithLazyFragment(id, template string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		id = strings.Trim(strings.TrimSpace(id), "/")
		template = strings.TrimSpace(template)
		if id == "" || template == "" {
			return
		}
		o.LazyFragments = cloneFragments(o.LazyFragments)
		o.LazyFragments[id] = template
	}
}

// WithClock overrides the time source, mostly for tests.
func WithClock(now func() time.Time) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Now = now
	}
}

// WithGuard runs guard before every handler.
func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

// WithLogger sets the logger for render failures and submissions.
func WithLogger(logger *zap.Logger) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Logger = logger
	}
}

func (o Options) pageTarget(template string) view.Target {
	return view.Page(template, o.Layout)
}

func cloneFragments(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for id, template := range in {
		out[id] = template
	}
	return out
}
