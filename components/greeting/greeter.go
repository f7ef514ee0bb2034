package greeting

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-hyperdemo/pkg/view"
)

// ErrUnknownFragment is returned by RenderLazyFragment for ids that were not
// registered.
var ErrUnknownFragment = errors.New("greeting: unknown fragment")

// Result is what an operation decided to render.
type Result struct {
	Target  view.Target
	Context view.Context
}

// Greeter implements the page operations without any HTTP types, so every
// routing decision can be tested directly.
type Greeter struct {
	opts Options
}

// NewGreeter builds a Greeter from DefaultOptions overridden by fns.
func NewGreeter(fns ...OptionFn) *Greeter {
	return &Greeter{opts: NewOptions(fns...)}
}

// RenderHome returns the home page with the welcome message and the current
// time.
func (g *Greeter) RenderHome() Result {
	return Result{
		Target: g.opts.pageTarget(TemplateHome),
		Context: view.Context{
			view.KeyMessage: g.opts.Welcome,
			view.KeyTime:    g.opts.Now(),
		},
	}
}

// RenderGreetForm returns the greet page pre-filled with the default name,
// used when the page is reached by navigation rather than a submission.
func (g *Greeter) RenderGreetForm() Result {
	return Result{
		Target:  g.opts.pageTarget(TemplateGreet),
		Context: greetingContext(g.opts.DefaultName, g.opts.Now()),
	}
}

// SubmitGreeting greets name. Enhanced clients get only the content fragment
// of the greet template; everyone else gets the full page. name is not
// validated and may be empty.
func (g *Greeter) SubmitGreeting(name string, enhanced bool) Result {
	if g.opts.SanitizeInput {
		name = sanitizeName(name)
	}
	data := greetingContext(name, g.opts.Now())

	target := g.opts.pageTarget(TemplateGreet)
	if enhanced {
		target = view.Fragment(TemplateGreet, FragmentContent)
	}
	return Result{Target: target, Context: data}
}

// RenderLazyFragment returns the registered fragment id for deferred loading.
// The result depends on id alone.
func (g *Greeter) RenderLazyFragment(id string) (Result, error) {
	id = strings.TrimSpace(id)
	template, ok := g.opts.LazyFragments[id]
	if !ok || id == "" {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownFragment, id)
	}
	return Result{
		Target:  view.Fragment(template, id),
		Context: view.NewContext(),
	}, nil
}

// LazyFragmentIDs lists registered lazy fragment ids in no particular order.
func (g *Greeter) LazyFragmentIDs() []string {
	ids := make([]string, 0, len(g.opts.LazyFragments))
	for id := range g.opts.LazyFragments {
		ids = append(ids, id)
	}
	return ids
}

// Greeting formats the greeting for name.
func Greeting(name string) string {
	return "Hello " + name
}

func greetingContext(name string, now time.Time) view.Context {
	return view.Context{
		view.KeyGreeting: Greeting(name),
		view.KeyTime:     now,
		view.KeyName:     name,
	}
}
