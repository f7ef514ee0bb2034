package view

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-hyperdemo/pkg/render/template"
)

var (
	// ErrFragmentNotFound is returned when a fragment target names an element
	// the template does not contain.
	ErrFragmentNotFound = errors.New("view: fragment not found")
	// ErrInvalidTarget is returned for zero or incomplete targets.
	ErrInvalidTarget = errors.New("view: invalid target")
)

// Options configures page composition.
type Options struct {
	// Title is the default document title when the context carries none.
	Title string
	// Scripts lists enhancement scripts for layouts. Entries naming a theme
	// asset key are resolved through the theme; anything else is used as-is.
	Scripts []string
	Theme   *theme.RendererConfig
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{Title: "Hypermedia demo"}
}

func WithTitle(title string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Title = title
	}
}

func WithScripts(scripts ...string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Scripts = append([]string(nil), scripts...)
	}
}

func WithTheme(cfg *theme.RendererConfig) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Theme = cfg
	}
}

// Renderer composes pages and extracts fragments through a template engine.
// It holds no per-request state and is safe for concurrent use.
type Renderer struct {
	engine  template.TemplateRenderer
	opts    Options
	scripts []string
}

func NewRenderer(engine template.TemplateRenderer, fns ...OptionFn) *Renderer {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if strings.TrimSpace(opts.Title) == "" {
		opts.Title = DefaultOptions().Title
	}
	return &Renderer{
		engine:  engine,
		opts:    opts,
		scripts: resolveScripts(opts.Scripts, opts.Theme),
	}
}

// Render writes target rendered with data to w. Nothing is written when
// rendering fails.
func (r *Renderer) Render(ctx context.Context, target Target, data Context, w io.Writer) error {
	out, err := r.RenderString(ctx, target, data)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// RenderString renders target with data and returns the markup.
func (r *Renderer) RenderString(ctx context.Context, target Target, data Context) (string, error) {
	if r == nil || r.engine == nil {
		return "", errors.New("view: renderer has no engine")
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return "", err
		}
	}
	if !target.Valid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidTarget, target)
	}

	switch target.Kind() {
	case KindFragment:
		return r.renderFragment(target, data)
	default:
		return r.renderPage(target, data)
	}
}

// LayoutFor reports the layout a page target renders into after theme
// template overrides are applied.
func (r *Renderer) LayoutFor(target Target) string {
	layout := target.Layout()
	if r == nil || r.opts.Theme == nil {
		return layout
	}
	if override := strings.TrimSpace(r.opts.Theme.Partials[layout]); override != "" {
		return override
	}
	return layout
}

func (r *Renderer) renderPage(target Target, data Context) (string, error) {
	body, err := r.engine.RenderTemplate(target.Template(), map[string]any(data))
	if err != nil {
		return "", fmt.Errorf("view: render %s: %w", target, err)
	}

	layoutData := data.Clone()
	layoutData[KeyBody] = body
	if layoutData.String(KeyTitle) == "" {
		layoutData[KeyTitle] = r.opts.Title
	}
	layoutData[KeyScripts] = append([]string(nil), r.scripts...)
	layoutData[KeyTheme] = themeContext(r.opts.Theme)

	var buf bytes.Buffer
	layout := r.LayoutFor(target)
	if _, err := r.engine.RenderTemplate(layout, map[string]any(layoutData), &buf); err != nil {
		return "", fmt.Errorf("view: render layout %q for %s: %w", layout, target, err)
	}
	return buf.String(), nil
}

func (r *Renderer) renderFragment(target Target, data Context) (string, error) {
	markup, err := r.engine.RenderTemplate(target.Template(), map[string]any(data))
	if err != nil {
		return "", fmt.Errorf("view: render %s: %w", target, err)
	}
	fragment, err := ExtractFragment(markup, target.FragmentID())
	if err != nil {
		return "", fmt.Errorf("view: %s: %w", target, err)
	}
	return fragment, nil
}

func resolveScripts(scripts []string, cfg *theme.RendererConfig) []string {
	out := make([]string, 0, len(scripts))
	for _, script := range scripts {
		script = strings.TrimSpace(script)
		if script == "" {
			continue
		}
		if cfg != nil && cfg.AssetURL != nil {
			if resolved := cfg.AssetURL(script); resolved != "" {
				script = resolved
			}
		}
		out = append(out, script)
	}
	return out
}
