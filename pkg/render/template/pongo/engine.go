package pongo

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-hyperdemo/pkg/render/template"
)

// ClockLayout is the timestamp layout used by the clock filter.
const ClockLayout = "2006-01-02 15:04:05 MST"

const defaultExtension = ".tpl"

// Option configures the engine before construction.
type Option func(*options)

type options struct {
	baseDir   string
	files     fs.FS
	extension string
	globals   map[string]any
}

// WithBaseDir loads templates from a directory on disk. When WithFS is also
// given, the directory wins for names present in both.
func WithBaseDir(dir string) Option {
	return func(o *options) {
		o.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS loads templates from files.
func WithFS(files fs.FS) Option {
	return func(o *options) {
		o.files = files
	}
}

// WithExtension sets the suffix appended to template names. Blank keeps ".tpl".
func WithExtension(ext string) Option {
	return func(o *options) {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			return
		}
		if ext[0] != '.' {
			ext = "." + ext
		}
		o.extension = ext
	}
}

// WithGlobalData seeds values every template can read.
func WithGlobalData(data map[string]any) Option {
	return func(o *options) {
		if o.globals == nil {
			o.globals = make(map[string]any, len(data))
		}
		for key, value := range data {
			o.globals[key] = value
		}
	}
}

// Engine renders named templates from a pongo2 template set and caches the
// parsed result until Reset.
type Engine struct {
	mu    sync.RWMutex
	set   *pongo2.TemplateSet
	cache map[string]*pongo2.Template
	ext   string
}

var _ template.TemplateRenderer = (*Engine)(nil)

// New builds an Engine. WithBaseDir or WithFS is required.
func New(opts ...Option) (*Engine, error) {
	o := options{extension: defaultExtension}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	var loaders []pongo2.TemplateLoader
	if o.baseDir != "" {
		local, err := pongo2.NewLocalFileSystemLoader(o.baseDir)
		if err != nil {
			return nil, fmt.Errorf("pongo: template dir %q: %w", o.baseDir, err)
		}
		loaders = append(loaders, local)
	}
	if o.files != nil {
		loaders = append(loaders, pongo2.NewFSLoader(o.files))
	}
	if len(loaders) == 0 {
		return nil, errors.New("pongo: no template source, use WithBaseDir or WithFS")
	}

	registerFilters()

	e := &Engine{
		set:   pongo2.NewSet("hyperdemo", loaders...),
		cache: make(map[string]*pongo2.Template),
		ext:   o.extension,
	}
	if err := e.GlobalContext(o.globals); err != nil {
		return nil, err
	}
	return e, nil
}

// Extension is the suffix appended to template names.
func (e *Engine) Extension() string {
	if e == nil {
		return ""
	}
	return e.ext
}

// RenderTemplate renders name with data. The extension is appended unless
// name already ends with it. Output is returned and also written to each
// non-nil writer in out.
func (e *Engine) RenderTemplate(name string, data map[string]any, out ...io.Writer) (string, error) {
	if e == nil || e.set == nil {
		return "", errors.New("pongo: engine is nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("pongo: template name required")
	}
	if !strings.HasSuffix(name, e.ext) {
		name += e.ext
	}

	tmpl, err := e.lookup(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	e.mu.RLock()
	err = tmpl.ExecuteWriter(pongo2.Context(data), &buf)
	e.mu.RUnlock()
	if err != nil {
		return "", fmt.Errorf("pongo: execute %q: %w", name, err)
	}

	rendered := buf.String()
	for _, w := range out {
		if w == nil {
			continue
		}
		if _, err := io.WriteString(w, rendered); err != nil {
			return "", err
		}
	}
	return rendered, nil
}

// GlobalContext merges data into the values shared by every render.
func (e *Engine) GlobalContext(data map[string]any) error {
	if e == nil || e.set == nil {
		return errors.New("pongo: engine is nil")
	}
	if len(data) == 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.set.Globals == nil {
		e.set.Globals = make(pongo2.Context, len(data))
	}
	e.set.Globals.Update(pongo2.Context(data))
	return nil
}

// Reset drops parsed templates so the next render reads them again.
func (e *Engine) Reset() {
	if e == nil {
		return
	}
	e.mu.Lock()
	e.cache = make(map[string]*pongo2.Template)
	e.mu.Unlock()
}

func (e *Engine) lookup(name string) (*pongo2.Template, error) {
	e.mu.RLock()
	tmpl, ok := e.cache[name]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if tmpl, ok := e.cache[name]; ok {
		return tmpl, nil
	}
	tmpl, err := e.set.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("pongo: load %q: %w", name, err)
	}
	e.cache[name] = tmpl
	return tmpl, nil
}

// pongo2 keeps filters in a process-wide registry.
var filtersOnce sync.Once

func registerFilters() {
	filtersOnce.Do(func() {
		if !pongo2.FilterExists("clock") {
			_ = pongo2.RegisterFilter("clock", filterClock)
		}
	})
}

// filterClock formats a time.Time with ClockLayout, or with the layout given
// as the filter argument. Anything else renders as its string form.
func filterClock(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	t, ok := in.Interface().(time.Time)
	if !ok {
		return pongo2.AsValue(in.String()), nil
	}
	layout := ClockLayout
	if param != nil && param.IsString() && param.String() != "" {
		layout = param.String()
	}
	return pongo2.AsValue(t.Format(layout)), nil
}
