package greeting

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-hyperdemo/pkg/enhance"
	"github.com/goliatone/go-hyperdemo/pkg/view"
)

type HTTPError interface {
	error
	StatusCode() int
}

type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// Renderer renders a target into w. *view.Renderer satisfies it.
type Renderer interface {
	Render(ctx context.Context, target view.Target, data view.Context, w io.Writer) error
}

// Handlers adapts a Greeter to net/http.
type Handlers struct {
	greeter  *Greeter
	renderer Renderer
	opts     Options
	vary     string
}

// NewHandlers builds handlers from a pre-constructed Options value.
func NewHandlers(renderer Renderer, opts Options) *Handlers {
	opts = NewOptions(func(o *Options) { *o = opts })
	return &Handlers{
		greeter:  &Greeter{opts: opts},
		renderer: renderer,
		opts:     opts,
		vary:     strings.Join(enhance.VaryHeaders(opts.Markers...), ", "),
	}
}

// Greeter exposes the operations behind the handlers.
func (h *Handlers) Greeter() *Greeter {
	return h.greeter
}

// Home serves the home page.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r) {
		return
	}
	h.respond(w, r, h.greeter.RenderHome())
}

// GreetForm serves the greet page with the default greeting.
func (h *Handlers) GreetForm(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r) {
		return
	}
	h.respond(w, r, h.greeter.RenderGreetForm())
}

// SubmitGreeting serves the greeting for the posted name. Whether the
// response is a page or a fragment is decided here, once, from the request
// markers.
func (h *Handlers) SubmitGreeting(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r) {
		return
	}
	client := enhance.Detect(r, h.opts.Markers...)
	name := r.PostFormValue(h.opts.NameParam)

	result := h.greeter.SubmitGreeting(name, client.Enhanced())
	h.opts.Logger.Debug("greeting submitted",
		zap.String("target", result.Target.String()),
		zap.String("library", string(client.Library)),
		zap.String("client_target", client.Target),
	)
	h.respond(w, r, result)
}

// LazyFragment returns a handler serving fragment id.
func (h *Handlers) LazyFragment(id string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.allow(w, r) {
			return
		}
		result, err := h.greeter.RenderLazyFragment(id)
		if errors.Is(err, ErrUnknownFragment) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.respond(w, r, result)
	}
}

func (h *Handlers) allow(w http.ResponseWriter, r *http.Request) bool {
	if r == nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return false
	}
	if h.opts.Guard == nil {
		return true
	}
	if err := h.opts.Guard(r); err != nil {
		writeGuardError(w, err)
		return false
	}
	return true
}

func (h *Handlers) respond(w http.ResponseWriter, r *http.Request, result Result) {
	var buf bytes.Buffer
	if err := h.renderer.Render(r.Context(), result.Target, result.Context, &buf); err != nil {
		h.fail(w, r, err)
		return
	}

	header := w.Header()
	header.Set("Content-Type", "text/html; charset=utf-8")
	header.Set("Cache-Control", "no-cache")
	if h.vary != "" {
		header.Add("Vary", h.vary)
	}
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.opts.Logger.Warn("write response", zap.Error(err), zap.String("path", r.URL.Path))
	}
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	h.opts.Logger.Error("render failed",
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func writeGuardError(w http.ResponseWriter, err error) {
	if w == nil {
		return
	}
	code := http.StatusForbidden
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		code = httpErr.StatusCode()
		if code <= 0 {
			code = http.StatusForbidden
		}
	}
	http.Error(w, http.StatusText(code), code)
}
