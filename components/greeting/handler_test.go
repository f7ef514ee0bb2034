package greeting

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	hyperdemo "github.com/goliatone/go-hyperdemo"
	"github.com/goliatone/go-hyperdemo/pkg/enhance"
	"github.com/goliatone/go-hyperdemo/pkg/testsupport"
	"github.com/goliatone/go-hyperdemo/pkg/view"
)

const fixedClockText = "2024-03-14 15:09:26 UTC"

func TestHandler_HomePage(t *testing.T) {
	h := newTestHandler(t)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Fatalf("unexpected content type %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"<!DOCTYPE html>",
		`<h1 class="message">Welcome to the hypermedia demo</h1>`,
		`<div id="logo" hx-get="/logo"`,
		fixedClockText,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in home page:\n%s", want, body)
		}
	}
}

func TestHandler_GreetFormShowsDefaultGreeting(t *testing.T) {
	h := newTestHandler(t)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/greet", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<!DOCTYPE html>") || !strings.Contains(body, `<p class="greeting">Hello World</p>`) {
		t.Fatalf("expected full page with default greeting:\n%s", body)
	}
}

func TestHandler_PlainSubmitReturnsFullPage(t *testing.T) {
	h := newTestHandler(t)

	rec := serve(h, postGreet("Dave", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"<!DOCTYPE html>", `<p class="greeting">Hello Dave</p>`, `value="Dave"`, fixedClockText} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in page:\n%s", want, body)
		}
	}
}

func TestHandler_SubmitWithoutNameField(t *testing.T) {
	h := newTestHandler(t)

	for label, headers := range map[string]map[string]string{
		"plain":    nil,
		"enhanced": {enhance.HeaderHXRequest: "true"},
	} {
		t.Run(label, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/greet", strings.NewReader(""))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			for key, value := range headers {
				req.Header.Set(key, value)
			}

			rec := serve(h, req)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), `<p class="greeting">Hello </p>`) {
				t.Fatalf("expected empty greeting:\n%s", rec.Body.String())
			}
		})
	}
}

func TestHandler_SubmitMultipartForm(t *testing.T) {
	h := newTestHandler(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("name", "Dave"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/greet", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := serve(h, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `<p class="greeting">Hello Dave</p>`) {
		t.Fatalf("expected multipart name in greeting:\n%s", rec.Body.String())
	}
}

func TestHandler_EnhancedSubmitReturnsFragment(t *testing.T) {
	markers := map[string]map[string]string{
		"htmx":   {enhance.HeaderHXRequest: "true"},
		"unpoly": {enhance.HeaderUpTarget: "#content"},
		"turbo":  {enhance.HeaderTurboFrame: "content"},
	}
	h := newTestHandler(t)

	for name, headers := range markers {
		t.Run(name, func(t *testing.T) {
			rec := serve(h, postGreet("Dave", headers))
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			body := rec.Body.String()
			if strings.Contains(body, "<html") || strings.Contains(body, "<form") {
				t.Fatalf("fragment must not include layout or form:\n%s", body)
			}
			if !strings.HasPrefix(body, `<turbo-frame id="content" hx-swap-oob="true">`) {
				t.Fatalf("fragment must be the content element:\n%s", body)
			}
			if !strings.Contains(body, `<p class="greeting">Hello Dave</p>`) || !strings.Contains(body, fixedClockText) {
				t.Fatalf("fragment missing greeting or time:\n%s", body)
			}
		})
	}
}

func TestHandler_EnhancedSubmitGolden(t *testing.T) {
	h := newTestHandler(t)

	got := serve(h, postGreet("Dave", map[string]string{enhance.HeaderHXRequest: "true"})).Body.String()
	path := filepath.Join("testdata", "greet-fragment.golden")
	if testsupport.WriteMaybeGolden(t, path, []byte(got)) {
		return
	}
	want := testsupport.MustReadGoldenString(t, path)
	if diff := testsupport.CompareGolden(want, got); diff != "" {
		t.Fatalf("fragment mismatch (-want +got):\n%s", diff)
	}
}

func TestHandler_BoostedSubmitReturnsFullPage(t *testing.T) {
	h := newTestHandler(t)

	rec := serve(h, postGreet("Dave", map[string]string{
		enhance.HeaderHXRequest: "true",
		enhance.HeaderHXBoosted: "true",
	}))
	if !strings.Contains(rec.Body.String(), "<!DOCTYPE html>") {
		t.Fatalf("boosted navigation expects a full page:\n%s", rec.Body.String())
	}
}

func TestHandler_TurboDriveSubmitReturnsFullPage(t *testing.T) {
	h := newTestHandler(t)

	rec := serve(h, postGreet("Dave", map[string]string{"Accept": "text/vnd.turbo-stream.html, text/html, application/xhtml+xml"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<!DOCTYPE html>") {
		t.Fatalf("expected a full page without a Turbo-Frame header:\n%s", rec.Body.String())
	}
}

func TestHandler_PageAndFragmentAgree(t *testing.T) {
	h := newTestHandler(t)

	for _, name := range []string{"Dave", "", "<b>bold</b> & <i>co</i>"} {
		page := serve(h, postGreet(name, nil)).Body.String()
		frag := serve(h, postGreet(name, map[string]string{enhance.HeaderHXRequest: "true"})).Body.String()

		fromPage, err := view.ExtractFragment(page, FragmentContent)
		if err != nil {
			t.Fatalf("%q: extract from page: %v", name, err)
		}
		if fromPage != frag {
			t.Fatalf("%q: fragment differs from page content\npage: %s\nfrag: %s", name, fromPage, frag)
		}
		if strings.Contains(frag, "<b>") {
			t.Fatalf("%q: user markup must be escaped:\n%s", name, frag)
		}
	}
}

func TestHandler_LazyLogoFragment(t *testing.T) {
	h := newTestHandler(t)

	first := serve(h, httptest.NewRequest(http.MethodGet, "/logo", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", first.Code)
	}
	body := first.Body.String()
	if !strings.HasPrefix(body, `<div id="logo" class="logo">`) || strings.Contains(body, "<html") {
		t.Fatalf("unexpected logo fragment:\n%s", body)
	}

	req := httptest.NewRequest(http.MethodGet, "/logo", nil)
	req.Header.Set(enhance.HeaderHXRequest, "true")
	second := serve(h, req)
	if second.Body.String() != body {
		t.Fatalf("logo fragment must not depend on request headers")
	}
}

func TestHandler_HeadHasNoBody(t *testing.T) {
	h := newTestHandler(t)

	rec := serve(h, httptest.NewRequest(http.MethodHead, "/greet", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("HEAD must not write a body, got %d bytes", rec.Body.Len())
	}
}

func TestHandler_UnknownRouteAndMethod(t *testing.T) {
	h := newTestHandler(t)

	if rec := serve(h, httptest.NewRequest(http.MethodGet, "/nope", nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := serve(h, httptest.NewRequest(http.MethodDelete, "/greet", nil)); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestHandler_VaryHeaders(t *testing.T) {
	h := newTestHandler(t, WithMarkers(enhance.HTMX))

	rec := serve(h, postGreet("Dave", nil))
	if got := rec.Header().Get("Vary"); got != enhance.HeaderHXRequest+", "+enhance.HeaderHXBoosted {
		t.Fatalf("unexpected Vary header %q", got)
	}

	// Unpoly markers are ignored once markers are restricted to htmx.
	rec = serve(h, postGreet("Dave", map[string]string{enhance.HeaderUpTarget: "#content"}))
	if !strings.Contains(rec.Body.String(), "<!DOCTYPE html>") {
		t.Fatalf("expected a full page for an unrecognized marker")
	}
}

func TestHandler_GuardRejects(t *testing.T) {
	h := newTestHandler(t, WithGuard(func(r *http.Request) error {
		if r.Header.Get("X-Demo-Key") == "" {
			return StatusError{Code: http.StatusUnauthorized, Err: errors.New("missing key")}
		}
		return nil
	}))

	if rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil)); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Demo-Key", "k")
	if rec := serve(h, req); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with key, got %d", rec.Code)
	}
}

func TestHandler_GuardDefaultsToForbidden(t *testing.T) {
	h := newTestHandler(t, WithGuard(func(*http.Request) error { return errors.New("nope") }))

	if rec := serve(h, httptest.NewRequest(http.MethodGet, "/logo", nil)); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

type failingRenderer struct{}

func (failingRenderer) Render(context.Context, view.Target, view.Context, io.Writer) error {
	return errors.New("boom")
}

func TestHandler_RenderFailureIs500AndLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	comp := New(WithLogger(zap.New(core)))
	h, err := comp.Handler(failingRenderer{})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	rec := serve(h, postGreet("Dave", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "Dave") {
		t.Fatalf("partial output leaked into error response")
	}
	if logs.FilterMessage("render failed").Len() != 1 {
		t.Fatalf("expected one logged render failure, got %v", logs.All())
	}
}

func TestHandler_BasePath(t *testing.T) {
	h := newTestHandler(t, WithBasePath("/demo/"))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/demo", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `hx-get="/demo/logo"`) {
		t.Fatalf("expected links under base path:\n%s", rec.Body.String())
	}
	if rec := serve(h, httptest.NewRequest(http.MethodGet, "/demo/logo", nil)); rec.Code != http.StatusOK {
		t.Fatalf("expected logo under base path, got %d", rec.Code)
	}
}

func TestRoutes_RejectsCollidingFragment(t *testing.T) {
	comp := New(WithLazyFragment("greet", TemplateFragments))
	if _, err := comp.Handler(failingRenderer{}); err == nil {
		t.Fatalf("expected collision error")
	}
	if _, err := New().Handler(nil); err == nil {
		t.Fatalf("expected missing renderer error")
	}
}

func TestMountPathAndURLs(t *testing.T) {
	cases := map[[2]string]string{
		{"", "/"}:           "/",
		{"/", "/greet"}:     "/greet",
		{"demo", "greet"}:   "/demo/greet",
		{"/demo/", "/"}:     "/demo",
		{"/demo", "logo"}:   "/demo/logo",
		{" /a/b ", "/logo"}: "/a/b/logo",
	}
	for in, want := range cases {
		if got := MountPath(in[0], in[1]); got != want {
			t.Fatalf("MountPath(%q, %q) = %q, want %q", in[0], in[1], got, want)
		}
	}

	urls := New(WithBasePath("/demo")).URLs()
	if urls["home"] != "/demo" || urls["greet"] != "/demo/greet" || urls["logo"] != "/demo/logo" {
		t.Fatalf("unexpected urls %v", urls)
	}
}

func newTestHandler(t *testing.T, fns ...OptionFn) http.Handler {
	t.Helper()

	comp := New(append([]OptionFn{WithClock(testsupport.FixedClock)}, fns...)...)
	engine := testsupport.NewEngine(t, hyperdemo.EmbeddedTemplates())
	if err := engine.GlobalContext(map[string]any{"urls": comp.URLs()}); err != nil {
		t.Fatalf("global context: %v", err)
	}
	h, err := comp.Handler(view.NewRenderer(engine))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	return h
}

func postGreet(name string, headers map[string]string) *http.Request {
	form := url.Values{"name": {name}}
	req := httptest.NewRequest(http.MethodPost, "/greet", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
