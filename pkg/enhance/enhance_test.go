package enhance

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		libs    []Library
		want    Client
	}{
		{
			name: "plain browser request",
			want: Client{},
		},
		{
			name:    "htmx request",
			headers: map[string]string{HeaderHXRequest: "true", HeaderHXTarget: "content"},
			want:    Client{Library: HTMX, Target: "content"},
		},
		{
			name:    "htmx marker is case insensitive",
			headers: map[string]string{HeaderHXRequest: "TRUE"},
			want:    Client{Library: HTMX},
		},
		{
			name:    "htmx marker must be true",
			headers: map[string]string{HeaderHXRequest: "false"},
			want:    Client{},
		},
		{
			name:    "htmx boosted navigation",
			headers: map[string]string{HeaderHXRequest: "true", HeaderHXBoosted: "true"},
			want:    Client{Library: HTMX, Boosted: true},
		},
		{
			name:    "unpoly target",
			headers: map[string]string{HeaderUpTarget: "#content"},
			want:    Client{Library: Unpoly, Target: "#content"},
		},
		{
			name:    "unpoly version only",
			headers: map[string]string{HeaderUpVersion: "3.8.0"},
			want:    Client{Library: Unpoly},
		},
		{
			name:    "turbo frame",
			headers: map[string]string{HeaderTurboFrame: "content"},
			want:    Client{Library: Turbo, Target: "content"},
		},
		{
			name:    "turbo drive submission outside a frame",
			headers: map[string]string{"Accept": "text/vnd.turbo-stream.html, text/html"},
			want:    Client{},
		},
		{
			name:    "restricted to unpoly ignores htmx",
			headers: map[string]string{HeaderHXRequest: "true"},
			libs:    []Library{Unpoly},
			want:    Client{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/greet", nil)
			for key, value := range tt.headers {
				req.Header.Set(key, value)
			}
			got := Detect(req, tt.libs...)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("client mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClientEnhanced(t *testing.T) {
	if (Client{}).Enhanced() {
		t.Fatalf("zero client must not be enhanced")
	}
	if !(Client{Library: HTMX}).Enhanced() {
		t.Fatalf("htmx client must be enhanced")
	}
	if (Client{Library: HTMX, Boosted: true}).Enhanced() {
		t.Fatalf("boosted navigation expects a full page")
	}
}

func TestDetect_NilRequest(t *testing.T) {
	if got := Detect(nil); got.Enhanced() {
		t.Fatalf("nil request must not be enhanced: %#v", got)
	}
}

func TestParseLibrary(t *testing.T) {
	if lib, ok := ParseLibrary(" HTMX "); !ok || lib != HTMX {
		t.Fatalf("expected htmx, got %q %v", lib, ok)
	}
	if _, ok := ParseLibrary("jquery"); ok {
		t.Fatalf("unexpected library match")
	}
}

func TestVaryHeaders(t *testing.T) {
	got := VaryHeaders(HTMX, Turbo, HTMX)
	want := []string{HeaderHXRequest, HeaderHXBoosted, HeaderTurboFrame}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("vary mismatch (-want +got):\n%s", diff)
	}
	if all := VaryHeaders(); len(all) != 5 {
		t.Fatalf("expected 5 headers for all libraries, got %v", all)
	}
}
