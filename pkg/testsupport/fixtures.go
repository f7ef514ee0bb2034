package testsupport

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-hyperdemo/pkg/render/template/pongo"
)

// FixedTime is the instant FixedClock returns. Tests that assert rendered
// timestamps use it so goldens stay stable.
var FixedTime = time.Date(2024, time.March, 14, 15, 9, 26, 0, time.UTC)

// FixedClock returns FixedTime on every call.
func FixedClock() time.Time {
	return FixedTime
}

// NewEngine builds a pongo engine over fsys, failing the test on error.
func NewEngine(t *testing.T, fsys fs.FS, opts ...pongo.Option) *pongo.Engine {
	t.Helper()

	opts = append([]pongo.Option{pongo.WithFS(fsys)}, opts...)
	engine, err := pongo.New(opts...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}
