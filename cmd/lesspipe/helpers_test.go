package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	lesspipe "github.com/alnah/go-lesspipe"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Fake compiler and in-memory environment
// ---------------------------------------------------------------------------

// fakeCompiler stands in for lessc. It echoes a fixed rule and reports the
// input plus any configured imports as map sources. Safe for concurrent use.
type fakeCompiler struct {
	mu      sync.Mutex
	imports map[string][]string // input base name -> sources relative to the input dir
	errs    map[string]error    // input base name -> error to return
	calls   []lesspipe.CompileOptions
}

func newFakeCompiler() *fakeCompiler {
	return &fakeCompiler{
		imports: make(map[string][]string),
		errs:    make(map[string]error),
	}
}

func (f *fakeCompiler) Compile(_ context.Context, _ string, opts lesspipe.CompileOptions) (lesspipe.Stylesheet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, opts)

	name := filepath.Base(opts.Filename)
	if err := f.errs[name]; err != nil {
		return lesspipe.Stylesheet{}, err
	}

	sources := append([]string{name}, f.imports[name]...)
	m, _ := json.Marshal(map[string]any{
		"version":  3,
		"sources":  sources,
		"names":    []string{},
		"mappings": "AAAA",
	})
	return lesspipe.Stylesheet{CSS: ".rendered {\n  color: red;\n}\n", Map: string(m)}, nil
}

func (f *fakeCompiler) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// testEnv bundles an Environment with its captured output.
type testEnv struct {
	*Environment
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
	compiler *fakeCompiler
}

// newTestEnv creates an environment over an in-memory filesystem holding files.
func newTestEnv(t *testing.T, files map[string]string) *testEnv {
	t.Helper()

	fs := afero.NewMemMapFs()
	for path, content := range files {
		if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", path, err)
		}
	}

	var stdout, stderr bytes.Buffer
	compiler := newFakeCompiler()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return &testEnv{
		Environment: &Environment{
			Now:      func() time.Time { return clock },
			Stdout:   &stdout,
			Stderr:   &stderr,
			Fs:       fs,
			Compiler: compiler,
		},
		stdout:   &stdout,
		stderr:   &stderr,
		compiler: compiler,
	}
}

// readFile returns the content of path in the test filesystem, failing the test if absent.
func (e *testEnv) readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := afero.ReadFile(e.Fs, path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

// exists reports whether path exists in the test filesystem.
func (e *testEnv) exists(path string) bool {
	ok, _ := afero.Exists(e.Fs, path)
	return ok
}
