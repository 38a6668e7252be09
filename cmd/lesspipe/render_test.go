package main

// Notes:
// - runRender: end-to-end through flag parsing with a fake compiler and an
//   in-memory filesystem. Real esbuild runs for --minify.
// - loadRenderConfig/mergeFlags: we test priority (flags > config > env) and
//   the auto-enable rules for --browsers and --remove-comments.
// - resolveTimeoutWithEnv: duration parsing, validation, and priority.
// Watch mode is covered by watch_test.go on the dependency index only; the
// fsnotify loop itself is not exercised here.

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	lesspipe "github.com/alnah/go-lesspipe"
	"github.com/alnah/go-lesspipe/internal/config"
)

// runRenderArgs parses args like the render command and runs it.
func runRenderArgs(t *testing.T, env *testEnv, args ...string) error {
	t.Helper()
	flags, positional, err := parseRenderFlags(args, env.Stderr)
	if err != nil {
		t.Fatalf("parseRenderFlags(%v): %v", args, err)
	}
	return runRender(context.Background(), positional, flags, env.Environment)
}

func mapSources(t *testing.T, sourceMap string) []string {
	t.Helper()
	if !gjson.Valid(sourceMap) {
		t.Fatalf("map is not valid JSON: %s", sourceMap)
	}
	var out []string
	for _, s := range gjson.Get(sourceMap, "sources").Array() {
		out = append(out, s.String())
	}
	return out
}

// ---------------------------------------------------------------------------
// TestRunRender - Success paths
// ---------------------------------------------------------------------------

func TestRunRender_SingleFile(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, map[string]string{
		"/project/styles/main.less": "a { color: red; }",
	})

	if err := runRenderArgs(t, env, "/project/styles/main.less", "-b", "/project"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	css := env.readFile(t, "/project/styles/main.css")
	if !strings.HasSuffix(css, "/*# sourceMappingURL=main.css.map */") {
		t.Errorf("CSS should end with the mapping comment, got %q", css)
	}

	sourceMap := env.readFile(t, "/project/styles/main.css.map")
	if got := mapSources(t, sourceMap); !reflect.DeepEqual(got, []string{"styles/main.less"}) {
		t.Errorf("sources = %v, want [styles/main.less]", got)
	}
	if got := gjson.Get(sourceMap, "sourcesContent.0").String(); got != "a { color: red; }" {
		t.Errorf("sourcesContent[0] = %q", got)
	}
	if got := gjson.Get(sourceMap, "file").String(); got != "main.css" {
		t.Errorf("file = %q, want main.css", got)
	}
	if env.exists("main.css.map") {
		t.Error("map should not be written to the working directory")
	}

	if !strings.Contains(env.stdout.String(), "Created /project/styles/main.css") {
		t.Errorf("stdout = %q, want Created line", env.stdout.String())
	}
}

func TestRunRender_Directory(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, map[string]string{
		"/project/src/site.less":       "@import '_vars';",
		"/project/src/_vars.less":      "@red: #f00;",
		"/project/src/pages/home.less": "body {}",
		"/project/src/notes.txt":       "ignored",
	})
	env.compiler.imports["site.less"] = []string{"_vars.less"}

	if err := runRenderArgs(t, env, "/project/src", "-o", "/project/dist", "-b", "/project", "-w", "2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"/project/dist/site.css", "/project/dist/site.css.map", "/project/dist/pages/home.css"} {
		if !env.exists(want) {
			t.Errorf("expected %s to be written", want)
		}
	}
	if env.exists("/project/dist/_vars.css") {
		t.Error("partials must not be rendered on their own")
	}
	if n := env.compiler.callCount(); n != 2 {
		t.Errorf("compiler called %d times, want 2", n)
	}

	got := mapSources(t, env.readFile(t, "/project/dist/site.css.map"))
	want := []string{"src/site.less", "src/_vars.less"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("sources = %v, want %v", got, want)
	}
	if !strings.Contains(env.stdout.String(), "2 succeeded, 0 embedded, 0 failed") {
		t.Errorf("stdout should contain summary, got %q", env.stdout.String())
	}
}

func TestRunRender_Minify(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, map[string]string{"/p/a.less": "x"})

	if err := runRenderArgs(t, env, "/p/a.less", "-b", "/p", "--minify"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	css := env.readFile(t, "/p/a.css")
	if !strings.Contains(css, ".rendered{color:red}") {
		t.Errorf("CSS not minified: %q", css)
	}
	if got := mapSources(t, env.readFile(t, "/p/a.css.map")); !reflect.DeepEqual(got, []string{"a.less"}) {
		t.Errorf("sources after minify = %v, want [a.less]", got)
	}
}

func TestRunRender_PassesCompilerOptions(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, map[string]string{"/p/a.less": "x"})

	err := runRenderArgs(t, env, "/p/a.less",
		"-I", "/vendor", "--math", "strict", "--strict-units",
		"--global-var", "brand=#333", "--modify-var", "@theme=dark")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := env.compiler.calls[0]
	if got.Filename != "/p/a.less" {
		t.Errorf("Filename = %q", got.Filename)
	}
	if !reflect.DeepEqual(got.IncludePaths, []string{"/vendor"}) {
		t.Errorf("IncludePaths = %v", got.IncludePaths)
	}
	if got.Math != "strict" || !got.StrictUnits {
		t.Errorf("Math/StrictUnits = %q/%v", got.Math, got.StrictUnits)
	}
	if got.GlobalVars["brand"] != "#333" {
		t.Errorf("GlobalVars = %v", got.GlobalVars)
	}
	if got.ModifyVars["theme"] != "dark" {
		t.Errorf("ModifyVars = %v, want leading @ trimmed", got.ModifyVars)
	}
}

// ---------------------------------------------------------------------------
// TestRunRender - Error paths
// ---------------------------------------------------------------------------

func TestRunRender_CompileError(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, map[string]string{
		"/p/main.less": "a {\n  }}\n",
		"/p/ok.less":   "b {}",
	})
	env.compiler.errs["main.less"] = &lesspipe.CompileError{
		Kind:    "ParseError",
		Message: "Unrecognised input",
		File:    "/p/main.less",
		Line:    2,
		Column:  2,
		Extract: []string{"1 a {", "2   }}"},
	}

	err := runRenderArgs(t, env, "/p", "-b", "/p")

	var bf *batchFailure
	if !errors.As(err, &bf) {
		t.Fatalf("error = %v, want *batchFailure", err)
	}
	if bf.failed != 1 || bf.total != 2 {
		t.Errorf("failed/total = %d/%d, want 1/2", bf.failed, bf.total)
	}
	if !errors.Is(err, lesspipe.ErrCompile) {
		t.Error("batch error should wrap ErrCompile")
	}
	if code := exitCodeFor(err); code != ExitCompile {
		t.Errorf("exit code = %d, want %d", code, ExitCompile)
	}

	stderr := env.stderr.String()
	for _, want := range []string{"FAILED /p/main.less", "ParseError: Unrecognised input", "> 2 |   }}", "^"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr should contain %q, got:\n%s", want, stderr)
		}
	}
	if strings.Contains(stderr, "2   }}") {
		t.Errorf("plain lessc extract should be replaced by the excerpt, got:\n%s", stderr)
	}
	if !env.exists("/p/ok.css") {
		t.Error("other files of the batch should still be rendered")
	}
}

func TestRunRender_EmbedErrors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, map[string]string{"/p/main.less": "a {}"})

	// A good build leaves a map behind.
	if err := runRenderArgs(t, env, "/p/main.less", "-b", "/p"); err != nil {
		t.Fatalf("first render: %v", err)
	}
	if !env.exists("/p/main.css.map") {
		t.Fatal("first render should write a map")
	}

	env.compiler.errs["main.less"] = errors.New(`broken "quote"`)
	if err := runRenderArgs(t, env, "/p/main.less", "-b", "/p", "--embed-errors"); err != nil {
		t.Fatalf("embedded render should not fail: %v", err)
	}

	css := env.readFile(t, "/p/main.css")
	if !strings.HasPrefix(css, "html::before{") {
		t.Errorf("CSS should be the error banner, got %q", css)
	}
	if !strings.Contains(css, `broken \"quote\"`) {
		t.Errorf("banner should carry the escaped message, got %q", css)
	}
	if env.exists("/p/main.css.map") {
		t.Error("stale map should be removed for an embedded error")
	}
	if !strings.Contains(env.stdout.String(), "Embedded /p/main.css") {
		t.Errorf("stdout = %q, want Embedded line", env.stdout.String())
	}
}

func TestRunRender_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		files    map[string]string
		args     []string
		wantErr  error
		wantCode int
	}{
		{
			name:     "no input",
			args:     []string{},
			wantErr:  ErrNoInput,
			wantCode: ExitIO,
		},
		{
			name:     "directory without stylesheets",
			files:    map[string]string{"/p/readme.md": "x"},
			args:     []string{"/p"},
			wantErr:  ErrNoInput,
			wantCode: ExitIO,
		},
		{
			name:     "missing input",
			args:     []string{"/nope.less"},
			wantErr:  os.ErrNotExist,
			wantCode: ExitIO,
		},
		{
			name:     "wrong extension",
			files:    map[string]string{"/p/a.css": "x"},
			args:     []string{"/p/a.css"},
			wantErr:  ErrInvalidExtension,
			wantCode: ExitUsage,
		},
		{
			name:     "invalid timeout",
			files:    map[string]string{"/p/a.less": "x"},
			args:     []string{"/p/a.less", "--timeout", "soon"},
			wantErr:  ErrInvalidTimeout,
			wantCode: ExitUsage,
		},
		{
			name:     "negative workers",
			files:    map[string]string{"/p/a.less": "x"},
			args:     []string{"/p/a.less", "-w", "-1"},
			wantErr:  ErrInvalidWorkerCount,
			wantCode: ExitUsage,
		},
		{
			name:     "unknown browser",
			files:    map[string]string{"/p/a.less": "x"},
			args:     []string{"/p/a.less", "--browsers", "netscape4"},
			wantErr:  lesspipe.ErrInvalidBrowser,
			wantCode: ExitUsage,
		},
		{
			name:     "invalid math",
			files:    map[string]string{"/p/a.less": "x"},
			args:     []string{"/p/a.less", "--math", "sometimes"},
			wantErr:  config.ErrInvalidValue,
			wantCode: ExitUsage,
		},
		{
			name:     "missing config",
			files:    map[string]string{"/p/a.less": "x"},
			args:     []string{"/p/a.less", "-c", "/does/not/exist.yaml"},
			wantErr:  config.ErrConfigNotFound,
			wantCode: ExitUsage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t, tt.files)
			err := runRenderArgs(t, env, tt.args...)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if code := exitCodeFor(err); code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", code, tt.wantCode)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestLoadRenderConfig - Config file, env and flag priority
// ---------------------------------------------------------------------------

func TestLoadRenderConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "lesspipe.yaml")
	yml := `
output:
  dir: public/css
  base: src
prefix:
  enabled: true
  browsers: [safari14]
less:
  includePaths: [vendor]
  globalVars:
    brand: "#111"
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	flags, _, err := parseRenderFlags([]string{
		"-c", path, "--prefix=false", "-I", "extra", "--global-var", "brand=#222", "-o", "out",
	}, &strings.Builder{})
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := loadRenderConfig(flags, &envConfig{Base: "ignored-because-config-sets-it", Lessc: "/opt/lessc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Output.Dir != "out" {
		t.Errorf("Output.Dir = %q, want flag value", cfg.Output.Dir)
	}
	if cfg.Output.Base != "src" {
		t.Errorf("Output.Base = %q, want config value over env", cfg.Output.Base)
	}
	if cfg.Less.Binary != "/opt/lessc" {
		t.Errorf("Less.Binary = %q, want env value", cfg.Less.Binary)
	}
	if cfg.Prefix.Enabled {
		t.Error("--prefix=false should disable prefixing enabled by config")
	}
	if !reflect.DeepEqual(cfg.Less.IncludePaths, []string{"vendor", "extra"}) {
		t.Errorf("IncludePaths = %v, want config then flag", cfg.Less.IncludePaths)
	}
	if cfg.Less.GlobalVars["brand"] != "#222" {
		t.Errorf("GlobalVars = %v, want flag to win", cfg.Less.GlobalVars)
	}
}

func TestLoadRenderConfig_EnvConfigPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ci.yaml")
	if err := os.WriteFile(path, []byte("minify:\n  enabled: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadRenderConfig(&renderFlags{}, &envConfig{ConfigPath: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Minify.Enabled {
		t.Error("config named by LESSPIPE_CONFIG should be loaded")
	}
}

// ---------------------------------------------------------------------------
// TestMergeFlags - CLI overrides
// ---------------------------------------------------------------------------

func TestMergeFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, cfg *config.Config)
	}{
		{
			name: "browsers enable prefixing",
			args: []string{"--browsers", "safari14,ios14"},
			check: func(t *testing.T, cfg *config.Config) {
				if !cfg.Prefix.Enabled || !reflect.DeepEqual(cfg.Prefix.Browsers, []string{"safari14", "ios14"}) {
					t.Errorf("Prefix = %+v", cfg.Prefix)
				}
			},
		},
		{
			name: "remove-comments enables minify",
			args: []string{"--remove-comments"},
			check: func(t *testing.T, cfg *config.Config) {
				if !cfg.Minify.Enabled || !cfg.Minify.RemoveAllComments {
					t.Errorf("Minify = %+v", cfg.Minify)
				}
			},
		},
		{
			name: "explicit minify=false wins over remove-comments",
			args: []string{"--remove-comments", "--minify=false"},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Minify.Enabled {
					t.Error("Minify.Enabled = true, want false")
				}
			},
		},
		{
			name: "verbose sets debug level",
			args: []string{"-v"},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Log.Level != "debug" {
					t.Errorf("Log.Level = %q", cfg.Log.Level)
				}
			},
		},
		{
			name: "quiet sets error level",
			args: []string{"-q", "--log-format", "json"},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Log.Level != "error" || cfg.Log.Format != "json" {
					t.Errorf("Log = %+v", cfg.Log)
				}
			},
		},
		{
			name: "source root may be set to empty",
			args: []string{"--source-root", ""},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Output.SourceRoot != "" {
					t.Errorf("SourceRoot = %q", cfg.Output.SourceRoot)
				}
			},
		},
		{
			name: "embed errors",
			args: []string{"--embed-errors"},
			check: func(t *testing.T, cfg *config.Config) {
				if !cfg.EmbedErrors {
					t.Error("EmbedErrors = false")
				}
			},
		},
		{
			name: "no flags keep defaults",
			args: nil,
			check: func(t *testing.T, cfg *config.Config) {
				if !reflect.DeepEqual(cfg, config.DefaultConfig()) {
					t.Errorf("cfg = %+v, want defaults", cfg)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			flags, _, err := parseRenderFlags(tt.args, &strings.Builder{})
			if err != nil {
				t.Fatal(err)
			}
			cfg := config.DefaultConfig()
			mergeFlags(flags, cfg)
			tt.check(t, cfg)
		})
	}
}

func TestMergeVars(t *testing.T) {
	t.Parallel()

	base := map[string]string{"a": "1", "b": "2"}
	got := mergeVars(base, map[string]string{"b": "3", "c": "4"})

	want := map[string]string{"a": "1", "b": "3", "c": "4"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("mergeVars() = %v, want %v", got, want)
	}
	if base["b"] != "2" {
		t.Error("mergeVars must not modify base")
	}
	if got := mergeVars(base, nil); !reflect.DeepEqual(got, base) {
		t.Errorf("mergeVars(base, nil) = %v, want base", got)
	}
}

// ---------------------------------------------------------------------------
// TestResolveTimeoutWithEnv - Timeout duration resolution with env var support
// ---------------------------------------------------------------------------

func TestResolveTimeoutWithEnv(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		flagValue   string
		envValue    time.Duration
		configValue string
		want        time.Duration
		errSubstr   string
	}{
		{"all empty means no timeout", "", 0, "", 0, ""},
		{"flag only", "2m", 0, "", 2 * time.Minute, ""},
		{"env only", "", 45 * time.Second, "", 45 * time.Second, ""},
		{"config only", "", 0, "30s", 30 * time.Second, ""},
		{"flag overrides env and config", "5m", 45 * time.Second, "30s", 5 * time.Minute, ""},
		{"env overrides config", "", 2 * time.Minute, "30s", 2 * time.Minute, ""},
		{"combined duration", "1m30s", 0, "", 90 * time.Second, ""},
		{"invalid flag format", "abc", 0, "", 0, "invalid timeout"},
		{"invalid config format", "", 0, "xyz", 0, "invalid timeout"},
		{"negative duration", "-5s", 0, "", 0, "must be positive"},
		{"zero duration", "0s", 0, "", 0, "must be positive"},
		{"invalid flag overrides valid env", "invalid", time.Minute, "30s", 0, "invalid timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := resolveTimeoutWithEnv(tt.flagValue, tt.envValue, tt.configValue)
			if tt.errSubstr != "" {
				if !errors.Is(err, ErrInvalidTimeout) {
					t.Fatalf("error = %v, want ErrInvalidTimeout", err)
				}
				if !strings.Contains(err.Error(), tt.errSubstr) {
					t.Errorf("error should contain %q, got: %v", tt.errSubstr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("resolveTimeoutWithEnv(%q, %v, %q) = %v, want %v",
					tt.flagValue, tt.envValue, tt.configValue, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestBuildOptions - Config to render options
// ---------------------------------------------------------------------------

func TestBuildOptions(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Output.SourceRoot = "/src/"
	cfg.EmbedErrors = true
	cfg.Less.Math = "parens"
	cfg.Prefix = config.PrefixConfig{Enabled: true, Browsers: []string{"safari14"}}

	opts := buildOptions(&renderParams{cfg: cfg, base: "/project"}, FileToRender{InputPath: "/project/a.less", OutputPath: "/out/a.css"})

	if opts.From != "/project/a.less" || opts.To != "/out/a.css" || opts.Base != "/project" {
		t.Errorf("paths = %q %q %q", opts.From, opts.To, opts.Base)
	}
	if opts.SourceRoot != "/src/" || !opts.EmbedErrors {
		t.Errorf("SourceRoot/EmbedErrors = %q/%v", opts.SourceRoot, opts.EmbedErrors)
	}
	if opts.Less == nil || opts.Less.Math != "parens" {
		t.Errorf("Less = %+v", opts.Less)
	}
	if opts.Prefix == nil || !reflect.DeepEqual(opts.Prefix.Browsers, []string{"safari14"}) {
		t.Errorf("Prefix = %+v", opts.Prefix)
	}
	if opts.Minify != nil {
		t.Errorf("Minify = %+v, want nil when disabled", opts.Minify)
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("options should validate: %v", err)
	}
}

func TestResolveInputs(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	if _, err := resolveInputs(nil, cfg); !errors.Is(err, ErrNoInput) {
		t.Errorf("error = %v, want ErrNoInput", err)
	}

	cfg.Input.DefaultDir = "styles"
	got, err := resolveInputs(nil, cfg)
	if err != nil || !reflect.DeepEqual(got, []string{"styles"}) {
		t.Errorf("resolveInputs(nil) = %v, %v, want [styles]", got, err)
	}

	got, _ = resolveInputs([]string{"a.less"}, cfg)
	if !reflect.DeepEqual(got, []string{"a.less"}) {
		t.Errorf("args should win over input.defaultDir, got %v", got)
	}
}
