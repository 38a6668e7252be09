package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Output.Base != "." {
		t.Errorf("Output.Base = %q, want \".\"", cfg.Output.Base)
	}
	if cfg.Prefix.Enabled || cfg.Minify.Enabled {
		t.Error("post-processing must be disabled by default")
	}
	if cfg.EmbedErrors {
		t.Error("EmbedErrors = true, want false")
	}
	if cfg.Log.Format != LogFormatConsole {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, LogFormatConsole)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestValidateFieldLength(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		maxLength int
		wantErr   bool
	}{
		{"empty value is valid", "", 10, false},
		{"value at limit is valid", "1234567890", 10, false},
		{"value under limit is valid", "12345", 10, false},
		{"value over limit returns error", "12345678901", 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFieldLength("test.field", tt.value, tt.maxLength)
			if tt.wantErr {
				if !errors.Is(err, ErrFieldTooLong) {
					t.Errorf("error = %v, want ErrFieldTooLong", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	long := func(n int) string { return strings.Repeat("x", n) }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"defaults", func(*Config) {}, nil},
		{"full valid config", func(c *Config) {
			c.Output = OutputConfig{Dir: "public/css", Base: "src", SourceRoot: "/"}
			c.Less = LessConfig{
				Binary:       "/usr/bin/lessc",
				IncludePaths: []string{"vendor"},
				Math:         "parens-division",
				StrictUnits:  true,
				GlobalVars:   map[string]string{"brand": "#333"},
			}
			c.Prefix = PrefixConfig{Enabled: true, Browsers: []string{"safari14", "firefox78"}}
			c.Minify = MinifyConfig{Enabled: true}
			c.Workers = 4
			c.Timeout = "45s"
			c.Log = LogConfig{Level: "debug", Format: "json"}
		}, nil},
		{"output.dir too long", func(c *Config) { c.Output.Dir = long(MaxPathLength + 1) }, ErrFieldTooLong},
		{"less.binary too long", func(c *Config) { c.Less.Binary = long(MaxPathLength + 1) }, ErrFieldTooLong},
		{"include path too long", func(c *Config) { c.Less.IncludePaths = []string{long(MaxPathLength + 1)} }, ErrFieldTooLong},
		{"too many include paths", func(c *Config) { c.Less.IncludePaths = make([]string, MaxIncludePaths+1) }, ErrInvalidValue},
		{"invalid math", func(c *Config) { c.Less.Math = "lenient" }, ErrInvalidValue},
		{"variable value too long", func(c *Config) { c.Less.ModifyVars = map[string]string{"a": long(MaxValueLength + 1)} }, ErrFieldTooLong},
		{"variable name too long", func(c *Config) { c.Less.GlobalVars = map[string]string{long(MaxVarNameLength + 1): "1"} }, ErrFieldTooLong},
		{"browser too long", func(c *Config) { c.Prefix.Browsers = []string{long(MaxBrowserLength + 1)} }, ErrFieldTooLong},
		{"negative workers", func(c *Config) { c.Workers = -1 }, ErrInvalidValue},
		{"too many workers", func(c *Config) { c.Workers = MaxWorkers + 1 }, ErrInvalidValue},
		{"unparsable timeout", func(c *Config) { c.Timeout = "soon" }, ErrInvalidValue},
		{"zero timeout", func(c *Config) { c.Timeout = "0s" }, ErrInvalidValue},
		{"timeout too long", func(c *Config) { c.Timeout = "1h" }, ErrInvalidValue},
		{"invalid log level", func(c *Config) { c.Log.Level = "trace" }, ErrInvalidValue},
		{"invalid log format", func(c *Config) { c.Log.Format = "xml" }, ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_UnknownBrowser(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Prefix.Browsers = []string{"netscape4"}

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "prefix.browsers") {
		t.Errorf("error = %v, want prefix.browsers error", err)
	}
}

func TestConfig_TimeoutDuration(t *testing.T) {
	cfg := DefaultConfig()
	if d := cfg.TimeoutDuration(); d != 0 {
		t.Errorf("unset timeout = %v, want 0", d)
	}
	cfg.Timeout = "1m30s"
	if d := cfg.TimeoutDuration(); d != 90*time.Second {
		t.Errorf("TimeoutDuration() = %v, want 1m30s", d)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("empty name returns ErrEmptyConfigName", func(t *testing.T) {
		_, err := LoadConfig("")
		if !errors.Is(err, ErrEmptyConfigName) {
			t.Errorf("error = %v, want ErrEmptyConfigName", err)
		}
	})

	t.Run("valid file path loads config", func(t *testing.T) {
		dir := t.TempDir()
		configPath := filepath.Join(dir, "lesspipe.yaml")
		content := `output:
  dir: public/css
  sourceRoot: /src
less:
  includePaths: [vendor, node_modules]
  math: strict
  globalVars:
    brand: "#c0ffee"
prefix:
  enabled: true
  browsers: [safari14]
minify:
  enabled: true
embedErrors: true
workers: 2
timeout: 20s
`
		if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
			t.Fatalf("setup: %v", err)
		}

		cfg, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Output.Dir != "public/css" || cfg.Output.SourceRoot != "/src" {
			t.Errorf("Output = %+v", cfg.Output)
		}
		if cfg.Output.Base != "." {
			t.Errorf("Output.Base = %q, want default kept", cfg.Output.Base)
		}
		if !reflect.DeepEqual(cfg.Less.IncludePaths, []string{"vendor", "node_modules"}) {
			t.Errorf("Less.IncludePaths = %v", cfg.Less.IncludePaths)
		}
		if cfg.Less.GlobalVars["brand"] != "#c0ffee" {
			t.Errorf("Less.GlobalVars = %v", cfg.Less.GlobalVars)
		}
		if !cfg.Prefix.Enabled || !cfg.Minify.Enabled || !cfg.EmbedErrors {
			t.Errorf("feature toggles not loaded: %+v", cfg)
		}
		if cfg.Workers != 2 || cfg.TimeoutDuration() != 20*time.Second {
			t.Errorf("Workers = %d, Timeout = %q", cfg.Workers, cfg.Timeout)
		}
		if cfg.Log.Format != LogFormatConsole {
			t.Errorf("Log.Format = %q, want default kept", cfg.Log.Format)
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("unknown field returns ErrConfigParse", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(configPath, []byte("minfy:\n  enabled: true\n"), 0o600); err != nil {
			t.Fatalf("setup: %v", err)
		}
		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("invalid value is rejected after parsing", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(configPath, []byte("workers: 1000\n"), 0o600); err != nil {
			t.Fatalf("setup: %v", err)
		}
		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidValue) {
			t.Errorf("error = %v, want ErrInvalidValue", err)
		}
	})

	t.Run("name is resolved in current directory", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		if err := os.WriteFile(filepath.Join(dir, "site.yml"), []byte("embedErrors: true\n"), 0o600); err != nil {
			t.Fatalf("setup: %v", err)
		}

		cfg, err := LoadConfig("site")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !cfg.EmbedErrors {
			t.Error("EmbedErrors = false, want true")
		}
	})

	t.Run("unknown name lists tried paths", func(t *testing.T) {
		t.Chdir(t.TempDir())

		_, err := LoadConfig("missing-config")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("error = %v, want ErrConfigNotFound", err)
		}
		if !strings.Contains(err.Error(), "missing-config.yaml") || !strings.Contains(err.Error(), "missing-config.yml") {
			t.Errorf("error should list tried paths: %v", err)
		}
	})
}
