package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/alnah/go-lesspipe/internal/fileutil"
	"github.com/alnah/go-lesspipe/internal/pipeline"
	"github.com/alnah/go-lesspipe/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field limits.
const (
	MaxPathLength     = 4096 // PATH_MAX on Linux
	MaxValueLength    = 1024 // Less variable value
	MaxVarNameLength  = 100
	MaxBrowserLength  = 20  // "firefox115.0.2"
	MaxIncludePaths   = 64
	MaxVars           = 256
	MaxWorkers        = 64
	MaxTimeoutSetting = 10 * time.Minute
)

// Log formats accepted by log.format.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// Config holds all configuration for rendering stylesheets.
type Config struct {
	Input       InputConfig  `yaml:"input"`
	Output      OutputConfig `yaml:"output"`
	Less        LessConfig   `yaml:"less"`
	Prefix      PrefixConfig `yaml:"prefix"`
	Minify      MinifyConfig `yaml:"minify"`
	EmbedErrors bool         `yaml:"embedErrors"` // render failures as a banner stylesheet
	Workers     int          `yaml:"workers"`     // 0 = auto
	Timeout     string       `yaml:"timeout"`     // Go duration, e.g. "30s"; empty = none
	Log         LogConfig    `yaml:"log"`
}

// InputConfig defines input source options.
type InputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // rendered when no input is given on the command line
}

// OutputConfig defines where CSS and maps are written.
type OutputConfig struct {
	Dir        string `yaml:"dir"`        // empty = next to each input
	Base       string `yaml:"base"`       // map sources are relative to it (default ".")
	SourceRoot string `yaml:"sourceRoot"` // written verbatim to the map
}

// LessConfig defines compiler options.
type LessConfig struct {
	Binary       string            `yaml:"binary"` // empty = lessc on PATH
	IncludePaths []string          `yaml:"includePaths"`
	Math         string            `yaml:"math"` // "always", "parens-division", "parens", "strict"
	StrictUnits  bool              `yaml:"strictUnits"`
	GlobalVars   map[string]string `yaml:"globalVars"`
	ModifyVars   map[string]string `yaml:"modifyVars"`
}

// PrefixConfig defines vendor prefixing options.
type PrefixConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Browsers []string `yaml:"browsers"` // empty = built-in defaults
}

// MinifyConfig defines minification options.
type MinifyConfig struct {
	Enabled           bool `yaml:"enabled"`
	RemoveAllComments bool `yaml:"removeAllComments"`
}

// LogConfig defines diagnostic logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error" (default: "info")
	Format string `yaml:"format"` // "console", "json" (default: "console")
}

// TimeoutDuration returns the parsed timeout, 0 when unset.
// Call Validate first; an invalid value yields 0.
func (c *Config) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// Validate checks field values and lengths.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"input.defaultDir", c.Input.DefaultDir},
		{"output.dir", c.Output.Dir},
		{"output.base", c.Output.Base},
		{"output.sourceRoot", c.Output.SourceRoot},
		{"less.binary", c.Less.Binary},
	} {
		if err := validateFieldLength(f.name, f.value, MaxPathLength); err != nil {
			return err
		}
	}

	if err := c.validateLess(); err != nil {
		return err
	}

	if len(c.Prefix.Browsers) > 0 {
		for i, b := range c.Prefix.Browsers {
			if err := validateFieldLength(fmt.Sprintf("prefix.browsers[%d]", i), b, MaxBrowserLength); err != nil {
				return err
			}
		}
		if _, err := pipeline.ParseBrowsers(c.Prefix.Browsers); err != nil {
			return fmt.Errorf("prefix.browsers: %w", err)
		}
	}

	if c.Workers < 0 || c.Workers > MaxWorkers {
		return fmt.Errorf("%w: workers must be between 0 and %d, got %d", ErrInvalidValue, MaxWorkers, c.Workers)
	}

	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return fmt.Errorf("%w: timeout %q: %v", ErrInvalidValue, c.Timeout, err)
		}
		if d <= 0 || d > MaxTimeoutSetting {
			return fmt.Errorf("%w: timeout must be between 1ns and %s, got %s", ErrInvalidValue, MaxTimeoutSetting, d)
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level %q (must be debug, info, warn, or error)", ErrInvalidValue, c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", LogFormatConsole, LogFormatJSON:
	default:
		return fmt.Errorf("%w: log.format %q (must be console or json)", ErrInvalidValue, c.Log.Format)
	}

	return nil
}

func (c *Config) validateLess() error {
	if c.Less.Math != "" && !slices.Contains(pipeline.MathModes, strings.ToLower(c.Less.Math)) {
		return fmt.Errorf("%w: less.math %q (must be one of %s)", ErrInvalidValue, c.Less.Math, strings.Join(pipeline.MathModes, ", "))
	}
	if len(c.Less.IncludePaths) > MaxIncludePaths {
		return fmt.Errorf("%w: less.includePaths has %d entries (max %d)", ErrInvalidValue, len(c.Less.IncludePaths), MaxIncludePaths)
	}
	for i, p := range c.Less.IncludePaths {
		if err := validateFieldLength(fmt.Sprintf("less.includePaths[%d]", i), p, MaxPathLength); err != nil {
			return err
		}
	}
	for field, vars := range map[string]map[string]string{
		"less.globalVars": c.Less.GlobalVars,
		"less.modifyVars": c.Less.ModifyVars,
	} {
		if len(vars) > MaxVars {
			return fmt.Errorf("%w: %s has %d entries (max %d)", ErrInvalidValue, field, len(vars), MaxVars)
		}
		for name, value := range vars {
			if err := validateFieldLength(field+" name", name, MaxVarNameLength); err != nil {
				return err
			}
			if err := validateFieldLength(field+"."+name, value, MaxValueLength); err != nil {
				return err
			}
		}
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns a neutral configuration: no post-processing,
// maps relative to the working directory.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{Base: "."},
		Log:    LogConfig{Level: "info", Format: LogFormatConsole},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields absent from the file keep their DefaultConfig values.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, <user config dir>/go-lesspipe/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-lesspipe", name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
