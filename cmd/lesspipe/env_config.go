package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-lesspipe/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string        // LESSPIPE_CONFIG: config file name or path
	Lessc      string        // LESSPIPE_LESSC: lessc binary
	Base       string        // LESSPIPE_BASE: directory map sources are relative to
	OutputDir  string        // LESSPIPE_OUTPUT_DIR: default output directory
	Workers    int           // LESSPIPE_WORKERS: parallel workers
	Timeout    time.Duration // LESSPIPE_TIMEOUT: per-file render timeout
}

// knownEnvVars lists valid LESSPIPE_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"LESSPIPE_CONFIG":     true,
	"LESSPIPE_LESSC":      true,
	"LESSPIPE_BASE":       true,
	"LESSPIPE_OUTPUT_DIR": true,
	"LESSPIPE_WORKERS":    true,
	"LESSPIPE_TIMEOUT":    true,
	"LESSPIPE_CONTAINER":  true, // doctor: force container detection
}

// loadEnvConfig reads configuration from environment variables.
// Malformed numbers and durations are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath: os.Getenv("LESSPIPE_CONFIG"),
		Lessc:      os.Getenv("LESSPIPE_LESSC"),
		Base:       os.Getenv("LESSPIPE_BASE"),
		OutputDir:  os.Getenv("LESSPIPE_OUTPUT_DIR"),
	}

	if timeout := os.Getenv("LESSPIPE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if workers := os.Getenv("LESSPIPE_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars prints warnings for unrecognized LESSPIPE_* variables.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "LESSPIPE_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// Only sets values if the env var is set AND the config value is still its default.
// This ensures: CLI flags > config file > env vars > defaults
// (CLI flags are applied later via mergeFlags; timeout and workers are
// resolved separately with env taking priority over config.)
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	defaults := config.DefaultConfig()

	if env.Lessc != "" && cfg.Less.Binary == defaults.Less.Binary {
		cfg.Less.Binary = env.Lessc
	}
	if env.Base != "" && cfg.Output.Base == defaults.Output.Base {
		cfg.Output.Base = env.Base
	}
	if env.OutputDir != "" && cfg.Output.Dir == defaults.Output.Dir {
		cfg.Output.Dir = env.OutputDir
	}
}
