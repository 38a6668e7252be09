package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"

	lesspipe "github.com/alnah/go-lesspipe"
	"github.com/alnah/go-lesspipe/internal/config"
	"github.com/alnah/go-lesspipe/internal/logging"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput            = errors.New("no input specified")
	ErrReadLess           = errors.New("failed to read Less file")
	ErrWriteCSS           = errors.New("failed to write CSS file")
	ErrCreateOutputDir    = errors.New("failed to create output directory")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrInvalidTimeout     = errors.New("invalid timeout")
)

// renderParams groups settings shared by every file of a batch.
type renderParams struct {
	cfg  *config.Config
	base string // absolute; map sources are relative to it
}

// runRender orchestrates the render command.
func runRender(ctx context.Context, positionalArgs []string, flags *renderFlags, env *Environment) error {
	// Validate worker count early
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	envCfg := loadEnvConfig()
	if !flags.common.quiet {
		warnUnknownEnvVars(env.Stderr)
	}

	cfg, err := loadRenderConfig(flags, envCfg)
	if err != nil {
		return err
	}

	timeout, err := resolveTimeoutWithEnv(flags.timeout, envCfg.Timeout, cfg.Timeout)
	if err != nil {
		return err
	}

	log, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Out:    env.Stderr,
		Color:  !color.NoColor,
		Name:   "lesspipe",
	})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	inputs, err := resolveInputs(positionalArgs, cfg)
	if err != nil {
		return err
	}

	files, err := discoverFiles(env.Fs, inputs, cfg.Output.Dir)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no .less files found in %s", ErrNoInput, strings.Join(inputs, ", "))
	}

	base, err := filepath.Abs(cfg.Output.Base)
	if err != nil {
		return fmt.Errorf("resolving base %q: %w", cfg.Output.Base, err)
	}
	params := &renderParams{cfg: cfg, base: base}

	renderer := newRenderer(cfg, timeout, log, env)
	workers := resolveWorkers(flags.workers, envCfg.Workers, cfg.Workers)
	log.Debug("rendering", zap.Int("files", len(files)), zap.Int("workers", workers), zap.Duration("timeout", timeout))

	renderAll := func(ctx context.Context, files []FileToRender) []RenderResult {
		results := renderBatch(ctx, renderer, workers, files, params, env)
		printResults(results, flags.common, env)
		return results
	}

	results := renderAll(ctx, files)
	err = batchError(results)
	if !flags.watch {
		return err
	}
	if err != nil {
		printError(env, err)
	}

	loop := newWatchLoop(files, results, renderAll, log)
	if !flags.common.quiet {
		fmt.Fprintf(env.Stdout, "\nWatching %d file(s) for changes (Ctrl+C to stop)\n", loop.size())
	}
	return loop.run(ctx)
}

// loadRenderConfig builds the effective configuration.
// Priority: CLI flags > config file > environment > defaults.
func loadRenderConfig(flags *renderFlags, envCfg *envConfig) (*config.Config, error) {
	name := flags.common.config
	if name == "" {
		name = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		var err error
		cfg, err = config.LoadConfig(name)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFlags merges CLI flags into config. CLI values override config values;
// include paths and variables are added to those from the config.
func mergeFlags(flags *renderFlags, cfg *config.Config) {
	// I/O
	if flags.output != "" {
		cfg.Output.Dir = flags.output
	}
	if flags.base != "" {
		cfg.Output.Base = flags.base
	}
	if flags.isSet("source-root") {
		cfg.Output.SourceRoot = flags.sourceRoot
	}
	if flags.isSet("embed-errors") {
		cfg.EmbedErrors = flags.embedErrors
	}

	// Compiler
	if flags.less.binary != "" {
		cfg.Less.Binary = flags.less.binary
	}
	cfg.Less.IncludePaths = append(cfg.Less.IncludePaths, flags.less.includePaths...)
	if flags.less.math != "" {
		cfg.Less.Math = flags.less.math
	}
	if flags.isSet("strict-units") {
		cfg.Less.StrictUnits = flags.less.strictUnits
	}
	cfg.Less.GlobalVars = mergeVars(cfg.Less.GlobalVars, flags.less.globalVars)
	cfg.Less.ModifyVars = mergeVars(cfg.Less.ModifyVars, flags.less.modifyVars)

	// Prefixing (auto-enable when browsers are given)
	if len(flags.post.browsers) > 0 {
		cfg.Prefix.Browsers = flags.post.browsers
		cfg.Prefix.Enabled = true
	}
	if flags.isSet("prefix") {
		cfg.Prefix.Enabled = flags.post.prefix
	}

	// Minification (auto-enable when comment removal is asked for)
	if flags.post.removeComments {
		cfg.Minify.RemoveAllComments = true
		cfg.Minify.Enabled = true
	}
	if flags.isSet("minify") {
		cfg.Minify.Enabled = flags.post.minify
	}

	// Logging
	if flags.logFormat != "" {
		cfg.Log.Format = flags.logFormat
	}
	switch {
	case flags.common.verbose:
		cfg.Log.Level = "debug"
	case flags.common.quiet:
		cfg.Log.Level = "error"
	}
}

// mergeVars returns base overlaid with override. base is not modified.
func mergeVars(base, override map[string]string) map[string]string {
	if len(override) == 0 {
		return base
	}
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

// resolveInputs returns the inputs from the command line, or the configured
// default directory.
func resolveInputs(args []string, cfg *config.Config) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if cfg.Input.DefaultDir != "" {
		return []string{cfg.Input.DefaultDir}, nil
	}
	return nil, ErrNoInput
}

// resolveTimeoutWithEnv determines the per-file timeout.
// Priority: flag > env > config. Returns 0 (no timeout) when none is set.
func resolveTimeoutWithEnv(flagValue string, envValue time.Duration, configValue string) (time.Duration, error) {
	if flagValue != "" {
		return parseTimeout(flagValue)
	}
	if envValue > 0 {
		return envValue, nil
	}
	if configValue != "" {
		return parseTimeout(configValue)
	}
	return 0, nil
}

func parseTimeout(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w %q: use a duration like 30s or 2m", ErrInvalidTimeout, s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %s (must be positive)", ErrInvalidTimeout, s)
	}
	return d, nil
}

// newRenderer creates the library renderer for the effective configuration.
func newRenderer(cfg *config.Config, timeout time.Duration, log *zap.Logger, env *Environment) *lesspipe.Renderer {
	opts := []lesspipe.Option{
		lesspipe.WithLogger(log),
		lesspipe.WithFs(env.Fs),
		lesspipe.WithLesscBinary(cfg.Less.Binary),
	}
	if timeout > 0 {
		opts = append(opts, lesspipe.WithTimeout(timeout))
	}
	if env.Compiler != nil {
		opts = append(opts, lesspipe.WithCompiler(env.Compiler))
	}
	return lesspipe.NewRenderer(opts...)
}

// buildOptions converts the configuration into render options for one file.
func buildOptions(params *renderParams, f FileToRender) lesspipe.Options {
	cfg := params.cfg
	opts := lesspipe.Options{
		From:        f.InputPath,
		To:          f.OutputPath,
		Base:        params.base,
		SourceRoot:  cfg.Output.SourceRoot,
		EmbedErrors: cfg.EmbedErrors,
		Less: &lesspipe.LessOptions{
			IncludePaths: cfg.Less.IncludePaths,
			Math:         cfg.Less.Math,
			StrictUnits:  cfg.Less.StrictUnits,
			GlobalVars:   cfg.Less.GlobalVars,
			ModifyVars:   cfg.Less.ModifyVars,
		},
	}
	if cfg.Prefix.Enabled {
		opts.Prefix = &lesspipe.PrefixOptions{Browsers: cfg.Prefix.Browsers}
	}
	if cfg.Minify.Enabled {
		opts.Minify = &lesspipe.MinifyOptions{RemoveAllComments: cfg.Minify.RemoveAllComments}
	}
	return opts
}
