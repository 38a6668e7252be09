package lesspipe

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/alnah/go-lesspipe/internal/pipeline"
)

// Compile-time interface implementation checks.
var (
	_ pipeline.Compiler = (*pipeline.LesscCompiler)(nil)
	_ pipeline.Prefixer = pipeline.EsbuildPrefixer{}
	_ pipeline.Minifier = pipeline.EsbuildMinifier{}
)

// Renderer runs the Less rendering pipeline.
// Create with NewRenderer. A Renderer holds no per-render state and is safe
// for concurrent use.
type Renderer struct {
	cfg      rendererConfig
	fs       afero.Fs
	log      *zap.Logger
	compiler pipeline.Compiler
	prefixer pipeline.Prefixer
	minifier pipeline.Minifier
}

// NewRenderer creates a Renderer with default configuration.
// Use options to customize behavior (e.g., WithLesscBinary, WithTimeout).
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		fs:       afero.NewOsFs(),
		log:      zap.NewNop(),
		prefixer: pipeline.EsbuildPrefixer{},
		minifier: pipeline.EsbuildMinifier{},
	}

	for _, opt := range opts {
		opt(r)
	}

	// Create compiler if not injected (e.g., by tests)
	if r.compiler == nil {
		r.compiler = pipeline.NewLesscCompiler(r.cfg.lesscBinary, r.log)
	}

	return r
}

// stage is one step of the pipeline. Disabled stages are skipped.
type stage struct {
	name    string
	enabled bool
	apply   func(context.Context, pipeline.Stylesheet) (pipeline.Stylesheet, error)
}

// resolvedPaths are the absolute paths one render works with.
type resolvedPaths struct {
	from, to, base string
}

// Render compiles source, which is the content of opts.From, and returns the
// CSS and its sanitized map.
// With opts.EmbedErrors, pipeline failures are returned as a banner
// stylesheet and a nil error; invalid options are always returned as errors.
func (r *Renderer) Render(ctx context.Context, source string, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	paths, err := resolvePaths(opts)
	if err != nil {
		return nil, err
	}

	if r.cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.timeout)
		defer cancel()
	}

	log := r.log.With(zap.String("from", paths.from))
	out, err := r.run(ctx, log, source, opts, paths)
	if err != nil {
		if opts.EmbedErrors {
			log.Warn("render failed, embedding error", zap.Error(err))
			return errorResult(err), nil
		}
		return nil, err
	}

	return &Result{CSS: out.CSS, Map: out.Map}, nil
}

// run executes the enabled stages in order, threading the stylesheet through.
func (r *Renderer) run(ctx context.Context, log *zap.Logger, source string, opts Options, paths resolvedPaths) (pipeline.Stylesheet, error) {
	logical := pipeline.OutputName(paths.from)

	stages := []stage{
		{
			name:    "compile",
			enabled: true,
			apply: func(ctx context.Context, _ pipeline.Stylesheet) (pipeline.Stylesheet, error) {
				out, err := r.compiler.Compile(ctx, source, toCompileOptions(paths.from, opts.Less))
				if err != nil {
					return out, fmt.Errorf("%w: %w", ErrCompile, err)
				}
				return out, nil
			},
		},
		{
			name:    "prefix",
			enabled: opts.Prefix != nil,
			apply: func(_ context.Context, in pipeline.Stylesheet) (pipeline.Stylesheet, error) {
				out, err := r.prefixer.Prefix(in, logical, *opts.Prefix)
				if err != nil {
					return out, fmt.Errorf("%w: %w", ErrPrefix, err)
				}
				return out, nil
			},
		},
		{
			name:    "minify",
			enabled: opts.Minify != nil,
			apply: func(_ context.Context, in pipeline.Stylesheet) (pipeline.Stylesheet, error) {
				out, err := r.minifier.Minify(in, logical, *opts.Minify)
				if err != nil {
					return out, fmt.Errorf("%w: %w", ErrMinify, err)
				}
				return out, nil
			},
		},
		{
			name:    "sanitize",
			enabled: true,
			apply: func(_ context.Context, in pipeline.Stylesheet) (pipeline.Stylesheet, error) {
				out, err := pipeline.SanitizeSourceMap(r.fs, in, pipeline.SanitizeOptions{
					InputFile:  paths.from,
					OutputFile: paths.to,
					BaseDir:    paths.base,
					SourceRoot: opts.SourceRoot,
				})
				switch {
				case errors.Is(err, pipeline.ErrSourceRead):
					return out, fmt.Errorf("%w: %w", ErrSourceRead, err)
				case err != nil:
					return out, fmt.Errorf("%w: %w", ErrSourceMap, err)
				}
				return out, nil
			},
		},
		{
			name:    "comment",
			enabled: true,
			apply: func(_ context.Context, in pipeline.Stylesheet) (pipeline.Stylesheet, error) {
				return pipeline.InjectSourceMappingComment(in, paths.to), nil
			},
		},
	}

	var sheet pipeline.Stylesheet
	for _, st := range stages {
		if !st.enabled {
			continue
		}
		start := time.Now()
		out, err := runStage(ctx, st, sheet)
		if err != nil {
			log.Debug("stage failed", zap.String("stage", st.name), zap.Error(err))
			return pipeline.Stylesheet{}, err
		}
		log.Debug("stage done", zap.String("stage", st.name), zap.Duration("took", time.Since(start)))
		sheet = out
	}
	return sheet, nil
}

// runStage applies st, converting a panic into an error.
func runStage(ctx context.Context, st stage, in pipeline.Stylesheet) (out pipeline.Stylesheet, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%s: internal error: %v", st.name, rec)
		}
	}()
	return st.apply(ctx, in)
}

// resolvePaths makes From, To and Base absolute. Base defaults to the
// working directory.
func resolvePaths(opts Options) (resolvedPaths, error) {
	base := opts.Base
	if base == "" {
		base = "."
	}

	var p resolvedPaths
	for _, f := range []struct {
		dst *string
		src string
	}{
		{&p.from, opts.From},
		{&p.to, opts.To},
		{&p.base, base},
	} {
		abs, err := filepath.Abs(f.src)
		if err != nil {
			return resolvedPaths{}, fmt.Errorf("resolving %q: %w", f.src, err)
		}
		*f.dst = abs
	}
	return p, nil
}

// toCompileOptions converts the public LessOptions to compiler options.
func toCompileOptions(filename string, l *LessOptions) pipeline.CompileOptions {
	co := pipeline.CompileOptions{Filename: filename}
	if l == nil {
		return co
	}
	co.IncludePaths = l.IncludePaths
	co.Math = l.Math
	co.StrictUnits = l.StrictUnits
	co.GlobalVars = trimVarPrefix(l.GlobalVars)
	co.ModifyVars = trimVarPrefix(l.ModifyVars)
	return co
}

// trimVarPrefix drops a leading "@" from variable names; lessc adds its own.
func trimVarPrefix(vars map[string]string) map[string]string {
	if len(vars) == 0 {
		return nil
	}
	out := make(map[string]string, len(vars))
	for k, v := range vars {
		out[strings.TrimPrefix(k, "@")] = v
	}
	return out
}
