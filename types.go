package lesspipe

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/alnah/go-lesspipe/internal/pipeline"
)

// Options contains the parameters of one render.
type Options struct {
	From        string         // Less input path (required); imports resolve from its directory
	To          string         // CSS output path (required); the map lives at To + ".map"
	Base        string         // map sources are relative to this directory (default ".")
	SourceRoot  string         // written verbatim to the map's "sourceRoot"
	Less        *LessOptions   // compiler settings (optional)
	Prefix      *PrefixOptions // vendor prefixing (optional, nil = disabled)
	Minify      *MinifyOptions // minification (optional, nil = disabled)
	EmbedErrors bool           // render failures as a banner stylesheet instead of an error
}

// Validate checks that options are complete and valid.
// Does not touch the filesystem.
func (o Options) Validate() error {
	if strings.TrimSpace(o.From) == "" {
		return ErrMissingFrom
	}
	if strings.TrimSpace(o.To) == "" {
		return ErrMissingTo
	}
	if err := o.Less.Validate(); err != nil {
		return err
	}
	if o.Prefix != nil {
		if _, err := pipeline.ParseBrowsers(o.Prefix.Browsers); err != nil {
			return err
		}
	}
	return nil
}

// LessOptions are passed through to the compiler.
type LessOptions struct {
	IncludePaths []string          // extra directories searched by @import
	Math         string            // "always", "parens-division", "parens", "strict"
	StrictUnits  bool              // fail on incompatible units in arithmetic
	GlobalVars   map[string]string // variables defined before the source
	ModifyVars   map[string]string // variables overridden after the source
}

// varName matches a Less variable name without the leading @.
var varName = regexp.MustCompile(`^[A-Za-z_-][\w-]*$`)

// Validate checks that compiler settings are valid.
// Returns nil if l is nil (nil means compiler defaults).
func (l *LessOptions) Validate() error {
	if l == nil {
		return nil
	}
	if l.Math != "" && !slices.Contains(pipeline.MathModes, strings.ToLower(l.Math)) {
		return fmt.Errorf("%w: %q (must be one of %s)", ErrInvalidMath, l.Math, strings.Join(pipeline.MathModes, ", "))
	}
	for _, p := range l.IncludePaths {
		if strings.TrimSpace(p) == "" {
			return ErrEmptyInclude
		}
	}
	for _, vars := range []map[string]string{l.GlobalVars, l.ModifyVars} {
		for name := range vars {
			if !varName.MatchString(strings.TrimPrefix(name, "@")) {
				return fmt.Errorf("%w: %q", ErrInvalidVar, name)
			}
		}
	}
	return nil
}

// Pipeline types shared with custom compilers and post-processors.
type (
	Stylesheet     = pipeline.Stylesheet
	Compiler       = pipeline.Compiler
	CompileOptions = pipeline.CompileOptions
	CompileError   = pipeline.CompileError
	Prefixer       = pipeline.Prefixer
	PrefixOptions  = pipeline.PrefixOptions
	Minifier       = pipeline.Minifier
	MinifyOptions  = pipeline.MinifyOptions
	TransformError = pipeline.TransformError
)

// Result is the rendered stylesheet and its map.
type Result struct {
	CSS string // stylesheet text ending with a sourceMappingURL comment
	Map string // source map JSON; empty for an embedded error
}

// Sources returns the map's "sources" entries, relative to Options.Base.
// Returns nil for an embedded error.
func (r *Result) Sources() []string {
	if r == nil || r.Map == "" {
		return nil
	}
	var out []string
	for _, s := range gjson.Get(r.Map, "sources").Array() {
		out = append(out, s.String())
	}
	return out
}

// Option configures a Renderer.
type Option func(*Renderer)

// rendererConfig holds internal configuration for Renderer.
type rendererConfig struct {
	timeout     time.Duration
	lesscBinary string
}

// WithTimeout bounds each Render call.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("lesspipe: WithTimeout duration must be positive")
	}
	return func(r *Renderer) {
		r.cfg.timeout = d
	}
}

// WithLesscBinary sets the lessc executable used by the default compiler.
// Ignored when WithCompiler is also given.
func WithLesscBinary(path string) Option {
	return func(r *Renderer) {
		r.cfg.lesscBinary = path
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Renderer) {
		if log != nil {
			r.log = log
		}
	}
}

// WithFs sets the filesystem map sources are read from. Defaults to the OS.
func WithFs(fs afero.Fs) Option {
	return func(r *Renderer) {
		if fs != nil {
			r.fs = fs
		}
	}
}

// WithCompiler replaces the lessc compiler.
func WithCompiler(c Compiler) Option {
	return func(r *Renderer) {
		r.compiler = c
	}
}

// WithPrefixer replaces the esbuild prefixer.
func WithPrefixer(p Prefixer) Option {
	return func(r *Renderer) {
		r.prefixer = p
	}
}

// WithMinifier replaces the esbuild minifier.
func WithMinifier(m Minifier) Option {
	return func(r *Renderer) {
		r.minifier = m
	}
}
