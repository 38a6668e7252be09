package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/alnah/go-lesspipe/internal/sourcemap"
)

// ErrInvalidBrowser is returned for a browser target esbuild cannot use.
var ErrInvalidBrowser = errors.New("invalid browser target")

// DefaultBrowsers are the prefixing targets used when none are configured.
var DefaultBrowsers = []string{"chrome87", "edge88", "firefox78", "safari14", "ios14"}

var engineNames = map[string]api.EngineName{
	"chrome":  api.EngineChrome,
	"edge":    api.EngineEdge,
	"firefox": api.EngineFirefox,
	"ie":      api.EngineIE,
	"ios":     api.EngineIOS,
	"opera":   api.EngineOpera,
	"safari":  api.EngineSafari,
}

// KnownBrowsers returns the browser names ParseBrowsers accepts, sorted.
func KnownBrowsers() []string {
	names := make([]string, 0, len(engineNames))
	for name := range engineNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PrefixOptions configure vendor prefixing.
type PrefixOptions struct {
	Browsers []string // e.g. "safari14", "firefox78.0"; empty means DefaultBrowsers
}

// MinifyOptions configure minification.
type MinifyOptions struct {
	RemoveAllComments bool // also drop /*! legal comments */
}

// Prefixer adds vendor-prefixed variants of declarations.
type Prefixer interface {
	Prefix(in Stylesheet, file string, opts PrefixOptions) (Stylesheet, error)
}

// Minifier strips insignificant characters from CSS.
type Minifier interface {
	Minify(in Stylesheet, file string, opts MinifyOptions) (Stylesheet, error)
}

// TransformMessage is one diagnostic reported by a post-processor.
type TransformMessage struct {
	Text   string
	Line   int // 1-based, 0 when unknown
	Column int // 0-based
}

// TransformError reports a failed post-processing step.
type TransformError struct {
	Step     string // "prefix" or "minify"
	File     string
	Messages []TransformMessage
}

func (e *TransformError) Error() string {
	parts := make([]string, 0, len(e.Messages))
	for _, m := range e.Messages {
		if m.Line > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d:%d: %s", e.File, m.Line, m.Column, m.Text))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", e.File, m.Text))
		}
	}
	return e.Step + " failed: " + strings.Join(parts, "; ")
}

// ParseBrowsers converts targets such as "chrome58" or "safari11.1" into
// esbuild engines. An empty list yields DefaultBrowsers.
func ParseBrowsers(browsers []string) ([]api.Engine, error) {
	if len(browsers) == 0 {
		browsers = DefaultBrowsers
	}
	engines := make([]api.Engine, 0, len(browsers))
	for _, b := range browsers {
		target := strings.ToLower(strings.TrimSpace(b))
		i := strings.IndexAny(target, "0123456789")
		if i <= 0 {
			return nil, fmt.Errorf("%w: %q (want name followed by version, e.g. safari14)", ErrInvalidBrowser, b)
		}
		name, ok := engineNames[target[:i]]
		if !ok {
			return nil, fmt.Errorf("%w: unknown browser %q", ErrInvalidBrowser, target[:i])
		}
		engines = append(engines, api.Engine{Name: name, Version: target[i:]})
	}
	return engines, nil
}

// EsbuildPrefixer prefixes declarations for the configured browsers using esbuild.
type EsbuildPrefixer struct{}

func (EsbuildPrefixer) Prefix(in Stylesheet, file string, opts PrefixOptions) (Stylesheet, error) {
	engines, err := ParseBrowsers(opts.Browsers)
	if err != nil {
		return Stylesheet{}, err
	}
	return esbuildTransform("prefix", in, file, api.TransformOptions{Engines: engines})
}

// EsbuildMinifier minifies whitespace and syntax using esbuild.
type EsbuildMinifier struct{}

func (EsbuildMinifier) Minify(in Stylesheet, file string, opts MinifyOptions) (Stylesheet, error) {
	legal := api.LegalCommentsInline
	if opts.RemoveAllComments {
		legal = api.LegalCommentsNone
	}
	return esbuildTransform("minify", in, file, api.TransformOptions{
		MinifyWhitespace: true,
		MinifySyntax:     true,
		LegalComments:    legal,
	})
}

// esbuildTransform runs one CSS transform with an external map and chains
// that map onto the map of the input.
func esbuildTransform(step string, in Stylesheet, file string, opts api.TransformOptions) (Stylesheet, error) {
	opts.Loader = api.LoaderCSS
	opts.Sourcefile = file
	opts.Sourcemap = api.SourceMapExternal
	opts.SourcesContent = api.SourcesContentExclude
	opts.LogLevel = api.LogLevelSilent

	result := api.Transform(in.CSS, opts)
	if len(result.Errors) > 0 {
		te := &TransformError{Step: step, File: file}
		for _, msg := range result.Errors {
			tm := TransformMessage{Text: msg.Text}
			if msg.Location != nil {
				tm.Line, tm.Column = msg.Location.Line, msg.Location.Column
			}
			te.Messages = append(te.Messages, tm)
		}
		return Stylesheet{}, te
	}

	composed, err := sourcemap.Compose(string(result.Map), in.Map)
	if err != nil {
		return Stylesheet{}, fmt.Errorf("%s: chaining source map: %w", step, err)
	}
	return Stylesheet{CSS: string(result.Code), Map: composed}, nil
}
