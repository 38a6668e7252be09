package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/alnah/go-lesspipe/internal/fileutil"
)

// DefaultLesscBinary is the compiler looked up on PATH when none is configured.
const DefaultLesscBinary = "lessc"

// ErrNoFilename is returned when a compile request carries no input path.
var ErrNoFilename = errors.New("compile requires an input filename")

// Valid values for CompileOptions.Math, as accepted by lessc --math.
var MathModes = []string{"always", "parens-division", "parens", "strict"}

// CompileOptions are the preprocessor settings for one compilation.
type CompileOptions struct {
	Filename     string            // absolute path of the input; imports resolve from its directory
	IncludePaths []string          // extra import lookup directories
	Math         string            // one of MathModes, empty for the compiler default
	StrictUnits  bool              // reject unit mismatches in arithmetic
	GlobalVars   map[string]string // variables defined before the source
	ModifyVars   map[string]string // variables overridden after the source
}

// Compiler turns stylesheet source into CSS plus a source map whose sources
// are relative to the directory of opts.Filename.
type Compiler interface {
	Compile(ctx context.Context, source string, opts CompileOptions) (Stylesheet, error)
}

// CompileError describes a failed compilation as reported by the compiler.
type CompileError struct {
	Kind    string   // e.g. "ParseError", "NameError"
	Message string   // compiler message without location
	File    string   // file the error points at, empty when unknown
	Line    int      // 1-based, 0 when unknown
	Column  int      // 0-based as reported by lessc
	Extract []string // numbered source lines around the error
}

func (e *CompileError) Error() string {
	var b strings.Builder
	if e.Kind != "" {
		b.WriteString(e.Kind)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.File != "" {
		fmt.Fprintf(&b, " in %s on line %d, column %d:", e.File, e.Line, e.Column)
	}
	for _, line := range e.Extract {
		b.WriteByte('\n')
		b.WriteString(line)
	}
	return b.String()
}

// LesscCompiler compiles Less by invoking the lessc CLI.
type LesscCompiler struct {
	Binary string
	Runner CommandRunner
	Log    *zap.Logger
}

// NewLesscCompiler creates a LesscCompiler with a real command runner.
// An empty binary selects DefaultLesscBinary.
func NewLesscCompiler(binary string, log *zap.Logger) *LesscCompiler {
	if binary == "" {
		binary = DefaultLesscBinary
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &LesscCompiler{Binary: binary, Runner: &ExecRunner{}, Log: log.Named("lessc")}
}

// Compile writes source to a private temp directory under the input's base
// name, runs lessc with an external source map, and maps the temp paths in
// the result back to the real input location.
func (c *LesscCompiler) Compile(ctx context.Context, source string, opts CompileOptions) (Stylesheet, error) {
	if opts.Filename == "" {
		return Stylesheet{}, ErrNoFilename
	}

	tmpInput, cleanup, err := fileutil.WriteTempSource(filepath.Base(opts.Filename), source)
	if err != nil {
		return Stylesheet{}, err
	}
	defer cleanup()

	tmpDir := filepath.Dir(tmpInput)
	outCSS := filepath.Join(tmpDir, "out.css")
	outMap := outCSS + ".map"
	args := lesscArgs(opts, tmpInput, outCSS, outMap)

	c.Log.Debug("compiling", zap.String("file", opts.Filename), zap.Strings("args", args))
	_, stderr, err := c.Runner.Run(ctx, c.Binary, args...)
	if err != nil {
		if errors.Is(err, ErrCommandNotFound) || ctx.Err() != nil {
			return Stylesheet{}, err
		}
		return Stylesheet{}, parseLesscError(stderr, err, tmpInput, opts.Filename)
	}

	css, err := os.ReadFile(outCSS) // #nosec G304 -- path inside our temp dir
	if err != nil {
		return Stylesheet{}, fmt.Errorf("reading compiled CSS: %w", err)
	}
	sourceMap, err := os.ReadFile(outMap) // #nosec G304 -- path inside our temp dir
	if err != nil {
		return Stylesheet{}, fmt.Errorf("reading compiled source map: %w", err)
	}

	rebased, err := rebaseCompilerMap(string(sourceMap), tmpDir, tmpInput, opts.Filename)
	if err != nil {
		return Stylesheet{}, err
	}

	return Stylesheet{
		CSS: StripSourceMappingComments(string(css)),
		Map: rebased,
	}, nil
}

// lesscArgs builds the lessc command line. The input's own directory is the
// first include path so relative imports resolve as if lessc read the real file.
func lesscArgs(opts CompileOptions, input, outCSS, outMap string) []string {
	includes := append([]string{filepath.Dir(opts.Filename)}, opts.IncludePaths...)

	args := []string{
		"--no-color",
		"--source-map=" + outMap,
		"--include-path=" + strings.Join(includes, string(filepath.ListSeparator)),
	}
	if opts.Math != "" {
		args = append(args, "--math="+opts.Math)
	}
	if opts.StrictUnits {
		args = append(args, "--strict-units=on")
	}
	for _, k := range sortedKeys(opts.GlobalVars) {
		args = append(args, "--global-var="+k+"="+opts.GlobalVars[k])
	}
	for _, k := range sortedKeys(opts.ModifyVars) {
		args = append(args, "--modify-var="+k+"="+opts.ModifyVars[k])
	}
	return append(args, input, outCSS)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// rebaseCompilerMap rewrites the sources lessc recorded (relative to the temp
// directory, or absolute) so they are relative to the real input directory.
func rebaseCompilerMap(sourceMap, tmpDir, tmpInput, filename string) (string, error) {
	if !gjson.Valid(sourceMap) {
		return "", fmt.Errorf("%w: compiler produced malformed JSON", ErrInvalidSourceMap)
	}
	sources := gjson.Get(sourceMap, "sources")
	if !sources.IsArray() {
		return "", fmt.Errorf("%w: compiler map has no sources", ErrInvalidSourceMap)
	}

	inputDir := filepath.Dir(filename)
	rebased := make([]string, 0, len(sources.Array()))
	for _, s := range sources.Array() {
		abs := resolveSource(tmpDir, s.String())
		if abs == tmpInput {
			rebased = append(rebased, filepath.Base(filename))
			continue
		}
		rel, err := filepath.Rel(inputDir, abs)
		if err != nil {
			rel = abs
		}
		rebased = append(rebased, filepath.ToSlash(rel))
	}

	out, err := sjson.Set(sourceMap, "sources", rebased)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSourceMap, err)
	}
	return out, nil
}

// lesscErrorHeader matches the first stderr line of a lessc failure:
//
//	ParseError: Unrecognised input in /src/site.less on line 3, column 5:
var lesscErrorHeader = regexp.MustCompile(`^(\w*Error): (.*?)(?: in (.+?) on line (\d+), column (\d+):)?\s*$`)

// parseLesscError turns lessc stderr into a CompileError. References to the
// temp copy of the input are replaced by the real input path.
func parseLesscError(stderr string, runErr error, tmpInput, filename string) error {
	text := strings.TrimSpace(strings.ReplaceAll(stderr, tmpInput, filename))
	if text == "" {
		return &CompileError{Message: runErr.Error()}
	}

	lines := strings.Split(text, "\n")
	m := lesscErrorHeader.FindStringSubmatch(strings.TrimSpace(lines[0]))
	if m == nil {
		return &CompileError{Message: text}
	}

	ce := &CompileError{Kind: m[1], Message: m[2], File: m[3]}
	ce.Line, _ = strconv.Atoi(m[4])
	ce.Column, _ = strconv.Atoi(m[5])
	for _, l := range lines[1:] {
		if strings.TrimSpace(l) != "" {
			ce.Extract = append(ce.Extract, strings.TrimRight(l, "\r"))
		}
	}
	return ce
}
