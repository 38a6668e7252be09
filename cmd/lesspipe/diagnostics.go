package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/fatih/color"
	"github.com/spf13/afero"

	lesspipe "github.com/alnah/go-lesspipe"
	"github.com/alnah/go-lesspipe/internal/config"
	"github.com/alnah/go-lesspipe/internal/hints"
	"github.com/alnah/go-lesspipe/internal/pipeline"
)

// excerptContext is the number of lines shown before the failing line.
const excerptContext = 2

// printError writes a command-level error to stderr.
func printError(env *Environment, err error) {
	var bf *batchFailure
	if errors.As(err, &bf) {
		// Per-file details were printed with the results.
		fmt.Fprintf(env.Stderr, "%s %v\n", color.New(color.FgRed, color.Bold).Sprint("Error:"), err)
		return
	}
	fmt.Fprintln(env.Stderr, color.New(color.FgRed, color.Bold).Sprint("Error:"))
	printDiagnostic(env, err)
}

// printDiagnostic writes err with an actionable hint and, for compile errors
// pointing into a readable file, a highlighted source excerpt.
func printDiagnostic(env *Environment, err error) {
	msg := err.Error()

	excerpt := ""
	var ce *lesspipe.CompileError
	if errors.As(err, &ce) {
		excerpt = sourceExcerpt(env.Fs, ce, !color.NoColor)
		if excerpt != "" {
			// The excerpt replaces the plain extract lessc printed.
			msg, _, _ = strings.Cut(msg, "\n")
		}
	}

	fmt.Fprintf(env.Stderr, "  %s%s\n", msg, hintFor(err))
	if excerpt != "" {
		fmt.Fprint(env.Stderr, excerpt)
	}
}

// hintFor returns an actionable hint for known failures, "" otherwise.
func hintFor(err error) string {
	switch {
	case errors.Is(err, pipeline.ErrCommandNotFound):
		return hints.ForLesscNotFound()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(triedPaths(err))
	case errors.Is(err, ErrCreateOutputDir):
		return hints.ForOutputDirectory()
	case errors.Is(err, lesspipe.ErrSourceRead):
		return hints.ForSourceRead()
	case errors.Is(err, lesspipe.ErrInvalidBrowser):
		return hints.ForInvalidBrowser(pipeline.KnownBrowsers())
	}
	return ""
}

// triedPaths extracts the searched locations from a config lookup error.
func triedPaths(err error) []string {
	_, list, ok := strings.Cut(err.Error(), "tried ")
	if !ok {
		return nil
	}
	return strings.Split(list, ", ")
}

// sourceExcerpt renders the lines around a compile error with line numbers
// and a caret under the reported column. Returns "" when the file cannot be read.
func sourceExcerpt(fsys afero.Fs, ce *lesspipe.CompileError, colored bool) string {
	if ce.File == "" || ce.Line < 1 {
		return ""
	}
	data, err := afero.ReadFile(fsys, ce.File)
	if err != nil {
		return ""
	}

	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if ce.Line > len(lines) {
		return ""
	}
	first := max(1, ce.Line-excerptContext)
	last := min(len(lines), ce.Line+1)

	shown := lines[first-1 : last]
	if colored {
		shown = highlightLines(shown, ce.File)
	}

	gutter := len(fmt.Sprint(last))
	var b strings.Builder
	for i, text := range shown {
		n := first + i
		marker := " "
		if n == ce.Line {
			marker = ">"
		}
		fmt.Fprintf(&b, "  %s %*d | %s\n", marker, gutter, n, text)
		if n == ce.Line {
			fmt.Fprintf(&b, "    %s | %s^\n", strings.Repeat(" ", gutter), caretPadding(lines[n-1], ce.Column))
		}
	}
	return b.String()
}

// caretPadding returns whitespace reaching column col of line, keeping tabs
// so the caret lines up with the source.
func caretPadding(line string, col int) string {
	var b strings.Builder
	for i, r := range []rune(line) {
		if i >= col {
			break
		}
		if r == '\t' {
			b.WriteRune('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// highlightLines colorizes Less source for a terminal. On any failure the
// lines are returned unchanged.
func highlightLines(lines []string, filename string) []string {
	lexer := lexers.Match(filename)
	if lexer == nil {
		lexer = lexers.Get("css")
	}
	if lexer == nil {
		return lines
	}
	lexer = chroma.Coalesce(lexer)

	it, err := lexer.Tokenise(nil, strings.Join(lines, "\n"))
	if err != nil {
		return lines
	}
	var buf bytes.Buffer
	if err := formatters.Get("terminal256").Format(&buf, styles.Get("monokai"), it); err != nil {
		return lines
	}

	out := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(out) < len(lines) {
		return lines
	}
	return out[:len(lines)]
}
