package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// errHelpRequested is returned by the parsers when -h/--help was given.
var errHelpRequested = flag.ErrHelp

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// lessFlags holds compiler flags.
type lessFlags struct {
	binary       string
	includePaths []string
	math         string
	strictUnits  bool
	globalVars   map[string]string
	modifyVars   map[string]string
}

// postFlags holds post-processing flags.
type postFlags struct {
	prefix         bool
	browsers       []string
	minify         bool
	removeComments bool
}

// renderFlags holds all flags for the render command.
type renderFlags struct {
	common      commonFlags
	output      string
	base        string
	sourceRoot  string
	embedErrors bool
	workers     int
	timeout     string
	watch       bool
	logFormat   string
	less        lessFlags
	post        postFlags

	// changed records flags given explicitly, so that "--prefix=false"
	// can override a config file that enables prefixing.
	changed map[string]bool
}

// isSet reports whether the named flag was given on the command line.
func (f *renderFlags) isSet(name string) bool {
	return f.changed[name]
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show stage timing and debug logs")
}

// addLessFlags adds compiler flags to a FlagSet.
func addLessFlags(fs *flag.FlagSet, f *lessFlags) {
	fs.StringVar(&f.binary, "lessc", "", "lessc binary name or path")
	fs.StringArrayVarP(&f.includePaths, "include-path", "I", nil, "extra @import lookup directory (repeatable)")
	fs.StringVar(&f.math, "math", "", "math mode: always, parens-division, parens, strict")
	fs.BoolVar(&f.strictUnits, "strict-units", false, "fail on incompatible units")
	fs.StringToStringVar(&f.globalVars, "global-var", nil, "variable defined before the source, name=value")
	fs.StringToStringVar(&f.modifyVars, "modify-var", nil, "variable overridden after the source, name=value")
}

// addPostFlags adds post-processing flags to a FlagSet.
func addPostFlags(fs *flag.FlagSet, f *postFlags) {
	fs.BoolVar(&f.prefix, "prefix", false, "add vendor prefixes")
	fs.StringSliceVar(&f.browsers, "browsers", nil, "prefixing targets, e.g. safari14,firefox78")
	fs.BoolVar(&f.minify, "minify", false, "minify the output")
	fs.BoolVar(&f.removeComments, "remove-comments", false, "also drop /*! legal comments */ when minifying")
}

// newRenderFlagSet registers every render flag. Shared by parsing and
// shell completion so both see the same flags.
func newRenderFlagSet(usage io.Writer) (*flag.FlagSet, *renderFlags) {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(usage)
	f := &renderFlags{}

	// I/O flags
	fs.StringVarP(&f.output, "output", "o", "", "output directory")
	fs.StringVarP(&f.base, "base", "b", "", "directory map sources are relative to")
	fs.StringVar(&f.sourceRoot, "source-root", "", "sourceRoot written to the map")
	fs.BoolVar(&f.embedErrors, "embed-errors", false, "write failures as a banner stylesheet")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-file render timeout (e.g., 30s, 2m)")
	fs.BoolVar(&f.watch, "watch", false, "re-render when inputs or their imports change")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: console, json")

	// Flag groups
	addCommonFlags(fs, &f.common)
	addLessFlags(fs, &f.less)
	addPostFlags(fs, &f.post)

	fs.Usage = func() { printRenderUsage(usage) }
	return fs, f
}

// parseRenderFlags parses render command flags and returns positional args.
func parseRenderFlags(args []string, usage io.Writer) (*renderFlags, []string, error) {
	fs, f := newRenderFlagSet(usage)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	f.changed = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { f.changed[fl.Name] = true })

	return f, fs.Args(), nil
}

// parseConfigFlags parses config command flags.
func parseConfigFlags(args []string, usage io.Writer) (*renderFlags, error) {
	f, positional, err := parseRenderFlags(args, usage)
	if err != nil {
		return nil, err
	}
	if len(positional) > 0 {
		return nil, errUnexpectedArgs(positional)
	}
	return f, nil
}
