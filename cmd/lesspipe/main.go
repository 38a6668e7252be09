package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

// ErrUnknownCommand is returned for an unrecognized subcommand.
var ErrUnknownCommand = errors.New("unknown command")

// commands lists the subcommands runMain dispatches.
var commands = []string{"render", "doctor", "config", "completion", "version", "help"}

func main() {
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply.
	if hasVerboseFlag(os.Args[1:]) {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	}

	os.Exit(runMain(os.Args, DefaultEnv()))
}

// runMain dispatches to a subcommand and returns the process exit code.
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	cmd, rest := args[1], args[2:]

	// "lesspipe site.less" is shorthand for "lesspipe render site.less".
	if !isCommand(cmd) && looksLikeLess(cmd) {
		cmd, rest = "render", args[1:]
	}

	switch cmd {
	case "render":
		return runRenderCmd(rest, env)
	case "doctor":
		return runDoctorCmd(rest, env)
	case "config":
		return runConfigCmd(rest, env)
	case "completion":
		return runCompletionCmd(rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "lesspipe %s\n", Version)
		return ExitSuccess
	case "help", "--help", "-h":
		return runHelp(rest, env)
	default:
		fmt.Fprintf(env.Stderr, "%v: %s\n\n", ErrUnknownCommand, cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}
}

// runRenderCmd parses render flags, runs under a signal-aware context and
// reports any error with hints.
func runRenderCmd(args []string, env *Environment) int {
	flags, positional, err := parseRenderFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, errHelpRequested) {
			return ExitSuccess
		}
		fmt.Fprintln(env.Stderr, err)
		return ExitUsage
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	if err := runRender(ctx, positional, flags, env); err != nil {
		printError(env, err)
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// isCommand reports whether s names a subcommand.
func isCommand(s string) bool {
	for _, c := range commands {
		if s == c {
			return true
		}
	}
	return false
}

// looksLikeLess reports whether s is a path to a .less file.
func looksLikeLess(s string) bool {
	return hasLessExt(s)
}

// hasVerboseFlag scans raw arguments for -v/--verbose before flag parsing.
func hasVerboseFlag(args []string) bool {
	for _, a := range args {
		if a == "--" {
			return false
		}
		if a == "--verbose" || a == "-v" || strings.HasPrefix(a, "--verbose=") {
			return a != "--verbose=false"
		}
	}
	return false
}
