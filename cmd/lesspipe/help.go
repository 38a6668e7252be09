package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: lesspipe <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  render     Compile Less files to CSS with source maps")
	fmt.Fprintln(w, "  doctor     Check that lessc and the system are ready")
	fmt.Fprintln(w, "  config     Print the effective configuration")
	fmt.Fprintln(w, "  completion Generate shell completion script")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'lesspipe help <command>' for details on a specific command.")
}

// printRenderUsage prints usage for the render command.
func printRenderUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: lesspipe render <input>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Compile Less files to CSS. Each output gets a .map file next to it")
	fmt.Fprintln(w, "and a sourceMappingURL comment pointing at it.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    .less file or directory (optional if config has input.defaultDir)")
	fmt.Fprintln(w, "           Files starting with _ are skipped when walking directories.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory (default: next to each input)")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -b, --base <dir>          Map sources are relative to this directory (default: .)")
	fmt.Fprintln(w, "      --source-root <s>     sourceRoot written to the map")
	fmt.Fprintln(w, "      --embed-errors        Write failures as a stylesheet showing the error")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Per-file timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w, "      --watch               Re-render when inputs or their imports change")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Compiler:")
	fmt.Fprintln(w, "      --lessc <path>        lessc binary (default: lessc on PATH)")
	fmt.Fprintln(w, "  -I, --include-path <dir>  Extra @import lookup directory (repeatable)")
	fmt.Fprintln(w, "      --math <mode>         always, parens-division, parens, strict")
	fmt.Fprintln(w, "      --strict-units        Fail on incompatible units")
	fmt.Fprintln(w, "      --global-var <k=v>    Variable defined before the source")
	fmt.Fprintln(w, "      --modify-var <k=v>    Variable overridden after the source")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Post-processing:")
	fmt.Fprintln(w, "      --prefix              Add vendor prefixes")
	fmt.Fprintln(w, "      --browsers <list>     Prefixing targets, e.g. safari14,firefox78")
	fmt.Fprintln(w, "      --minify              Minify the output")
	fmt.Fprintln(w, "      --remove-comments     Also drop /*! legal comments */ (implies --minify)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show timing and debug logs")
	fmt.Fprintln(w, "      --log-format <s>      Log format: console, json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  LESSPIPE_CONFIG, LESSPIPE_LESSC, LESSPIPE_BASE, LESSPIPE_OUTPUT_DIR,")
	fmt.Fprintln(w, "  LESSPIPE_WORKERS, LESSPIPE_TIMEOUT")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "render":
		printRenderUsage(env.Stdout)
	case "doctor":
		fmt.Fprintln(env.Stdout, "Usage: lesspipe doctor [--json]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Check lessc, node and the temp directory. Exits 1 when not ready.")
	case "config":
		fmt.Fprintln(env.Stdout, "Usage: lesspipe config [render flags]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Print the configuration render would use, as YAML.")
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: lesspipe version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: lesspipe help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "%v: %s\n", ErrUnknownCommand, args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
