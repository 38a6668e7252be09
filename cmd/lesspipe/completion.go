package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-lesspipe/internal/pipeline"
)

// Shell represents a supported shell for completion generation.
type Shell string

// Supported shells for completion.
const (
	ShellBash       Shell = "bash"
	ShellZsh        Shell = "zsh"
	ShellFish       Shell = "fish"
	ShellPowerShell Shell = "powershell"
)

var supportedShells = []string{string(ShellBash), string(ShellZsh), string(ShellFish), string(ShellPowerShell)}

// ErrUnsupportedShell is returned when an unknown shell is requested.
var ErrUnsupportedShell = errors.New("unsupported shell")

// flagType represents the completion type for a flag.
type flagType int

const (
	flagString flagType = iota // default
	flagBool
	flagInt
	flagEnum // has predefined values
	flagFile // file with glob pattern
	flagDir  // directory
)

// flagDef describes a flag for completion purposes.
type flagDef struct {
	Long       string   // --output
	Short      string   // -o (empty if none)
	Type       flagType // completion type
	Desc       string   // help text
	Values     []string // for enum flags
	FileGlob   string   // for file flags, comma separated
	Repeatable bool     // may be given more than once
}

// commandDef describes a command for completion.
type commandDef struct {
	Name        string
	Desc        string
	Flags       []flagDef
	Args        []string // fixed argument values, e.g. shell names
	FilePattern string   // glob for file arguments, empty when the command takes none
}

// completionMeta holds completion-specific metadata for flags.
// Flag names, types, and descriptions come from the FlagSet.
type completionMeta struct {
	Values   []string // enum values
	FileGlob string   // file glob pattern
	IsDir    bool     // directory completion
}

// flagCompletionMeta maps flag names to their completion metadata.
var flagCompletionMeta = map[string]completionMeta{
	// Enum flags
	"math":       {Values: pipeline.MathModes},
	"log-format": {Values: []string{"console", "json"}},

	// File flags with glob patterns
	"config": {FileGlob: "*.yaml,*.yml"},

	// Directory flags
	"output":       {IsDir: true},
	"base":         {IsDir: true},
	"include-path": {IsDir: true},
}

// extractFlagsFromFlagSet extracts flag definitions from a pflag.FlagSet.
// Enriches with completion metadata from flagCompletionMeta.
func extractFlagsFromFlagSet(fs *flag.FlagSet) []flagDef {
	var flags []flagDef

	fs.VisitAll(func(f *flag.Flag) {
		fd := flagDef{
			Long:  f.Name,
			Short: f.Shorthand,
			Desc:  f.Usage,
		}

		switch t := f.Value.Type(); {
		case t == "bool":
			fd.Type = flagBool
		case t == "int":
			fd.Type = flagInt
		case strings.HasSuffix(t, "Array") || strings.HasSuffix(t, "Slice") || t == "stringToString":
			fd.Repeatable = true
		}

		if meta, ok := flagCompletionMeta[f.Name]; ok {
			switch {
			case len(meta.Values) > 0:
				fd.Type = flagEnum
				fd.Values = meta.Values
			case meta.FileGlob != "":
				fd.Type = flagFile
				fd.FileGlob = meta.FileGlob
			case meta.IsDir:
				fd.Type = flagDir
			}
		}

		flags = append(flags, fd)
	})

	return flags
}

// getCommands returns the command registry for completion.
func getCommands() []commandDef {
	fs, _ := newRenderFlagSet(io.Discard)
	renderFlags := extractFlagsFromFlagSet(fs)

	return []commandDef{
		{
			Name:        "render",
			Desc:        "Compile Less files to CSS with source maps",
			Flags:       renderFlags,
			FilePattern: "*.less",
		},
		{
			Name:  "doctor",
			Desc:  "Check that lessc and the system are ready",
			Flags: []flagDef{{Long: "json", Type: flagBool, Desc: "output as JSON"}},
		},
		{
			Name:  "config",
			Desc:  "Print the effective configuration",
			Flags: renderFlags,
		},
		{
			Name: "completion",
			Desc: "Generate shell completion script",
			Args: supportedShells,
		},
		{
			Name: "version",
			Desc: "Show version information",
		},
		{
			Name: "help",
			Desc: "Show help for a command",
			Args: commands,
		},
	}
}

// commandNames returns the names of every command, in registry order.
func commandNames(cmds []commandDef) []string {
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name
	}
	return names
}

// globs splits a comma separated glob list.
func globs(pattern string) []string {
	return strings.Split(pattern, ",")
}

// GenerateCompletion writes shell completion script to w.
// Returns error if shell is unsupported or write fails.
func GenerateCompletion(w io.Writer, shell Shell) error {
	var script string
	switch shell {
	case ShellBash:
		script = generateBash(getCommands())
	case ShellZsh:
		script = generateZsh(getCommands())
	case ShellFish:
		script = generateFish(getCommands())
	case ShellPowerShell:
		script = generatePowerShell(getCommands())
	default:
		return fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedShell, shell, strings.Join(supportedShells, ", "))
	}
	_, err := io.WriteString(w, script)
	return err
}

// runCompletionCmd handles the completion command.
func runCompletionCmd(args []string, env *Environment) int {
	if len(args) == 0 {
		printCompletionUsage(env.Stdout)
		return ExitSuccess
	}
	if err := GenerateCompletion(env.Stdout, Shell(args[0])); err != nil {
		printError(env, err)
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// printCompletionUsage prints help for the completion command.
func printCompletionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: lesspipe completion <shell>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate shell completion script for the specified shell.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Supported shells:")
	fmt.Fprintln(w, "  bash        Bash completion script")
	fmt.Fprintln(w, "  zsh         Zsh completion script")
	fmt.Fprintln(w, "  fish        Fish completion script")
	fmt.Fprintln(w, "  powershell  PowerShell completion script")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Installation:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Bash:")
	fmt.Fprintln(w, "    # Add to ~/.bashrc:")
	fmt.Fprintln(w, "    eval \"$(lesspipe completion bash)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Zsh:")
	fmt.Fprintln(w, "    # Add to ~/.zshrc (before compinit):")
	fmt.Fprintln(w, "    eval \"$(lesspipe completion zsh)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Fish:")
	fmt.Fprintln(w, "    lesspipe completion fish > ~/.config/fish/completions/lesspipe.fish")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  PowerShell:")
	fmt.Fprintln(w, "    # Add to $PROFILE:")
	fmt.Fprintln(w, "    lesspipe completion powershell | Out-String | Invoke-Expression")
}

// ---------------------------------------------------------------------------
// Bash
// ---------------------------------------------------------------------------

func generateBash(cmds []commandDef) string {
	var b strings.Builder
	b.WriteString("# bash completion for lesspipe\n\n")
	b.WriteString("_lesspipe_completions() {\n")
	b.WriteString("    local cur prev cmd\n")
	b.WriteString("    COMPREPLY=()\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n")
	b.WriteString("    cmd=\"${COMP_WORDS[1]}\"\n\n")
	b.WriteString("    if [[ ${COMP_CWORD} -eq 1 ]]; then\n")
	fmt.Fprintf(&b, "        COMPREPLY=( $(compgen -W \"%s\" -- \"$cur\") $(compgen -f -X '!*.less' -- \"$cur\") )\n", strings.Join(commandNames(cmds), " "))
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")
	b.WriteString("    case \"$cmd\" in\n")

	for _, c := range cmds {
		if len(c.Flags) == 0 && len(c.Args) == 0 && c.FilePattern == "" {
			continue
		}
		fmt.Fprintf(&b, "    %s)\n", c.Name)

		if valued := flagsTakingValues(c.Flags); len(valued) > 0 {
			b.WriteString("        case \"$prev\" in\n")
			for _, f := range valued {
				fmt.Fprintf(&b, "        %s)\n", strings.Join(flagSpellings(f), "|"))
				switch f.Type {
				case flagEnum:
					fmt.Fprintf(&b, "            COMPREPLY=( $(compgen -W \"%s\" -- \"$cur\") )\n", strings.Join(f.Values, " "))
				case flagFile:
					b.WriteString("            COMPREPLY=(")
					for _, g := range globs(f.FileGlob) {
						fmt.Fprintf(&b, " $(compgen -f -X '!%s' -- \"$cur\")", g)
					}
					b.WriteString(" $(compgen -d -- \"$cur\") )\n")
				case flagDir:
					b.WriteString("            COMPREPLY=( $(compgen -d -- \"$cur\") )\n")
				}
				b.WriteString("            return\n")
				b.WriteString("            ;;\n")
			}
			b.WriteString("        esac\n")
		}

		if len(c.Flags) > 0 {
			b.WriteString("        if [[ \"$cur\" == -* ]]; then\n")
			fmt.Fprintf(&b, "            COMPREPLY=( $(compgen -W \"%s\" -- \"$cur\") )\n", strings.Join(longFlags(c.Flags), " "))
			b.WriteString("            return\n")
			b.WriteString("        fi\n")
		}

		switch {
		case len(c.Args) > 0:
			fmt.Fprintf(&b, "        COMPREPLY=( $(compgen -W \"%s\" -- \"$cur\") )\n", strings.Join(c.Args, " "))
		case c.FilePattern != "":
			b.WriteString("        COMPREPLY=(")
			for _, g := range globs(c.FilePattern) {
				fmt.Fprintf(&b, " $(compgen -f -X '!%s' -- \"$cur\")", g)
			}
			b.WriteString(" $(compgen -d -- \"$cur\") )\n")
		}
		b.WriteString("        ;;\n")
	}

	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	b.WriteString("complete -o filenames -F _lesspipe_completions lesspipe\n")
	return b.String()
}

// flagsTakingValues returns the flags whose value can be completed, or must
// not be completed as a flag name.
func flagsTakingValues(flags []flagDef) []flagDef {
	var out []flagDef
	for _, f := range flags {
		if f.Type != flagBool {
			out = append(out, f)
		}
	}
	return out
}

// flagSpellings returns "-o", "--output" for a flag.
func flagSpellings(f flagDef) []string {
	if f.Short == "" {
		return []string{"--" + f.Long}
	}
	return []string{"-" + f.Short, "--" + f.Long}
}

func longFlags(flags []flagDef) []string {
	out := make([]string, len(flags))
	for i, f := range flags {
		out[i] = "--" + f.Long
	}
	return out
}

// ---------------------------------------------------------------------------
// Zsh
// ---------------------------------------------------------------------------

func generateZsh(cmds []commandDef) string {
	var b strings.Builder
	b.WriteString("#compdef lesspipe\n\n")
	b.WriteString("_lesspipe() {\n")
	b.WriteString("    local -a commands\n")
	b.WriteString("    commands=(\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        '%s:%s'\n", c.Name, zshEscape(c.Desc))
	}
	b.WriteString("    )\n\n")
	b.WriteString("    if (( CURRENT == 2 )); then\n")
	b.WriteString("        _describe 'command' commands\n")
	b.WriteString("        _files -g '*.less'\n")
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")
	b.WriteString("    local cmd=\"${words[2]}\"\n")
	b.WriteString("    shift words\n")
	b.WriteString("    (( CURRENT-- ))\n\n")
	b.WriteString("    case \"$cmd\" in\n")

	for _, c := range cmds {
		if len(c.Flags) == 0 && len(c.Args) == 0 && c.FilePattern == "" {
			continue
		}
		fmt.Fprintf(&b, "    %s)\n", c.Name)
		b.WriteString("        _arguments -s")
		for _, f := range c.Flags {
			fmt.Fprintf(&b, " \\\n            %s", zshFlagSpec(f))
		}
		switch {
		case len(c.Args) > 0:
			fmt.Fprintf(&b, " \\\n            '1:argument:(%s)'", strings.Join(c.Args, " "))
		case c.FilePattern != "":
			fmt.Fprintf(&b, " \\\n            '*:file:_files -g \"%s\"'", zshGlob(c.FilePattern))
		}
		b.WriteString("\n        ;;\n")
	}

	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	b.WriteString("_lesspipe \"$@\"\n")
	return b.String()
}

// zshFlagSpec renders one _arguments entry.
func zshFlagSpec(f flagDef) string {
	desc := "[" + zshEscape(f.Desc) + "]"

	var action string
	switch f.Type {
	case flagBool:
	case flagEnum:
		action = ":value:(" + strings.Join(f.Values, " ") + ")"
	case flagFile:
		action = ":file:_files -g \"" + zshGlob(f.FileGlob) + "\""
	case flagDir:
		action = ":directory:_files -/"
	default:
		action = ":value: "
	}

	prefix := ""
	if f.Repeatable {
		prefix = "*"
	}
	if f.Short == "" {
		return "'" + prefix + "--" + f.Long + desc + action + "'"
	}
	exclusion := "'(-" + f.Short + " --" + f.Long + ")'"
	if f.Repeatable {
		exclusion = "'*'"
	}
	return exclusion + "{-" + f.Short + ",--" + f.Long + "}'" + desc + action + "'"
}

// zshGlob joins a comma separated glob list into one zsh pattern.
func zshGlob(pattern string) string {
	g := globs(pattern)
	if len(g) == 1 {
		return g[0]
	}
	return "(" + strings.Join(g, "|") + ")"
}

// zshEscape makes s safe inside a single-quoted _arguments description.
func zshEscape(s string) string {
	return strings.NewReplacer(`'`, `'\''`, `[`, `\[`, `]`, `\]`, `:`, `\:`).Replace(s)
}

// ---------------------------------------------------------------------------
// Fish
// ---------------------------------------------------------------------------

func generateFish(cmds []commandDef) string {
	var b strings.Builder
	b.WriteString("# fish completion for lesspipe\n\n")
	b.WriteString("function __fish_lesspipe_needs_command\n")
	b.WriteString("    set -l cmd (commandline -opc)\n")
	b.WriteString("    test (count $cmd) -eq 1\n")
	b.WriteString("end\n\n")
	b.WriteString("function __fish_lesspipe_using_command\n")
	b.WriteString("    set -l cmd (commandline -opc)\n")
	b.WriteString("    test (count $cmd) -gt 1; and test $cmd[2] = $argv[1]\n")
	b.WriteString("end\n\n")
	b.WriteString("complete -c lesspipe -f\n")

	for _, c := range cmds {
		fmt.Fprintf(&b, "complete -c lesspipe -n __fish_lesspipe_needs_command -a %s -d '%s'\n", c.Name, fishEscape(c.Desc))
	}
	b.WriteString("complete -c lesspipe -n __fish_lesspipe_needs_command -a '(__fish_complete_suffix .less)'\n")

	for _, c := range cmds {
		cond := fmt.Sprintf("-n '__fish_lesspipe_using_command %s'", c.Name)
		b.WriteString("\n")
		for _, f := range c.Flags {
			fmt.Fprintf(&b, "complete -c lesspipe %s", cond)
			if f.Short != "" {
				fmt.Fprintf(&b, " -s %s", f.Short)
			}
			fmt.Fprintf(&b, " -l %s -d '%s'", f.Long, fishEscape(f.Desc))
			switch f.Type {
			case flagBool:
			case flagEnum:
				fmt.Fprintf(&b, " -x -a '%s'", strings.Join(f.Values, " "))
			case flagFile:
				fmt.Fprintf(&b, " -r -a '%s'", fishSuffixes(f.FileGlob))
			case flagDir:
				b.WriteString(" -x -a '(__fish_complete_directories)'")
			default:
				b.WriteString(" -x")
			}
			b.WriteString("\n")
		}
		switch {
		case len(c.Args) > 0:
			fmt.Fprintf(&b, "complete -c lesspipe %s -a '%s'\n", cond, strings.Join(c.Args, " "))
		case c.FilePattern != "":
			fmt.Fprintf(&b, "complete -c lesspipe %s -a '%s'\n", cond, fishSuffixes(c.FilePattern))
		}
	}
	return b.String()
}

// fishSuffixes turns "*.yaml,*.yml" into suffix completion calls.
func fishSuffixes(pattern string) string {
	var calls []string
	for _, g := range globs(pattern) {
		calls = append(calls, "(__fish_complete_suffix "+strings.TrimPrefix(g, "*")+")")
	}
	return strings.Join(calls, " ")
}

func fishEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

// ---------------------------------------------------------------------------
// PowerShell
// ---------------------------------------------------------------------------

func generatePowerShell(cmds []commandDef) string {
	var b strings.Builder
	b.WriteString("# powershell completion for lesspipe\n\n")
	b.WriteString("Register-ArgumentCompleter -Native -CommandName lesspipe -ScriptBlock {\n")
	b.WriteString("    param($wordToComplete, $commandAst, $cursorPosition)\n\n")
	b.WriteString("    $words = @($commandAst.CommandElements | ForEach-Object { $_.ToString() })\n")
	b.WriteString("    $commands = [ordered]@{\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        '%s' = '%s'\n", c.Name, psEscape(c.Desc))
	}
	b.WriteString("    }\n\n")
	b.WriteString("    if ($words.Count -lt 2 -or ($words.Count -eq 2 -and $wordToComplete)) {\n")
	b.WriteString("        $commands.GetEnumerator() | Where-Object { $_.Key -like \"$wordToComplete*\" } | ForEach-Object {\n")
	b.WriteString("            [System.Management.Automation.CompletionResult]::new($_.Key, $_.Key, 'ParameterValue', $_.Value)\n")
	b.WriteString("        }\n")
	b.WriteString("        return\n")
	b.WriteString("    }\n\n")
	b.WriteString("    $candidates = switch ($words[1]) {\n")
	for _, c := range cmds {
		var values []string
		for _, f := range c.Flags {
			values = append(values, "'--"+f.Long+"'")
		}
		for _, a := range c.Args {
			values = append(values, "'"+psEscape(a)+"'")
		}
		fmt.Fprintf(&b, "        '%s' { @(%s) }\n", c.Name, strings.Join(values, ", "))
	}
	b.WriteString("        default { @() }\n")
	b.WriteString("    }\n\n")
	b.WriteString("    $candidates | Where-Object { $_ -like \"$wordToComplete*\" } | ForEach-Object {\n")
	b.WriteString("        [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)\n")
	b.WriteString("    }\n")
	b.WriteString("}\n")
	return b.String()
}

func psEscape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
