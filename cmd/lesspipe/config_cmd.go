package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alnah/go-lesspipe/internal/yamlutil"
)

// ErrUnexpectedArgs is returned when a command takes no positional arguments.
var ErrUnexpectedArgs = errors.New("unexpected arguments")

func errUnexpectedArgs(args []string) error {
	return fmt.Errorf("%w: %s", ErrUnexpectedArgs, strings.Join(args, " "))
}

// runConfigCmd prints the effective configuration as YAML: the config file
// (if any) with environment variables and flags applied. Accepts render flags.
func runConfigCmd(args []string, env *Environment) int {
	flags, err := parseConfigFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, errHelpRequested) {
			return ExitSuccess
		}
		fmt.Fprintln(env.Stderr, err)
		return ExitUsage
	}

	if err := validateWorkers(flags.workers); err != nil {
		printError(env, err)
		return exitCodeFor(err)
	}

	envCfg := loadEnvConfig()
	cfg, err := loadRenderConfig(flags, envCfg)
	if err != nil {
		printError(env, err)
		return exitCodeFor(err)
	}

	timeout, err := resolveTimeoutWithEnv(flags.timeout, envCfg.Timeout, cfg.Timeout)
	if err != nil {
		printError(env, err)
		return exitCodeFor(err)
	}
	if timeout > 0 {
		cfg.Timeout = timeout.String()
	}
	if flags.workers > 0 || envCfg.Workers > 0 {
		cfg.Workers = resolveWorkers(flags.workers, envCfg.Workers, cfg.Workers)
	}

	out, err := yamlutil.Marshal(cfg)
	if err != nil {
		printError(env, err)
		return ExitGeneral
	}
	_, _ = env.Stdout.Write(out)
	return ExitSuccess
}
