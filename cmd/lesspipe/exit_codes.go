package main

import (
	"context"
	"errors"
	"os"

	lesspipe "github.com/alnah/go-lesspipe"
	"github.com/alnah/go-lesspipe/internal/config"
	"github.com/alnah/go-lesspipe/internal/logging"
	"github.com/alnah/go-lesspipe/internal/pipeline"
)

// Exit codes for lesspipe CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // All stylesheets rendered
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitCompile = 4 // Compiler or post-processor failure
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Toolchain errors (exit 4)
	if errors.Is(err, lesspipe.ErrCompile) ||
		errors.Is(err, lesspipe.ErrPrefix) ||
		errors.Is(err, lesspipe.ErrMinify) ||
		errors.Is(err, lesspipe.ErrSourceMap) ||
		errors.Is(err, pipeline.ErrCommandNotFound) ||
		errors.Is(err, context.DeadlineExceeded) {
		return ExitCompile
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, lesspipe.ErrSourceRead) ||
		errors.Is(err, ErrReadLess) ||
		errors.Is(err, ErrWriteCSS) ||
		errors.Is(err, ErrCreateOutputDir) ||
		errors.Is(err, ErrNoInput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, lesspipe.ErrMissingFrom) ||
		errors.Is(err, lesspipe.ErrMissingTo) ||
		errors.Is(err, lesspipe.ErrInvalidMath) ||
		errors.Is(err, lesspipe.ErrInvalidVar) ||
		errors.Is(err, lesspipe.ErrEmptyInclude) ||
		errors.Is(err, lesspipe.ErrInvalidBrowser) ||
		errors.Is(err, logging.ErrInvalidLevel) ||
		errors.Is(err, logging.ErrInvalidFormat) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidTimeout) ||
		errors.Is(err, ErrUnknownCommand) ||
		errors.Is(err, ErrUnexpectedArgs) ||
		errors.Is(err, ErrUnsupportedShell) {
		return ExitUsage
	}

	return ExitGeneral
}
