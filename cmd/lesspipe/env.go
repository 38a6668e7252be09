package main

import (
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/afero"

	lesspipe "github.com/alnah/go-lesspipe"
	"github.com/alnah/go-lesspipe/internal/pipeline"
)

// Environment holds injectable dependencies for testability.
// Includes I/O, time, the filesystem and the tools the CLI shells out to.
type Environment struct {
	Now      func() time.Time
	Stdout   io.Writer
	Stderr   io.Writer
	Fs       afero.Fs                          // inputs, outputs and map sources
	Compiler lesspipe.Compiler                 // nil = lessc subprocess
	Runner   pipeline.CommandRunner            // used by doctor
	LookPath func(file string) (string, error) // used by doctor
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:      time.Now,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Fs:       afero.NewOsFs(),
		Runner:   &pipeline.ExecRunner{},
		LookPath: exec.LookPath,
	}
}
