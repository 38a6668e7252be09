package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/alnah/go-lesspipe/internal/process"
)

// ErrCommandNotFound is returned when the external compiler binary is not on PATH.
var ErrCommandNotFound = errors.New("command not found")

// CommandRunner abstracts command execution to enable testing without real subprocesses.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout string, stderr string, err error)
}

// ExecRunner implements CommandRunner using os/exec.
// Canceling ctx kills the command and every process it spawned.
type ExecRunner struct{}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	process.Isolate(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	switch {
	case err == nil:
	case errors.Is(err, exec.ErrNotFound):
		err = fmt.Errorf("%w: %s", ErrCommandNotFound, name)
	case ctx.Err() != nil:
		err = fmt.Errorf("running %s: %w", name, ctx.Err())
	}
	return stdout.String(), stderr.String(), err
}
