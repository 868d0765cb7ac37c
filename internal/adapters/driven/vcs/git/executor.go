package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// CommandExecutor runs external commands. The pipeline only ever invokes
// git through it, so tests can substitute a mock.
type CommandExecutor interface {
	// Execute runs a command, discarding its output.
	Execute(ctx context.Context, name string, args ...string) error

	// ExecuteWithOutput runs a command and returns its combined stdout.
	ExecuteWithOutput(ctx context.Context, name string, args ...string) (string, error)
}

// ExecExecutor is the default CommandExecutor backed by os/exec.
type ExecExecutor struct{}

// NewExecExecutor creates a new ExecExecutor.
func NewExecExecutor() *ExecExecutor {
	return &ExecExecutor{}
}

// Execute implements CommandExecutor.Execute.
func (e *ExecExecutor) Execute(ctx context.Context, name string, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return commandError(name, args, err, stderr.String())
	}
	return nil
}

// ExecuteWithOutput implements CommandExecutor.ExecuteWithOutput.
func (e *ExecExecutor) ExecuteWithOutput(ctx context.Context, name string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", commandError(name, args, err, stderr.String())
	}
	return stdout.String(), nil
}

func commandError(name string, args []string, err error, stderr string) error {
	if stderr != "" {
		return fmt.Errorf("%s %v: %w: %s", name, args, err, stderr)
	}
	return fmt.Errorf("%s %v: %w", name, args, err)
}
