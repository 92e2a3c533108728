// Package media fetches located clips to local storage and shrinks or remuxes
// them with the external ffmpeg/ffprobe tools.
package media

import (
	"context"
	"os/exec"
)

// Runner abstracts subprocess invocation so probe and encode calls can be
// faked in tests.
type Runner interface {
	// Output runs the command and returns stdout; stderr reaches the caller
	// via exec.ExitError.Stderr.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
	// Combined runs the command and returns interleaved stdout+stderr.
	Combined(ctx context.Context, name string, args ...string) ([]byte, error)
}

type commandRunner struct{}

func (commandRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

func (commandRunner) Combined(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// DefaultRunner executes real subprocesses.
var DefaultRunner Runner = commandRunner{}
