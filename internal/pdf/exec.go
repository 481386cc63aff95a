package pdf

import (
	"context"
	"os/exec"
)

// CommandExecutor abstracts external tool invocation so tests can
// substitute a fake. Run returns the tool's combined stdout and stderr.
type CommandExecutor interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execCommander struct{}

func (execCommander) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// NewCommandExecutor returns the executor backed by os/exec.
func NewCommandExecutor() CommandExecutor {
	return execCommander{}
}
