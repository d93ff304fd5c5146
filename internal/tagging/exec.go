package tagging

import (
	"context"
	"os/exec"
)

// Executor runs the tagging binary. Tests swap it for a fake.
type Executor interface {
	Run(ctx context.Context, binary string, args ...string) ([]byte, error)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	return cmd.CombinedOutput()
}
