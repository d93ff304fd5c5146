package render

import (
	"context"
	"os/exec"
)

// Executor abstracts subprocess execution so tests can fake renderer
// binaries without a PATH.
type Executor interface {
	// Run executes the binary and returns its combined output.
	Run(ctx context.Context, binary string, args ...string) ([]byte, error)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	return cmd.CombinedOutput()
}

// firstLine trims subprocess output down to something log-friendly.
func firstLine(output []byte) string {
	for i, b := range output {
		if b == '\n' {
			return string(output[:i])
		}
	}
	return string(output)
}
