package services

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Executor abstracts external command execution so collaborators can be
// exercised in tests without the real binaries.
type Executor interface {
	// Output runs binary with args and returns its standard output.
	Output(ctx context.Context, binary string, args []string) ([]byte, error)
}

// CommandExecutor runs commands with os/exec.
type CommandExecutor struct{}

// Output executes the command, folding trimmed stderr into the returned error.
func (CommandExecutor) Output(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return out, fmt.Errorf("%s: %w", binary, ctxErr)
		}
		detail := lastLine(stderr.String())
		if detail == "" {
			return out, fmt.Errorf("%s: %w", binary, err)
		}
		return out, fmt.Errorf("%s: %w: %s", binary, err, detail)
	}
	return out, nil
}

func lastLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
