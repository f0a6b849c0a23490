package fpcalc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"mpsync/internal/services"
)

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec services.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps fpcalc CLI interactions.
type Client struct {
	binary  string
	timeout time.Duration
	exec    services.Executor
}

type fpcalcOutput struct {
	Duration    float64 `json:"duration"`
	Fingerprint string  `json:"fingerprint"`
}

// New constructs an fpcalc client.
func New(binary string, timeout time.Duration, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("fpcalc binary required")
	}
	client := &Client{
		binary:  binary,
		timeout: timeout,
		exec:    services.CommandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Compute returns the fingerprint of the audio file at path.
func (c *Client) Compute(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", services.Wrap(services.ErrFingerprint, "fingerprint", "stat", path, err)
	}
	if !info.Mode().IsRegular() {
		return "", services.Wrap(services.ErrFingerprint, "fingerprint", "stat", path+" is not a regular file", nil)
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	out, err := c.exec.Output(runCtx, c.binary, []string{"-json", path})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", services.Wrap(services.ErrFingerprint, "fingerprint", "fpcalc", path, err)
	}

	var parsed fpcalcOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return "", services.Wrap(services.ErrFingerprint, "fingerprint", "parse output", path, err)
	}
	fingerprint := strings.TrimSpace(parsed.Fingerprint)
	if fingerprint == "" {
		return "", services.Wrap(services.ErrFingerprint, "fingerprint", "fpcalc", fmt.Sprintf("%s produced an empty fingerprint", path), nil)
	}
	return fingerprint, nil
}
