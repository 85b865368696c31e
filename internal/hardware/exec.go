package hardware

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"golang.org/x/sync/semaphore"
)

// Runner executes an external tool and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ErrToolMissing is returned when the requested binary is not on PATH.
var ErrToolMissing = errors.New("tool not found")

// ExecRunner runs processes with a per-call timeout and a process-wide cap on
// how many may run at once.
type ExecRunner struct {
	timeout time.Duration
	sem     *semaphore.Weighted
}

// NewExecRunner returns a runner. Non-positive arguments fall back to 3s and 4.
func NewExecRunner(timeout time.Duration, maxConcurrent int) *ExecRunner {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &ExecRunner{timeout: timeout, sem: semaphore.NewWeighted(int64(maxConcurrent))}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, ErrToolMissing)
	}
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	defer r.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, path, args...)
	// Children that inherit stdout must not keep Output blocked after the kill.
	cmd.WaitDelay = 500 * time.Millisecond
	out, err := cmd.Output()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%s: %w", name, ctxErr)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}
