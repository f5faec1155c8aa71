package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
)

// Runner launches the parsing tool once per probe.
type Runner struct {
	Command CommandConfig
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewRunner creates a Runner for the given command. A zero timeout
// lets every probe run to completion.
func NewRunner(
	command CommandConfig,
	timeout time.Duration,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		Command: command,
		Timeout: timeout,
		Logger:  logger.With(slog.String("tool", command.Tool)),
	}
}

// Probe runs the tool on file with a heap limit of memMB megabytes and
// returns its exit code. Output of the tool is discarded. An error is
// returned only when the process could not be run at all.
func (r *Runner) Probe(ctx context.Context, file string, memMB int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	probeCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(
		probeCtx, r.Command.runtime(), r.Command.Args(memMB, file)...,
	)

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	code, err := exitCode(err)
	if err != nil {
		return 0, fmt.Errorf("run %s: %w", r.Command.runtime(), err)
	}

	// A parent cancellation kills the child; that is not a verdict on memMB.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return 0, ctxErr
	}

	r.Logger.Debug("probe finished",
		slog.String("file", file),
		slog.Int("mem_mb", memMB),
		slog.Int("exit_code", code),
		slog.Duration("elapsed", elapsed),
	)

	return code, nil
}

func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code < 0 {
			// Killed by a signal (including the probe timeout).
			code = 1
		}

		return code, nil
	}

	return 0, err
}
