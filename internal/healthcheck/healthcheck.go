package healthcheck

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	// ExitTimedOut is reported for a check killed because it exceeded the
	// runner timeout.
	ExitTimedOut = 124
	// ExitSpawnFailed is reported for a check whose process could not be
	// started at all. It is negative and not -1, so it never matches a real
	// exit status or a signal.
	ExitSpawnFailed = -2
)

const (
	DefaultShell = "/bin/sh"

	// drainGrace bounds how long output is drained after a check exits or is
	// killed while a grandchild still holds its pipe open.
	drainGrace = 2 * time.Second
)

var (
	ErrTimeout = errors.New("check timed out")
	ErrSpawn   = errors.New("check could not be started")
)

// Result is the outcome of a single check command.
type Result struct {
	Command string
	// Output holds stdout and stderr combined in the order they were written.
	Output   []byte
	ExitCode int
	Duration time.Duration
	// Err is set when the result was synthesized rather than reported by
	// the process: ErrSpawn, ErrTimeout or the caller's context error.
	Err error
}

// Passed reports whether the check exited with status 0.
func (r Result) Passed() bool {
	return r.ExitCode == 0
}

// Runner executes check commands through a shell.
type Runner struct {
	shell   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewRunner creates a Runner. An empty shell falls back to DefaultShell.
// A zero timeout lets checks run until they exit on their own.
func NewRunner(shell string, timeout time.Duration, logger *slog.Logger) *Runner {
	if shell == "" {
		shell = DefaultShell
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		shell:   shell,
		timeout: timeout,
		logger:  logger,
	}
}

// Run starts every command at once and blocks until all of them have
// terminated and their output has been drained. The returned slice has one
// Result per command, in the order of commands, whatever order they
// finished in. A command that cannot be started does not affect the others.
func (r *Runner) Run(ctx context.Context, commands []string) []Result {
	results := make([]Result, len(commands))
	if len(commands) == 0 {
		return results
	}

	var g errgroup.Group
	for i, command := range commands {
		i, command := i, command
		g.Go(func() error {
			results[i] = r.runOne(ctx, command)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (r *Runner) runOne(ctx context.Context, command string) Result {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var output bytes.Buffer

	cmd := exec.CommandContext(ctx, r.shell, "-c", command)
	// A single writer for both streams makes exec share one pipe, which
	// keeps the relative order of stdout and stderr writes.
	cmd.Stdout = &output
	cmd.Stderr = &output
	if r.timeout > 0 {
		cmd.WaitDelay = drainGrace
	}
	configureProcess(cmd)

	start := time.Now()
	err := cmd.Run()

	result := Result{
		Command:  command,
		Duration: time.Since(start),
	}

	var exitErr *exec.ExitError

	switch {
	case err == nil:
		result.ExitCode = 0

	case errors.Is(ctx.Err(), context.DeadlineExceeded) && r.timeout > 0:
		fmt.Fprintf(&output, "\ncheck timed out after %s", r.timeout)
		result.ExitCode = ExitTimedOut
		result.Err = ErrTimeout
		r.logger.Warn("Check timed out",
			slog.String("command", command),
			slog.Duration("timeout", r.timeout))

	case ctx.Err() != nil:
		result.ExitCode = exitCode(cmd, -1)
		result.Err = ctx.Err()
		r.logger.Warn("Check cancelled",
			slog.String("command", command),
			slog.Any("err", ctx.Err()))

	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()

	case errors.Is(err, exec.ErrWaitDelay):
		// The shell exited but something it started kept the output pipe.
		result.ExitCode = exitCode(cmd, 0)

	default:
		result.ExitCode = ExitSpawnFailed
		result.Err = fmt.Errorf("%w: %v", ErrSpawn, err)
		r.logger.Error("Failed to start check",
			slog.String("command", command),
			slog.String("shell", r.shell),
			slog.Any("err", err))
	}

	result.Output = output.Bytes()

	r.logger.Debug("Check finished",
		slog.String("command", command),
		slog.Int("exit_code", result.ExitCode),
		slog.Duration("duration", result.Duration))

	return result
}

func exitCode(cmd *exec.Cmd, fallback int) int {
	if cmd.ProcessState == nil {
		return fallback
	}
	return cmd.ProcessState.ExitCode()
}
