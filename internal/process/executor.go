// Package process runs target executables under an external simulator, one
// command at a time, capturing child stdout and stderr into files and
// decoding the exact exit, signal, or stop status.
package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/covtrace/covtrace/internal/cmdline"
)

// ErrUnknownStatus is returned when the reaped status matches none of the
// three recognized kinds.
var ErrUnknownStatus = errors.New("unknown status returned")

// Executor spawns external commands synchronously. The zero value is not
// usable; construct with NewExecutor.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor creates an executor logging through the given logger.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{logger: logger}
}

// Execute spawns argv[0] (resolved on PATH), redirects the child's stdout
// and stderr to the given files, and blocks until the child terminates.
// Cancelling ctx kills the child. The returned Status covers all three
// recognized terminations; a nonzero exit code is a Status, not an error.
func (e *Executor) Execute(ctx context.Context, label string, argv []string, stdoutPath, stderrPath string) (Status, error) {
	if len(argv) == 0 {
		return Status{}, fmt.Errorf("execute %s: empty argument vector", label)
	}

	if e.logger.Enabled(ctx, slog.LevelDebug) {
		e.logger.Debug("execute",
			"label", label,
			"argv", strings.Join(argv, " "),
		)
	}

	stdout, err := os.Create(stdoutPath)
	if err != nil {
		return Status{}, fmt.Errorf("execute %s: stdout capture: %w", argv[0], err)
	}
	defer stdout.Close()

	stderr := stdout
	if stderrPath != stdoutPath {
		stderr, err = os.Create(stderrPath)
		if err != nil {
			return Status{}, fmt.Errorf("execute %s: stderr capture: %w", argv[0], err)
		}
		defer stderr.Close()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	// Own process group, so a terminal SIGINT reaches covtrace alone and
	// shutdown goes through ctx cancellation.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	runErr := cmd.Run()

	var status Status
	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
		status = Status{Kind: NormalExit, Code: 0}
	case errors.As(runErr, &exitErr):
		ws, ok := exitErr.Sys().(syscall.WaitStatus)
		if !ok {
			return Status{}, fmt.Errorf("execute %s: %w", argv[0], ErrUnknownStatus)
		}
		status, err = decodeStatus(ws)
		if err != nil {
			return Status{}, fmt.Errorf("execute %s: %w", argv[0], err)
		}
	default:
		return Status{}, fmt.Errorf("execute %s: %w", argv[0], runErr)
	}

	e.logger.Debug("execute_status",
		"label", label,
		"status", status.String(),
	)
	return status, nil
}

// ExecuteCommand tokenizes command and delegates to Execute.
func (e *Executor) ExecuteCommand(ctx context.Context, label, command, stdoutPath, stderrPath string) (Status, error) {
	argv, err := cmdline.Split(command)
	if err != nil {
		return Status{}, err
	}
	return e.Execute(ctx, label, argv, stdoutPath, stderrPath)
}

// decodeStatus classifies a raw wait status into one of the three
// recognized kinds.
func decodeStatus(ws syscall.WaitStatus) (Status, error) {
	switch {
	case ws.Exited():
		return Status{Kind: NormalExit, Code: ws.ExitStatus()}, nil
	case ws.Signaled():
		return Status{Kind: Signaled, Code: int(ws.Signal())}, nil
	case ws.Stopped():
		return Status{Kind: Stopped, Code: int(ws.StopSignal())}, nil
	default:
		return Status{}, ErrUnknownStatus
	}
}
