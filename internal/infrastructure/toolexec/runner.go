// Package toolexec runs external command-line tools with an explicit timeout
// and captures their output.  Every external tool ProtFlow drives (Open Babel,
// P2Rank, AutoDock Vina) goes through a Runner so stages can be tested with a
// fake implementation.
package toolexec

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"unicode/utf8"
	"time"

	apperrors "github.com/turtacn/protflow/pkg/errors"
)

// DefaultTimeout applies when a Command carries no timeout of its own.
const DefaultTimeout = 60 * time.Second

// waitDelay bounds how long Wait blocks on I/O after the process is killed.
const waitDelay = 2 * time.Second

// Command describes a single tool invocation.
type Command struct {
	Name    string
	Args    []string
	Dir     string
	Timeout time.Duration
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result captures the outcome of a completed invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Runner executes a Command.  Implementations must return:
//   - ErrCodeToolTimeout when the timeout elapses,
//   - ErrCodeToolFailed for a non-zero exit (stderr in the error detail),
//   - ErrCodeToolStartFailed when the process could not be started.
//
// The Result is populated as far as possible in every case.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner() *ExecRunner { return &ExecRunner{} }

// Run executes cmd, killing it when cmd.Timeout (or DefaultTimeout) elapses.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c := exec.CommandContext(runCtx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	start := time.Now()
	err := c.Run()
	res := Result{
		ExitCode: -1,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if c.ProcessState != nil {
		res.ExitCode = c.ProcessState.ExitCode()
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return res, apperrors.Newf(apperrors.ErrCodeToolTimeout, "%s timed out after %s", cmd.Name, timeout).
			WithDetail(tail(res.Stderr))
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return res, apperrors.Newf(apperrors.ErrCodeToolFailed, "%s exited with status %d", cmd.Name, res.ExitCode).
				WithDetail(tail(res.Stderr))
		}
		return res, apperrors.Wrap(err, apperrors.ErrCodeToolStartFailed, "failed to start "+cmd.Name)
	}
	return res, nil
}

// maxDetail caps the stderr excerpt attached to errors, in bytes.
const maxDetail = 2000

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxDetail {
		return s
	}
	start := len(s) - maxDetail
	for start < len(s) && !utf8.RuneStart(s[start]) {
		start++
	}
	return s[start:]
}

//Personal.AI order the ending
