// Package process runs shell command lines as cancellable subprocesses.
//
// Each command runs in its own process group (a job-like tree on Windows)
// so that cancelling tears down everything the shell started, not only
// the shell itself.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/san-kum/mcerdsim/internal/simerr"
)

const (
	// StderrTail is how much of the end of stderr a Result keeps.
	StderrTail = 4 << 10

	defaultWaitDelay = 5 * time.Second
)

// Options tune one process start.
type Options struct {
	Dir    string
	Env    []string
	Stdout io.Writer
	Stderr io.Writer
}

// Runner starts command lines.
type Runner interface {
	Start(ctx context.Context, cmdline string, opts Options) (*Process, error)
}

// Result describes a finished process.
type Result struct {
	ExitCode  int
	Stderr    string
	StartedAt time.Time
	EndedAt   time.Time
	// Err is nil on success, *simerr.RunFailure on a non-zero exit and
	// wraps simerr.ErrCancelled when the context ended the process.
	Err error
}

func (r *Result) Duration() time.Duration { return r.EndedAt.Sub(r.StartedAt) }

func (r *Result) Success() bool { return r.Err == nil }

// ShellRunner runs command lines through the platform shell.
type ShellRunner struct {
	Logger *slog.Logger
	// WaitDelay bounds how long Wait lingers on open output pipes after the
	// process group is killed.
	WaitDelay time.Duration
}

func NewShellRunner(logger *slog.Logger) *ShellRunner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ShellRunner{Logger: logger, WaitDelay: defaultWaitDelay}
}

// Start launches cmdline and returns without waiting for it. Cancelling
// ctx kills the whole process group. A *simerr.SpawnError is returned when
// no process could be created.
func (r *ShellRunner) Start(ctx context.Context, cmdline string, opts Options) (*Process, error) {
	if strings.TrimSpace(cmdline) == "" {
		return nil, simerr.Config("command", "is empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", simerr.ErrCancelled, err)
	}

	cmd := shellCommand(ctx, cmdline)
	cmd.Dir = opts.Dir
	cmd.Env = opts.Env
	cmd.Stdout = opts.Stdout

	tail := newTailBuffer(StderrTail)
	if opts.Stderr != nil {
		cmd.Stderr = io.MultiWriter(tail, opts.Stderr)
	} else {
		cmd.Stderr = tail
	}

	isolate(cmd)
	cmd.Cancel = func() error { return killTree(cmd) }
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = defaultWaitDelay
	}

	started := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, &simerr.SpawnError{Path: cmd.Path, Err: err}
	}

	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Debug("process started", "pid", cmd.Process.Pid, "command", cmdline)

	p := &Process{
		cmd:       cmd,
		ctx:       ctx,
		stderr:    tail,
		startedAt: started,
		logger:    logger,
		done:      make(chan struct{}),
	}
	go p.wait()
	return p, nil
}

// Process is a started command.
type Process struct {
	cmd       *exec.Cmd
	ctx       context.Context
	stderr    *tailBuffer
	startedAt time.Time
	logger    *slog.Logger

	done   chan struct{}
	result *Result
}

func (p *Process) Pid() int { return p.cmd.Process.Pid }

// Done is closed once the process has exited and its Result is ready.
func (p *Process) Done() <-chan struct{} { return p.done }

// Wait blocks until the process exits.
func (p *Process) Wait() *Result {
	<-p.done
	return p.result
}

func (p *Process) wait() {
	err := p.cmd.Wait()
	res := &Result{
		ExitCode:  -1,
		Stderr:    p.stderr.String(),
		StartedAt: p.startedAt,
		EndedAt:   time.Now(),
	}
	if p.cmd.ProcessState != nil {
		res.ExitCode = p.cmd.ProcessState.ExitCode()
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case p.ctx.Err() != nil:
		res.Err = fmt.Errorf("%w: %v", simerr.ErrCancelled, context.Cause(p.ctx))
	case errors.As(err, &exitErr):
		res.Err = &simerr.RunFailure{ExitCode: res.ExitCode, Stderr: res.Stderr}
	default:
		res.Err = &simerr.RunFailure{ExitCode: res.ExitCode, Stderr: err.Error()}
	}

	p.logger.Debug("process exited",
		"pid", p.cmd.Process.Pid,
		"exit_code", res.ExitCode,
		"duration", res.Duration(),
		"error", res.Err,
	)
	p.result = res
	close(p.done)
}

// CheckExecutable reports a *simerr.SpawnError when path cannot be run.
// Bare names are looked up in PATH the same way the shell would.
func CheckExecutable(path string) error {
	if _, err := exec.LookPath(path); err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			err = execErr.Err
		}
		return &simerr.SpawnError{Path: path, Err: err}
	}
	return nil
}
