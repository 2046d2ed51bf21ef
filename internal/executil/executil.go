package executil

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os/exec"
	"time"
)

type CmdSpec struct {
	Path    string
	Args    []string
	Timeout time.Duration
	Dir     string
}

// Status tags how a process run ended.
type Status string

const (
	StatusOK         Status = "ok"
	StatusExit       Status = "exit"
	StatusTimeout    Status = "timeout"
	StatusNotFound   Status = "not-found"
	StatusStartError Status = "start-error"
)

// Result is what Run captured. Stdout is kept even when the process exited
// non-zero.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Status   Status
	Err      error
}

// Started reports whether the process was spawned and ran to an exit code.
func (r Result) Started() bool { return r.Status == StatusOK || r.Status == StatusExit }

func (spec CmdSpec) command(ctx context.Context) (*exec.Cmd, context.Context, context.CancelFunc) {
	cctx, cancel := ctx, context.CancelFunc(func() {})
	if spec.Timeout > 0 {
		cctx, cancel = context.WithTimeout(ctx, spec.Timeout)
	}
	cmd := exec.CommandContext(cctx, spec.Path, spec.Args...)
	if spec.Dir != "" {
		cmd.Dir = spec.Dir
	}
	// Stop waiting on grandchildren that still hold the pipes.
	cmd.WaitDelay = time.Second
	return cmd, cctx, cancel
}

// Run executes spec synchronously and classifies the outcome.
func Run(ctx context.Context, spec CmdSpec) Result {
	cmd, cctx, cancel := spec.command(ctx)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), Err: err}
	res.Status, res.ExitCode = classify(cmd, cctx.Err(), err)
	return res
}

func classify(cmd *exec.Cmd, ctxErr, err error) (Status, int) {
	if err == nil {
		return StatusOK, 0
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return StatusNotFound, -1
	}
	if cmd.ProcessState == nil {
		return StatusStartError, -1
	}
	if ctxErr != nil {
		return StatusTimeout, cmd.ProcessState.ExitCode()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return StatusExit, exitErr.ExitCode()
	}
	// The process itself exited; a leftover child kept its output pipes
	// open past WaitDelay.
	if errors.Is(err, exec.ErrWaitDelay) {
		if code := cmd.ProcessState.ExitCode(); code != 0 {
			return StatusExit, code
		}
		return StatusOK, 0
	}
	return StatusStartError, -1
}
