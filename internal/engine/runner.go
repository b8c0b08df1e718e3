package engine

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"time"
)

const (
	defaultTailBytes = 16 * 1024
	defaultKillDelay = 5 * time.Second
)

type ExecRunner interface {
	Run(ctx context.Context, spec ExecSpec) ExecResult
}

// SubprocessRunner runs commands with os/exec. Output is mirrored to the
// optional writers and the last TailBytes of each stream are kept for error
// messages.
type SubprocessRunner struct {
	Stdout    io.Writer
	Stderr    io.Writer
	TailBytes int
	KillDelay time.Duration
}

func NewSubprocessRunner(stdout, stderr io.Writer) *SubprocessRunner {
	return &SubprocessRunner{
		Stdout:    stdout,
		Stderr:    stderr,
		TailBytes: defaultTailBytes,
		KillDelay: defaultKillDelay,
	}
}

func (r *SubprocessRunner) Run(ctx context.Context, spec ExecSpec) ExecResult {
	start := time.Now()
	if spec.Bin == "" {
		return ExecResult{ExitCode: 1, Err: errors.New("missing binary")}
	}

	runCtx, cancel := withOptionalTimeout(ctx, spec.Timeout)
	defer cancel()

	stdoutTail := newTailBuffer(r.TailBytes)
	stderrTail := newTailBuffer(r.TailBytes)
	err := r.command(runCtx, spec, stdoutTail, stderrTail).Run()

	result := ExecResult{
		Duration:   time.Since(start),
		StdoutTail: stdoutTail.String(),
		StderrTail: stderrTail.String(),
		Err:        err,
	}
	result.ExitCode, result.Interrupted, result.TimedOut = exitStatus(runCtx, err)
	return result
}

func (r *SubprocessRunner) command(ctx context.Context, spec ExecSpec, stdoutTail, stderrTail io.Writer) *exec.Cmd {
	cmd := exec.CommandContext(ctx, spec.Bin, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Stdout = tee(r.Stdout, stdoutTail)
	cmd.Stderr = tee(r.Stderr, stderrTail)

	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		killProcessGroup(cmd)
		return nil
	}
	cmd.WaitDelay = r.KillDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = defaultKillDelay
	}
	return cmd
}

func withOptionalTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func tee(mirror io.Writer, tail io.Writer) io.Writer {
	if mirror == nil {
		return tail
	}
	return io.MultiWriter(mirror, tail)
}

// exitStatus maps a finished command to a shell-style exit code: 130 after
// cancellation, 127 when the binary is not on PATH.
func exitStatus(ctx context.Context, err error) (code int, interrupted bool, timedOut bool) {
	if err == nil {
		return 0, false, false
	}
	switch ctx.Err() {
	case context.Canceled:
		return 130, true, false
	case context.DeadlineExceeded:
		timedOut = true
	}

	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		return exitErr.ExitCode(), false, timedOut
	case errors.Is(err, exec.ErrNotFound):
		return 127, false, timedOut
	default:
		return 1, false, timedOut
	}
}

type tailBuffer struct {
	buf []byte
	max int
}

func newTailBuffer(max int) *tailBuffer {
	if max <= 0 {
		max = defaultTailBytes
	}
	return &tailBuffer{
		buf: make([]byte, 0, max),
		max: max,
	}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	if len(p) >= t.max {
		t.buf = append(t.buf[:0], p[len(p)-t.max:]...)
		return len(p), nil
	}
	if overflow := len(t.buf) + len(p) - t.max; overflow > 0 {
		t.buf = append(t.buf[:0], t.buf[overflow:]...)
	}
	t.buf = append(t.buf, p...)
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return string(t.buf)
}
