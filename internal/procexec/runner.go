// Package procexec runs external programs with an argument vector, captures
// their output and guarantees the process is gone when the context ends.
package procexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/exec"
	"sync"
	"time"

	"github.com/shirou/gopsutil/process"

	"github.com/natadecua/SNOOP/internal/logging"
	"github.com/natadecua/SNOOP/internal/model"
)

// DefaultKillGrace is how long a process group gets between SIGTERM and SIGKILL.
const DefaultKillGrace = 5 * time.Second

// Runner implements interfaces.CommandRunner on top of os/exec.
type Runner struct {
	killGrace time.Duration
	logger    logging.Logger
}

// NewRunner creates a Runner. killGrace <= 0 uses DefaultKillGrace.
func NewRunner(killGrace time.Duration, logger logging.Logger) *Runner {
	if killGrace <= 0 {
		killGrace = DefaultKillGrace
	}
	if logger == nil {
		logger = logging.NewStdoutLogger("procexec")
	}
	return &Runner{
		killGrace: killGrace,
		logger:    logger.With(logging.F("component", "procexec")),
	}
}

// Run starts c and blocks until the process has been reaped.
//
// When ctx is done the whole process group receives SIGTERM, then SIGKILL
// once the grace period has passed. The result reports TimedOut when ctx
// hit its deadline. A non-zero exit is not an error.
func (r *Runner) Run(ctx context.Context, c model.Command) (*model.ProcessResult, error) {
	if c.Name == "" {
		return nil, fmt.Errorf("%w: empty command name", model.ErrCommandNotFound)
	}
	path, err := exec.LookPath(c.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrCommandNotFound, c.Name, err)
	}

	cmd := exec.CommandContext(ctx, path, c.Args...)
	cmd.Dir = c.Dir

	var stdout, stderr bytes.Buffer
	var outLines, errLines *lineWriter
	cmd.Stdout, cmd.Stderr = io.Writer(&stdout), io.Writer(&stderr)
	if c.OnLine != nil {
		mu := &sync.Mutex{}
		outLines = newLineWriter(model.StreamStdout, c.OnLine, mu)
		errLines = newLineWriter(model.StreamStderr, c.OnLine, mu)
		cmd.Stdout = io.MultiWriter(&stdout, outLines)
		cmd.Stderr = io.MultiWriter(&stderr, errLines)
	}

	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		return signalGroup(cmd.Process.Pid, sigTerm)
	}
	cmd.WaitDelay = r.killGrace

	started := time.Now()
	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %v", model.ErrCommandNotFound, c.Name, err)
		}
		return nil, fmt.Errorf("starting %s: %w", c.Name, err)
	}
	pid := cmd.Process.Pid
	r.logger.Debug("process started", logging.F("pid", pid), logging.F("command", c.String()))

	waitErr := cmd.Wait()
	finished := time.Now()

	if outLines != nil {
		outLines.Flush()
		errLines.Flush()
	}

	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	res := &model.ProcessResult{
		PID:        pid,
		ExitCode:   exitCode,
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		StartedAt:  started,
		FinishedAt: finished,
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		// The leader is reaped; anything it left behind in its group goes now.
		_ = signalGroup(pid, sigKill)
		r.ensureGone(pid)
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			res.TimedOut = true
			r.logger.Warn("process terminated after deadline",
				logging.F("pid", pid),
				logging.F("command", c.Name),
				logging.F("elapsed", res.Duration().String()))
			return res, nil
		}
		return res, fmt.Errorf("running %s: %w", c.Name, ctxErr)
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) && !errors.Is(waitErr, exec.ErrWaitDelay) {
			return res, fmt.Errorf("waiting for %s: %w", c.Name, waitErr)
		}
	}

	r.logger.Debug("process exited",
		logging.F("pid", pid),
		logging.F("exit_code", res.ExitCode),
		logging.F("elapsed", res.Duration().String()))
	return res, nil
}

// ensureGone logs when a terminated pid is still present in the process table.
func (r *Runner) ensureGone(pid int) {
	alive, err := process.PidExists(int32(pid))
	if err != nil {
		r.logger.Debug("checking process liveness", logging.F("pid", pid), logging.F("error", err.Error()))
		return
	}
	if alive {
		r.logger.Warn("terminated process still present", logging.F("pid", pid))
	}
}

// lineWriter splits a byte stream into lines and hands each to fn.
type lineWriter struct {
	stream model.Stream
	fn     model.LineFunc
	mu     *sync.Mutex
	buf    []byte
}

func newLineWriter(stream model.Stream, fn model.LineFunc, mu *sync.Mutex) *lineWriter {
	return &lineWriter{stream: stream, fn: fn, mu: mu}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		line := string(bytes.TrimRight(w.buf[:i], "\r"))
		w.buf = w.buf[i+1:]
		w.emit(line)
	}
	return len(p), nil
}

// Flush emits a trailing line that had no newline.
func (w *lineWriter) Flush() {
	if len(w.buf) == 0 {
		return
	}
	line := string(w.buf)
	w.buf = nil
	w.emit(line)
}

func (w *lineWriter) emit(line string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fn(w.stream, line)
}
