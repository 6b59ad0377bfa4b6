// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/natadecua/SNOOP/internal/logging"
	"github.com/natadecua/SNOOP/internal/model"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// WarnCount returns the number of warnings recorded so far.
func (l *DummyLogger) WarnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Warns)
}

// ─── CommandRunner ─────────────────────────────────────────────────────

// FakeResult is the scripted answer for one command name.
type FakeResult struct {
	Result *model.ProcessResult
	Err    error
}

// FakeRunner implements interfaces.CommandRunner without spawning anything.
// Results are looked up by Command.Name, falling back to Default, and then to
// a zero-exit empty result.
type FakeRunner struct {
	Results map[string]FakeResult
	Default *FakeResult

	// Block, when non-nil, parks Run until it is closed or ctx is done.
	// A ctx deadline while parked yields a TimedOut result.
	Block chan struct{}

	// Started, when non-nil, receives one value each time Run begins.
	Started chan struct{}

	mu    sync.Mutex
	calls []model.Command
}

func (f *FakeRunner) Run(ctx context.Context, cmd model.Command) (*model.ProcessResult, error) {
	f.mu.Lock()
	cp := cmd
	cp.Args = append([]string(nil), cmd.Args...)
	f.calls = append(f.calls, cp)
	f.mu.Unlock()

	if f.Started != nil {
		select {
		case f.Started <- struct{}{}:
		default:
		}
	}

	started := time.Now()
	if f.Block != nil {
		select {
		case <-f.Block:
		case <-ctx.Done():
			res := &model.ProcessResult{PID: 4242, ExitCode: -1, StartedAt: started, FinishedAt: time.Now()}
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				res.TimedOut = true
				return res, nil
			}
			return res, ctx.Err()
		}
	}

	fr := FakeResult{Result: &model.ProcessResult{}}
	if r, ok := f.Results[cmd.Name]; ok {
		fr = r
	} else if f.Default != nil {
		fr = *f.Default
	}
	if fr.Err != nil {
		return nil, fr.Err
	}

	res := *fr.Result
	if res.StartedAt.IsZero() {
		res.StartedAt = started
		res.FinishedAt = time.Now()
	}
	if cmd.OnLine != nil {
		for _, line := range splitLines(res.Stdout) {
			cmd.OnLine(model.StreamStdout, line)
		}
		for _, line := range splitLines(res.Stderr) {
			cmd.OnLine(model.StreamStderr, line)
		}
	}
	return &res, nil
}

// Calls returns a copy of every command Run has received.
func (f *FakeRunner) Calls() []model.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Command(nil), f.calls...)
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
