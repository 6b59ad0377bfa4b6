package model

import (
	"errors"
	"strings"
	"time"
)

// ErrCommandNotFound is returned by runners when the executable cannot be
// located or does not exist.
var ErrCommandNotFound = errors.New("command not found")

// Stream identifies which output stream of a process a line came from.
type Stream string

const (
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
)

// LineFunc receives each complete output line of a running process.
type LineFunc func(stream Stream, line string)

// Command describes one external program invocation.
//
// There is deliberately no field for a shell string: the program is executed
// directly with Args as its argument vector, so caller-supplied values are
// never interpreted by a shell.
type Command struct {
	// Name is the executable, either a path or a name looked up in PATH.
	Name string

	// Args are passed to the program verbatim, one element per argv slot.
	Args []string

	// Dir is the working directory; empty means the current directory.
	Dir string

	// OnLine, if set, is called for each line as the process produces it.
	// Calls are serialized.
	OnLine LineFunc
}

// String renders the command for logs. It is not a shell-safe quoting.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// ProcessResult is what a runner observed about a finished process.
type ProcessResult struct {
	PID        int       `json:"pid"`
	ExitCode   int       `json:"exit_code"`
	Stdout     string    `json:"stdout"`
	Stderr     string    `json:"stderr"`
	TimedOut   bool      `json:"timed_out"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration is the wall-clock time between start and reap.
func (r *ProcessResult) Duration() time.Duration {
	if r == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
