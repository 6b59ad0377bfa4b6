package gateway

import (
	"fmt"
	"strings"
	"time"
)

// ScanRequest is one user request to scan a network range on an interface.
type ScanRequest struct {
	// ID correlates the scan with logs and history; optional.
	ID string `json:"id,omitempty"`

	Network   string `json:"network" validate:"required"`
	Interface string `json:"interface" validate:"required"`
}

func (r ScanRequest) normalized() ScanRequest {
	r.Network = strings.TrimSpace(r.Network)
	r.Interface = strings.TrimSpace(r.Interface)
	return r
}

// ScanOutcome is the structured result of one scan process.
type ScanOutcome struct {
	ExitCode   int       `json:"exit_code"`
	Stdout     string    `json:"stdout"`
	Stderr     string    `json:"stderr"`
	TimedOut   bool      `json:"timed_out"`
	LogTail    []string  `json:"log_tail,omitempty"`
	LogNote    string    `json:"log_note,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Success reports whether the script exited 0 within the time bound.
func (o *ScanOutcome) Success() bool {
	return o != nil && !o.TimedOut && o.ExitCode == 0
}

// Duration is how long the process ran.
func (o *ScanOutcome) Duration() time.Duration {
	if o == nil {
		return 0
	}
	return o.FinishedAt.Sub(o.StartedAt)
}

// Diagnostics renders the captured streams and log tail for a human reader.
func (o *ScanOutcome) Diagnostics() string {
	if o == nil {
		return ""
	}
	var b strings.Builder
	if o.TimedOut {
		fmt.Fprintf(&b, "Process was terminated after %s.\n", o.Duration().Round(time.Millisecond))
	} else {
		fmt.Fprintf(&b, "Exit code: %d\n", o.ExitCode)
	}
	if s := strings.TrimSpace(o.Stderr); s != "" {
		fmt.Fprintf(&b, "\n--- stderr ---\n%s\n", s)
	}
	if s := strings.TrimSpace(o.Stdout); s != "" {
		fmt.Fprintf(&b, "\n--- stdout ---\n%s\n", s)
	}
	switch {
	case len(o.LogTail) > 0:
		fmt.Fprintf(&b, "\n--- log (last %d lines) ---\n%s\n", len(o.LogTail), strings.Join(o.LogTail, "\n"))
	case o.LogNote != "":
		fmt.Fprintf(&b, "\n%s\n", o.LogNote)
	}
	return b.String()
}

// Status describes the scan in flight.
type Status struct {
	Running   bool       `json:"running"`
	ScanID    string     `json:"scan_id,omitempty"`
	Network   string     `json:"network,omitempty"`
	Interface string     `json:"interface,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
}
