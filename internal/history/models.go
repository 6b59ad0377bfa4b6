package history

import (
	"errors"
	"time"
)

// ErrRecordNotFound is returned when no scan has the requested id.
var ErrRecordNotFound = errors.New("history: scan not found")

// Status classifies how a scan attempt ended.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusTimedOut  Status = "timed_out"
	StatusError     Status = "error"
)

// Record is one persisted scan attempt.
type Record struct {
	ID         string    `json:"id"`
	Network    string    `json:"network"`
	Interface  string    `json:"interface"`
	Status     Status    `json:"status"`
	ExitCode   int       `json:"exit_code"`
	TimedOut   bool      `json:"timed_out"`
	Stdout     string    `json:"stdout"`
	Stderr     string    `json:"stderr"`
	LogTail    []string  `json:"log_tail"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Report is the report file as it was right after a successful scan.
	Report []byte `json:"-"`
}

// HasReport reports whether a report snapshot was kept.
func (r *Record) HasReport() bool {
	return r != nil && r.Report != nil
}

// Summary is a Record without its output bodies, as returned by List.
type Summary struct {
	ID         string    `json:"id"`
	Network    string    `json:"network"`
	Interface  string    `json:"interface"`
	Status     Status    `json:"status"`
	ExitCode   int       `json:"exit_code"`
	TimedOut   bool      `json:"timed_out"`
	HasReport  bool      `json:"has_report"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Op is the kind of a diff chunk.
type Op string

const (
	OpEqual  Op = "equal"
	OpInsert Op = "insert"
	OpDelete Op = "delete"
)

// Chunk is a run of lines that were kept, added or removed.
type Chunk struct {
	Op   Op     `json:"op"`
	Text string `json:"text"`
}

// ReportDiff compares the report snapshots of two scans.
type ReportDiff struct {
	BaseID     string  `json:"base_id"`
	HeadID     string  `json:"head_id"`
	Insertions int     `json:"insertions"`
	Deletions  int     `json:"deletions"`
	Patch      string  `json:"patch"`
	Chunks     []Chunk `json:"chunks"`
}
