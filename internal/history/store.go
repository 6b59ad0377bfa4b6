// Package history persists scan attempts and report snapshots in SQLite.
package history

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/natadecua/SNOOP/internal/logging"
)

//go:embed schema.sql
var schemaFS embed.FS

const (
	// DefaultListLimit is used when List is called with limit <= 0.
	DefaultListLimit = 50
	maxListLimit     = 1000
)

// Store is the scan history. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	logger logging.Logger
	owned  bool
}

// Open opens (creating if needed) the SQLite database at path.
// Use ":memory:" for a throwaway store.
func Open(path string, logger logging.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database %s: %w", path, err)
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	s, err := NewStore(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// NewStore wraps an open database, applying pragmas and the schema.
func NewStore(db *sql.DB, logger logging.Logger) (*Store, error) {
	if db == nil {
		return nil, errors.New("history: nil database")
	}
	if logger == nil {
		logger = logging.NewStdoutLogger("history")
	}
	if err := applySchema(db); err != nil {
		return nil, fmt.Errorf("applying history schema: %w", err)
	}
	return &Store{db: db, logger: logger.With(logging.F("component", "history"))}, nil
}

func applySchema(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Close closes the database if the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// Save inserts or replaces rec.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	if rec == nil || rec.ID == "" {
		return errors.New("history: record without id")
	}
	tail := rec.LogTail
	if tail == nil {
		tail = []string{}
	}
	tailJSON, err := json.Marshal(tail)
	if err != nil {
		return fmt.Errorf("encoding log tail: %w", err)
	}
	// NULL means no snapshot; an empty report is a zero-length blob.
	var report any
	if rec.Report != nil {
		report = rec.Report
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO scans
			(id, network, interface, status, exit_code, timed_out, stdout, stderr,
			 log_tail, error, started_at, finished_at, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Network, rec.Interface, string(rec.Status), rec.ExitCode, rec.TimedOut,
		rec.Stdout, rec.Stderr, string(tailJSON), rec.Error,
		rec.StartedAt.UnixMilli(), rec.FinishedAt.UnixMilli(), report)
	if err != nil {
		return fmt.Errorf("saving scan %s: %w", rec.ID, err)
	}
	s.logger.Debug("saved scan", logging.F("scan_id", rec.ID), logging.F("status", string(rec.Status)))
	return nil
}

// Get returns the full record for id.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, network, interface, status, exit_code, timed_out, stdout, stderr,
		       log_tail, error, started_at, finished_at, report, report IS NOT NULL
		FROM scans WHERE id = ?`, id)

	var (
		rec             Record
		status, tail    string
		started, finish int64
		report          []byte
		hasReport       bool
	)
	err := row.Scan(&rec.ID, &rec.Network, &rec.Interface, &status, &rec.ExitCode, &rec.TimedOut,
		&rec.Stdout, &rec.Stderr, &tail, &rec.Error, &started, &finish, &report, &hasReport)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading scan %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(tail), &rec.LogTail); err != nil {
		return nil, fmt.Errorf("decoding log tail of scan %s: %w", id, err)
	}
	rec.Status = Status(status)
	rec.StartedAt = time.UnixMilli(started)
	rec.FinishedAt = time.UnixMilli(finish)
	if hasReport && report == nil {
		report = []byte{}
	}
	rec.Report = report
	return &rec, nil
}

// List returns up to limit summaries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, maxListLimit)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, network, interface, status, exit_code, timed_out,
		       report IS NOT NULL, started_at, finished_at
		FROM scans ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing scans: %w", err)
	}
	defer rows.Close()

	out := make([]Summary, 0)
	for rows.Next() {
		var (
			sum             Summary
			status          string
			started, finish int64
		)
		if err := rows.Scan(&sum.ID, &sum.Network, &sum.Interface, &status, &sum.ExitCode,
			&sum.TimedOut, &sum.HasReport, &started, &finish); err != nil {
			return nil, fmt.Errorf("scanning scan row: %w", err)
		}
		sum.Status = Status(status)
		sum.StartedAt = time.UnixMilli(started)
		sum.FinishedAt = time.UnixMilli(finish)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing scans: %w", err)
	}
	return out, nil
}

// PreviousWithReport returns the most recent record older than id that
// kept a report snapshot.
func (s *Store) PreviousWithReport(ctx context.Context, id string) (*Record, error) {
	head, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	started := head.StartedAt.UnixMilli()
	var prevID string
	err = s.db.QueryRowContext(ctx, `
		SELECT id FROM scans
		WHERE report IS NOT NULL
		  AND (started_at < ? OR (started_at = ? AND rowid < (SELECT rowid FROM scans WHERE id = ?)))
		ORDER BY started_at DESC, rowid DESC LIMIT 1`,
		started, started, id).Scan(&prevID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no snapshot before %s", ErrRecordNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("finding snapshot before %s: %w", id, err)
	}
	return s.Get(ctx, prevID)
}
