package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/natadecua/SNOOP/internal/gateway"
	"github.com/natadecua/SNOOP/internal/history"
	"github.com/natadecua/SNOOP/internal/logging"
	"github.com/natadecua/SNOOP/internal/model"
)

// ErrShuttingDown rejects scans once CancelScans has run.
var ErrShuttingDown = errors.New("server is shutting down")

// ScanResult is what the orchestrator hands back for one scan attempt.
type ScanResult struct {
	// ID is the history id. Empty when the request was rejected before a
	// process could start.
	ID      string               `json:"id,omitempty"`
	Outcome *gateway.ScanOutcome `json:"outcome,omitempty"`
	Status  history.Status       `json:"status,omitempty"`
}

// Orchestrator ties the gateway to the scan history.
type Orchestrator struct {
	cfg     *Config
	gateway *gateway.Gateway
	history *history.Store
	logger  logging.Logger

	now func() time.Time

	// base outlives client disconnects; CancelScans ends it.
	base       context.Context
	cancelBase context.CancelFunc

	mu     sync.Mutex
	active int
	idle   chan struct{}
}

// NewOrchestrator wires gw and store. store may be nil, in which case
// scans are not recorded and the history endpoints report not found.
func NewOrchestrator(cfg *Config, gw *gateway.Gateway, store *history.Store, logger logging.Logger) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewStdoutLogger("orchestrator")
	}
	base, cancel := context.WithCancel(context.Background())
	idle := make(chan struct{})
	close(idle)
	return &Orchestrator{
		cfg:        cfg,
		gateway:    gw,
		history:    store,
		logger:     logger.With(logging.F("component", "orchestrator")),
		now:        time.Now,
		base:       base,
		cancelBase: cancel,
		idle:       idle,
	}
}

// begin registers a scan in flight. It fails once CancelScans has run.
func (o *Orchestrator) begin() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.base.Err() != nil {
		return false
	}
	if o.active == 0 {
		o.idle = make(chan struct{})
	}
	o.active++
	return true
}

func (o *Orchestrator) end() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.active--
	if o.active == 0 {
		close(o.idle)
	}
}

// Drain waits until no scan is in flight or ctx is done.
func (o *Orchestrator) Drain(ctx context.Context) error {
	o.mu.Lock()
	idle := o.idle
	o.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CancelScans terminates every scan in flight, rejects new ones and waits
// for the terminated processes to be reaped or ctx to be done.
func (o *Orchestrator) CancelScans(ctx context.Context) error {
	o.mu.Lock()
	o.cancelBase()
	o.mu.Unlock()
	return o.Drain(ctx)
}

// RunScan runs one scan, records it and returns the gateway's error
// unchanged so callers can classify it with errors.Is. The scan keeps running
// when ctx is canceled.
func (o *Orchestrator) RunScan(ctx context.Context, req gateway.ScanRequest, onLine model.LineFunc) (*ScanResult, error) {
	if !o.begin() {
		return &ScanResult{}, ErrShuttingDown
	}
	defer o.end()

	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	// A caller going away does not stop the scan; CancelScans does.
	scanCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()
	stop := context.AfterFunc(o.base, cancel)
	defer stop()

	started := o.now()
	out, err := o.gateway.RunScanStream(scanCtx, req, onLine)
	if errors.Is(err, gateway.ErrValidation) || errors.Is(err, gateway.ErrScanInProgress) {
		return &ScanResult{}, err
	}

	res := &ScanResult{ID: req.ID, Outcome: out, Status: classify(err)}
	rec := &history.Record{
		ID:         req.ID,
		Network:    req.Network,
		Interface:  req.Interface,
		Status:     res.Status,
		StartedAt:  started,
		FinishedAt: o.now(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if out != nil {
		rec.ExitCode = out.ExitCode
		rec.TimedOut = out.TimedOut
		rec.Stdout = out.Stdout
		rec.Stderr = out.Stderr
		rec.LogTail = out.LogTail
		if !out.StartedAt.IsZero() {
			rec.StartedAt = out.StartedAt
			rec.FinishedAt = out.FinishedAt
		}
	}
	if res.Status == history.StatusSucceeded {
		rec.Report = o.snapshotReport(req.ID)
	}

	if o.history != nil {
		// The request context may already be gone; the record still belongs on disk.
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if serr := o.history.Save(saveCtx, rec); serr != nil {
			o.logger.Error("recording scan", logging.F("scan_id", req.ID), logging.F("error", serr.Error()))
		}
	}
	return res, err
}

func classify(err error) history.Status {
	switch {
	case err == nil:
		return history.StatusSucceeded
	case errors.Is(err, gateway.ErrTimeout):
		return history.StatusTimedOut
	case errors.Is(err, gateway.ErrExternalProcess):
		return history.StatusFailed
	default:
		return history.StatusError
	}
}

// snapshotReport copies at most MaxReportSnapshot bytes of the report.
func (o *Orchestrator) snapshotReport(scanID string) []byte {
	rep, err := o.gateway.GetReport()
	if err != nil {
		o.logger.Warn("no report after successful scan", logging.F("scan_id", scanID), logging.F("error", err.Error()))
		return nil
	}
	defer rep.Close()

	limit := o.cfg.MaxReportSnapshot
	if limit <= 0 {
		limit = DefaultConfig().MaxReportSnapshot
	}
	data, err := io.ReadAll(io.LimitReader(rep, limit+1))
	if err != nil {
		o.logger.Warn("reading report snapshot", logging.F("scan_id", scanID), logging.F("error", err.Error()))
		return nil
	}
	if int64(len(data)) > limit {
		o.logger.Warn("report snapshot truncated",
			logging.F("scan_id", scanID), logging.F("size", rep.Size), logging.F("limit", limit))
		data = data[:limit]
	}
	return data
}

// Status reports the scan in flight.
func (o *Orchestrator) Status() gateway.Status {
	return o.gateway.Status()
}

// GetReport opens the current report file.
func (o *Orchestrator) GetReport() (*gateway.Report, error) {
	return o.gateway.GetReport()
}

// ListInterfaces lists scannable interfaces.
func (o *Orchestrator) ListInterfaces(ctx context.Context) ([]string, error) {
	return o.gateway.ListInterfaces(ctx)
}

// ListScans returns recent history, newest first.
func (o *Orchestrator) ListScans(ctx context.Context, limit int) ([]history.Summary, error) {
	if o.history == nil {
		return []history.Summary{}, nil
	}
	return o.history.List(ctx, limit)
}

// GetScan returns one history record.
func (o *Orchestrator) GetScan(ctx context.Context, id string) (*history.Record, error) {
	if o.history == nil {
		return nil, fmt.Errorf("%w: %s", history.ErrRecordNotFound, id)
	}
	return o.history.Get(ctx, id)
}

// ScanReport returns the report snapshot kept for scan id.
func (o *Orchestrator) ScanReport(ctx context.Context, id string) ([]byte, error) {
	rec, err := o.GetScan(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rec.HasReport() {
		return nil, fmt.Errorf("%w: scan %s has no report snapshot", history.ErrRecordNotFound, id)
	}
	return rec.Report, nil
}

// DiffScan compares the report of scan id with the latest earlier snapshot.
func (o *Orchestrator) DiffScan(ctx context.Context, id string) (*history.ReportDiff, error) {
	head, err := o.GetScan(ctx, id)
	if err != nil {
		return nil, err
	}
	if !head.HasReport() {
		return nil, fmt.Errorf("%w: scan %s has no report snapshot", history.ErrRecordNotFound, id)
	}
	base, err := o.history.PreviousWithReport(ctx, id)
	if err != nil {
		return nil, err
	}
	return history.Diff(base, head), nil
}
