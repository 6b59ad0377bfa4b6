package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/natadecua/SNOOP/internal/gateway"
	"github.com/natadecua/SNOOP/internal/history"
	"github.com/natadecua/SNOOP/internal/model"
	"github.com/natadecua/SNOOP/internal/testutil"
)

type testEnv struct {
	orch   *Orchestrator
	store  *history.Store
	runner *testutil.FakeRunner
	cfg    *Config
	logger *testutil.DummyLogger
}

// newTestOrchestrator wires a FakeRunner-backed gateway to a history store in TempDir.
func newTestOrchestrator(t *testing.T, runner *testutil.FakeRunner) *testEnv {
	t.Helper()
	dir := t.TempDir()
	logger := &testutil.DummyLogger{}

	cfg := DefaultConfig()
	cfg.ScriptPath = filepath.Join(dir, "network_tool.sh")
	cfg.ReportPath = filepath.Join(dir, "report.txt")
	cfg.LogPath = filepath.Join(dir, "network_tool.log")
	cfg.ScanTimeout = 2 * time.Second
	if err := os.WriteFile(cfg.ScriptPath, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	store, err := history.Open(filepath.Join(dir, "snoop.db"), logger)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	gw := gateway.New(cfg.GatewayConfig(), runner, logger)
	return &testEnv{
		orch:   NewOrchestrator(cfg, gw, store, logger),
		store:  store,
		runner: runner,
		cfg:    cfg,
		logger: logger,
	}
}

func (e *testEnv) writeReport(t *testing.T, content string) {
	t.Helper()
	if err := os.WriteFile(e.cfg.ReportPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write report: %v", err)
	}
}

func TestOrchestrator_RunScan_RecordsSuccessWithSnapshot(t *testing.T) {
	req := require.New(t)
	env := newTestOrchestrator(t, &testutil.FakeRunner{Default: &testutil.FakeResult{
		Result: &model.ProcessResult{Stdout: "Scan complete\n"},
	}})
	env.writeReport(t, "Nmap scan report for 10.0.0.1\n")
	ctx := context.Background()

	res, err := env.orch.RunScan(ctx, gateway.ScanRequest{Network: "10.0.0.0/24", Interface: "eth0"}, nil)
	req.NoError(err)
	req.NotEmpty(res.ID)
	req.Equal(history.StatusSucceeded, res.Status)

	rec, err := env.orch.GetScan(ctx, res.ID)
	req.NoError(err)
	req.Equal("10.0.0.0/24", rec.Network)
	req.Equal("Scan complete\n", rec.Stdout)
	req.Equal("Nmap scan report for 10.0.0.1\n", string(rec.Report))

	snap, err := env.orch.ScanReport(ctx, res.ID)
	req.NoError(err)
	req.Equal(rec.Report, snap)
}

func TestOrchestrator_RunScan_RecordsFailureWithoutSnapshot(t *testing.T) {
	req := require.New(t)
	env := newTestOrchestrator(t, &testutil.FakeRunner{Default: &testutil.FakeResult{
		Result: &model.ProcessResult{ExitCode: 1, Stderr: "bad range\n"},
	}})
	env.writeReport(t, "stale report\n")
	ctx := context.Background()

	res, err := env.orch.RunScan(ctx, gateway.ScanRequest{Network: "x", Interface: "eth0"}, nil)
	req.ErrorIs(err, gateway.ErrExternalProcess)
	req.Equal(history.StatusFailed, res.Status)
	req.NotNil(res.Outcome)

	rec, err := env.orch.GetScan(ctx, res.ID)
	req.NoError(err)
	req.Equal(1, rec.ExitCode)
	req.Equal("bad range\n", rec.Stderr)
	req.Contains(rec.Error, "exit status 1")
	req.False(rec.HasReport())

	_, err = env.orch.ScanReport(ctx, res.ID)
	req.ErrorIs(err, history.ErrRecordNotFound)
}

func TestOrchestrator_RunScan_TimeoutAndErrorStatuses(t *testing.T) {
	req := require.New(t)
	env := newTestOrchestrator(t, &testutil.FakeRunner{Block: make(chan struct{})})
	env.orch.gateway = gateway.New(func() gateway.Config {
		c := env.cfg.GatewayConfig()
		c.ScanTimeout = 30 * time.Millisecond
		return c
	}(), env.runner, env.logger)
	ctx := context.Background()

	res, err := env.orch.RunScan(ctx, gateway.ScanRequest{Network: "n", Interface: "i"}, nil)
	req.ErrorIs(err, gateway.ErrTimeout)
	req.Equal(history.StatusTimedOut, res.Status)

	rec, err := env.orch.GetScan(ctx, res.ID)
	req.NoError(err)
	req.True(rec.TimedOut)

	req.NoError(os.Remove(env.cfg.ScriptPath))
	res, err = env.orch.RunScan(ctx, gateway.ScanRequest{Network: "n", Interface: "i"}, nil)
	req.ErrorIs(err, gateway.ErrExecutableNotFound)
	req.Equal(history.StatusError, res.Status)
	_, err = env.orch.GetScan(ctx, res.ID)
	req.NoError(err)
}

func TestOrchestrator_RunScan_RejectionsAreNotRecorded(t *testing.T) {
	req := require.New(t)
	env := newTestOrchestrator(t, &testutil.FakeRunner{})
	ctx := context.Background()

	res, err := env.orch.RunScan(ctx, gateway.ScanRequest{Network: "", Interface: "eth0"}, nil)
	req.ErrorIs(err, gateway.ErrValidation)
	req.Empty(res.ID)

	list, err := env.orch.ListScans(ctx, 10)
	req.NoError(err)
	req.Empty(list)
}

func TestOrchestrator_RunScan_KeepsCallerID(t *testing.T) {
	req := require.New(t)
	env := newTestOrchestrator(t, &testutil.FakeRunner{})

	res, err := env.orch.RunScan(context.Background(), gateway.ScanRequest{ID: "fixed-id", Network: "n", Interface: "i"}, nil)
	req.NoError(err)
	req.Equal("fixed-id", res.ID)
}

func TestOrchestrator_SnapshotIsCapped(t *testing.T) {
	req := require.New(t)
	env := newTestOrchestrator(t, &testutil.FakeRunner{})
	env.cfg.MaxReportSnapshot = 8
	env.writeReport(t, "0123456789abcdef")

	res, err := env.orch.RunScan(context.Background(), gateway.ScanRequest{Network: "n", Interface: "i"}, nil)
	req.NoError(err)

	snap, err := env.orch.ScanReport(context.Background(), res.ID)
	req.NoError(err)
	req.Equal("01234567", string(snap))
	req.Equal(1, env.logger.WarnCount())
}

func TestOrchestrator_DiffScan(t *testing.T) {
	req := require.New(t)
	env := newTestOrchestrator(t, &testutil.FakeRunner{})
	ctx := context.Background()

	env.writeReport(t, "host 10.0.0.1 up\n")
	first, err := env.orch.RunScan(ctx, gateway.ScanRequest{Network: "n", Interface: "i"}, nil)
	req.NoError(err)

	_, err = env.orch.DiffScan(ctx, first.ID)
	req.ErrorIs(err, history.ErrRecordNotFound, "first snapshot has nothing to compare with")

	env.writeReport(t, "host 10.0.0.1 up\nhost 10.0.0.7 up\n")
	second, err := env.orch.RunScan(ctx, gateway.ScanRequest{Network: "n", Interface: "i"}, nil)
	req.NoError(err)

	d, err := env.orch.DiffScan(ctx, second.ID)
	req.NoError(err)
	req.Equal(first.ID, d.BaseID)
	req.Equal(second.ID, d.HeadID)
	req.Equal(1, d.Insertions)
	req.Zero(d.Deletions)
}

func TestOrchestrator_GetScanUnknown(t *testing.T) {
	env := newTestOrchestrator(t, &testutil.FakeRunner{})
	_, err := env.orch.GetScan(context.Background(), "nope")
	if !errors.Is(err, history.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestOrchestrator_NilHistory(t *testing.T) {
	req := require.New(t)
	env := newTestOrchestrator(t, &testutil.FakeRunner{})
	orch := NewOrchestrator(env.cfg, env.orch.gateway, nil, env.logger)

	_, err := orch.RunScan(context.Background(), gateway.ScanRequest{Network: "n", Interface: "i"}, nil)
	req.NoError(err)
	list, err := orch.ListScans(context.Background(), 5)
	req.NoError(err)
	req.Empty(list)
}

func waitStarted(t *testing.T, runner *testutil.FakeRunner) {
	t.Helper()
	select {
	case <-runner.Started:
	case <-time.After(2 * time.Second):
		t.Fatal("scan never started")
	}
}

func TestOrchestrator_RunScan_SurvivesCallerCancel(t *testing.T) {
	req := require.New(t)
	runner := &testutil.FakeRunner{Block: make(chan struct{}), Started: make(chan struct{}, 1)}
	env := newTestOrchestrator(t, runner)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := env.orch.RunScan(ctx, gateway.ScanRequest{Network: "n", Interface: "i"}, nil)
		done <- err
	}()
	waitStarted(t, runner)
	cancel()

	select {
	case err := <-done:
		t.Fatalf("scan ended with caller: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	close(runner.Block)
	req.NoError(<-done)
	req.NoError(env.orch.Drain(context.Background()))
}

func TestOrchestrator_CancelScans(t *testing.T) {
	req := require.New(t)
	runner := &testutil.FakeRunner{Block: make(chan struct{}), Started: make(chan struct{}, 1)}
	env := newTestOrchestrator(t, runner)

	done := make(chan *ScanResult, 1)
	go func() {
		res, _ := env.orch.RunScan(context.Background(), gateway.ScanRequest{Network: "n", Interface: "i"}, nil)
		done <- res
	}()
	waitStarted(t, runner)

	drainCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req.ErrorIs(env.orch.Drain(drainCtx), context.DeadlineExceeded)

	req.NoError(env.orch.CancelScans(context.Background()))
	res := <-done
	req.Equal(history.StatusError, res.Status)

	_, err := env.orch.RunScan(context.Background(), gateway.ScanRequest{Network: "n", Interface: "i"}, nil)
	req.ErrorIs(err, ErrShuttingDown)
	req.Len(runner.Calls(), 1)
}

func TestOrchestrator_EmptyReportIsStillASnapshot(t *testing.T) {
	req := require.New(t)
	env := newTestOrchestrator(t, &testutil.FakeRunner{})
	env.writeReport(t, "")
	ctx := context.Background()

	res, err := env.orch.RunScan(ctx, gateway.ScanRequest{Network: "10.0.0.0/24", Interface: "eth0"}, nil)
	req.NoError(err)

	snap, err := env.orch.ScanReport(ctx, res.ID)
	req.NoError(err)
	req.Empty(snap)

	list, err := env.orch.ListScans(ctx, 0)
	req.NoError(err)
	req.Len(list, 1)
	req.True(list[0].HasReport)
}
