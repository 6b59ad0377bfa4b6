package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/netutil"

	"github.com/natadecua/SNOOP/internal/gateway"
	"github.com/natadecua/SNOOP/internal/history"
	"github.com/natadecua/SNOOP/internal/logging"
	"github.com/natadecua/SNOOP/internal/procexec"
)

// Services are the long-lived components behind the HTTP surface.
type Services struct {
	Gateway      *gateway.Gateway
	History      *history.Store
	Orchestrator *Orchestrator
}

// NewServices builds the runner, gateway, history store and orchestrator
// described by cfg.
func NewServices(cfg *Config, logger logging.Logger) (*Services, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	runner := procexec.NewRunner(cfg.KillGrace, logger)
	gw := gateway.New(cfg.GatewayConfig(), runner, logger)

	store, err := history.Open(cfg.HistoryDB, logger)
	if err != nil {
		return nil, fmt.Errorf("opening scan history: %w", err)
	}
	return &Services{
		Gateway:      gw,
		History:      store,
		Orchestrator: NewOrchestrator(cfg, gw, store, logger),
	}, nil
}

// Close releases the history database.
func (s *Services) Close() error {
	if s == nil || s.History == nil {
		return nil
	}
	return s.History.Close()
}

// ScanCanceler is the part of Orchestrator that Shutdown drives.
type ScanCanceler interface {
	Drain(ctx context.Context) error
	CancelScans(ctx context.Context) error
}

// Application is the global runtime state container: config, logger and the
// HTTP listener serving handler.
type Application struct {
	Config  *Config
	Logger  logging.Logger
	Handler http.Handler

	// Scans, when set, is drained on Shutdown and canceled if ctx runs out.
	Scans ScanCanceler

	mu       sync.Mutex
	listener net.Listener
	srv      *http.Server
	done     chan error
}

// NewApplication constructs an Application from already-built parts.
func NewApplication(cfg *Config, logger logging.Logger, handler http.Handler) *Application {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewStdoutLogger("app")
	}
	return &Application{Config: cfg, Logger: logger, Handler: handler}
}

// Start binds the listen address and serves in the background.
func (a *Application) Start() error {
	if a == nil {
		return errors.New("application is nil")
	}
	if a.Handler == nil {
		return errors.New("application has no handler")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.srv != nil {
		return errors.New("application already started")
	}

	ln, err := net.Listen("tcp", a.Config.ListenAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.Config.ListenAddr, err)
	}
	if a.Config.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, a.Config.MaxConnections)
	}

	a.listener = ln
	a.srv = &http.Server{
		Handler:           a.Handler,
		ReadHeaderTimeout: 15 * time.Second,
		// No WriteTimeout: /run-scan holds the response until the scan ends.
	}
	a.done = make(chan error, 1)
	go func() {
		err := a.srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		a.done <- err
	}()

	a.Logger.Info("application started",
		logging.F("addr", ln.Addr().String()),
		logging.F("max_connections", a.Config.MaxConnections))
	return nil
}

// Addr is the bound address, useful when ListenAddr used port 0.
func (a *Application) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Wait blocks until the server stops and returns its serve error.
func (a *Application) Wait() error {
	a.mu.Lock()
	done := a.done
	a.mu.Unlock()
	if done == nil {
		return errors.New("application not started")
	}
	return <-done
}

// Shutdown stops accepting connections and waits for in-flight requests and
// scans until ctx is done. Scans still running then are terminated, and
// Shutdown returns only after their processes have been reaped or the kill
// grace period has passed.
func (a *Application) Shutdown(ctx context.Context) error {
	if a == nil {
		return errors.New("application is nil")
	}
	a.mu.Lock()
	srv := a.srv
	a.mu.Unlock()
	if srv == nil {
		return nil
	}
	a.Logger.Info("application shutdown initiated")

	err := srv.Shutdown(ctx)
	if err == nil && a.Scans != nil {
		// WebSocket scans run on hijacked connections Shutdown does not track.
		err = a.Scans.Drain(ctx)
	}
	if err == nil {
		return nil
	}

	if a.Scans != nil {
		a.Logger.Warn("shutdown deadline reached, terminating running scans", logging.F("error", err.Error()))
		killCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.KillGrace+5*time.Second)
		defer cancel()
		if cerr := a.Scans.CancelScans(killCtx); cerr != nil {
			a.Logger.Error("scans still running after cancel", logging.F("error", cerr.Error()))
		}
	}
	_ = srv.Close()
	return fmt.Errorf("shutting down http server: %w", err)
}
