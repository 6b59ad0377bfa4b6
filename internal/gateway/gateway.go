// Package gateway is the boundary between a scan request and the external
// scan script: validation, single-flight execution with a hard timeout,
// outcome capture and failure diagnostics.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/natadecua/SNOOP/internal/interfaces"
	"github.com/natadecua/SNOOP/internal/logging"
	"github.com/natadecua/SNOOP/internal/model"
)

// Gateway runs scans and reads the artifacts the scan script leaves behind.
// It is safe for concurrent use; at most one scan runs at a time.
type Gateway struct {
	cfg      Config
	runner   interfaces.CommandRunner
	logger   logging.Logger
	validate *validator.Validate

	scanMu sync.Mutex

	statusMu sync.RWMutex
	status   Status
}

// New creates a Gateway. Zero-valued config fields take DefaultConfig values,
// except PrivilegeCommand where empty means "run the script directly".
func New(cfg Config, runner interfaces.CommandRunner, logger logging.Logger) *Gateway {
	if logger == nil {
		logger = logging.NewStdoutLogger("gateway")
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return &Gateway{
		cfg:      cfg.withDefaults(),
		runner:   runner,
		logger:   logger.With(logging.F("component", "gateway")),
		validate: v,
	}
}

// Config returns the effective configuration.
func (g *Gateway) Config() Config {
	return g.cfg
}

// Validate checks that both request fields are present after trimming.
func (g *Gateway) Validate(req ScanRequest) error {
	err := g.validate.Struct(req.normalized())
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := lo.Map(verrs, func(fe validator.FieldError, _ int) string { return fe.Field() })
		return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(fields, ", "))
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}

// RunScan executes the scan script and waits for it.
func (g *Gateway) RunScan(ctx context.Context, req ScanRequest) (*ScanOutcome, error) {
	return g.RunScanStream(ctx, req, nil)
}

// RunScanStream is RunScan with onLine receiving output lines as they arrive.
//
// The outcome is nil only when no process was started (invalid request,
// scan already running, missing executable). On ErrExternalProcess and
// ErrTimeout the outcome carries the tail of the script's log file.
func (g *Gateway) RunScanStream(ctx context.Context, req ScanRequest, onLine model.LineFunc) (*ScanOutcome, error) {
	req = req.normalized()
	if err := g.Validate(req); err != nil {
		g.logger.Info("rejecting scan request", logging.F("error", err.Error()))
		return nil, err
	}

	if !g.scanMu.TryLock() {
		g.logger.Warn("rejecting scan request, another scan is running",
			logging.F("network", req.Network), logging.F("interface", req.Interface))
		return nil, ErrScanInProgress
	}
	defer g.scanMu.Unlock()

	log := g.logger.With(
		logging.F("scan_id", req.ID),
		logging.F("network", req.Network),
		logging.F("interface", req.Interface))

	if err := g.checkScript(); err != nil {
		log.Error("scan script unavailable", logging.F("error", err.Error()))
		return nil, err
	}

	started := time.Now()
	g.setStatus(req, started)
	defer g.clearStatus()

	cmd := g.scanCommand(req)
	cmd.OnLine = onLine
	log.Info("starting scan", logging.F("command", cmd.String()), logging.F("timeout", g.cfg.ScanTimeout.String()))

	scanCtx, cancel := context.WithTimeout(ctx, g.cfg.ScanTimeout)
	defer cancel()

	res, err := g.runner.Run(scanCtx, cmd)
	if err != nil {
		if errors.Is(err, model.ErrCommandNotFound) {
			log.Error("scan executable not found", logging.F("error", err.Error()))
			return nil, fmt.Errorf("%w: %v", ErrExecutableNotFound, err)
		}
		log.Error("scan failed", logging.F("error", err.Error()))
		return outcomeFrom(res, started), fmt.Errorf("%w: %v", ErrUnexpected, err)
	}

	if res == nil {
		return outcomeFrom(nil, started), fmt.Errorf("%w: runner returned no result", ErrUnexpected)
	}

	out := outcomeFrom(res, started)
	switch {
	case res.TimedOut:
		g.attachLogTail(out)
		log.Error("scan timed out", logging.F("timeout", g.cfg.ScanTimeout.String()), logging.F("pid", res.PID))
		return out, fmt.Errorf("%w after %s", ErrTimeout, g.cfg.ScanTimeout)
	case res.ExitCode != 0:
		g.attachLogTail(out)
		log.Error("scan script failed",
			logging.F("exit_code", res.ExitCode),
			logging.F("stderr", strings.TrimSpace(res.Stderr)))
		return out, fmt.Errorf("%w: exit status %d", ErrExternalProcess, res.ExitCode)
	}

	if s := strings.TrimSpace(res.Stderr); s != "" {
		log.Warn("scan succeeded with stderr output", logging.F("stderr", s))
	}
	log.Info("scan completed", logging.F("elapsed", out.Duration().String()))
	return out, nil
}

// Status reports the scan in flight, if any.
func (g *Gateway) Status() Status {
	g.statusMu.RLock()
	defer g.statusMu.RUnlock()
	s := g.status
	if s.StartedAt != nil {
		t := *s.StartedAt
		s.StartedAt = &t
	}
	return s
}

func (g *Gateway) setStatus(req ScanRequest, started time.Time) {
	g.statusMu.Lock()
	defer g.statusMu.Unlock()
	g.status = Status{
		Running:   true,
		ScanID:    req.ID,
		Network:   req.Network,
		Interface: req.Interface,
		StartedAt: &started,
	}
}

func (g *Gateway) clearStatus() {
	g.statusMu.Lock()
	defer g.statusMu.Unlock()
	g.status = Status{}
}

// scanCommand builds the scan argv. Request values only ever occupy their
// own argv slots.
func (g *Gateway) scanCommand(req ScanRequest) model.Command {
	args := []string{"-n", req.Network, "-i", req.Interface}
	if g.cfg.PrivilegeCommand == "" {
		return model.Command{Name: g.cfg.ScriptPath, Args: args}
	}
	return model.Command{
		Name: g.cfg.PrivilegeCommand,
		Args: append([]string{g.cfg.ScriptPath}, args...),
	}
}

// checkScript fails fast when the script is missing, since the privilege
// wrapper would otherwise report it as an ordinary script failure.
func (g *Gateway) checkScript() error {
	info, err := os.Stat(g.cfg.ScriptPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: scan script %s", ErrExecutableNotFound, g.cfg.ScriptPath)
	case err == nil && info.IsDir():
		return fmt.Errorf("%w: scan script %s is a directory", ErrExecutableNotFound, g.cfg.ScriptPath)
	}
	return nil
}

func (g *Gateway) attachLogTail(out *ScanOutcome) {
	lines, err := tailLines(g.cfg.LogPath, g.cfg.LogTailLines)
	switch {
	case err != nil:
		out.LogNote = fmt.Sprintf("Log file %s could not be read: %v", g.cfg.LogPath, err)
	case len(lines) == 0:
		out.LogNote = fmt.Sprintf("Log file %s is empty.", g.cfg.LogPath)
	default:
		out.LogTail = lines
	}
}

func outcomeFrom(res *model.ProcessResult, started time.Time) *ScanOutcome {
	if res == nil {
		return &ScanOutcome{ExitCode: -1, StartedAt: started, FinishedAt: time.Now()}
	}
	return &ScanOutcome{
		ExitCode:   res.ExitCode,
		Stdout:     res.Stdout,
		Stderr:     res.Stderr,
		TimedOut:   res.TimedOut,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
	}
}
