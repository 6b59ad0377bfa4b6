package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/natadecua/SNOOP/internal/app"
	"github.com/natadecua/SNOOP/internal/gateway"
	"github.com/natadecua/SNOOP/internal/history"
	"github.com/natadecua/SNOOP/internal/logging"
)

//go:embed templates/index.html
var templatesFS embed.FS

// Config holds what the server needs at construction.
type Config struct {
	Orchestrator *app.Orchestrator
	Logger       logging.Logger

	// AllowedOrigins restricts WebSocket upgrades. Empty allows same-host
	// origins only; "*" allows any.
	AllowedOrigins []string
}

// Server is the HTTP + WebSocket surface of snoop.
type Server struct {
	cfg          Config
	orchestrator *app.Orchestrator
	router       chi.Router
	upgrader     websocket.Upgrader
	logger       logging.Logger
	index        []byte
}

// NewServer builds the router around an already wired orchestrator.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Orchestrator == nil {
		return nil, errors.New("server: nil orchestrator")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("server")
	}
	index, err := templatesFS.ReadFile("templates/index.html")
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:          cfg,
		orchestrator: cfg.Orchestrator,
		router:       chi.NewRouter(),
		logger:       logger.With(logging.F("component", "server")),
		index:        index,
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)

	// Form endpoints, plain text responses.
	r.Post("/run-scan", s.handleRunScan)
	r.Get("/get-report", s.handleGetReport)
	r.Get("/interfaces", s.handleInterfaces)

	// JSON API
	r.Get("/status", s.handleStatus)
	r.Get("/scans", s.handleListScans)
	r.Get("/scans/{id}", s.handleGetScan)
	r.Get("/scans/{id}/report", s.handleScanReport)
	r.Get("/scans/{id}/diff", s.handleScanDiff)

	r.Get("/ws/run-scan", s.handleRunScanWS)

	s.mountSwagger(r)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}

	if r.Body != nil && r.Method == http.MethodPost {
		if bodyBytes, err := io.ReadAll(io.LimitReader(r.Body, 64<<10)); err == nil {
			fields = append(fields, logging.Field{Key: "body", Value: string(bodyBytes)})
			r.Body = readCloser{io.MultiReader(bytes.NewReader(bodyBytes), r.Body), r.Body}
		}
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// readCloser replays the logged prefix, then the rest of the original body.
type readCloser struct {
	io.Reader
	io.Closer
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.cfg.AllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	host := origin
	if _, after, ok := strings.Cut(origin, "://"); ok {
		host = after
	}
	return strings.EqualFold(host, r.Host)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, gateway.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, gateway.ErrScanInProgress):
		return http.StatusConflict
	case errors.Is(err, app.ErrShuttingDown):
		return http.StatusServiceUnavailable
	case errors.Is(err, gateway.ErrReportNotFound), errors.Is(err, history.ErrRecordNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, msg)
}
