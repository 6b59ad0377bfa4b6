package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"

	"github.com/natadecua/SNOOP/internal/app"
	"github.com/natadecua/SNOOP/internal/gateway"
	"github.com/natadecua/SNOOP/internal/history"
	"github.com/natadecua/SNOOP/internal/logging"
)

const (
	msgScanOK       = "Scan completed successfully! Check the logs for details."
	msgMissingField = "Network and interface are required"
	msgInProgress   = "A scan is already running, try again when it finishes"
	msgNoReport     = "No report available"
	msgShutdown     = "Server is shutting down"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.index)
}

// handleHealth godoc
// @Summary Liveness probe
// @Tags system
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /healthz [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleRunScan godoc
// @Summary Run a network scan
// @Description Runs the scan script and blocks until it exits or times out.
// @Tags scans
// @Accept x-www-form-urlencoded
// @Produce plain
// @Param network formData string true "Network range, e.g. 192.168.1.0/24"
// @Param interface formData string true "Interface name, e.g. eth0"
// @Success 200 {string} string "success text"
// @Failure 400 {string} string "missing field"
// @Failure 409 {string} string "scan already running"
// @Failure 500 {string} string "diagnostics"
// @Header 200,500 {string} X-Scan-ID "history id of the scan"
// @Router /run-scan [post]
func (s *Server) handleRunScan(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeText(w, http.StatusBadRequest, msgMissingField)
		return
	}
	req := gateway.ScanRequest{
		Network:   r.PostFormValue("network"),
		Interface: r.PostFormValue("interface"),
	}

	// The scan outlives a client disconnect; its own timeout or shutdown bounds it.
	res, err := s.orchestrator.RunScan(r.Context(), req, nil)
	if res != nil && res.ID != "" {
		w.Header().Set("X-Scan-ID", res.ID)
	}

	switch {
	case err == nil:
		s.logger.Info("scan succeeded", logging.F("scan_id", res.ID))
		writeText(w, http.StatusOK, msgScanOK)
	case errors.Is(err, gateway.ErrValidation):
		writeText(w, http.StatusBadRequest, msgMissingField)
	case errors.Is(err, gateway.ErrScanInProgress):
		writeText(w, http.StatusConflict, msgInProgress)
	case errors.Is(err, app.ErrShuttingDown):
		writeText(w, http.StatusServiceUnavailable, msgShutdown)
	default:
		s.logger.Warn("scan failed", logging.F("error", err.Error()))
		var b strings.Builder
		fmt.Fprintf(&b, "Error: %v\n", err)
		if res != nil && res.Outcome != nil {
			b.WriteString("\n")
			b.WriteString(res.Outcome.Diagnostics())
		}
		writeText(w, http.StatusInternalServerError, b.String())
	}
}

// handleGetReport godoc
// @Summary Download the latest report
// @Tags reports
// @Produce octet-stream
// @Success 200 {file} file "report.txt"
// @Failure 404 {string} string "no report"
// @Router /get-report [get]
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.orchestrator.GetReport()
	if errors.Is(err, gateway.ErrReportNotFound) {
		writeText(w, http.StatusNotFound, msgNoReport)
		return
	}
	if err != nil {
		s.logger.Warn("opening report", logging.F("error", err.Error()))
		writeText(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}
	defer rep.Close()

	w.Header().Set("Content-Type", rep.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rep.Name))
	http.ServeContent(w, r, rep.Name, rep.ModTime, rep)
}

// handleInterfaces godoc
// @Summary List scannable network interfaces
// @Tags interfaces
// @Produce json
// @Success 200 {array} string
// @Failure 500 {string} string "tool failure"
// @Router /interfaces [get]
func (s *Server) handleInterfaces(w http.ResponseWriter, r *http.Request) {
	names, err := s.orchestrator.ListInterfaces(r.Context())
	if err != nil {
		s.logger.Warn("listing interfaces", logging.F("error", err.Error()))
		writeText(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, names)
}

// handleStatus godoc
// @Summary Scan in flight
// @Tags scans
// @Produce json
// @Success 200 {object} gateway.Status
// @Router /status [get]
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.orchestrator.Status())
}

// handleListScans godoc
// @Summary Scan history
// @Tags history
// @Produce json
// @Param limit query int false "maximum number of entries" default(50)
// @Success 200 {array} history.Summary
// @Failure 400 {object} ErrorResponse
// @Router /scans [get]
func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if ls := r.URL.Query().Get("limit"); ls != "" {
		v, err := strconv.Atoi(ls)
		if err != nil || v < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = v
	}
	scans, err := s.orchestrator.ListScans(r.Context(), limit)
	if err != nil {
		s.logger.Warn("listing scans", logging.F("error", err.Error()))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, scans)
}

// handleGetScan godoc
// @Summary One scan record
// @Tags history
// @Produce json
// @Param id path string true "scan id"
// @Success 200 {object} history.Record
// @Failure 404 {object} ErrorResponse
// @Router /scans/{id} [get]
func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.orchestrator.GetScan(r.Context(), id)
	if err != nil {
		s.writeLookupError(w, "getting scan", id, err)
		return
	}
	writeJSON(w, http.StatusOK, ScanRecordResponse{Record: rec, HasReport: rec.HasReport()})
}

// handleScanReport godoc
// @Summary Report snapshot of a scan
// @Tags history
// @Produce octet-stream
// @Param id path string true "scan id"
// @Success 200 {file} file "report snapshot"
// @Failure 404 {object} ErrorResponse
// @Router /scans/{id}/report [get]
func (s *Server) handleScanReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	data, err := s.orchestrator.ScanReport(r.Context(), id)
	if err != nil {
		s.writeLookupError(w, "getting scan report", id, err)
		return
	}
	w.Header().Set("Content-Type", mimetype.Detect(data).String())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "report-"+id+".txt"))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleScanDiff godoc
// @Summary Diff a scan's report against the previous snapshot
// @Tags history
// @Produce json
// @Param id path string true "scan id"
// @Success 200 {object} history.ReportDiff
// @Failure 404 {object} ErrorResponse
// @Router /scans/{id}/diff [get]
func (s *Server) handleScanDiff(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, err := s.orchestrator.DiffScan(r.Context(), id)
	if err != nil {
		s.writeLookupError(w, "diffing scan", id, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) writeLookupError(w http.ResponseWriter, action, id string, err error) {
	status := statusFor(err)
	if errors.Is(err, history.ErrRecordNotFound) {
		s.logger.Info(action+": not found", logging.F("scan_id", id))
	} else {
		s.logger.Warn(action, logging.F("scan_id", id), logging.F("error", err.Error()))
	}
	writeError(w, status, err.Error())
}
