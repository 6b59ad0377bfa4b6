package server

import (
	"github.com/natadecua/SNOOP/internal/gateway"
	"github.com/natadecua/SNOOP/internal/history"
)

// ErrorResponse is a uniform error payload returned by the JSON API.
type ErrorResponse struct {
	Error string `json:"error" example:"history: scan not found"`
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// ScanRecordResponse is a history record plus whether a snapshot exists.
type ScanRecordResponse struct {
	*history.Record
	HasReport bool `json:"has_report"`
}

// Event types sent on /ws/run-scan.
const (
	EventLine   = "line"
	EventResult = "result"
)

// ScanEvent is one WebSocket message of a streamed scan. Line events carry
// Stream and Text; the final result event carries the rest.
type ScanEvent struct {
	Type string `json:"type" example:"line"`

	Stream string `json:"stream,omitempty" example:"stdout"`
	Text   string `json:"text,omitempty" example:"Nmap scan report for 192.168.1.1"`

	ScanID     string               `json:"scan_id,omitempty"`
	Success    bool                 `json:"success,omitempty"`
	HTTPStatus int                  `json:"http_status,omitempty" example:"200"`
	Error      string               `json:"error,omitempty"`
	Outcome    *gateway.ScanOutcome `json:"outcome,omitempty"`
}
