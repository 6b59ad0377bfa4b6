// Package client talks to a running snoop server over HTTP.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/natadecua/SNOOP/internal/gateway"
	"github.com/natadecua/SNOOP/internal/history"
	"github.com/natadecua/SNOOP/internal/logging"
)

// DefaultTimeout bounds requests other than Scan, which waits for the scan.
const DefaultTimeout = 30 * time.Second

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// ScanRecord is a history entry as served by /scans/{id}.
type ScanRecord struct {
	history.Record
	HasReport bool `json:"has_report"`
}

// ScanReply is the answer to a blocking scan request.
type ScanReply struct {
	ID      string
	Message string
}

// Client is a thin, typed wrapper over the snoop HTTP API.
type Client struct {
	base   *url.URL
	client *http.Client
	logger logging.Logger
}

// New creates a Client for baseURL. httpClient may be nil; Scan requests
// never time out on the client side regardless.
func New(baseURL string, logger logging.Logger, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url %q must be http or https", baseURL)
	}
	if logger == nil {
		logger = logging.NewStdoutLogger("client")
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		base:   u,
		client: httpClient,
		logger: logger.With(logging.Field{Key: "component", Value: "client"}),
	}, nil
}

// do sends one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Response, []byte, error) {
	u := *c.base
	u.Path = c.base.Path + path
	u.RawQuery = query.Encode()

	c.logger.Debug("sending http request",
		logging.Field{Key: "method", Value: method},
		logging.Field{Key: "url", Value: u.String()})

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("http request failed",
			logging.Field{Key: "method", Value: method},
			logging.Field{Key: "url", Value: u.String()},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, data, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp, data)}
	}
	return resp, data, nil
}

// errorMessage prefers the {"error": ...} payload of JSON endpoints.
func errorMessage(resp *http.Response, body []byte) string {
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return e.Error
		}
	}
	return strings.TrimSpace(string(body))
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, v any) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()
	_, data, err := c.do(ctx, http.MethodGet, path, query, nil, "")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// Interfaces lists scannable interfaces.
func (c *Client) Interfaces(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.getJSON(ctx, "/interfaces", nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// Status reports the scan in flight.
func (c *Client) Status(ctx context.Context) (*gateway.Status, error) {
	var st gateway.Status
	if err := c.getJSON(ctx, "/status", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Scan runs a scan and waits for it to finish. A failed scan is returned as
// an *APIError carrying the server's diagnostics, with the reply still
// holding the scan id when one was recorded.
func (c *Client) Scan(ctx context.Context, network, iface string) (*ScanReply, error) {
	form := url.Values{"network": {network}, "interface": {iface}}
	resp, data, err := c.do(ctx, http.MethodPost, "/run-scan", nil,
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if resp == nil {
		return nil, err
	}
	reply := &ScanReply{ID: resp.Header.Get("X-Scan-ID"), Message: strings.TrimSpace(string(data))}
	return reply, err
}

// DownloadReport writes the current report to w.
func (c *Client) DownloadReport(ctx context.Context, w io.Writer) (int64, error) {
	return c.download(ctx, "/get-report", w)
}

// DownloadScanReport writes the snapshot kept for scan id to w.
func (c *Client) DownloadScanReport(ctx context.Context, id string, w io.Writer) (int64, error) {
	return c.download(ctx, "/scans/"+url.PathEscape(id)+"/report", w)
}

func (c *Client) download(ctx context.Context, path string, w io.Writer) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()
	_, data, err := c.do(ctx, http.MethodGet, path, nil, nil, "")
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// ListScans returns up to limit history entries, newest first.
func (c *Client) ListScans(ctx context.Context, limit int) ([]history.Summary, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []history.Summary
	if err := c.getJSON(ctx, "/scans", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetScan returns one history record.
func (c *Client) GetScan(ctx context.Context, id string) (*ScanRecord, error) {
	var rec ScanRecord
	if err := c.getJSON(ctx, "/scans/"+url.PathEscape(id), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Diff compares scan id's report with the snapshot before it.
func (c *Client) Diff(ctx context.Context, id string) (*history.ReportDiff, error) {
	var d history.ReportDiff
	if err := c.getJSON(ctx, "/scans/"+url.PathEscape(id)+"/diff", nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
