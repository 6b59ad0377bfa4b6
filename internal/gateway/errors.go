package gateway

import "errors"

// Every gateway failure wraps exactly one of these; callers branch with errors.Is.
var (
	ErrValidation         = errors.New("invalid scan request")
	ErrScanInProgress     = errors.New("a scan is already running")
	ErrExternalProcess    = errors.New("scan script failed")
	ErrTimeout            = errors.New("scan timed out")
	ErrExecutableNotFound = errors.New("executable not found")
	ErrUnexpected         = errors.New("unexpected scan error")
	ErrReportNotFound     = errors.New("no report available")
	ErrExternalTool       = errors.New("link listing failed")
)
