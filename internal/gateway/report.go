package gateway

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// Report is an open handle on the report file. Callers must Close it.
type Report struct {
	Name        string
	Size        int64
	ModTime     time.Time
	ContentType string

	file *os.File
}

func (r *Report) Read(p []byte) (int, error) { return r.file.Read(p) }

func (r *Report) Seek(offset int64, whence int) (int64, error) { return r.file.Seek(offset, whence) }

func (r *Report) Close() error { return r.file.Close() }

// GetReport opens the report written by the scan script. It returns
// ErrReportNotFound when no report exists yet.
func (g *Gateway) GetReport() (*Report, error) {
	path := g.cfg.ReportPath
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("opening report %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat report %s: %w", path, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, ErrReportNotFound
	}

	contentType := "application/octet-stream"
	if mt, err := mimetype.DetectReader(f); err == nil {
		contentType = mt.String()
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("rewinding report %s: %w", path, err)
	}

	return &Report{
		Name:        filepath.Base(path),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		ContentType: contentType,
		file:        f,
	}, nil
}
