package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/natadecua/SNOOP/internal/interfaces"
)

// Logger and Field are re-exported so callers only import this package.
type (
	Logger = interfaces.Logger
	Field  = interfaces.Field
)

// F builds a Field.
func F(key string, value any) Field { return interfaces.F(key, value) }

// StdoutLogger writes one JSON object per entry:
//
//	{"time":"...","level":"INFO","msg":"...","component":"server","fields":{...}}
type StdoutLogger struct {
	component string
	fields    []Field
	out       *slog.Logger
}

// NewStdoutLogger creates an info-level logger writing to stdout.
func NewStdoutLogger(component string) *StdoutLogger {
	return NewLogger(os.Stdout, slog.LevelInfo, component)
}

// NewLogger creates a logger writing JSON lines to w, dropping entries below level.
func NewLogger(w io.Writer, level slog.Leveler, component string) *StdoutLogger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return &StdoutLogger{component: component, out: slog.New(h)}
}

// ParseLevel maps LOG_LEVEL style strings to slog levels. Unknown values
// fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (s *StdoutLogger) log(level slog.Level, msg string, fields ...Field) {
	ctx := context.Background()
	if !s.out.Enabled(ctx, level) {
		return
	}
	attrs := make([]slog.Attr, 0, 2)
	if s.component != "" {
		attrs = append(attrs, slog.String("component", s.component))
	}
	all := append(append([]Field{}, s.fields...), fields...)
	if len(all) > 0 {
		group := make([]any, 0, len(all))
		for _, f := range all {
			group = append(group, slog.Any(f.Key, f.Value))
		}
		attrs = append(attrs, slog.Group("fields", group...))
	}
	s.out.LogAttrs(ctx, level, msg, attrs...)
}

func (s *StdoutLogger) Debug(msg string, fields ...Field) { s.log(slog.LevelDebug, msg, fields...) }

func (s *StdoutLogger) Info(msg string, fields ...Field) { s.log(slog.LevelInfo, msg, fields...) }

func (s *StdoutLogger) Warn(msg string, fields ...Field) { s.log(slog.LevelWarn, msg, fields...) }

func (s *StdoutLogger) Error(msg string, fields ...Field) { s.log(slog.LevelError, msg, fields...) }

// With returns a child logger. A "component" field renames the child's
// component instead of being repeated on every entry.
func (s *StdoutLogger) With(fields ...Field) Logger {
	child := &StdoutLogger{
		component: s.component,
		fields:    append([]Field{}, s.fields...),
		out:       s.out,
	}
	for _, f := range fields {
		if f.Key == "component" {
			if str, ok := f.Value.(string); ok {
				child.component = str
				continue
			}
		}
		child.fields = append(child.fields, f)
	}
	return child
}
