package telemetry

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	clog "github.com/charmbracelet/log"
)

// Logger writes structured JSON lines to a log file. A nil *Logger is
// usable and discards everything.
type Logger struct {
	mu  sync.Mutex
	w   io.WriteCloser
	log *clog.Logger
}

func NewLogger(path string, debug bool) (*Logger, error) {
	if path == "" {
		return newLogger(nopCloser{Writer: io.Discard}, debug), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, err
	}
	return newLogger(f, debug), nil
}

// NewWriterLogger logs to w without taking ownership of it.
func NewWriterLogger(w io.Writer, debug bool) *Logger {
	return newLogger(nopCloser{Writer: w}, debug)
}

func newLogger(w io.WriteCloser, debug bool) *Logger {
	level := clog.InfoLevel
	if debug {
		level = clog.DebugLevel
	}
	l := clog.NewWithOptions(w, clog.Options{
		Prefix:          "ctfterm",
		Level:           level,
		ReportTimestamp: true,
		Formatter:       clog.JSONFormatter,
	})
	return &Logger{w: w, log: l}
}

func (l *Logger) Debug(msg string, fields map[string]any) {
	l.emit(clog.DebugLevel, msg, fields)
}

func (l *Logger) Info(msg string, fields map[string]any) {
	l.emit(clog.InfoLevel, msg, fields)
}

func (l *Logger) Warn(msg string, fields map[string]any) {
	l.emit(clog.WarnLevel, msg, fields)
}

func (l *Logger) Error(msg string, fields map[string]any) {
	l.emit(clog.ErrorLevel, msg, fields)
}

// With returns a logger that adds fields to every entry.
func (l *Logger) With(fields map[string]any) *Logger {
	if l == nil || l.log == nil {
		return l
	}
	return &Logger{w: l.w, log: l.log.With(keyvals(fields)...)}
}

func (l *Logger) emit(level clog.Level, msg string, fields map[string]any) {
	if l == nil || l.log == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.log.Log(level, msg, keyvals(fields)...)
}

func (l *Logger) Close() error {
	if l == nil || l.w == nil {
		return nil
	}
	return l.w.Close()
}

// keyvals flattens fields in key order so log lines are stable.
func keyvals(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		out = append(out, k, fields[k])
	}
	return out
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
