package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger appends JSON lines to .hrdesk/logs/hrdesk.log so users can inspect
// failed requests after the terminal UI has closed.
type Logger struct {
	file *os.File
	zl   zerolog.Logger
}

// New creates (or reuses) the log file at path.
func New(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	return &Logger{file: f, zl: newZerolog(f)}, nil
}

// NewWriter logs to w; the CLI uses it for --verbose output on stderr.
func NewWriter(w io.Writer) *Logger {
	return &Logger{zl: newZerolog(w)}
}

func newZerolog(w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(w).With().Timestamp().Str("app", "hrdesk").Logger()
}

// Zerolog exposes the structured logger for packages that take one.
func (l *Logger) Zerolog() zerolog.Logger {
	if l == nil {
		return zerolog.Nop()
	}
	return l.zl
}

// Component returns a child logger tagged with the component name.
func (l *Logger) Component(name string) zerolog.Logger {
	return l.Zerolog().With().Str("component", name).Logger()
}

// Close releases the file handle.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Printf writes a single info line.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil {
		return
	}
	l.zl.Info().Msg(strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}

// Errorf writes a single error line.
func (l *Logger) Errorf(err error, format string, args ...any) {
	if l == nil {
		return
	}
	l.zl.Error().Err(err).Msg(strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}
