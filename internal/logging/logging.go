// Package logging builds the structured loggers used across cadence.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// New creates a logger writing to w at the given level. w defaults to
// os.Stderr and an empty level means info.
func New(w io.Writer, level string) (*log.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	lvl := log.InfoLevel
	if level != "" {
		var err error
		if lvl, err = log.ParseLevel(level); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           lvl,
	}), nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// DailyPath returns the log file for the day of now under the XDG state
// directory, e.g. ~/.local/state/cadence/logs/cadence.2024-05-01.log.
func DailyPath(now time.Time) (string, error) {
	return xdg.StateFile(filepath.Join("cadence", "logs", "cadence."+now.Format(time.DateOnly)+".log"))
}

// OpenFile creates a logger appending to path, or to today's DailyPath
// when path is empty. The returned closer closes the file.
func OpenFile(path, level string) (*log.Logger, io.Closer, error) {
	if path == "" {
		var err error
		if path, err = DailyPath(time.Now()); err != nil {
			return nil, nil, fmt.Errorf("resolve log path: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger, err := New(f, level)
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return logger, f, nil
}
