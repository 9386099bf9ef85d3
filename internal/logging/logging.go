package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type DualLogger struct {
	Logger *slog.Logger
	file   *os.File
}

// New creates a slog logger writing to out and, when logPath is set, to an
// append-mode log file. level is one of debug, info, warn, error.
func New(out io.Writer, level, logPath string) (*DualLogger, error) {
	if out == nil {
		out = os.Stderr
	}
	writers := []io.Writer{out}

	var file *os.File
	if logPath != "" {
		var err error
		file, err = os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		writers = append(writers, file)
	}

	handler := slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{Level: ParseLevel(level)})

	return &DualLogger{Logger: slog.New(handler), file: file}, nil
}

// Close releases the log file, if any.
func (d *DualLogger) Close() error {
	if d == nil || d.file == nil {
		return nil
	}
	return d.file.Close()
}

// ParseLevel maps a level name to a slog level, defaulting to info.
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

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
