package internal

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Logger is a structured logger backed by the log file in the XDG cache
type Logger struct {
	*slog.Logger
	file *os.File
}

// NewLogger opens the log file and returns a logger writing to it. When
// mirror is set, records are also written to stderr at debug level.
// If the file cannot be opened, logging falls back to stderr (mirror) or
// is discarded.
func NewLogger(logFile string, mirror bool) *Logger {
	level := slog.LevelInfo
	if mirror {
		level = slog.LevelDebug
	}

	var writers []io.Writer
	var file *os.File

	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err == nil {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			file = f
			writers = append(writers, f)
		}
	}
	if mirror {
		writers = append(writers, os.Stderr)
	}

	var w io.Writer = io.Discard
	if len(writers) > 0 {
		w = io.MultiWriter(writers...)
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return &Logger{
		Logger: slog.New(handler).With("pid", os.Getpid()),
		file:   file,
	}
}

// Close closes the log file
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
