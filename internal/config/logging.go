package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	slogmulti "github.com/samber/slog-multi"
)

// SetupLogger builds a logger that writes JSON to logFile and, when console
// is non-nil, text to console. The TUI passes a nil console so nothing is
// drawn over the screen. The returned func closes the log file.
func SetupLogger(logFile string, level slog.Level, console io.Writer) (*slog.Logger, func() error) {
	var handlers []slog.Handler
	if console != nil {
		handlers = append(handlers, slog.NewTextHandler(console, &slog.HandlerOptions{Level: level}))
	}

	noop := func() error { return nil }

	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		return fallbackLogger(handlers, err, logFile), noop
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fallbackLogger(handlers, err, logFile), noop
	}

	handlers = append(handlers, slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}))
	return slog.New(slogmulti.Fanout(handlers...)), file.Close
}

func fallbackLogger(handlers []slog.Handler, err error, logFile string) *slog.Logger {
	if len(handlers) == 0 {
		return slog.New(slog.DiscardHandler)
	}
	logger := slog.New(slogmulti.Fanout(handlers...))
	logger.Error("failed to open log file, using console only", "error", err, "file", logFile)
	return logger
}
