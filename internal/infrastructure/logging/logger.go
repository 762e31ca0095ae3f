package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/gray-logic-show/internal/infrastructure/config"
)

// serviceName is attached to every entry as the "service" attribute.
const serviceName = "grayshow"

// Logger wraps slog.Logger for the show runtime.
//
// Every package that logs declares its own small Logger interface
// (Debug/Info/Warn/Error); *Logger satisfies all of them, so components
// receive log.With("component", name) at wiring time.
//
// Thread Safety: safe for concurrent use. Device threads log from their
// own goroutines.
type Logger struct {
	*slog.Logger
}

// New creates a Logger from the logging section of config.yaml.
//
// Output is "stdout" (default), "stderr" or "file". When the log file
// cannot be opened the logger falls back to stderr and says so in its
// first entry, so a bad path never prevents the show from starting.
func New(cfg config.LoggingConfig, version string) *Logger {
	output, openErr := openOutput(cfg)
	logger := newLogger(cfg, version, output)
	if openErr != nil {
		logger.Warn("log file unavailable, logging to stderr", "path", cfg.File.Path, "error", openErr)
	}
	return logger
}

// openOutput resolves the configured destination.
func openOutput(cfg config.LoggingConfig) (io.Writer, error) {
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		return os.Stderr, nil
	case "file":
		f, err := os.OpenFile(cfg.File.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
		if err != nil {
			return os.Stderr, fmt.Errorf("opening log file: %w", err)
		}
		return f, nil
	default:
		return os.Stdout, nil
	}
}

// newLogger builds the handler chain over an explicit writer.
func newLogger(cfg config.LoggingConfig, version string, output io.Writer) *Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(output, opts)
	default:
		handler = slog.NewJSONHandler(output, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", serviceName),
		slog.String("version", version),
	})

	return &Logger{
		Logger: slog.New(handler),
	}
}

// parseLevel converts a level name to slog.Level; unknown names are info.
//
// Jitter samples log at debug, so "debug" on a busy rig is noisy.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// With returns a child Logger carrying extra attributes.
//
//	hwLog := logger.With("component", "hardware")
//	hwLog.Warn("update jitter above threshold", "device", "stage")
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
	}
}

// Default returns a JSON info-level logger on stdout for use before the
// configuration is loaded.
func Default() *Logger {
	return New(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}, "dev")
}
