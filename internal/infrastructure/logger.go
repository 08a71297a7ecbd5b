package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"bitewatch/internal/config"
)

// Process-wide logger state. The web server and the processor CLI each run
// through InitializeLogger exactly once at startup.
var (
	loggerMu     sync.Mutex
	globalLogger *slog.Logger

	logFileMu     sync.Mutex
	globalLogFile *os.File
)

// traceKey is the context key for the trace ID.
type traceKey struct{}

// InitializeLogger builds the logger from configuration and installs it as
// the slog default. A second call returns the existing logger. A failed
// attempt leaves no state behind, so startup code may correct the
// configuration and try again.
func InitializeLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if globalLogger != nil {
		return globalLogger, nil
	}

	logger, err := createLogger(cfg)
	if err != nil {
		return nil, err
	}
	globalLogger = logger
	slog.SetDefault(logger)
	return logger, nil
}

// GetLogger returns the process logger. Before initialization it falls back
// to the slog default, which keeps constructors usable in tests.
func GetLogger() *slog.Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if globalLogger == nil {
		return slog.Default()
	}
	return globalLogger
}

// createLogger assembles the handler chain for the configured output.
// Records are always JSON so log shippers never need a second parser.
func createLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	output, err := openOutput(cfg)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{
		AddSource: true,
		Level:     parseLogLevel(cfg.Level),
	}
	return slog.New(&traceHandler{Handler: slog.NewJSONHandler(output, opts)}), nil
}

// openOutput maps the configured output mode onto a writer. Opened file
// handles are stashed for CloseLogFile.
func openOutput(cfg config.LoggingConfig) (io.Writer, error) {
	switch strings.ToLower(cfg.Output) {
	case "file":
		file, err := openLogFile(cfg.FilePath)
		if err != nil {
			return nil, err
		}
		storeLogFile(file)
		return file, nil
	case "both":
		file, err := openLogFile(cfg.FilePath)
		if err != nil {
			return nil, err
		}
		storeLogFile(file)
		return io.MultiWriter(os.Stdout, file), nil
	default:
		return os.Stdout, nil
	}
}

// traceHandler decorates each record with the trace ID carried by the
// logging context, so call sites never attach it by hand.
type traceHandler struct {
	slog.Handler
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if traceID := GetTraceID(ctx); traceID != "" {
		r.AddAttrs(slog.String("trace_id", traceID))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithGroup(name)}
}

// parseLogLevel maps the configured level name onto slog. Unknown names
// fall back to info rather than failing startup.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithTraceID returns a context whose log records carry the given trace ID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceKey{}, traceID)
}

// GetTraceID returns the trace ID stored in the context, or an empty string.
func GetTraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceKey{}).(string)
	return id
}

func storeLogFile(file *os.File) {
	logFileMu.Lock()
	globalLogFile = file
	logFileMu.Unlock()
}

// CloseLogFile closes the log file if one is open. Shutdown calls it after
// everything else so the final messages still reach the file.
func CloseLogFile() error {
	logFileMu.Lock()
	defer logFileMu.Unlock()

	if globalLogFile == nil {
		return nil
	}
	err := globalLogFile.Close()
	globalLogFile = nil
	return err
}

// ResetLoggerForTesting clears the global logger state between tests.
func ResetLoggerForTesting() {
	CloseLogFile()
	loggerMu.Lock()
	globalLogger = nil
	loggerMu.Unlock()
}

// openLogFile opens the log file for appending, creating the parent
// directory when missing so logger setup does not depend on the path
// bootstrap having run first.
func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return file, nil
}
