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

	"go.opentelemetry.io/otel/trace"

	"sheetkpi/internal/config"
)

var (
	loggerMu        sync.Mutex
	globalLogger    *slog.Logger
	globalLoggerErr error
	loggerReady     bool
	previousDefault *slog.Logger
	globalLogFile   *os.File
	logFileMu       sync.Mutex
)

// contextKey is a type for context keys
type contextKey string

// TraceIDContextKey is the key for storing the trace ID in context.
// A sync run uses its run id; HTTP requests use their request id.
const TraceIDContextKey contextKey = "trace_id"

// InitializeLogger creates the process JSON logger and installs it as the
// slog default. Only the first call has an effect. Components never read it
// back; they receive the returned logger explicitly.
func InitializeLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if !loggerReady {
		loggerReady = true
		globalLogger, globalLoggerErr = NewLogger(cfg, os.Stdout)
		if globalLogger != nil {
			previousDefault = slog.Default()
			slog.SetDefault(globalLogger)
		}
	}
	return globalLogger, globalLoggerErr
}

// NewLogger builds a JSON logger writing to console, a file, or both.
// console is the writer used for console output. Every record carries the
// service name and version.
func NewLogger(cfg config.LoggingConfig, console io.Writer) (*slog.Logger, error) {
	output := console
	if mode := strings.ToLower(cfg.Output); mode == "file" || mode == "both" {
		file, err := openLogFile(cfg.FilePath)
		if err != nil {
			return nil, err
		}
		setLogFile(file)
		output = file
		if mode == "both" {
			output = io.MultiWriter(console, file)
		}
	}

	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)})
	return slog.New(&traceHandler{Handler: handler}).With(
		slog.String("service", ServiceName),
		slog.String("version", ServiceVersion),
	), nil
}

// traceHandler stamps records with the run or request trace id from the
// context, and the span id when an OpenTelemetry span is active
type traceHandler struct {
	slog.Handler
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	traceID := GetTraceID(ctx)
	if traceID == "" {
		traceID = TraceIDFromContext(ctx)
	}
	if traceID != "" {
		r.AddAttrs(slog.String("trace_id", traceID))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasSpanID() {
		r.AddAttrs(slog.String("span_id", sc.SpanID().String()))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithGroup(name)}
}

// parseLogLevel converts string log level to slog.Level
func parseLogLevel(level string) slog.Level {
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

// WithTraceID adds a trace ID to the context
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDContextKey, traceID)
}

// GetTraceID retrieves the trace ID from context
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDContextKey).(string); ok {
		return traceID
	}
	return ""
}

// CloseLogFile closes the global log file if open.
// Call it during shutdown.
func CloseLogFile() error {
	logFileMu.Lock()
	defer logFileMu.Unlock()

	if globalLogFile != nil {
		err := globalLogFile.Close()
		globalLogFile = nil
		return err
	}
	return nil
}

// ResetLoggerForTesting resets the global logger state.
// This should only be called in tests.
func ResetLoggerForTesting() {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	CloseLogFile()
	if previousDefault != nil {
		slog.SetDefault(previousDefault)
	}
	globalLogger = nil
	globalLoggerErr = nil
	previousDefault = nil
	loggerReady = false
}

func setLogFile(file *os.File) {
	logFileMu.Lock()
	defer logFileMu.Unlock()
	if globalLogFile != nil {
		globalLogFile.Close()
	}
	globalLogFile = file
}

// openLogFile opens or creates a log file in append mode
func openLogFile(filePath string) (*os.File, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", filePath, err)
	}

	return file, nil
}
