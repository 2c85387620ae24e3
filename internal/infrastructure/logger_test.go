package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"sheetkpi/internal/config"
)

func decodeLines(t *testing.T, data []byte) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry), "log line is not JSON: %s", line)
		entries = append(entries, entry)
	}
	return entries
}

func TestInitializeLogger(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logFile := filepath.Join(t.TempDir(), "nested", "test.log")

	logger, err := InitializeLogger(config.LoggingConfig{
		Level:    "info",
		Output:   "file",
		FilePath: logFile,
	})
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Same(t, logger, slog.Default())

	logger.Info("test message", "key", "value")
	require.NoError(t, CloseLogFile())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)

	entries := decodeLines(t, content)
	require.Len(t, entries, 1)
	assert.Equal(t, "test message", entries[0]["msg"])
	assert.Equal(t, "value", entries[0]["key"])
	assert.Equal(t, "INFO", entries[0]["level"])
}

func TestInitializeLogger_OnlyOnce(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	dir := t.TempDir()
	first, err := InitializeLogger(config.LoggingConfig{Level: "info", Output: "file", FilePath: filepath.Join(dir, "a.log")})
	require.NoError(t, err)
	second, err := InitializeLogger(config.LoggingConfig{Level: "debug", Output: "file", FilePath: filepath.Join(dir, "b.log")})
	require.NoError(t, err)

	assert.Same(t, first, second)
	_, statErr := os.Stat(filepath.Join(dir, "b.log"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestInitializeLogger_Concurrent(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	cfg := config.LoggingConfig{Level: "info", Output: "file", FilePath: filepath.Join(t.TempDir(), "c.log")}

	loggers := make([]*slog.Logger, 8)
	var wg sync.WaitGroup
	for i := range loggers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l, err := InitializeLogger(cfg)
			assert.NoError(t, err)
			loggers[i] = l
		}(i)
	}
	wg.Wait()

	for _, l := range loggers[1:] {
		assert.Same(t, loggers[0], l)
	}
}

func TestResetLoggerRestoresDefault(t *testing.T) {
	ResetLoggerForTesting()
	before := slog.Default()

	logger, err := InitializeLogger(config.LoggingConfig{Level: "info", Output: "file", FilePath: filepath.Join(t.TempDir(), "r.log")})
	require.NoError(t, err)
	assert.Same(t, logger, slog.Default())

	ResetLoggerForTesting()
	assert.Same(t, before, slog.Default())
}

func TestNewLogger_Both(t *testing.T) {
	defer CloseLogFile()

	var console bytes.Buffer
	logFile := filepath.Join(t.TempDir(), "both.log")

	logger, err := NewLogger(config.LoggingConfig{Level: "info", Output: "both", FilePath: logFile}, &console)
	require.NoError(t, err)

	logger.Info("dual")
	require.NoError(t, CloseLogFile())

	fileContent, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, console.String(), `"msg":"dual"`)
	assert.Contains(t, string(fileContent), `"msg":"dual"`)
}

func TestTraceIDInjection(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(config.LoggingConfig{Level: "debug", Output: "console"}, &buf)
	require.NoError(t, err)

	ctx := WithTraceID(context.Background(), "test-trace-123")
	logger.InfoContext(ctx, "with trace")
	logger.InfoContext(context.Background(), "without trace")

	entries := decodeLines(t, buf.Bytes())
	require.Len(t, entries, 2)
	assert.Equal(t, "test-trace-123", entries[0]["trace_id"])
	assert.NotContains(t, entries[1], "trace_id")
}

func TestTraceIDSurvivesWith(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(config.LoggingConfig{Level: "info"}, &buf)
	require.NoError(t, err)

	ctx := WithTraceID(context.Background(), "run-1")
	logger.With("component", "sync").WithGroup("stats").InfoContext(ctx, "grouped", "rows", 3)

	entries := decodeLines(t, buf.Bytes())
	require.Len(t, entries, 1)
	assert.Equal(t, "sync", entries[0]["component"])
	assert.NotNil(t, entries[0]["stats"])
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{level: "debug", wantDebug: true, wantInfo: true, wantWarn: true},
		{level: "info", wantInfo: true, wantWarn: true},
		{level: "warn", wantWarn: true},
		{level: "WARNING", wantWarn: true},
		{level: "error"},
		{level: "bogus", wantInfo: true, wantWarn: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := NewLogger(config.LoggingConfig{Level: tt.level, Output: "console"}, &buf)
			require.NoError(t, err)

			logger.Debug("d")
			logger.Info("i")
			logger.Warn("w")

			out := buf.String()
			assert.Equal(t, tt.wantDebug, strings.Contains(out, `"msg":"d"`))
			assert.Equal(t, tt.wantInfo, strings.Contains(out, `"msg":"i"`))
			assert.Equal(t, tt.wantWarn, strings.Contains(out, `"msg":"w"`))
		})
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))

	withID := ContextWithTraceID(ctx)
	id := GetTraceID(withID)
	assert.Len(t, id, 36)

	assert.Equal(t, id, GetTraceID(ContextWithTraceID(withID)), "existing trace id is kept")
	assert.NotEqual(t, GenerateTraceID(), GenerateTraceID())
}

func TestLoggerServiceAttrsAndSpan(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(config.LoggingConfig{Level: "info"}, &buf)
	require.NoError(t, err)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01, 0x02},
		SpanID:     trace.SpanID{0x03},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	logger.InfoContext(ctx, "in span")

	entries := decodeLines(t, buf.Bytes())
	require.Len(t, entries, 1)
	assert.Equal(t, ServiceName, entries[0]["service"])
	assert.Equal(t, ServiceVersion, entries[0]["version"])
	assert.Equal(t, sc.TraceID().String(), entries[0]["trace_id"])
	assert.Equal(t, sc.SpanID().String(), entries[0]["span_id"])
}
