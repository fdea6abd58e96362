package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/namefix/pkg/observability"
)

func newJSONLogger(t *testing.T, cfg observability.Config) (*slog.Logger, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer

	inner := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})

	return slog.New(observability.NewTracingHandler(inner, cfg)), &buf
}

func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)

	var record map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &record))

	return record
}

func TestTracingHandler_RunAndRuleFromContext(t *testing.T) {
	t.Parallel()

	logger, buf := newJSONLogger(t, observability.DefaultConfig())

	ctx := observability.WithRun(context.Background(), "run-1")
	logger.InfoContext(ctx, "run started")

	record := lastRecord(t, buf)
	assert.Equal(t, "run-1", record["run.id"])
	assert.NotContains(t, record, "rule.id")

	logger.WarnContext(observability.WithRule(ctx, "variable-names"), "rule failed", "document", "a.cs")

	record = lastRecord(t, buf)
	assert.Equal(t, "run-1", record["run.id"])
	assert.Equal(t, "variable-names", record["rule.id"])
	assert.Equal(t, "a.cs", record["document"])
}

func TestTracingHandler_ProcessMetadataAndTrace(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()
	cfg.ServiceVersion = "1.4.0"
	cfg.Environment = "ci"
	cfg.Mode = observability.ModeDryRun

	logger, buf := newJSONLogger(t, cfg)

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)

	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)

	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	logger.InfoContext(ctx, "rule finished")

	record := lastRecord(t, buf)
	assert.Equal(t, traceID.String(), record["trace_id"])
	assert.Equal(t, spanID.String(), record["span_id"])
	assert.Equal(t, "namefix", record["service"])
	assert.Equal(t, "1.4.0", record["version"])
	assert.Equal(t, "ci", record["env"])
	assert.Equal(t, "dry-run", record["mode"])
}

func TestTracingHandler_WithoutContextValues(t *testing.T) {
	t.Parallel()

	logger, buf := newJSONLogger(t, observability.DefaultConfig())

	logger.Info("loaded", "documents", 3)

	record := lastRecord(t, buf)
	for _, key := range []string{"trace_id", "span_id", "run.id", "rule.id", "env", "version"} {
		assert.NotContains(t, record, key)
	}

	assert.Equal(t, "cli", record["mode"])
}

func TestTracingHandler_GroupKeepsMetadataAtTopLevel(t *testing.T) {
	t.Parallel()

	logger, buf := newJSONLogger(t, observability.DefaultConfig())

	logger.With("workers", 4).WithGroup("workspace").Info("loaded", "skipped", 1)

	record := lastRecord(t, buf)
	assert.Equal(t, "namefix", record["service"])
	assert.InDelta(t, 4, record["workers"], 0)

	group, ok := record["workspace"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 1, group["skipped"], 0)
}

func TestRunAndRuleID(t *testing.T) {
	t.Parallel()

	_, ok := observability.RunID(context.Background())
	assert.False(t, ok)

	_, ok = observability.RuleID(observability.WithRule(context.Background(), ""))
	assert.False(t, ok)

	id, ok := observability.RunID(observability.WithRun(context.Background(), "r"))
	assert.True(t, ok)
	assert.Equal(t, "r", id)
}
