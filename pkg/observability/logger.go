package observability

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Keys shared by span attributes and log records.
const (
	KeyRunID  = "run.id"
	KeyRuleID = "rule.id"
)

const (
	logTraceID = "trace_id"
	logSpanID  = "span_id"
	logService = "service"
	logVersion = "version"
	logEnv     = "env"
	logMode    = "mode"
)

type (
	runKey  struct{}
	ruleKey struct{}
)

// WithRun returns a copy of ctx that tags log records with runID.
func WithRun(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runKey{}, runID)
}

// WithRule returns a copy of ctx that tags log records with ruleID.
func WithRule(ctx context.Context, ruleID string) context.Context {
	return context.WithValue(ctx, ruleKey{}, ruleID)
}

// RunID returns the run id carried by ctx.
func RunID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runKey{}).(string)

	return id, ok && id != ""
}

// RuleID returns the rule id carried by ctx.
func RuleID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ruleKey{}).(string)

	return id, ok && id != ""
}

// TracingHandler is an [slog.Handler] that ties every record to the run it
// belongs to. Records logged with a context get the active trace and span
// ids and the run and rule ids set by [WithRun] and [WithRule]. Process
// metadata (service, version, env, mode) is attached once at construction,
// ahead of any group.
type TracingHandler struct {
	inner slog.Handler
}

// NewTracingHandler wraps inner with run correlation and the process
// metadata taken from cfg.
func NewTracingHandler(inner slog.Handler, cfg Config) *TracingHandler {
	attrs := []slog.Attr{
		slog.String(logService, cfg.ServiceName),
		slog.String(logMode, string(cfg.Mode)),
	}

	if cfg.ServiceVersion != "" {
		attrs = append(attrs, slog.String(logVersion, cfg.ServiceVersion))
	}

	if cfg.Environment != "" {
		attrs = append(attrs, slog.String(logEnv, cfg.Environment))
	}

	return &TracingHandler{inner: inner.WithAttrs(attrs)}
}

// Enabled delegates to the inner handler.
func (th *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return th.inner.Enabled(ctx, level)
}

// Handle adds the correlation attributes found on ctx, then delegates.
func (th *TracingHandler) Handle(ctx context.Context, record slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		record.AddAttrs(
			slog.String(logTraceID, sc.TraceID().String()),
			slog.String(logSpanID, sc.SpanID().String()),
		)
	}

	if id, ok := RunID(ctx); ok {
		record.AddAttrs(slog.String(KeyRunID, id))
	}

	if id, ok := RuleID(ctx); ok {
		record.AddAttrs(slog.String(KeyRuleID, id))
	}

	if err := th.inner.Handle(ctx, record); err != nil {
		return fmt.Errorf("tracing handler: %w", err)
	}

	return nil
}

// WithAttrs returns a handler whose inner handler carries attrs.
func (th *TracingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TracingHandler{inner: th.inner.WithAttrs(attrs)}
}

// WithGroup returns a handler whose inner handler opens group name.
func (th *TracingHandler) WithGroup(name string) slog.Handler {
	return &TracingHandler{inner: th.inner.WithGroup(name)}
}
