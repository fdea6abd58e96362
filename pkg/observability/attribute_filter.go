package observability

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// exportedNamespaces are the attribute namespaces namefix spans write.
// Anything outside them is dropped before export.
var exportedNamespaces = []string{
	"namefix.",
	"run.",
	"rule.",
	"document.",
	"error.",
}

// redactedKeys hold source text or absolute paths and are dropped even
// though their namespace is exported. Documents are identified by
// document.id, which is relative to the workspace root.
var redactedKeys = map[attribute.Key]bool{
	"document.text": true,
	"document.path": true,
}

func exportable(key attribute.Key) bool {
	if redactedKeys[key] {
		return false
	}

	return slices.ContainsFunc(exportedNamespaces, func(ns string) bool {
		return strings.HasPrefix(string(key), ns)
	})
}

// attributeFilter is a SpanProcessor that decides once per finished span
// which attributes may leave the process.
type attributeFilter struct {
	delegate sdktrace.SpanProcessor
	logger   *slog.Logger
}

// NewAttributeFilter wraps delegate so that spans reach it without
// attributes outside the exported namespaces and without redacted keys.
// Dropped keys are added to the span's dropped-attribute count. When logger
// is non-nil, each span that lost attributes is reported once.
func NewAttributeFilter(delegate sdktrace.SpanProcessor, logger *slog.Logger) sdktrace.SpanProcessor {
	return &attributeFilter{delegate: delegate, logger: logger}
}

// OnStart delegates to the wrapped processor.
func (f *attributeFilter) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	f.delegate.OnStart(parent, s)
}

// OnEnd hands the delegate either the span itself or a redacted view of it.
func (f *attributeFilter) OnEnd(s sdktrace.ReadOnlySpan) {
	attrs := s.Attributes()
	kept := make([]attribute.KeyValue, 0, len(attrs))

	var dropped []string

	for _, kv := range attrs {
		if exportable(kv.Key) {
			kept = append(kept, kv)
		} else {
			dropped = append(dropped, string(kv.Key))
		}
	}

	if len(dropped) == 0 {
		f.delegate.OnEnd(s)

		return
	}

	if f.logger != nil {
		f.logger.Warn("span attributes dropped before export", "span", s.Name(), "keys", dropped)
	}

	f.delegate.OnEnd(&redactedSpan{ReadOnlySpan: s, attrs: kept, dropped: len(dropped)})
}

// Shutdown delegates to the wrapped processor.
func (f *attributeFilter) Shutdown(ctx context.Context) error {
	if err := f.delegate.Shutdown(ctx); err != nil {
		return fmt.Errorf("attribute filter shutdown: %w", err)
	}

	return nil
}

// ForceFlush delegates to the wrapped processor.
func (f *attributeFilter) ForceFlush(ctx context.Context) error {
	if err := f.delegate.ForceFlush(ctx); err != nil {
		return fmt.Errorf("attribute filter flush: %w", err)
	}

	return nil
}

// redactedSpan is a finished span with a reduced attribute set.
type redactedSpan struct {
	sdktrace.ReadOnlySpan

	attrs   []attribute.KeyValue
	dropped int
}

// Attributes returns the exportable attributes.
func (s *redactedSpan) Attributes() []attribute.KeyValue { return s.attrs }

// DroppedAttributes counts the SDK's own drops plus the redacted ones.
func (s *redactedSpan) DroppedAttributes() int {
	return s.ReadOnlySpan.DroppedAttributes() + s.dropped
}
