package rules

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRenamesTotal  = "namefix.renames.total"
	metricSkipsTotal    = "namefix.skips.total"
	metricFailuresTotal = "namefix.rule.failures.total"
	metricApplyDuration = "namefix.rule.apply.duration.seconds"

	attrRule   = "rule"
	attrReason = "reason"

	reasonUnresolvable = "unresolvable"
	reasonNoOp         = "noop"
)

// durationBucketBoundaries covers 1ms to 60s: one rule over one document.
var durationBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// Metrics holds the OTel instruments rule outcomes are recorded on.
// A nil *Metrics records nothing.
type Metrics struct {
	renamesTotal  metric.Int64Counter
	skipsTotal    metric.Int64Counter
	failuresTotal metric.Int64Counter
	applyDuration metric.Float64Histogram
}

// NewMetrics creates the rule instruments from the given meter.
func NewMetrics(mt metric.Meter) (*Metrics, error) {
	renames, err := mt.Int64Counter(metricRenamesTotal,
		metric.WithDescription("Symbols renamed by naming rules"),
		metric.WithUnit("{rename}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRenamesTotal, err)
	}

	skips, err := mt.Int64Counter(metricSkipsTotal,
		metric.WithDescription("Marked declarations that needed no rename"),
		metric.WithUnit("{skip}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricSkipsTotal, err)
	}

	failures, err := mt.Int64Counter(metricFailuresTotal,
		metric.WithDescription("Rule applications that left the document unmodified after an error"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricFailuresTotal, err)
	}

	duration, err := mt.Float64Histogram(metricApplyDuration,
		metric.WithDescription("Duration of one rule over one document"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricApplyDuration, err)
	}

	return &Metrics{
		renamesTotal:  renames,
		skipsTotal:    skips,
		failuresTotal: failures,
		applyDuration: duration,
	}, nil
}

// RecordApply records the outcome of one Apply call.
func (m *Metrics) RecordApply(ctx context.Context, rule string, outcome Outcome, failed bool, duration time.Duration) {
	if m == nil {
		return
	}

	ruleAttr := attribute.String(attrRule, rule)

	m.applyDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(ruleAttr))

	if outcome.Renamed > 0 {
		m.renamesTotal.Add(ctx, int64(outcome.Renamed), metric.WithAttributes(ruleAttr))
	}

	if outcome.Unresolvable > 0 {
		m.skipsTotal.Add(ctx, int64(outcome.Unresolvable), metric.WithAttributes(ruleAttr, attribute.String(attrReason, reasonUnresolvable)))
	}

	if outcome.NoOp > 0 {
		m.skipsTotal.Add(ctx, int64(outcome.NoOp), metric.WithAttributes(ruleAttr, attribute.String(attrReason, reasonNoOp)))
	}

	if failed {
		m.failuresTotal.Add(ctx, 1, metric.WithAttributes(ruleAttr))
	}
}
