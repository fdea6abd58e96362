package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRunsTotal        = "namefix.runs.total"
	metricRunDuration      = "namefix.run.duration.seconds"
	metricRunErrorsTotal   = "namefix.run.errors.total"
	metricDocumentsChanged = "namefix.documents.changed.total"

	attrRunMode   = "mode"
	attrRunStatus = "status"

	// StatusOK marks a run that completed.
	StatusOK = "ok"
	// StatusError marks a run that stopped on an error.
	StatusError = "error"
)

// durationBucketBoundaries covers 10ms to 600s, from a single file to a
// large solution.
var durationBucketBoundaries = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600}

// RunMetrics holds the OTel instruments recorded once per run.
type RunMetrics struct {
	runsTotal        metric.Int64Counter
	runDuration      metric.Float64Histogram
	errorsTotal      metric.Int64Counter
	documentsChanged metric.Int64Counter
}

// NewRunMetrics creates run metric instruments from the given meter.
func NewRunMetrics(mt metric.Meter) (*RunMetrics, error) {
	runsTotal, err := mt.Int64Counter(metricRunsTotal,
		metric.WithDescription("Total number of runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRunsTotal, err)
	}

	runDuration, err := mt.Float64Histogram(metricRunDuration,
		metric.WithDescription("Run duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRunDuration, err)
	}

	errorsTotal, err := mt.Int64Counter(metricRunErrorsTotal,
		metric.WithDescription("Total number of runs that failed"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRunErrorsTotal, err)
	}

	documentsChanged, err := mt.Int64Counter(metricDocumentsChanged,
		metric.WithDescription("Total number of documents changed by runs"),
		metric.WithUnit("{document}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricDocumentsChanged, err)
	}

	return &RunMetrics{
		runsTotal:        runsTotal,
		runDuration:      runDuration,
		errorsTotal:      errorsTotal,
		documentsChanged: documentsChanged,
	}, nil
}

// RecordRun records a finished run with its mode, status, duration and the
// number of documents it changed.
func (rm *RunMetrics) RecordRun(ctx context.Context, mode AppMode, status string, duration time.Duration, changed int) {
	attrs := metric.WithAttributes(
		attribute.String(attrRunMode, string(mode)),
		attribute.String(attrRunStatus, status),
	)

	rm.runsTotal.Add(ctx, 1, attrs)
	rm.runDuration.Record(ctx, duration.Seconds(), attrs)
	rm.documentsChanged.Add(ctx, int64(changed), metric.WithAttributes(attribute.String(attrRunMode, string(mode))))

	if status == StatusError {
		rm.errorsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String(attrRunMode, string(mode)),
		))
	}
}
