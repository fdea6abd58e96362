package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/namefix/pkg/observability"
	"github.com/Sumatoshi-tech/namefix/pkg/program"
	"github.com/Sumatoshi-tech/namefix/pkg/rules"
)

const tracerName = "namefix"

// RuleReport summarises one rule over the whole run.
type RuleReport struct {
	ID string
	// Applied counts documents the rule ran on.
	Applied int
	// Changed counts documents the rule modified, anywhere in the program.
	Changed int
	// Failed counts documents the rule left unmodified after an error.
	Failed int
}

// Failure is one rule that could not be applied to one document.
type Failure struct {
	Rule     string
	Document program.DocumentID
	Err      error
}

// Report is the outcome of a run.
type Report struct {
	RunID    string
	Rules    []RuleReport
	Failures []Failure
	// Changed lists the documents that differ from the input snapshot.
	Changed  []program.DocumentID
	Duration time.Duration
}

// Engine applies rules, in order, to every document of a snapshot.
type Engine struct {
	rules  []rules.Rule
	logger *slog.Logger
	tracer trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithTracer sets the tracer for the run span. When unset, the global
// provider is used.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) { e.tracer = tracer }
}

// New creates an engine running selected in the given order.
func New(selected []rules.Rule, opts ...Option) *Engine {
	e := &Engine{rules: selected}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}

	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}

	return e
}

// Run threads snap through every rule and document. A rule that fails on a
// document leaves it unmodified and the run continues; only cancellation
// stops it, returning the snapshot reached so far with the context error.
// That snapshot includes the renames the interrupted rule had committed on
// its current document. Logs written during the run carry its id.
func (e *Engine) Run(ctx context.Context, snap *program.Snapshot) (*program.Snapshot, *Report, error) {
	start := time.Now()
	report := &Report{RunID: uuid.NewString()}

	ctx = observability.WithRun(ctx, report.RunID)

	ctx, span := e.tracer.Start(ctx, "namefix.run",
		trace.WithAttributes(
			attribute.String(observability.KeyRunID, report.RunID),
			attribute.Int("run.rules", len(e.rules)),
			attribute.Int("run.documents", snap.Len()),
		))
	defer span.End()

	current := snap

	for _, rule := range e.rules {
		ruleReport := RuleReport{ID: rule.Descriptor().ID}
		ruleCtx := observability.WithRule(ctx, ruleReport.ID)

		for _, id := range current.DocumentIDs() {
			doc, ok := current.Document(id)
			if !ok || !rule.SupportsDialect(doc.Dialect) {
				continue
			}

			out, err := rule.Apply(ruleCtx, current, id)
			ruleReport.Applied++

			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					if out != nil {
						ruleReport.Changed += len(out.Diff(current))
						current = out
					}

					report.Rules = append(report.Rules, ruleReport)
					e.finish(report, snap, current, start)

					return current, report, err
				}

				ruleReport.Failed++
				report.Failures = append(report.Failures, Failure{Rule: ruleReport.ID, Document: id, Err: err})
				e.logger.WarnContext(ruleCtx, "rule failed, document left unmodified",
					"document", id, "error", err)

				continue
			}

			ruleReport.Changed += len(out.Diff(current))
			current = out
		}

		e.logger.InfoContext(ruleCtx, "rule finished",
			"applied", ruleReport.Applied, "changed", ruleReport.Changed, "failed", ruleReport.Failed)

		report.Rules = append(report.Rules, ruleReport)
	}

	e.finish(report, snap, current, start)
	span.SetAttributes(attribute.Int("run.changed", len(report.Changed)))

	return current, report, nil
}

func (e *Engine) finish(report *Report, before, after *program.Snapshot, start time.Time) {
	report.Changed = after.Diff(before)
	report.Duration = time.Since(start)
}
