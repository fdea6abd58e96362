package rules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/namefix/pkg/naming"
	"github.com/Sumatoshi-tech/namefix/pkg/observability"
	"github.com/Sumatoshi-tech/namefix/pkg/program"
	"github.com/Sumatoshi-tech/namefix/pkg/syntax"
)

// SpanApply is the span opened for every rule application to one document.
const SpanApply = "namefix.rule.apply"

// Rule orders.
const (
	OrderVariableNames      = 5
	OrderConstantFieldNames = 6
	OrderInterfaceNaming    = 7
	OrderParametersNaming   = 8
)

// NamingRule renames the declarations of one kind that violate a naming
// policy, following every reference across the program.
type NamingRule struct {
	descriptor Descriptor
	marker     syntax.Annotation
	policy     naming.Policy
	dialects   map[syntax.Dialect]Dialect
	opts       options
}

// NewVariableNames returns the rule that writes local variable names in camelCase.
func NewVariableNames(opts ...Option) *NamingRule {
	return &NamingRule{
		descriptor: NewDescriptor("VariableNames", "Write variable names in camelCase", OrderVariableNames),
		marker:     syntax.Annotation{Kind: "VariableToRename"},
		policy:     naming.Locals,
		dialects: map[syntax.Dialect]Dialect{
			syntax.CSharp: csharpLocals{policy: naming.Locals},
		},
		opts: newOptions(opts),
	}
}

// NewConstantFieldNames returns the rule that upper-cases private constants.
func NewConstantFieldNames(opts ...Option) *NamingRule {
	return &NamingRule{
		descriptor: NewDescriptor("ConstantFieldNames", "Make private constants upper case", OrderConstantFieldNames),
		marker:     syntax.Annotation{Kind: "PrivateConstantFieldToRename"},
		policy:     naming.PrivateConstants,
		dialects: map[syntax.Dialect]Dialect{
			syntax.CSharp: csharpConstants{policy: naming.PrivateConstants},
		},
		opts: newOptions(opts),
	}
}

// NewInterfaceNaming returns the rule that prefixes interfaces with "I".
func NewInterfaceNaming(opts ...Option) *NamingRule {
	return &NamingRule{
		descriptor: NewDescriptor("InterfaceNaming",
			"Ensure all interfaces starts with an 'I' and continuing pascal case", OrderInterfaceNaming),
		marker: syntax.Annotation{Kind: "InterfaceToRename"},
		policy: naming.Interfaces,
		dialects: map[syntax.Dialect]Dialect{
			syntax.CSharp: csharpInterfaces{policy: naming.Interfaces},
		},
		opts: newOptions(opts),
	}
}

// NewParametersNaming returns the rule that writes parameters in camelCase.
func NewParametersNaming(opts ...Option) *NamingRule {
	return &NamingRule{
		descriptor: NewDescriptor("ParametersNaming", "Write parameters in camel case", OrderParametersNaming),
		marker:     syntax.Annotation{Kind: "ParameterToRename"},
		policy:     naming.Parameters,
		dialects: map[syntax.Dialect]Dialect{
			syntax.CSharp: csharpParameters{policy: naming.Parameters},
		},
		opts: newOptions(opts),
	}
}

// Builtin returns every naming rule.
func Builtin(opts ...Option) []Rule {
	return []Rule{
		NewVariableNames(opts...),
		NewConstantFieldNames(opts...),
		NewInterfaceNaming(opts...),
		NewParametersNaming(opts...),
	}
}

// Descriptor returns the rule metadata.
func (r *NamingRule) Descriptor() Descriptor { return r.descriptor }

// Marker returns the annotation the rule tags violations with.
func (r *NamingRule) Marker() syntax.Annotation { return r.marker }

// SupportsDialect reports whether the rule can run on documents of dialect.
func (r *NamingRule) SupportsDialect(dialect syntax.Dialect) bool {
	_, ok := r.dialects[dialect]

	return ok
}

// Apply renames every violation in doc. Documents without violations are
// left alone and snap itself is returned.
func (r *NamingRule) Apply(ctx context.Context, snap *program.Snapshot, doc program.DocumentID) (*program.Snapshot, error) {
	start := time.Now()
	ctx = observability.WithRule(ctx, r.descriptor.ID)

	ctx, span := r.opts.tracer.Start(ctx, SpanApply,
		trace.WithAttributes(
			attribute.String(observability.KeyRuleID, r.descriptor.ID),
			attribute.String("document.id", string(doc)),
		))
	defer span.End()

	out, outcome, err := r.apply(ctx, snap, doc)

	span.SetAttributes(
		attribute.Int("rule.renamed", outcome.Renamed),
		attribute.Int("rule.skipped", outcome.Unresolvable+outcome.NoOp),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	r.opts.metrics.RecordApply(ctx, r.descriptor.ID, outcome, errors.Is(err, ErrRenameFailed), time.Since(start))

	return out, err
}

func (r *NamingRule) apply(ctx context.Context, snap *program.Snapshot, doc program.DocumentID) (*program.Snapshot, Outcome, error) {
	if err := ctx.Err(); err != nil {
		return snap, Outcome{}, err
	}

	document, ok := snap.Document(doc)
	if !ok {
		return snap, Outcome{}, fmt.Errorf("%w: %s", ErrUnknownDocument, doc)
	}

	dialect, ok := r.dialects[document.Dialect]
	if !ok {
		return snap, Outcome{}, fmt.Errorf("%w: %s for %s", ErrUnsupportedDialect, document.Dialect, r.descriptor.ID)
	}

	tagged, count := dialect.Annotate(document.Tree, r.marker)
	if count == 0 {
		return snap, Outcome{}, nil
	}

	r.opts.logger.DebugContext(ctx, "annotated violations", "document", doc, "count", count)

	coordinator := Coordinator{
		Resolver: Resolver{Marker: r.marker},
		Cleaner:  Cleaner{Dialects: r.dialects},
		Policy:   r.policy,
		Logger:   r.opts.logger,
	}

	return coordinator.Process(ctx, snap, doc, tagged, count)
}
