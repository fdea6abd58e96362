// Package rules implements the naming rules and the protocol that drives
// them: annotate the violations of one document, then for each marker in
// order resolve it against the current snapshot, rename its symbol across
// the program and scrub the rename bookkeeping before the next round.
package rules

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/namefix/pkg/program"
	"github.com/Sumatoshi-tech/namefix/pkg/syntax"
)

// Sentinel errors returned by rules.
var (
	// ErrUnsupportedDialect is returned when a rule has no implementation
	// for a document's dialect.
	ErrUnsupportedDialect = errors.New("unsupported program kind")
	// ErrRenameFailed wraps a rename the program could not complete. The
	// document is left unmodified.
	ErrRenameFailed = errors.New("rename failed")
	// ErrUnknownDocument is returned when the target document is not part of the snapshot.
	ErrUnknownDocument = errors.New("unknown document")
)

const tracerName = "namefix"

const normalizeExtraCapacity = 4

// Descriptor is stable rule metadata.
type Descriptor struct {
	ID          string
	Name        string
	Description string
	// Order fixes the position of the rule in a run; lower runs first.
	Order int
}

// NewDescriptor builds rule metadata, deriving the ID from name.
func NewDescriptor(name, description string, order int) Descriptor {
	return Descriptor{
		ID:          normalizeName(name),
		Name:        name,
		Description: description,
		Order:       order,
	}
}

// Rule is one document-level transformation over a program snapshot.
type Rule interface {
	Descriptor() Descriptor
	SupportsDialect(dialect syntax.Dialect) bool
	// Apply runs the rule on one document. The returned snapshot may differ
	// from the input in any document, since renames cross files. On error
	// the returned snapshot is the one callers should continue from.
	Apply(ctx context.Context, snap *program.Snapshot, doc program.DocumentID) (*program.Snapshot, error)
}

type options struct {
	tracer  trace.Tracer
	metrics *Metrics
	logger  *slog.Logger
}

// Option configures a rule.
type Option func(*options)

// WithTracer sets the tracer for rule spans. When unset, the global
// provider is used.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) { o.tracer = tracer }
}

// WithMetrics sets the instruments rule outcomes are recorded on.
func WithMetrics(metrics *Metrics) Option {
	return func(o *options) { o.metrics = metrics }
}

// WithLogger sets the logger for per-rename debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func newOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}

	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	return o
}

func normalizeName(name string) string {
	normalized := strings.TrimSpace(name)
	if normalized == "" {
		return ""
	}

	builder := strings.Builder{}
	builder.Grow(len(normalized) + normalizeExtraCapacity)

	previousLower := false

	for _, current := range normalized {
		if current == '_' || current == ' ' {
			builder.WriteRune('-')

			previousLower = false

			continue
		}

		if unicode.IsUpper(current) {
			if previousLower {
				builder.WriteRune('-')
			}

			builder.WriteRune(unicode.ToLower(current))

			previousLower = false

			continue
		}

		builder.WriteRune(unicode.ToLower(current))
		previousLower = unicode.IsLetter(current) && unicode.IsLower(current)
	}

	return strings.Trim(builder.String(), "-")
}
