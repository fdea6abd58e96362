package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Sumatoshi-tech/namefix/pkg/naming"
	"github.com/Sumatoshi-tech/namefix/pkg/program"
	"github.com/Sumatoshi-tech/namefix/pkg/syntax"
)

// Resolver finds the symbol behind the i-th marker of a document.
type Resolver struct {
	Marker syntax.Annotation
}

// Resolve locates the i-th marked node of doc in snap, in document order,
// and returns the symbol it declares. It reports false when the marker is
// gone or the node no longer declares a symbol.
func (r Resolver) Resolve(ctx context.Context, snap *program.Snapshot, doc program.DocumentID, i int) (*program.Symbol, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	marked := syntax.AnnotatedNodes(snap.Tree(doc), r.Marker)
	if i < 0 || i >= len(marked) {
		return nil, false, nil
	}

	sym, ok := snap.DeclaredSymbol(marked[i].Node)

	return sym, ok, nil
}

// Cleaner scrubs rename bookkeeping from the documents a rename touched.
type Cleaner struct {
	Dialects map[syntax.Dialect]Dialect
}

// Clean strips rename bookkeeping from every document that differs between
// next and prev and returns the cleaned snapshot.
func (c Cleaner) Clean(ctx context.Context, next, prev *program.Snapshot) (*program.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := next

	for _, id := range next.Diff(prev) {
		doc, ok := next.Document(id)
		if !ok {
			continue
		}

		var cleaned *syntax.Node

		if dialect, known := c.Dialects[doc.Dialect]; known {
			cleaned = dialect.RemoveRenameAnnotations(doc.Tree)
		} else {
			cleaned = syntax.Strip(doc.Tree, program.RenameAnnotationKind)
		}

		updated, err := out.WithFileTree(id, cleaned)
		if err != nil {
			return nil, fmt.Errorf("clean %s: %w", id, err)
		}

		out = updated
	}

	return out, nil
}

// Outcome counts what happened to the markers of one document.
type Outcome struct {
	Renamed      int
	Unresolvable int
	NoOp         int
}

// Coordinator renames marked symbols one at a time, each against the
// snapshot produced by the previous rename.
type Coordinator struct {
	Resolver Resolver
	Cleaner  Cleaner
	Policy   naming.Policy
	Logger   *slog.Logger
}

// Process runs count rounds of resolve, rename and clean over doc, starting
// from original with doc's tree replaced by tagged. On a failed rename the
// original snapshot is returned with an error wrapping ErrRenameFailed. On
// cancellation the last committed snapshot is returned with the context's
// error. Markers are removed from the returned snapshot.
func (c Coordinator) Process(
	ctx context.Context,
	original *program.Snapshot,
	doc program.DocumentID,
	tagged *syntax.Node,
	count int,
) (*program.Snapshot, Outcome, error) {
	var outcome Outcome

	if count == 0 {
		return original, outcome, nil
	}

	committed, err := original.WithFileTree(doc, tagged)
	if err != nil {
		return original, outcome, fmt.Errorf("%w: %w", ErrUnknownDocument, err)
	}

	for i := range count {
		if ctx.Err() != nil {
			return c.finish(original, committed, doc, outcome), outcome, ctx.Err()
		}

		sym, ok, resolveErr := c.Resolver.Resolve(ctx, committed, doc, i)
		if resolveErr != nil {
			return c.finish(original, committed, doc, outcome), outcome, resolveErr
		}

		if !ok {
			outcome.Unresolvable++

			continue
		}

		newName := c.Policy.CorrectedName(sym.Name, naming.Declaration{Modifiers: sym.Modifiers})
		if newName == sym.Name {
			outcome.NoOp++

			continue
		}

		renamed, renameErr := committed.Rename(ctx, sym, newName)
		if renameErr != nil {
			if errors.Is(renameErr, context.Canceled) || errors.Is(renameErr, context.DeadlineExceeded) {
				return c.finish(original, committed, doc, outcome), outcome, renameErr
			}

			return original, Outcome{}, fmt.Errorf("%w: %s %q to %q: %w", ErrRenameFailed, sym.Kind, sym.Name, newName, renameErr)
		}

		cleaned, cleanErr := c.Cleaner.Clean(ctx, renamed.Snapshot, committed)
		if cleanErr != nil {
			if ctx.Err() != nil {
				return c.finish(original, committed, doc, outcome), outcome, cleanErr
			}

			return original, Outcome{}, fmt.Errorf("%w: %w", ErrRenameFailed, cleanErr)
		}

		c.logger().DebugContext(ctx, "renamed symbol",
			"document", doc, "kind", sym.Kind.String(), "from", sym.Name, "to", newName,
			"changed", len(renamed.Changed))

		committed = cleaned
		outcome.Renamed++
	}

	return c.finish(original, committed, doc, outcome), outcome, nil
}

// finish removes the markers from doc. Without a committed rename the
// original snapshot is returned as is.
func (c Coordinator) finish(original, snap *program.Snapshot, doc program.DocumentID, outcome Outcome) *program.Snapshot {
	if outcome.Renamed == 0 {
		return original
	}

	tree := snap.Tree(doc)
	if tree == nil {
		return snap
	}

	out, err := snap.WithFileTree(doc, syntax.Strip(tree, c.Resolver.Marker.Kind))
	if err != nil {
		return snap
	}

	return out
}

func (c Coordinator) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}

	return c.Logger
}
