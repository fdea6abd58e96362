package program_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/namefix/pkg/parser"
	"github.com/Sumatoshi-tech/namefix/pkg/program"
	"github.com/Sumatoshi-tech/namefix/pkg/syntax"
)

// load parses each source as a C# document keyed by its file name.
func load(t *testing.T, sources map[string]string) *program.Snapshot {
	t.Helper()

	p := parser.New()
	docs := make([]program.Document, 0, len(sources))

	for name, src := range sources {
		tree, err := p.Parse(context.Background(), syntax.CSharp, []byte(src))
		require.NoError(t, err)

		docs = append(docs, program.Document{
			ID:      program.DocumentID(name),
			Path:    name,
			Dialect: syntax.CSharp,
			Tree:    tree,
		})
	}

	snap, err := program.New(docs...)
	require.NoError(t, err)

	return snap
}

// identifier returns the nth (zero based) identifier token spelled text.
func identifier(t *testing.T, snap *program.Snapshot, doc program.DocumentID, text string, nth int) *syntax.Node {
	t.Helper()

	var found *syntax.Node

	seen := 0

	syntax.Walk(snap.Tree(doc), func(n *syntax.Node, _ syntax.Path) bool {
		if found != nil {
			return false
		}

		if n.IsToken() && n.Kind() == "identifier" && n.Text() == text {
			if seen == nth {
				found = n
			}

			seen++
		}

		return true
	})

	require.NotNil(t, found, "identifier %q #%d not found", text, nth)

	return found
}

func resolve(t *testing.T, snap *program.Snapshot, doc program.DocumentID, text string, nth int) *program.Symbol {
	t.Helper()

	sym, ok := snap.Resolve(identifier(t, snap, doc, text, nth))
	require.True(t, ok, "identifier %q #%d does not resolve", text, nth)

	return sym
}

func text(t *testing.T, snap *program.Snapshot, doc program.DocumentID) string {
	t.Helper()

	d, ok := snap.Document(doc)
	require.True(t, ok)

	return d.Text()
}
