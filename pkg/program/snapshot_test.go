package program_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/namefix/pkg/program"
	"github.com/Sumatoshi-tech/namefix/pkg/syntax"
)

func token(text string) *syntax.Node {
	return syntax.NewNode("compilation_unit", []*syntax.Node{syntax.NewToken("identifier", text)})
}

func TestNew_RejectsDuplicateDocuments(t *testing.T) {
	t.Parallel()

	doc := program.Document{ID: "a.cs", Tree: token("a")}

	_, err := program.New(doc, doc)
	require.ErrorIs(t, err, program.ErrDuplicateDocument)
}

func TestNew_RejectsMissingTree(t *testing.T) {
	t.Parallel()

	_, err := program.New(program.Document{ID: "a.cs"})
	require.ErrorIs(t, err, program.ErrNilTree)
}

func TestSnapshot_DocumentsInIDOrder(t *testing.T) {
	t.Parallel()

	snap, err := program.New(
		program.Document{ID: "b.cs", Tree: token("b")},
		program.Document{ID: "a.cs", Tree: token("a")},
	)
	require.NoError(t, err)

	assert.Equal(t, []program.DocumentID{"a.cs", "b.cs"}, snap.DocumentIDs())
	assert.Equal(t, 2, snap.Len())

	docs := snap.Documents()
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].Text())
}

func TestSnapshot_WithFileTree(t *testing.T) {
	t.Parallel()

	a, b := token("a"), token("b")

	snap, err := program.New(
		program.Document{ID: "a.cs", Tree: a},
		program.Document{ID: "b.cs", Tree: b},
	)
	require.NoError(t, err)

	same, err := snap.WithFileTree("a.cs", a)
	require.NoError(t, err)
	assert.Same(t, snap, same)

	next, err := snap.WithFileTree("a.cs", token("z"))
	require.NoError(t, err)

	assert.NotSame(t, snap, next)
	assert.Greater(t, next.Version(), snap.Version())
	assert.Equal(t, "a", snap.Tree("a.cs").String(), "parent must not change")
	assert.Equal(t, "z", next.Tree("a.cs").String())
	assert.Same(t, b, next.Tree("b.cs"))
	assert.Equal(t, []program.DocumentID{"a.cs"}, next.Diff(snap))

	_, err = snap.WithFileTree("missing.cs", a)
	require.ErrorIs(t, err, program.ErrUnknownDocument)

	_, err = snap.WithFileTree("a.cs", nil)
	require.ErrorIs(t, err, program.ErrNilTree)
}

func TestSnapshot_DiffAddedAndRemoved(t *testing.T) {
	t.Parallel()

	shared := token("a")

	left, err := program.New(program.Document{ID: "a.cs", Tree: shared}, program.Document{ID: "b.cs", Tree: token("b")})
	require.NoError(t, err)

	right, err := program.New(program.Document{ID: "a.cs", Tree: shared}, program.Document{ID: "c.cs", Tree: token("c")})
	require.NoError(t, err)

	assert.Equal(t, []program.DocumentID{"b.cs", "c.cs"}, left.Diff(right))
	assert.Empty(t, left.Diff(left))
}
