package syntax_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/namefix/pkg/syntax"
)

// sampleTree builds "class A { int x; }" by hand.
func sampleTree() *syntax.Node {
	name := syntax.NewToken("identifier", "A").WithField("name").WithLeading("class ")
	fieldType := syntax.NewToken("predefined_type", "int").WithField("type").WithLeading(" ")
	declarator := syntax.NewNode("variable_declarator", []*syntax.Node{
		syntax.NewToken("identifier", "x").WithField("name"),
	}).WithLeading(" ")
	declaration := syntax.NewNode("variable_declaration", []*syntax.Node{fieldType, declarator})
	field := syntax.NewNode("field_declaration", []*syntax.Node{declaration}).WithTail(";")
	body := syntax.NewNode("declaration_list", []*syntax.Node{field}).WithField("body").WithLeading(" ").WithTail(" }")
	body = body.WithLeading(" {")

	return syntax.NewNode("compilation_unit", []*syntax.Node{
		syntax.NewNode("class_declaration", []*syntax.Node{name, body}),
	}).WithTail("\n")
}

func TestNode_PrintsSourceExactly(t *testing.T) {
	t.Parallel()

	root := sampleTree()

	assert.Equal(t, "class A { int x; }\n", root.String())
	assert.Equal(t, "A", syntax.Get(root, syntax.Path{0, 0}).Text())
}

func TestNode_ChildByField(t *testing.T) {
	t.Parallel()

	class := sampleTree().Child(0)

	require.NotNil(t, class.ChildByField("name"))
	assert.Equal(t, "A", class.ChildByField("name").Text())
	assert.Nil(t, class.ChildByField("missing"))
	assert.Equal(t, "declaration_list", class.FirstChildByKind("declaration_list").Kind())
}

func TestNode_WithAnnotationsIsImmutable(t *testing.T) {
	t.Parallel()

	marker := syntax.Annotation{Kind: "Marker"}
	tok := syntax.NewToken("identifier", "x")

	annotated := tok.WithAnnotations(marker, marker)

	assert.False(t, tok.HasAnnotation(marker))
	assert.True(t, annotated.HasAnnotation(marker))
	assert.Len(t, annotated.Annotations(), 1)
	assert.Same(t, annotated, annotated.WithAnnotations(marker))
	assert.Same(t, tok, tok.WithoutAnnotations("Marker"))
	assert.False(t, annotated.WithoutAnnotations("Marker").ContainsAnnotations())
}

func TestNode_ContainsAnnotationsPropagates(t *testing.T) {
	t.Parallel()

	root := sampleTree()
	assert.False(t, root.ContainsAnnotations())

	path := syntax.Path{0, 1, 0, 0, 1, 0}
	tok := syntax.Get(root, path)
	require.NotNil(t, tok)

	updated, err := syntax.Replace(root, path, tok.WithAnnotations(syntax.Annotation{Kind: "Rename"}))
	require.NoError(t, err)

	assert.True(t, updated.ContainsAnnotations())
	assert.True(t, syntax.ContainsAnnotationKind(updated, "Rename"))
	assert.False(t, syntax.ContainsAnnotationKind(updated, "Other"))
	assert.False(t, root.ContainsAnnotations())
}

func TestNode_WithTextOnlyAffectsTokens(t *testing.T) {
	t.Parallel()

	root := sampleTree()

	assert.Same(t, root, root.WithText("ignored"))

	tok := syntax.NewToken("identifier", "x")
	assert.Same(t, tok, tok.WithText("x"))
	assert.Equal(t, "y", tok.WithText("y").Text())
}
