// Package syntax provides the immutable, full-fidelity syntax tree that
// namefix rules annotate and the program service renames.
//
// A tree is built once and never mutated. Every With* method returns a new
// node; Replace and Rewrite rebuild only the spine above a change so that
// unmodified subtrees are shared between versions.
package syntax

import (
	"slices"
	"strings"
)

// Dialect identifies the source language a tree was parsed from.
type Dialect string

// Known dialects.
const (
	CSharp      Dialect = "c_sharp"
	VisualBasic Dialect = "vb"
)

// Annotation is an opaque tag attached to a node or token.
// Two annotations are equal when both Kind and Data are equal.
type Annotation struct {
	Kind string
	Data string
}

// Node is either a token (a leaf carrying text) or an interior node
// owning an ordered list of children.
//
// Leading holds the bytes between the previous sibling (or the start of the
// parent) and this node, so printing a tree reproduces its source exactly.
// Tail holds the bytes after the last child of an interior node.
type Node struct {
	kind        string
	field       string
	leading     string
	text        string
	tail        string
	children    []*Node
	annotations []Annotation
	token       bool
	annotated   bool
}

// NewToken creates a leaf node of the given kind holding text.
func NewToken(kind, text string) *Node {
	return &Node{kind: kind, text: text, token: true}
}

// NewNode creates an interior node that owns children.
func NewNode(kind string, children []*Node) *Node {
	n := &Node{kind: kind, children: children}
	n.refresh()

	return n
}

func (n *Node) refresh() {
	n.annotated = len(n.annotations) > 0

	for _, child := range n.children {
		if child.annotated {
			n.annotated = true

			return
		}
	}
}

func (n *Node) clone() *Node {
	cp := *n

	return &cp
}

// Kind returns the grammar kind of the node (for example "class_declaration").
func (n *Node) Kind() string { return n.kind }

// Field returns the grammar field label of the node inside its parent, or "".
func (n *Node) Field() string { return n.field }

// Leading returns the source bytes preceding the node inside its parent.
func (n *Node) Leading() string { return n.leading }

// Tail returns the source bytes following the last child of an interior node.
func (n *Node) Tail() string { return n.tail }

// IsToken reports whether the node is a leaf.
func (n *Node) IsToken() bool { return n.token }

// ChildCount returns the number of children.
func (n *Node) ChildCount() int { return len(n.children) }

// Child returns the i-th child.
func (n *Node) Child(i int) *Node { return n.children[i] }

// Children returns the child list. The slice is shared and must not be modified.
func (n *Node) Children() []*Node { return n.children }

// ChildByField returns the first child carrying the given field label, or nil.
func (n *Node) ChildByField(field string) *Node {
	for _, child := range n.children {
		if child.field == field {
			return child
		}
	}

	return nil
}

// ChildrenByKind returns the children of the given kind in order.
func (n *Node) ChildrenByKind(kind string) []*Node {
	var out []*Node

	for _, child := range n.children {
		if child.kind == kind {
			out = append(out, child)
		}
	}

	return out
}

// FirstChildByKind returns the first child of the given kind, or nil.
func (n *Node) FirstChildByKind(kind string) *Node {
	for _, child := range n.children {
		if child.kind == kind {
			return child
		}
	}

	return nil
}

// Text returns the token text of a leaf, or the printed source of an
// interior node without its own leading trivia.
func (n *Node) Text() string {
	if n.token {
		return n.text
	}

	var sb strings.Builder

	for _, child := range n.children {
		child.write(&sb)
	}

	sb.WriteString(n.tail)

	return sb.String()
}

// String prints the node including its leading trivia.
func (n *Node) String() string {
	var sb strings.Builder

	n.write(&sb)

	return sb.String()
}

func (n *Node) write(sb *strings.Builder) {
	sb.WriteString(n.leading)

	if n.token {
		sb.WriteString(n.text)

		return
	}

	for _, child := range n.children {
		child.write(sb)
	}

	sb.WriteString(n.tail)
}

// Annotations returns the annotations attached directly to the node.
func (n *Node) Annotations() []Annotation { return n.annotations }

// HasAnnotation reports whether the node itself carries a.
func (n *Node) HasAnnotation(a Annotation) bool {
	return slices.Contains(n.annotations, a)
}

// HasAnnotationKind reports whether the node itself carries an annotation of kind.
func (n *Node) HasAnnotationKind(kind string) bool {
	for _, a := range n.annotations {
		if a.Kind == kind {
			return true
		}
	}

	return false
}

// ContainsAnnotations reports whether the node or any descendant is annotated.
func (n *Node) ContainsAnnotations() bool { return n.annotated }

// WithField returns a copy labelled with field.
func (n *Node) WithField(field string) *Node {
	if n.field == field {
		return n
	}

	cp := n.clone()
	cp.field = field

	return cp
}

// WithLeading returns a copy whose leading trivia is leading.
func (n *Node) WithLeading(leading string) *Node {
	if n.leading == leading {
		return n
	}

	cp := n.clone()
	cp.leading = leading

	return cp
}

// WithTail returns a copy whose tail trivia is tail.
func (n *Node) WithTail(tail string) *Node {
	if n.tail == tail {
		return n
	}

	cp := n.clone()
	cp.tail = tail

	return cp
}

// WithText returns a copy of a token holding text. Interior nodes are returned unchanged.
func (n *Node) WithText(text string) *Node {
	if !n.token || n.text == text {
		return n
	}

	cp := n.clone()
	cp.text = text

	return cp
}

// WithChildren returns a copy owning children.
func (n *Node) WithChildren(children []*Node) *Node {
	cp := n.clone()
	cp.children = children
	cp.refresh()

	return cp
}

// WithAnnotations returns a copy carrying the given annotations in addition
// to the existing ones. Annotations already present are not duplicated.
func (n *Node) WithAnnotations(annotations ...Annotation) *Node {
	var added []Annotation

	for _, a := range annotations {
		if !n.HasAnnotation(a) && !slices.Contains(added, a) {
			added = append(added, a)
		}
	}

	if len(added) == 0 {
		return n
	}

	cp := n.clone()
	cp.annotations = append(slices.Clone(n.annotations), added...)
	cp.annotated = true

	return cp
}

// WithoutAnnotations returns a copy without annotations of kind.
// The same node is returned when it carries none.
func (n *Node) WithoutAnnotations(kind string) *Node {
	if !n.HasAnnotationKind(kind) {
		return n
	}

	kept := make([]Annotation, 0, len(n.annotations))

	for _, a := range n.annotations {
		if a.Kind != kind {
			kept = append(kept, a)
		}
	}

	cp := n.clone()
	cp.annotations = kept
	cp.refresh()

	return cp
}
