package syntax

// Match is a node found during a traversal together with its path.
type Match struct {
	Node *Node
	Path Path
}

// Walk visits every node depth-first in document order. The path passed to
// fn is reused between calls; Clone it to retain it. Returning false from fn
// skips the node's children.
func Walk(root *Node, fn func(n *Node, path Path) bool) {
	if root == nil {
		return
	}

	path := make(Path, 0, 32) //nolint:mnd // typical tree depth

	walk(root, path, fn)
}

func walk(n *Node, path Path, fn func(*Node, Path) bool) {
	if !fn(n, path) {
		return
	}

	for i, child := range n.children {
		walk(child, append(path, i), fn)
	}
}

// AnnotatedNodes returns every node carrying a, in document order.
// Subtrees without annotations are not entered.
func AnnotatedNodes(root *Node, a Annotation) []Match {
	var out []Match

	Walk(root, func(n *Node, path Path) bool {
		if !n.annotated {
			return false
		}

		if n.HasAnnotation(a) {
			out = append(out, Match{Node: n, Path: path.Clone()})
		}

		return true
	})

	return out
}

// ContainsAnnotationKind reports whether any node under root carries an
// annotation of kind.
func ContainsAnnotationKind(root *Node, kind string) bool {
	found := false

	Walk(root, func(n *Node, _ Path) bool {
		if found || !n.annotated {
			return false
		}

		if n.HasAnnotationKind(kind) {
			found = true

			return false
		}

		return true
	})

	return found
}

// Rewrite rebuilds root bottom-up, calling fn on every node after its
// children were rewritten. Subtrees for which descend returns false are
// passed to fn without visiting their children. When fn returns its
// argument for every node, the original root pointer is returned.
func Rewrite(root *Node, descend func(*Node) bool, fn func(*Node) *Node) *Node {
	if root == nil {
		return nil
	}

	cur := root

	if len(root.children) > 0 && descend(root) {
		var children []*Node

		for i, child := range root.children {
			next := Rewrite(child, descend, fn)
			if next != child && children == nil {
				children = make([]*Node, len(root.children))
				copy(children, root.children)
			}

			if children != nil {
				children[i] = next
			}
		}

		if children != nil {
			cur = root.WithChildren(children)
		}
	}

	return fn(cur)
}

// Strip removes every annotation of kind from nodes and tokens under root.
// The same root is returned when nothing carried the kind.
func Strip(root *Node, kind string) *Node {
	return Rewrite(root, (*Node).ContainsAnnotations, func(n *Node) *Node {
		return n.WithoutAnnotations(kind)
	})
}
