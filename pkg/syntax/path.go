package syntax

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPath is returned when a path does not address a node in the tree.
var ErrInvalidPath = errors.New("invalid syntax path")

// Path addresses a node by child indices from the root.
type Path []int

// Clone returns an independent copy of the path.
func (p Path) Clone() Path {
	out := make(Path, len(p))
	copy(out, p)

	return out
}

// Child returns a new path extended by index i.
func (p Path) Child(i int) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = i

	return out
}

// HasPrefix reports whether prefix addresses p or one of its ancestors.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}

	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}

	return true
}

// Equal reports whether both paths address the same node.
func (p Path) Equal(other Path) bool {
	return len(p) == len(other) && p.HasPrefix(other)
}

// String renders the path as dot-separated indices. The root is "".
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, idx := range p {
		parts[i] = strconv.Itoa(idx)
	}

	return strings.Join(parts, ".")
}

// ParsePath is the inverse of Path.String.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return Path{}, nil
	}

	parts := strings.Split(s, ".")
	out := make(Path, len(parts))

	for i, part := range parts {
		idx, err := strconv.Atoi(part)
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, s)
		}

		out[i] = idx
	}

	return out, nil
}

// Get returns the node addressed by path, or nil.
func Get(root *Node, path Path) *Node {
	cur := root

	for _, idx := range path {
		if cur == nil || idx < 0 || idx >= len(cur.children) {
			return nil
		}

		cur = cur.children[idx]
	}

	return cur
}

// Replace returns a new root in which the node at path is replacement.
// Only the nodes on the path are copied; all other subtrees are shared.
func Replace(root *Node, path Path, replacement *Node) (*Node, error) {
	if len(path) == 0 {
		return replacement, nil
	}

	idx := path[0]
	if root == nil || idx < 0 || idx >= len(root.children) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}

	child, err := Replace(root.children[idx], path[1:], replacement)
	if err != nil {
		return nil, err
	}

	if child == root.children[idx] {
		return root, nil
	}

	children := make([]*Node, len(root.children))
	copy(children, root.children)
	children[idx] = child

	return root.WithChildren(children), nil
}
