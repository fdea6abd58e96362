// Package program is the program-representation service namefix drives: an
// immutable, versioned set of parsed documents with symbol resolution and an
// atomic cross-file rename.
package program

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/Sumatoshi-tech/namefix/pkg/syntax"
)

// DocumentID identifies a document inside a snapshot.
type DocumentID string

// Document is one source file of the program.
type Document struct {
	ID      DocumentID
	Path    string
	Dialect syntax.Dialect
	Tree    *syntax.Node
}

// Text returns the printed source of the document.
func (d Document) Text() string {
	if d.Tree == nil {
		return ""
	}

	return d.Tree.String()
}

var versionCounter atomic.Uint64

// Snapshot is the whole program at one point in time. It is never mutated;
// every transformation returns a new Snapshot that shares unchanged
// documents with its parent.
type Snapshot struct {
	docs    map[DocumentID]*Document
	order   []DocumentID
	version uint64

	once     sync.Once
	semantic *model
}

// New creates a snapshot holding docs.
func New(docs ...Document) (*Snapshot, error) {
	snap := &Snapshot{
		docs:    make(map[DocumentID]*Document, len(docs)),
		version: versionCounter.Add(1),
	}

	for i := range docs {
		doc := docs[i]

		if doc.Tree == nil {
			return nil, fmt.Errorf("%w: %s", ErrNilTree, doc.ID)
		}

		if _, exists := snap.docs[doc.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateDocument, doc.ID)
		}

		snap.docs[doc.ID] = &doc
		snap.order = append(snap.order, doc.ID)
	}

	slices.Sort(snap.order)

	return snap, nil
}

// Version is a process-unique, increasing number identifying the snapshot.
func (s *Snapshot) Version() uint64 { return s.version }

// Len returns the number of documents.
func (s *Snapshot) Len() int { return len(s.order) }

// DocumentIDs returns all document IDs in ascending order.
func (s *Snapshot) DocumentIDs() []DocumentID {
	return slices.Clone(s.order)
}

// Document returns the document with id.
func (s *Snapshot) Document(id DocumentID) (Document, bool) {
	doc, ok := s.docs[id]
	if !ok {
		return Document{}, false
	}

	return *doc, true
}

// Documents returns all documents in ID order.
func (s *Snapshot) Documents() []Document {
	out := make([]Document, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.docs[id])
	}

	return out
}

// Tree returns the syntax tree of document id, or nil.
func (s *Snapshot) Tree(id DocumentID) *syntax.Node {
	doc, ok := s.docs[id]
	if !ok {
		return nil
	}

	return doc.Tree
}

// WithFileTree returns a snapshot in which document id has tree. The receiver
// is returned when tree is already the document's tree.
func (s *Snapshot) WithFileTree(id DocumentID, tree *syntax.Node) (*Snapshot, error) {
	doc, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDocument, id)
	}

	if tree == nil {
		return nil, fmt.Errorf("%w: %s", ErrNilTree, id)
	}

	if doc.Tree == tree {
		return s, nil
	}

	return s.derive(map[DocumentID]*syntax.Node{id: tree}), nil
}

func (s *Snapshot) derive(trees map[DocumentID]*syntax.Node) *Snapshot {
	next := &Snapshot{
		docs:    make(map[DocumentID]*Document, len(s.docs)),
		order:   s.order,
		version: versionCounter.Add(1),
	}

	for id, doc := range s.docs {
		tree, changed := trees[id]
		if !changed {
			next.docs[id] = doc

			continue
		}

		updated := *doc
		updated.Tree = tree
		next.docs[id] = &updated
	}

	return next
}

// Diff returns the documents that differ between s and other: present in
// only one of them, or holding a different tree. The result is sorted.
func (s *Snapshot) Diff(other *Snapshot) []DocumentID {
	var changed []DocumentID

	for _, id := range s.order {
		theirs, ok := other.docs[id]
		if !ok || theirs.Tree != s.docs[id].Tree {
			changed = append(changed, id)
		}
	}

	for _, id := range other.order {
		if _, ok := s.docs[id]; !ok {
			changed = append(changed, id)
		}
	}

	slices.Sort(changed)

	return changed
}

func (s *Snapshot) model() *model {
	s.once.Do(func() {
		s.semantic = buildModel(s)
	})

	return s.semantic
}

// DeclaredSymbol returns the symbol declared by node: a type, member,
// variable declarator, parameter or other declaration node, or the name
// token of a declaration.
func (s *Snapshot) DeclaredSymbol(node *syntax.Node) (*Symbol, bool) {
	if node == nil {
		return nil, false
	}

	m := s.model()

	if sym, ok := m.declared[node]; ok {
		return sym, true
	}

	sym, ok := m.names[node]

	return sym, ok
}

// Resolve returns the symbol declared at node or referenced by the
// identifier token node.
func (s *Snapshot) Resolve(node *syntax.Node) (*Symbol, bool) {
	if sym, ok := s.DeclaredSymbol(node); ok {
		return sym, true
	}

	sym, ok := s.model().refs[node]

	return sym, ok
}

// Symbol returns the symbol with id as seen by this snapshot.
func (s *Snapshot) Symbol(id SymbolID) (*Symbol, bool) {
	sym, ok := s.model().symbols[id]

	return sym, ok
}

// Symbols returns every symbol in declaration order.
func (s *Snapshot) Symbols() []*Symbol {
	return slices.Clone(s.model().ordered)
}

// References returns every name-token site of sym, declarations included,
// in document order.
func (s *Snapshot) References(sym *Symbol) []Site {
	sites := s.model().sites[sym.ID]
	out := make([]Site, len(sites))

	for i, site := range sites {
		out[i] = Site{Document: site.Document, Path: site.Path.Clone(), Declaration: site.Declaration}
	}

	return out
}
