package program

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"unicode"

	"github.com/Sumatoshi-tech/namefix/pkg/syntax"
)

// RenameAnnotationKind is the kind of the bookkeeping annotation Rename
// leaves on every token and declaration it rewrote. Documents still
// carrying it cannot take part in another rename until it is stripped.
const RenameAnnotationKind = "Rename"

// RenameResult is the outcome of a rename.
type RenameResult struct {
	// Snapshot is the renamed program.
	Snapshot *Snapshot
	// Changed lists the documents whose trees differ from the input, sorted.
	// Every other document shares its tree with the input snapshot.
	Changed []DocumentID
}

var csharpKeywords = map[string]bool{
	"abstract": true, "as": true, "base": true, "bool": true, "break": true,
	"byte": true, "case": true, "catch": true, "char": true, "checked": true,
	"class": true, "const": true, "continue": true, "decimal": true, "default": true,
	"delegate": true, "do": true, "double": true, "else": true, "enum": true,
	"event": true, "explicit": true, "extern": true, "false": true, "finally": true,
	"fixed": true, "float": true, "for": true, "foreach": true, "goto": true,
	"if": true, "implicit": true, "in": true, "int": true, "interface": true,
	"internal": true, "is": true, "lock": true, "long": true, "namespace": true,
	"new": true, "null": true, "object": true, "operator": true, "out": true,
	"override": true, "params": true, "private": true, "protected": true, "public": true,
	"readonly": true, "ref": true, "return": true, "sbyte": true, "sealed": true,
	"short": true, "sizeof": true, "stackalloc": true, "static": true, "string": true,
	"struct": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "uint": true, "ulong": true, "unchecked": true,
	"unsafe": true, "ushort": true, "using": true, "virtual": true, "void": true,
	"volatile": true, "while": true,
}

// IsValidIdentifier reports whether name can be used as a C# identifier
// without escaping.
func IsValidIdentifier(name string) bool {
	if name == "" || csharpKeywords[name] {
		return false
	}

	for i, r := range name {
		switch {
		case r == '_', unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}

	return true
}

// Rename renames sym, as known to this snapshot, to newName. Every
// declaration and reference across all documents is rewritten at once, or
// nothing is: on error the receiver is the only valid result.
func (s *Snapshot) Rename(ctx context.Context, sym *Symbol, newName string) (RenameResult, error) {
	if err := ctx.Err(); err != nil {
		return RenameResult{}, err
	}

	if sym == nil {
		return RenameResult{}, ErrSymbolNotFound
	}

	if !IsValidIdentifier(newName) {
		return RenameResult{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, newName)
	}

	m := s.model()

	current, ok := m.symbols[sym.ID]
	if !ok {
		return RenameResult{}, fmt.Errorf("%w: %s", ErrSymbolNotFound, sym.ID)
	}

	if current.Name == newName {
		return RenameResult{Snapshot: s}, nil
	}

	sites := m.sites[current.ID]
	touched := make(map[DocumentID]bool)

	for _, site := range sites {
		touched[site.Document] = true
	}

	for _, decl := range current.decls {
		touched[decl.doc] = true
	}

	changed := slices.Sorted(maps.Keys(touched))

	for _, id := range changed {
		if syntax.ContainsAnnotationKind(s.Tree(id), RenameAnnotationKind) {
			return RenameResult{}, fmt.Errorf("%w: %s", ErrStaleRenameAnnotations, id)
		}
	}

	if err := m.checkDeclarationSpace(current, newName); err != nil {
		return RenameResult{}, err
	}

	trees, err := s.rewrite(current, sites, newName)
	if err != nil {
		return RenameResult{}, err
	}

	next := s.derive(trees)

	if err := verifyBindings(m, next.model()); err != nil {
		return RenameResult{}, fmt.Errorf("rename %s to %q: %w", current.Name, newName, err)
	}

	return RenameResult{Snapshot: next, Changed: changed}, nil
}

func (s *Snapshot) rewrite(sym *Symbol, sites []Site, newName string) (map[DocumentID]*syntax.Node, error) {
	mark := syntax.Annotation{Kind: RenameAnnotationKind, Data: string(sym.ID)}
	trees := make(map[DocumentID]*syntax.Node)

	apply := func(doc DocumentID, path syntax.Path, fn func(*syntax.Node) *syntax.Node) error {
		tree, ok := trees[doc]
		if !ok {
			tree = s.Tree(doc)
		}

		target := syntax.Get(tree, path)
		if target == nil {
			return fmt.Errorf("%w: %s#%s", syntax.ErrInvalidPath, doc, path)
		}

		updated, err := syntax.Replace(tree, path, fn(target))
		if err != nil {
			return err
		}

		trees[doc] = updated

		return nil
	}

	for _, site := range sites {
		err := apply(site.Document, site.Path, func(tok *syntax.Node) *syntax.Node {
			return tok.WithText(newName).WithAnnotations(mark)
		})
		if err != nil {
			return nil, err
		}
	}

	for _, decl := range sym.decls {
		err := apply(decl.doc, decl.path, func(n *syntax.Node) *syntax.Node {
			return n.WithAnnotations(mark)
		})
		if err != nil {
			return nil, err
		}
	}

	return trees, nil
}

// checkDeclarationSpace rejects names that already exist in the declaration
// space of sym.
func (m *model) checkDeclarationSpace(sym *Symbol, newName string) error {
	switch {
	case sym.Kind.IsType():
		if len(m.types[newName]) > 0 {
			return fmt.Errorf("%w: type %q already exists", ErrRenameConflict, newName)
		}
	case sym.Kind.IsMember():
		container := m.typeOf[m.symbols[sym.Container]]
		if container == nil {
			return nil
		}

		if container.sym.Name == newName || len(container.members[newName]) > 0 {
			return fmt.Errorf("%w: %s already declares %q", ErrRenameConflict, container.sym.Name, newName)
		}
	case sym.Kind.IsLocal():
		for _, other := range m.byName[newName] {
			if !other.Kind.IsLocal() || other.scopeDoc != sym.scopeDoc {
				continue
			}

			if other.scopePath.HasPrefix(sym.scopePath) || sym.scopePath.HasPrefix(other.scopePath) {
				return fmt.Errorf("%w: %s %q is already in scope", ErrRenameConflict, other.Kind, newName)
			}
		}
	}

	return nil
}

// verifyBindings checks that every identifier binds to the same symbol
// before and after a rename.
func verifyBindings(before, after *model) error {
	for doc, old := range before.bindings {
		updated := after.bindings[doc]
		if len(updated) != len(old) {
			return fmt.Errorf("%w: bindings of %s changed shape", ErrRenameConflict, doc)
		}

		for i := range old {
			if old[i] != updated[i] {
				return fmt.Errorf("%w: reference at %s#%s would bind differently", ErrRenameConflict, doc, old[i].path)
			}
		}
	}

	return nil
}
