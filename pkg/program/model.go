package program

import "github.com/Sumatoshi-tech/namefix/pkg/syntax"

type typeInfo struct {
	sym     *Symbol
	members map[string][]*Symbol
	bases   []string
	outer   *typeInfo
	partial bool
}

func (t *typeInfo) addMember(sym *Symbol) {
	t.members[sym.Name] = append(t.members[sym.Name], sym)
}

type scope struct {
	parent *scope
	names  map[string]*Symbol
	typ    *typeInfo
}

func (s *scope) enclosingType() *typeInfo {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.typ != nil {
			return cur.typ
		}
	}

	return nil
}

// binding records what one identifier token resolved to. Bindings of a
// document are kept in document order so two snapshots of the same shape can
// be compared positionally.
type binding struct {
	path   string
	symbol SymbolID
}

// model is the semantic model of one snapshot. It is built once and only
// read afterwards.
type model struct {
	symbols  map[SymbolID]*Symbol
	ordered  []*Symbol
	byName   map[string][]*Symbol
	declared map[*syntax.Node]*Symbol
	names    map[*syntax.Node]*Symbol
	refs     map[*syntax.Node]*Symbol
	sites    map[SymbolID][]Site
	bindings map[DocumentID][]binding
	types    map[string][]*typeInfo
	typeOf   map[*Symbol]*typeInfo
	typeDecl map[*syntax.Node]*typeInfo
	params   map[*syntax.Node][]*Symbol
	paramsOf map[SymbolID][]*Symbol
}

func newModel() *model {
	return &model{
		symbols:  make(map[SymbolID]*Symbol),
		byName:   make(map[string][]*Symbol),
		declared: make(map[*syntax.Node]*Symbol),
		names:    make(map[*syntax.Node]*Symbol),
		refs:     make(map[*syntax.Node]*Symbol),
		sites:    make(map[SymbolID][]Site),
		bindings: make(map[DocumentID][]binding),
		types:    make(map[string][]*typeInfo),
		typeOf:   make(map[*Symbol]*typeInfo),
		typeDecl: make(map[*syntax.Node]*typeInfo),
		params:   make(map[*syntax.Node][]*Symbol),
		paramsOf: make(map[SymbolID][]*Symbol),
	}
}

// buildModel binds every C# document of the snapshot. Type-level
// declarations of all documents are collected first so that references may
// cross files in any order.
func buildModel(s *Snapshot) *model {
	m := newModel()

	var docs []Document

	for _, doc := range s.Documents() {
		if doc.Dialect == syntax.CSharp {
			docs = append(docs, doc)
		}
	}

	for _, doc := range docs {
		m.declareTypes(doc.ID, doc.Tree, syntax.Path{}, nil)
	}

	for _, doc := range docs {
		m.bindDocument(doc)
	}

	return m
}

func (m *model) newSymbol(doc DocumentID, path syntax.Path, kind SymbolKind, name string, mods []string) *Symbol {
	sym := &Symbol{
		ID:        newSymbolID(doc, path),
		Kind:      kind,
		Name:      name,
		Document:  doc,
		Path:      path.Clone(),
		Modifiers: mods,
		decls:     []declSite{{doc: doc, path: path.Clone()}},
	}

	m.symbols[sym.ID] = sym
	m.ordered = append(m.ordered, sym)
	m.byName[name] = append(m.byName[name], sym)

	return sym
}

func (m *model) lookupType(name string) *typeInfo {
	if candidates := m.types[name]; len(candidates) > 0 {
		return candidates[0]
	}

	return nil
}

func (m *model) lookupTypeSymbol(name string) *Symbol {
	if ti := m.lookupType(name); ti != nil {
		return ti.sym
	}

	return nil
}

// lookupMember finds name among the members of ti and then of its bases.
func (m *model) lookupMember(ti *typeInfo, name string) *Symbol {
	return m.lookupMemberVisited(ti, name, make(map[*typeInfo]bool))
}

func (m *model) lookupMemberVisited(ti *typeInfo, name string, visited map[*typeInfo]bool) *Symbol {
	if ti == nil || visited[ti] {
		return nil
	}

	visited[ti] = true

	if found := ti.members[name]; len(found) > 0 {
		return found[0]
	}

	for _, base := range ti.bases {
		for _, candidate := range m.types[base] {
			if sym := m.lookupMemberVisited(candidate, name, visited); sym != nil {
				return sym
			}
		}
	}

	return nil
}

func (m *model) lookup(sc *scope, name string) *Symbol {
	for cur := sc; cur != nil; cur = cur.parent {
		if sym, ok := cur.names[name]; ok {
			return sym
		}

		if cur.typ != nil {
			if sym := m.lookupMember(cur.typ, name); sym != nil {
				return sym
			}
		}
	}

	return m.lookupTypeSymbol(name)
}

// typeOfSymbol returns the type a symbol denotes (for types) or is declared
// with (for variables and members).
func (m *model) typeOfSymbol(sym *Symbol) *typeInfo {
	if sym == nil {
		return nil
	}

	if sym.Kind.IsType() {
		return m.typeOf[sym]
	}

	return m.lookupType(sym.TypeName)
}
