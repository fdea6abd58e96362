package program

import (
	"slices"

	"github.com/Sumatoshi-tech/namefix/pkg/syntax"
)

// declareTypes collects type declarations and their members under n.
func (m *model) declareTypes(doc DocumentID, n *syntax.Node, path syntax.Path, outer *typeInfo) {
	for i, child := range n.Children() {
		childPath := path.Child(i)

		switch {
		case child.IsToken():
			continue
		case typeDeclarationKinds[child.Kind()] != KindUnknown:
			m.declareType(doc, child, childPath, outer)
		case child.Kind() == kindDelegate:
			m.declareDelegate(doc, child, childPath, outer)
		case namespaceKinds[child.Kind()]:
			m.declareTypes(doc, child, childPath, outer)
		}
	}
}

func (m *model) declareType(doc DocumentID, n *syntax.Node, path syntax.Path, outer *typeInfo) {
	name, _ := nameToken(n)
	if name == nil {
		return
	}

	kind := typeDeclarationKinds[n.Kind()]
	mods := modifiers(n)
	partial := slices.Contains(mods, "partial")

	var ti *typeInfo

	if partial {
		for _, candidate := range m.types[name.Text()] {
			if candidate.partial && candidate.sym.Kind == kind && candidate.outer == outer {
				ti = candidate

				break
			}
		}
	}

	if ti == nil {
		sym := m.newSymbol(doc, path, kind, name.Text(), mods)
		if outer != nil {
			sym.Container = outer.sym.ID
			outer.addMember(sym)
		}

		ti = &typeInfo{sym: sym, members: make(map[string][]*Symbol), outer: outer, partial: partial}
		m.types[sym.Name] = append(m.types[sym.Name], ti)
		m.typeOf[sym] = ti
	} else {
		ti.sym.decls = append(ti.sym.decls, declSite{doc: doc, path: path.Clone()})
	}

	m.declared[n] = ti.sym
	m.names[name] = ti.sym
	m.typeDecl[n] = ti
	ti.bases = append(ti.bases, baseNames(n)...)

	for i, child := range n.Children() {
		switch {
		case parameterListKinds[child.Kind()]:
			// Primary constructor parameters belong to the type declaration.
			m.params[n] = append(m.params[n], m.declareParams(doc, child, path.Child(i), path, ti.sym.ID)...)
		case child.Kind() == "declaration_list" || child.Kind() == "enum_member_declaration_list":
			m.declareMembers(doc, child, path.Child(i), ti)
		}
	}
}

func (m *model) declareDelegate(doc DocumentID, n *syntax.Node, path syntax.Path, outer *typeInfo) {
	name, _ := nameToken(n)
	if name == nil {
		return
	}

	sym := m.newSymbol(doc, path, KindDelegate, name.Text(), modifiers(n))
	sym.TypeName = typeName(n.ChildByField("type"))

	if outer != nil {
		sym.Container = outer.sym.ID
		outer.addMember(sym)
	}

	ti := &typeInfo{sym: sym, members: make(map[string][]*Symbol), outer: outer}
	m.types[sym.Name] = append(m.types[sym.Name], ti)
	m.typeOf[sym] = ti
	m.declared[n] = sym
	m.names[name] = sym
	m.declareFunctionParams(doc, n, path, sym.ID)
}

func (m *model) declareMembers(doc DocumentID, body *syntax.Node, bodyPath syntax.Path, ti *typeInfo) {
	for i, member := range body.Children() {
		memberPath := bodyPath.Child(i)

		switch kind := member.Kind(); {
		case member.IsToken():
			continue
		case typeDeclarationKinds[kind] != KindUnknown:
			m.declareType(doc, member, memberPath, ti)
		case kind == kindDelegate:
			m.declareDelegate(doc, member, memberPath, ti)
		case kind == "field_declaration" || kind == "event_field_declaration":
			symKind := KindField
			if kind == "event_field_declaration" {
				symKind = KindEvent
			}

			m.declareFields(doc, member, memberPath, ti, symKind)
		case kind == "property_declaration" || kind == "event_declaration":
			symKind := KindProperty
			if kind == "event_declaration" {
				symKind = KindEvent
			}

			if sym := m.declareMember(doc, member, memberPath, ti, symKind); sym != nil {
				sym.TypeName = typeName(member.ChildByField("type"))
			}
		case kind == "method_declaration":
			if sym := m.declareMember(doc, member, memberPath, ti, KindMethod); sym != nil {
				sym.TypeName = typeName(member.ChildByField("returns"))
				if sym.TypeName == "" {
					sym.TypeName = typeName(member.ChildByField("type"))
				}

				m.declareFunctionParams(doc, member, memberPath, sym.ID)
			}
		case kind == "enum_member_declaration":
			if sym := m.declareMember(doc, member, memberPath, ti, KindEnumMember); sym != nil {
				sym.TypeName = ti.sym.Name
			}
		case functionKinds[kind]:
			// Constructors, destructors, operators and indexers only
			// contribute parameters.
			m.declareFunctionParams(doc, member, memberPath, ti.sym.ID)
		}
	}
}

func (m *model) declareMember(doc DocumentID, n *syntax.Node, path syntax.Path, ti *typeInfo, kind SymbolKind) *Symbol {
	name, _ := nameToken(n)
	if name == nil {
		return nil
	}

	sym := m.newSymbol(doc, path, kind, name.Text(), modifiers(n))
	sym.Container = ti.sym.ID
	ti.addMember(sym)
	m.declared[n] = sym
	m.names[name] = sym

	return sym
}

func (m *model) declareFields(doc DocumentID, n *syntax.Node, path syntax.Path, ti *typeInfo, kind SymbolKind) {
	mods := modifiers(n)

	for i, declaration := range n.Children() {
		if declaration.Kind() != kindVariableDeclaration || declaration.IsToken() {
			continue
		}

		for j, declarator := range declaration.Children() {
			if declarator.Kind() != kindVariableDeclarator || declarator.IsToken() {
				continue
			}

			name, _ := declaratorName(declarator)
			if name == nil {
				continue
			}

			sym := m.newSymbol(doc, path.Child(i).Child(j), kind, name.Text(), mods)
			sym.TypeName = typeName(declaration.ChildByField("type"))
			sym.Container = ti.sym.ID
			ti.addMember(sym)
			m.declared[declarator] = sym
			m.names[name] = sym
		}
	}
}

// declareFunctionParams declares the parameters of a function-like node,
// scoped to that node.
func (m *model) declareFunctionParams(doc DocumentID, n *syntax.Node, path syntax.Path, owner SymbolID) {
	var params []*Symbol

	for i, child := range n.Children() {
		if parameterListKinds[child.Kind()] && !child.IsToken() {
			params = append(params, m.declareParams(doc, child, path.Child(i), path, owner)...)
		}
	}

	m.params[n] = params

	if sym, ok := m.declared[n]; ok {
		m.paramsOf[sym.ID] = params
	}
}

func (m *model) declareParams(doc DocumentID, list *syntax.Node, listPath, scopePath syntax.Path, owner SymbolID) []*Symbol {
	var params []*Symbol

	for i, param := range list.Children() {
		switch param.Kind() {
		case kindParameter, kindImplicitParameter:
		default:
			continue
		}

		if sym := m.declareParam(doc, param, listPath.Child(i), scopePath, owner); sym != nil {
			params = append(params, sym)
		}
	}

	return params
}

func (m *model) declareParam(doc DocumentID, param *syntax.Node, path, scopePath syntax.Path, owner SymbolID) *Symbol {
	name := param
	if !param.IsToken() {
		name, _ = nameToken(param)
	}

	if name == nil {
		return nil
	}

	sym := m.newSymbol(doc, path, KindParameter, name.Text(), modifiers(param))
	sym.Container = owner
	sym.scopeDoc = doc
	sym.scopePath = scopePath.Clone()

	if !param.IsToken() {
		sym.TypeName = typeName(param.ChildByField("type"))
	}

	m.declared[param] = sym
	m.names[name] = sym

	return sym
}
