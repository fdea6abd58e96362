package program

import "github.com/Sumatoshi-tech/namefix/pkg/syntax"

// bindDocument walks one document with a lexical scope chain, declaring
// locals as their scopes are entered and binding every identifier token.
func (m *model) bindDocument(doc Document) {
	root := doc.Tree
	top := &scope{names: m.collectLocals(doc.ID, root, syntax.Path{})}

	m.bindChildren(doc.ID, root, syntax.Path{}, []*syntax.Node{root}, top)
}

func (m *model) bindChildren(doc DocumentID, n *syntax.Node, path syntax.Path, stack []*syntax.Node, sc *scope) {
	for i, child := range n.Children() {
		if namespaceKinds[n.Kind()] && n.Kind() != "declaration_list" && child.Field() == "name" {
			continue
		}

		m.bindNode(doc, child, path.Child(i), stack, sc)
	}
}

func (m *model) bindNode(doc DocumentID, n *syntax.Node, path syntax.Path, stack []*syntax.Node, sc *scope) {
	if n.IsToken() {
		switch n.Kind() {
		case kindIdentifier:
			m.record(doc, n, path, m.resolveIdentifier(n, stack, sc))
		case kindImplicitParameter:
			m.record(doc, n, path, m.names[n])
		}

		return
	}

	switch n.Kind() {
	case "using_directive", "extern_alias_directive", "preproc_if", "preproc_region":
		return
	}

	inner := sc

	switch kind := n.Kind(); {
	case typeDeclarationKinds[kind] != KindUnknown:
		inner = &scope{parent: sc, typ: m.typeDecl[n], names: symbolNames(m.params[n])}
	case kind == kindLambda || kind == kindAnonymousMethod:
		params := m.declareLambdaParams(doc, n, path)
		inner = &scope{parent: sc, names: mergeNames(symbolNames(params), m.collectLocals(doc, n, path))}
	case functionKinds[kind]:
		inner = &scope{parent: sc, names: mergeNames(symbolNames(m.params[n]), m.collectLocals(doc, n, path))}
	case blockScopeKinds[kind]:
		inner = &scope{parent: sc, names: m.collectLocals(doc, n, path)}
	}

	m.bindChildren(doc, n, path, append(stack, n), inner)
}

func (m *model) record(doc DocumentID, tok *syntax.Node, path syntax.Path, sym *Symbol) {
	var id SymbolID

	if sym != nil {
		id = sym.ID
		_, isDecl := m.names[tok]
		m.refs[tok] = sym
		m.sites[sym.ID] = append(m.sites[sym.ID], Site{Document: doc, Path: path.Clone(), Declaration: isDecl})
	}

	m.bindings[doc] = append(m.bindings[doc], binding{path: path.String(), symbol: id})
}

func symbolNames(symbols []*Symbol) map[string]*Symbol {
	names := make(map[string]*Symbol, len(symbols))

	for _, sym := range symbols {
		if _, exists := names[sym.Name]; !exists {
			names[sym.Name] = sym
		}
	}

	return names
}

func mergeNames(first, second map[string]*Symbol) map[string]*Symbol {
	for name, sym := range second {
		if _, exists := first[name]; !exists {
			first[name] = sym
		}
	}

	return first
}

// declareLambdaParams declares the parameters of a lambda or anonymous
// method, which may be a parenthesised list or a single bare identifier.
func (m *model) declareLambdaParams(doc DocumentID, n *syntax.Node, path syntax.Path) []*Symbol {
	var params []*Symbol

	for i, child := range n.Children() {
		switch {
		case parameterListKinds[child.Kind()] && !child.IsToken():
			params = append(params, m.declareParams(doc, child, path.Child(i), path, "")...)
		case child.Kind() == kindImplicitParameter,
			child.Kind() == kindIdentifier && child.Field() == "parameters":
			if sym := m.declareParam(doc, child, path.Child(i), path, ""); sym != nil {
				params = append(params, sym)
			}
		}
	}

	m.params[n] = params

	return params
}

// collectLocals declares the locals owned by the scope node n: every local
// declaration below n that is not inside a nested scope. Local functions
// are owned by the enclosing scope while their parameters are owned by the
// function itself.
func (m *model) collectLocals(doc DocumentID, n *syntax.Node, path syntax.Path) map[string]*Symbol {
	names := make(map[string]*Symbol)

	add := func(sym *Symbol) {
		if sym == nil {
			return
		}

		sym.scopeDoc = doc
		sym.scopePath = path.Clone()

		if _, exists := names[sym.Name]; !exists {
			names[sym.Name] = sym
		}
	}

	var visit func(parent *syntax.Node, parentPath syntax.Path)

	visit = func(parent *syntax.Node, parentPath syntax.Path) {
		for i, child := range parent.Children() {
			childPath := parentPath.Child(i)

			if child.Kind() == kindLocalFunction && !child.IsToken() {
				add(m.declareLocalFunction(doc, child, childPath))

				continue
			}

			if isScopeKind(child.Kind()) {
				continue
			}

			add(m.declareLocal(doc, parent, child, childPath))

			if !child.IsToken() {
				visit(child, childPath)
			}
		}
	}

	visit(n, path)

	return names
}

func (m *model) declareLocalFunction(doc DocumentID, n *syntax.Node, path syntax.Path) *Symbol {
	name, _ := nameToken(n)
	if name == nil {
		return nil
	}

	sym := m.newSymbol(doc, path, KindLocalFunction, name.Text(), modifiers(n))
	sym.TypeName = typeName(n.ChildByField("type"))
	m.declared[n] = sym
	m.names[name] = sym
	m.declareFunctionParams(doc, n, path, sym.ID)

	return sym
}

// declareLocal declares child when it introduces a local variable.
func (m *model) declareLocal(doc DocumentID, parent, child *syntax.Node, path syntax.Path) *Symbol {
	switch child.Kind() {
	case kindVariableDeclarator:
		if parent.Kind() != kindVariableDeclaration || child.IsToken() {
			return nil
		}

		name, _ := declaratorName(child)
		if name == nil {
			return nil
		}

		sym := m.newLocal(doc, child, path, name)
		sym.TypeName = declaredTypeName(parent, child)

		return sym
	case kindIdentifier:
		if parent.Kind() != kindForeach || child.Field() != "left" {
			return nil
		}

		sym := m.newLocal(doc, child, path, child)
		sym.TypeName = typeName(parent.ChildByField("type"))

		return sym
	case "catch_declaration":
		if child.IsToken() {
			return nil
		}

		name := child.ChildByField("name")
		if name == nil || !name.IsToken() {
			return nil
		}

		sym := m.newLocal(doc, child, path, name)
		sym.TypeName = typeName(child.ChildByField("type"))

		return sym
	case "declaration_expression", "declaration_pattern":
		if child.IsToken() {
			return nil
		}

		_, name := designationName(child)
		if name == nil {
			return nil
		}

		sym := m.newLocal(doc, child, path, name)
		sym.TypeName = typeName(child.ChildByField("type"))

		return sym
	}

	return nil
}

func (m *model) newLocal(doc DocumentID, decl *syntax.Node, path syntax.Path, name *syntax.Node) *Symbol {
	sym := m.newSymbol(doc, path, KindLocal, name.Text(), nil)
	m.declared[decl] = sym
	m.names[name] = sym

	return sym
}
