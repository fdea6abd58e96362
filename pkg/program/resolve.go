package program

import "github.com/Sumatoshi-tech/namefix/pkg/syntax"

// resolveIdentifier binds one identifier token. stack holds the ancestors of
// tok, innermost last.
func (m *model) resolveIdentifier(tok *syntax.Node, stack []*syntax.Node, sc *scope) *Symbol {
	if sym, ok := m.names[tok]; ok {
		return sym
	}

	parent := stack[len(stack)-1]
	name := tok.Text()
	field := tok.Field()

	switch kind := parent.Kind(); {
	case unboundParents[kind]:
		return nil
	case kind == kindMemberAccess && field == "name":
		return m.memberOf(parent.ChildByField("expression"), name, sc)
	case kind == kindMemberAccess && field == "expression":
		return m.resolveReceiver(parent, name, sc)
	case kind == "name_colon", kind == "argument" && field == "name":
		return m.resolveNamedArgument(stack, name)
	case kind == "qualified_name" && field == "name":
		if ti := m.typeOfSymbol(m.symbolOf(parent.ChildByField("qualifier"))); ti != nil {
			return m.lookupMember(ti, name)
		}

		return m.lookupTypeSymbol(name)
	case kind == "qualified_name", kind == "alias_qualified_name":
		return m.lookupTypeSymbol(name)
	case (kind == "constructor_declaration" || kind == "destructor_declaration") && field == "name":
		if ti := sc.enclosingType(); ti != nil && ti.sym.Name == name {
			return ti.sym
		}

		return nil
	case kind == "generic_name":
		return m.resolveGenericName(parent, name, stack[:len(stack)-1], sc)
	case kind == "attribute" && field == "name":
		if sym := m.lookupTypeSymbol(name); sym != nil {
			return sym
		}

		return m.lookupTypeSymbol(name + "Attribute")
	case kind == "assignment_expression" && field == "left":
		if created := initializedType(stack); created != nil {
			return m.lookupMember(m.lookupType(typeName(created.ChildByField("type"))), name)
		}
	case isTypePosition(parent, field):
		return m.lookupTypeSymbol(name)
	}

	return m.lookup(sc, name)
}

func isTypePosition(parent *syntax.Node, field string) bool {
	switch field {
	case "type", "returns":
		return true
	case "right":
		return parent.Kind() == "as_expression" || parent.Kind() == "is_expression"
	}

	return typeContextParents[parent.Kind()]
}

// initializedType returns the object creation whose initializer holds the
// assignment at the top of stack.
func initializedType(stack []*syntax.Node) *syntax.Node {
	if len(stack) < 3 {
		return nil
	}

	initializer := stack[len(stack)-2]
	creation := stack[len(stack)-3]

	if initializer.Kind() != "initializer_expression" || creation.Kind() != "object_creation_expression" {
		return nil
	}

	return creation
}

// resolveReceiver binds the left side of a member access. When a variable
// shares its name with its own type and the accessed member is static, the
// name denotes the type.
func (m *model) resolveReceiver(access *syntax.Node, name string, sc *scope) *Symbol {
	sym := m.lookup(sc, name)
	if sym == nil || sym.Kind.IsType() || sym.TypeName != name {
		return sym
	}

	ti := m.lookupType(name)
	if ti == nil {
		return sym
	}

	member := access.ChildByField("name")
	if member == nil || !member.IsToken() {
		return sym
	}

	if target := m.lookupMember(ti, member.Text()); target != nil && target.IsStatic() {
		return ti.sym
	}

	return sym
}

func (m *model) resolveGenericName(generic *syntax.Node, name string, stack []*syntax.Node, sc *scope) *Symbol {
	if len(stack) > 0 {
		parent := stack[len(stack)-1]

		switch {
		case parent.Kind() == kindMemberAccess && generic.Field() == "name":
			return m.memberOf(parent.ChildByField("expression"), name, sc)
		case isTypePosition(parent, generic.Field()):
			return m.lookupTypeSymbol(name)
		}
	}

	return m.lookup(sc, name)
}

// resolveNamedArgument binds the name of a named argument to the matching
// parameter of the invoked method.
func (m *model) resolveNamedArgument(stack []*syntax.Node, name string) *Symbol {
	idx := len(stack) - 1
	if stack[idx].Kind() == "name_colon" {
		idx--
	}

	// argument, argument_list, invocation
	if idx < 2 || stack[idx].Kind() != "argument" || stack[idx-2].Kind() != kindInvocation {
		return nil
	}

	callee := m.symbolOf(stack[idx-2].ChildByField("function"))
	if callee == nil {
		return nil
	}

	for _, param := range m.paramsOf[callee.ID] {
		if param.Name == name {
			return param
		}
	}

	return nil
}

// memberOf binds name as a member of the type of receiver.
func (m *model) memberOf(receiver *syntax.Node, name string, sc *scope) *Symbol {
	if receiver == nil {
		return nil
	}

	if isBaseKind(receiver.Kind()) {
		ti := sc.enclosingType()
		if ti == nil {
			return nil
		}

		for _, base := range ti.bases {
			for _, candidate := range m.types[base] {
				if sym := m.lookupMember(candidate, name); sym != nil {
					return sym
				}
			}
		}

		return nil
	}

	return m.lookupMember(m.exprType(receiver, sc), name)
}

func isBaseKind(kind string) bool {
	return kind == "base" || kind == "base_expression"
}

// exprType approximates the static type of an expression from the bindings
// made so far.
func (m *model) exprType(n *syntax.Node, sc *scope) *typeInfo {
	switch n.Kind() {
	case kindIdentifier:
		return m.typeOfSymbol(m.refs[n])
	case "this", "this_expression":
		return sc.enclosingType()
	case kindMemberAccess, "generic_name", "qualified_name":
		return m.typeOfSymbol(m.symbolOf(n))
	case kindInvocation:
		callee := m.symbolOf(n.ChildByField("function"))
		if callee == nil {
			return nil
		}

		switch callee.Kind {
		case KindMethod, KindLocalFunction, KindDelegate:
			return m.lookupType(callee.TypeName)
		}

		return nil
	case "object_creation_expression", "cast_expression":
		return m.lookupType(typeName(n.ChildByField("type")))
	case "parenthesized_expression":
		if n.IsToken() || n.ChildCount() == 0 {
			return nil
		}

		return m.exprType(n.Child(0), sc)
	}

	return nil
}

// symbolOf returns the symbol a name expression is bound to.
func (m *model) symbolOf(n *syntax.Node) *Symbol {
	if n == nil {
		return nil
	}

	if n.IsToken() {
		return m.refs[n]
	}

	switch n.Kind() {
	case kindMemberAccess, "qualified_name":
		return m.symbolOf(n.ChildByField("name"))
	case "generic_name":
		return m.symbolOf(n.FirstChildByKind(kindIdentifier))
	}

	return nil
}
