package program

import "github.com/Sumatoshi-tech/namefix/pkg/syntax"

// Grammar kinds of the C# tree-sitter grammar used by the binder.
const (
	kindIdentifier          = "identifier"
	kindImplicitParameter   = "implicit_parameter"
	kindModifier            = "modifier"
	kindVariableDeclaration = "variable_declaration"
	kindVariableDeclarator  = "variable_declarator"
	kindParameter           = "parameter"
	kindLocalFunction       = "local_function_statement"
	kindDelegate            = "delegate_declaration"
	kindLambda              = "lambda_expression"
	kindAnonymousMethod     = "anonymous_method_expression"
	kindMemberAccess        = "member_access_expression"
	kindInvocation          = "invocation_expression"
	kindForeach             = "foreach_statement"
	kindEqualsValue         = "equals_value_clause"
)

var typeDeclarationKinds = map[string]SymbolKind{
	"class_declaration":         KindClass,
	"struct_declaration":        KindStruct,
	"record_declaration":        KindRecord,
	"record_struct_declaration": KindRecord,
	"interface_declaration":     KindInterface,
	"enum_declaration":          KindEnum,
}

var namespaceKinds = map[string]bool{
	"namespace_declaration":             true,
	"file_scoped_namespace_declaration": true,
	"declaration_list":                  true,
}

var functionKinds = map[string]bool{
	"method_declaration":              true,
	"constructor_declaration":         true,
	"destructor_declaration":          true,
	"operator_declaration":            true,
	"conversion_operator_declaration": true,
	"indexer_declaration":             true,
	kindLocalFunction:                 true,
	kindDelegate:                      true,
	kindLambda:                        true,
	kindAnonymousMethod:               true,
}

var blockScopeKinds = map[string]bool{
	"block":           true,
	"switch_section":  true,
	"for_statement":   true,
	kindForeach:       true,
	"catch_clause":    true,
	"using_statement": true,
	"fixed_statement": true,
}

var parameterListKinds = map[string]bool{
	"parameter_list":           true,
	"bracketed_parameter_list": true,
}

// typeContextParents are kinds whose identifier children always name types.
var typeContextParents = map[string]bool{
	"base_list":                    true,
	"type_argument_list":           true,
	"array_type":                   true,
	"nullable_type":                true,
	"pointer_type":                 true,
	"ref_type":                     true,
	"scoped_type":                  true,
	"type_constraint":              true,
	"type_parameter_constraint":    true,
	"explicit_interface_specifier": true,
}

// unboundParents are kinds whose identifier children never bind to program symbols.
var unboundParents = map[string]bool{
	"member_binding_expression": true,
	"name_equals":               true,
	"labeled_statement":         true,
	"goto_statement":            true,
	"type_parameter":            true,
	"type_parameter_list":       true,
	"attribute_argument":        true,
}

func isScopeKind(kind string) bool {
	_, isType := typeDeclarationKinds[kind]

	return isType || functionKinds[kind] || blockScopeKinds[kind]
}

// childIndex returns the index of child inside parent, or -1.
func childIndex(parent, child *syntax.Node) int {
	for i, c := range parent.Children() {
		if c == child {
			return i
		}
	}

	return -1
}

// nameToken returns the name token of a declaration node and its index.
// It prefers the "name" field and falls back to the last identifier child
// for grammars that do not label it.
func nameToken(decl *syntax.Node) (*syntax.Node, int) {
	if decl.IsToken() {
		return nil, -1
	}

	if named := decl.ChildByField("name"); named != nil && named.IsToken() {
		return named, childIndex(decl, named)
	}

	idx := -1

	for i, child := range decl.Children() {
		if child.Kind() == kindIdentifier && child.Field() == "" {
			idx = i
		}
	}

	if idx < 0 {
		return nil, -1
	}

	return decl.Child(idx), idx
}

// declaratorName returns the name token of a variable declarator, which is
// its first identifier.
func declaratorName(decl *syntax.Node) (*syntax.Node, int) {
	if named := decl.ChildByField("name"); named != nil && named.IsToken() {
		return named, childIndex(decl, named)
	}

	for i, child := range decl.Children() {
		if child.Kind() == kindIdentifier {
			return child, i
		}
	}

	return nil, -1
}

// designationName finds the name of declaration expressions and patterns,
// either labelled directly or nested in a single_variable_designation.
func designationName(decl *syntax.Node) (syntax.Path, *syntax.Node) {
	if named := decl.ChildByField("name"); named != nil && named.IsToken() {
		return syntax.Path{childIndex(decl, named)}, named
	}

	for i, child := range decl.Children() {
		if child.Kind() != "single_variable_designation" {
			continue
		}

		if child.IsToken() {
			return nil, nil
		}

		for j, inner := range child.Children() {
			if inner.Kind() == kindIdentifier {
				return syntax.Path{i, j}, inner
			}
		}
	}

	return nil, nil
}

func modifiers(decl *syntax.Node) []string {
	var mods []string

	for _, child := range decl.Children() {
		if child.Kind() == kindModifier {
			mods = append(mods, child.Text())
		}
	}

	return mods
}

// typeName returns the simple name of a type node: the rightmost identifier
// of qualified and generic names, the element of nullable types.
func typeName(typeNode *syntax.Node) string {
	if typeNode == nil {
		return ""
	}

	if typeNode.IsToken() {
		return typeNode.Text()
	}

	switch typeNode.Kind() {
	case "generic_name":
		if ident := typeNode.FirstChildByKind(kindIdentifier); ident != nil {
			return ident.Text()
		}
	case "qualified_name", "alias_qualified_name":
		if name := typeNode.ChildByField("name"); name != nil {
			return typeName(name)
		}

		return typeName(typeNode.Child(typeNode.ChildCount() - 1))
	case "nullable_type":
		if inner := typeNode.ChildByField("type"); inner != nil {
			return typeName(inner)
		}

		return typeName(typeNode.Child(0))
	}

	return ""
}

// declaredTypeName returns the declared type of a variable declarator,
// inferring "var" from a constructor call or cast initializer.
func declaredTypeName(declaration, declarator *syntax.Node) string {
	name := typeName(declaration.ChildByField("type"))
	if name != "var" {
		return name
	}

	for _, child := range declarator.Children() {
		value := child
		if value.Kind() == kindEqualsValue && !value.IsToken() && value.ChildCount() > 0 {
			value = value.Child(value.ChildCount() - 1)
		}

		switch value.Kind() {
		case "object_creation_expression", "cast_expression":
			return typeName(value.ChildByField("type"))
		}
	}

	return ""
}

func baseNames(typeDecl *syntax.Node) []string {
	list := typeDecl.FirstChildByKind("base_list")
	if list == nil || list.IsToken() {
		return nil
	}

	var names []string

	for _, child := range list.Children() {
		if name := typeName(child); name != "" {
			names = append(names, name)
		}
	}

	return names
}
