package rules

import (
	"github.com/Sumatoshi-tech/namefix/pkg/naming"
	"github.com/Sumatoshi-tech/namefix/pkg/program"
	"github.com/Sumatoshi-tech/namefix/pkg/syntax"
)

// Dialect is the language-specific half of a naming rule.
type Dialect interface {
	// Annotate tags every declaration that violates the rule's policy with
	// marker and returns the tagged tree and the number of tags. A tree
	// without violations is returned unchanged with a count of zero.
	Annotate(tree *syntax.Node, marker syntax.Annotation) (*syntax.Node, int)
	// RemoveRenameAnnotations strips the bookkeeping the rename primitive
	// leaves behind, from nodes and tokens alike.
	RemoveRenameAnnotations(tree *syntax.Node) *syntax.Node
}

// C# grammar kinds the annotators look for.
const (
	kindLocalDeclaration     = "local_declaration_statement"
	kindFieldDeclaration     = "field_declaration"
	kindVariableDeclaration  = "variable_declaration"
	kindVariableDeclarator   = "variable_declarator"
	kindInterfaceDeclaration = "interface_declaration"
	kindParameter            = "parameter"
	kindModifier             = "modifier"
	kindIdentifier           = "identifier"
)

type csharpCleaner struct{}

func (csharpCleaner) RemoveRenameAnnotations(tree *syntax.Node) *syntax.Node {
	return syntax.Strip(tree, program.RenameAnnotationKind)
}

// csharpLocals tags the declarators of local variable declarations.
type csharpLocals struct {
	csharpCleaner

	policy naming.Policy
}

func (c csharpLocals) Annotate(tree *syntax.Node, marker syntax.Annotation) (*syntax.Node, int) {
	count := 0

	tagged := syntax.Rewrite(tree, descendAll, func(n *syntax.Node) *syntax.Node {
		if n.Kind() != kindLocalDeclaration {
			return n
		}

		return tagDeclarators(n, naming.Declaration{}, c.policy, marker, &count)
	})

	return tagged, count
}

// csharpConstants tags the declarators of private constant fields.
type csharpConstants struct {
	csharpCleaner

	policy naming.Policy
}

func (c csharpConstants) Annotate(tree *syntax.Node, marker syntax.Annotation) (*syntax.Node, int) {
	count := 0

	tagged := syntax.Rewrite(tree, descendAll, func(n *syntax.Node) *syntax.Node {
		if n.Kind() != kindFieldDeclaration || n.IsToken() {
			return n
		}

		decl := naming.Declaration{Modifiers: modifiers(n)}
		if !naming.IsPrivateConstant(decl) {
			return n
		}

		return tagDeclarators(n, decl, c.policy, marker, &count)
	})

	return tagged, count
}

// csharpInterfaces tags interface declarations.
type csharpInterfaces struct {
	csharpCleaner

	policy naming.Policy
}

func (c csharpInterfaces) Annotate(tree *syntax.Node, marker syntax.Annotation) (*syntax.Node, int) {
	return tagNamed(tree, kindInterfaceDeclaration, c.policy, marker)
}

// csharpParameters tags parameters of methods, constructors, delegates,
// local functions and explicitly typed lambdas.
type csharpParameters struct {
	csharpCleaner

	policy naming.Policy
}

func (c csharpParameters) Annotate(tree *syntax.Node, marker syntax.Annotation) (*syntax.Node, int) {
	return tagNamed(tree, kindParameter, c.policy, marker)
}

func descendAll(*syntax.Node) bool { return true }

// tagNamed tags every node of kind whose name field is unacceptable.
func tagNamed(tree *syntax.Node, kind string, policy naming.Policy, marker syntax.Annotation) (*syntax.Node, int) {
	count := 0

	tagged := syntax.Rewrite(tree, descendAll, func(n *syntax.Node) *syntax.Node {
		if n.Kind() != kind || n.IsToken() {
			return n
		}

		name := n.ChildByField("name")
		if name == nil || !name.IsToken() {
			return n
		}

		decl := naming.Declaration{Modifiers: modifiers(n)}
		if policy.IsAcceptable(name.Text(), decl) {
			return n
		}

		count++

		return n.WithAnnotations(marker)
	})

	return tagged, count
}

// tagDeclarators tags the unacceptable declarators of the variable
// declaration under owner and returns the rebuilt owner.
func tagDeclarators(owner *syntax.Node, decl naming.Declaration, policy naming.Policy, marker syntax.Annotation, count *int) *syntax.Node {
	if owner.IsToken() {
		return owner
	}

	children := owner.Children()
	rebuilt := make([]*syntax.Node, len(children))
	changed := false

	for i, child := range children {
		rebuilt[i] = child

		if child.Kind() != kindVariableDeclaration || child.IsToken() {
			continue
		}

		declarators := child.Children()
		tagged := make([]*syntax.Node, len(declarators))
		taggedAny := false

		for j, declarator := range declarators {
			tagged[j] = declarator

			name := declaratorName(declarator)
			if name == "" || policy.IsAcceptable(name, decl) {
				continue
			}

			tagged[j] = declarator.WithAnnotations(marker)
			taggedAny = true
			*count++
		}

		if taggedAny {
			rebuilt[i] = child.WithChildren(tagged)
			changed = true
		}
	}

	if !changed {
		return owner
	}

	return owner.WithChildren(rebuilt)
}

func declaratorName(declarator *syntax.Node) string {
	if declarator.Kind() != kindVariableDeclarator || declarator.IsToken() {
		return ""
	}

	if name := declarator.ChildByField("name"); name != nil && name.IsToken() {
		return name.Text()
	}

	if ident := declarator.FirstChildByKind(kindIdentifier); ident != nil {
		return ident.Text()
	}

	return ""
}

func modifiers(n *syntax.Node) []string {
	var mods []string

	for _, child := range n.ChildrenByKind(kindModifier) {
		mods = append(mods, child.Text())
	}

	return mods
}
