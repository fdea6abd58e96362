package program

import (
	"slices"

	"github.com/Sumatoshi-tech/namefix/pkg/syntax"
)

// SymbolKind classifies a declared symbol.
type SymbolKind int

// Symbol kinds.
const (
	KindUnknown SymbolKind = iota
	KindClass
	KindStruct
	KindRecord
	KindInterface
	KindEnum
	KindDelegate
	KindField
	KindProperty
	KindEvent
	KindMethod
	KindEnumMember
	KindParameter
	KindLocal
	KindLocalFunction
)

var kindNames = map[SymbolKind]string{
	KindUnknown:       "unknown",
	KindClass:         "class",
	KindStruct:        "struct",
	KindRecord:        "record",
	KindInterface:     "interface",
	KindEnum:          "enum",
	KindDelegate:      "delegate",
	KindField:         "field",
	KindProperty:      "property",
	KindEvent:         "event",
	KindMethod:        "method",
	KindEnumMember:    "enum member",
	KindParameter:     "parameter",
	KindLocal:         "local",
	KindLocalFunction: "local function",
}

// String returns the lower-case name of the kind.
func (k SymbolKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return kindNames[KindUnknown]
}

// IsType reports whether the kind declares a type.
func (k SymbolKind) IsType() bool {
	switch k {
	case KindClass, KindStruct, KindRecord, KindInterface, KindEnum, KindDelegate:
		return true
	default:
		return false
	}
}

// IsMember reports whether the kind is declared directly inside a type body.
func (k SymbolKind) IsMember() bool {
	switch k {
	case KindField, KindProperty, KindEvent, KindMethod, KindEnumMember:
		return true
	default:
		return false
	}
}

// IsLocal reports whether the kind lives in a function-local declaration space.
func (k SymbolKind) IsLocal() bool {
	switch k {
	case KindParameter, KindLocal, KindLocalFunction:
		return true
	default:
		return false
	}
}

// SymbolID identifies a symbol across snapshots as long as the shape of the
// declaring file is unchanged. It is the declaring document and the path of
// the primary declaration node.
type SymbolID string

func newSymbolID(doc DocumentID, path syntax.Path) SymbolID {
	return SymbolID(string(doc) + "#" + path.String())
}

// Site is one occurrence of a symbol's name token.
type Site struct {
	Document    DocumentID
	Path        syntax.Path
	Declaration bool
}

type declSite struct {
	doc  DocumentID
	path syntax.Path
}

// Symbol is the semantic identity of one declaration.
type Symbol struct {
	ID        SymbolID
	Kind      SymbolKind
	Name      string
	Document  DocumentID
	Path      syntax.Path
	Modifiers []string
	// TypeName is the simple name of the declared type (for variables,
	// fields, properties and parameters) or return type (for methods).
	TypeName string
	// Container is the enclosing type or function symbol, if any.
	Container SymbolID

	decls     []declSite
	scopeDoc  DocumentID
	scopePath syntax.Path
}

// HasModifier reports whether the declaration carries modifier.
func (s *Symbol) HasModifier(modifier string) bool {
	return slices.Contains(s.Modifiers, modifier)
}

// IsConst reports whether the symbol is a constant field.
func (s *Symbol) IsConst() bool {
	return s.Kind == KindField && s.HasModifier("const")
}

// IsStatic reports whether the symbol is reachable through its type name.
func (s *Symbol) IsStatic() bool {
	switch {
	case s.Kind == KindEnumMember, s.Kind.IsType(), s.IsConst():
		return true
	default:
		return s.HasModifier("static")
	}
}

// Declarations returns the document and path of every declaration node.
// Partial types have more than one.
func (s *Symbol) Declarations() []Site {
	out := make([]Site, len(s.decls))
	for i, d := range s.decls {
		out[i] = Site{Document: d.doc, Path: d.path.Clone(), Declaration: true}
	}

	return out
}
