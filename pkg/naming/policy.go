package naming

import (
	"slices"
	"strings"
	"unicode"
)

// Declaration describes the declaration a name belongs to.
type Declaration struct {
	// Modifiers are the declaration's modifier keywords, e.g. "private", "const".
	Modifiers []string
}

// HasModifier reports whether the declaration carries modifier.
func (d Declaration) HasModifier(modifier string) bool {
	return slices.Contains(d.Modifiers, modifier)
}

// Policy decides whether a declared name follows a convention and what it
// should be renamed to when it does not. A corrected name equal to the input
// means the policy has no better name to offer.
type Policy interface {
	IsAcceptable(name string, decl Declaration) bool
	CorrectedName(name string, decl Declaration) string
}

// Built-in policies.
var (
	// Locals requires camelCase local variables.
	Locals Policy = localPolicy{}
	// Parameters requires camelCase parameters without a letter prefix.
	Parameters Policy = parameterPolicy{}
	// PrivateConstants requires private constant fields in upper case.
	PrivateConstants Policy = constantPolicy{}
	// Interfaces requires interfaces named "I" followed by PascalCase.
	Interfaces Policy = interfacePolicy{}
)

type localPolicy struct{}

func (localPolicy) IsAcceptable(name string, _ Declaration) bool {
	return len([]rune(name)) > 2 && !IsPascalCase(name)
}

func (localPolicy) CorrectedName(name string, _ Declaration) string {
	return camelCase(name, false)
}

type parameterPolicy struct{}

func (parameterPolicy) IsAcceptable(name string, _ Declaration) bool {
	if len([]rune(name)) <= 2 || IsPascalCase(name) || IsUpperCase(name) {
		return false
	}

	return !HasLetterPrefix(name)
}

func (parameterPolicy) CorrectedName(name string, _ Declaration) string {
	return camelCase(name, true)
}

// camelCase applies the local and parameter corrections in order: fold a
// letter prefix, lower a lone capital, lower the head of a PascalCase name
// and, for parameters, lower an all-caps name.
func camelCase(name string, lowerAllCaps bool) string {
	corrected := name

	if HasLetterPrefix(corrected) {
		corrected = joinLetterPrefix(corrected)
	}

	runes := []rune(corrected)

	if len(runes) == 1 && unicode.IsUpper(runes[0]) {
		corrected = strings.ToLower(corrected)
	}

	if IsPascalCase(corrected) {
		corrected = lowerFirst(corrected)
	}

	if lowerAllCaps && IsUpperCase(corrected) {
		corrected = strings.ToLower(corrected)
	}

	return corrected
}

type constantPolicy struct{}

// IsPrivateConstant reports whether decl is a const field without an
// accessibility modifier that makes it visible outside its type.
func IsPrivateConstant(decl Declaration) bool {
	for _, modifier := range []string{"public", "internal", "protected"} {
		if decl.HasModifier(modifier) {
			return false
		}
	}

	return decl.HasModifier("const")
}

func (constantPolicy) IsAcceptable(name string, decl Declaration) bool {
	if !IsPrivateConstant(decl) {
		return true
	}

	return name != "" && IsUpperCase(name)
}

func (constantPolicy) CorrectedName(name string, _ Declaration) string {
	corrected := strings.ToUpper(strings.Trim(name, "_"))
	if corrected == "" {
		return name
	}

	return corrected
}

type interfacePolicy struct{}

func (interfacePolicy) IsAcceptable(name string, _ Declaration) bool {
	runes := []rune(name)

	return len(runes) > 1 && runes[0] == 'I' && unicode.IsUpper(runes[1])
}

func (interfacePolicy) CorrectedName(name string, _ Declaration) string {
	rest := strings.TrimLeft(name, "I")
	if rest == "" {
		return name
	}

	runes := []rune(rest)
	if len(runes) > 2 && unicode.IsLower(runes[0]) {
		rest = upperFirst(rest)
	}

	return "I" + rest
}
