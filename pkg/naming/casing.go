// Package naming holds the naming conventions enforced by the rename rules:
// casing predicates and, per declaration kind, whether a name is acceptable
// and what it should be corrected to.
package naming

import (
	"strings"
	"unicode"
)

// IsPascalCase reports whether name is longer than two characters and starts
// with an upper-case letter followed by a lower-case one.
func IsPascalCase(name string) bool {
	runes := []rune(name)

	return len(runes) > 2 && unicode.IsUpper(runes[0]) && unicode.IsLower(runes[1])
}

// IsUpperCase reports whether upper-casing name leaves it unchanged.
func IsUpperCase(name string) bool {
	return strings.ToUpper(name) == name
}

// HasLetterPrefix reports whether name starts with a single letter followed
// by an underscore, as in "s_value", and has more after it.
func HasLetterPrefix(name string) bool {
	runes := []rune(name)

	return len(runes) > 2 && unicode.IsLetter(runes[0]) && runes[1] == '_'
}

// joinLetterPrefix folds a "x_Rest" prefix into camel case: "xRest".
func joinLetterPrefix(name string) string {
	runes := []rune(name)
	rest := runes[2:]
	rest[0] = unicode.ToUpper(rest[0])

	return string(runes[0]) + string(rest)
}

// lowerFirst lower-cases the first rune of name.
func lowerFirst(name string) string {
	runes := []rune(name)
	if len(runes) == 0 {
		return name
	}

	runes[0] = unicode.ToLower(runes[0])

	return string(runes)
}

// upperFirst upper-cases the first rune of name.
func upperFirst(name string) string {
	runes := []rune(name)
	if len(runes) == 0 {
		return name
	}

	runes[0] = unicode.ToUpper(runes[0])

	return string(runes)
}
