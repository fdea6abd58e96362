package parser

import (
	"path/filepath"
	"strings"
	"sync"
	"unsafe"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/alexaandru/go-sitter-forest/c_sharp"

	"github.com/Sumatoshi-tech/namefix/pkg/syntax"
)

// languageFuncs maps dialects to their tree-sitter grammar. Visual Basic is
// recognised by extension but has no grammar.
var languageFuncs = map[syntax.Dialect]func() unsafe.Pointer{
	syntax.CSharp: c_sharp.GetLanguage,
}

var extensionDialects = map[string]syntax.Dialect{
	".cs": syntax.CSharp,
	".vb": syntax.VisualBasic,
}

var languageCache sync.Map

// GetLanguage returns the tree-sitter Language for the dialect, or nil if not supported.
func GetLanguage(dialect syntax.Dialect) *sitter.Language {
	if cached, ok := languageCache.Load(dialect); ok {
		lang, castOK := cached.(*sitter.Language)
		if castOK {
			return lang
		}
	}

	fn, ok := languageFuncs[dialect]
	if !ok {
		return nil
	}

	lang := sitter.NewLanguage(fn())
	languageCache.Store(dialect, lang)

	return lang
}

// Supports reports whether the dialect can be parsed.
func Supports(dialect syntax.Dialect) bool {
	_, ok := languageFuncs[dialect]

	return ok
}

// DialectForPath returns the dialect implied by the file extension.
func DialectForPath(path string) (syntax.Dialect, bool) {
	dialect, ok := extensionDialects[strings.ToLower(filepath.Ext(path))]

	return dialect, ok
}
