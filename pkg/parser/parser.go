// Package parser turns source files into namefix syntax trees using
// tree-sitter grammars.
package parser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/namefix/pkg/syntax"
)

// Sentinel errors.
var (
	ErrUnsupportedDialect = errors.New("unsupported dialect")
	ErrNoRootNode         = errors.New("parser returned no root node")
	errPoolType           = errors.New("unexpected parser pool entry")
)

// fieldNames are the grammar fields recorded on converted nodes.
var fieldNames = []string{
	"name",
	"type",
	"returns",
	"parameters",
	"body",
	"left",
	"right",
	"expression",
	"function",
	"arguments",
	"qualifier",
	"initializer",
	"condition",
	"update",
	"value",
	"accessors",
	"type_parameters",
}

// Parser parses source files of the supported dialects. It is safe for
// concurrent use; tree-sitter parsers are pooled per dialect.
type Parser struct {
	pools sync.Map
}

// New creates a Parser.
func New() *Parser {
	return &Parser{}
}

func (p *Parser) pool(dialect syntax.Dialect) (*sync.Pool, error) {
	if cached, ok := p.pools.Load(dialect); ok {
		pool, castOK := cached.(*sync.Pool)
		if castOK {
			return pool, nil
		}
	}

	lang := GetLanguage(dialect)
	if lang == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDialect, dialect)
	}

	pool := &sync.Pool{
		New: func() any {
			tsParser := sitter.NewParser()
			tsParser.SetLanguage(lang)

			return tsParser
		},
	}

	actual, _ := p.pools.LoadOrStore(dialect, pool)

	stored, ok := actual.(*sync.Pool)
	if !ok {
		return nil, errPoolType
	}

	return stored, nil
}

// Parse parses content written in dialect into a syntax tree whose printed
// form is byte-identical to content.
func (p *Parser) Parse(ctx context.Context, dialect syntax.Dialect, content []byte) (*syntax.Node, error) {
	pool, err := p.pool(dialect)
	if err != nil {
		return nil, err
	}

	tsParser, ok := pool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer pool.Put(tsParser)

	tree, err := tsParser.ParseString(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", dialect, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return nil, ErrNoRootNode
	}

	conv := converter{source: content}

	return conv.root(root), nil
}

type spanKey struct {
	start, end uint
	kind       string
}

type converter struct {
	source []byte
}

func (c *converter) text(start, end uint) string {
	size := uint(len(c.source))
	if end > size {
		end = size
	}

	if start >= end {
		return ""
	}

	return string(c.source[start:end])
}

func (c *converter) root(root sitter.Node) *syntax.Node {
	children, cursor := c.children(root)
	if len(children) == 0 {
		return syntax.NewNode(root.Type(), nil).WithTail(string(c.source))
	}

	first := children[0]
	children[0] = first.WithLeading(c.text(0, root.StartByte()) + first.Leading())

	return syntax.NewNode(root.Type(), children).WithTail(c.text(cursor, uint(len(c.source))))
}

func (c *converter) node(tsNode sitter.Node, field, leading string) *syntax.Node {
	kind := tsNode.Type()

	if kind == "identifier" || tsNode.NamedChildCount() == 0 {
		return syntax.NewToken(kind, c.text(tsNode.StartByte(), tsNode.EndByte())).
			WithField(field).
			WithLeading(leading)
	}

	children, cursor := c.children(tsNode)

	return syntax.NewNode(kind, children).
		WithField(field).
		WithLeading(leading).
		WithTail(c.text(cursor, tsNode.EndByte()))
}

// children converts the named children of tsNode. The returned cursor is the
// end offset of the last converted child.
func (c *converter) children(tsNode sitter.Node) ([]*syntax.Node, uint) {
	fields := c.fields(tsNode)
	childCount := tsNode.NamedChildCount()
	children := make([]*syntax.Node, 0, childCount)
	cursor := tsNode.StartByte()

	for idx := range childCount {
		child := tsNode.NamedChild(idx)
		if child.IsNull() {
			continue
		}

		start := max(child.StartByte(), cursor)
		key := spanKey{start: child.StartByte(), end: child.EndByte(), kind: child.Type()}

		children = append(children, c.node(child, fields[key], c.text(cursor, start)))
		cursor = max(child.EndByte(), cursor)
	}

	return children, cursor
}

func (c *converter) fields(tsNode sitter.Node) map[spanKey]string {
	var fields map[spanKey]string

	for _, name := range fieldNames {
		fieldNode := tsNode.ChildByFieldName(name)
		if fieldNode.IsNull() || !fieldNode.IsNamed() {
			continue
		}

		if fields == nil {
			fields = make(map[spanKey]string, len(fieldNames))
		}

		key := spanKey{start: fieldNode.StartByte(), end: fieldNode.EndByte(), kind: fieldNode.Type()}
		if _, exists := fields[key]; !exists {
			fields[key] = name
		}
	}

	return fields
}
