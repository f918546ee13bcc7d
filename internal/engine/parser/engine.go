// # internal/engine/parser/engine.go
package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// NodeHandler processes a node for a language-specific extractor.
// Returns true if the handler has processed children and the walker should stop.
type NodeHandler func(ctx *ExtractionContext, node *sitter.Node) bool

// ExtractionContext carries shared state/helpers used by all extractors.
type ExtractionContext struct {
	Source            []byte
	Module            *Module
	ProcessedChildren bool // If true, the walker will skip this node's children
}

func (c *ExtractionContext) ResetProcessedChildren() {
	c.ProcessedChildren = false
}

// ExtractorEngine walks the syntax tree and dispatches node handlers by kind.
type ExtractorEngine struct {
	handlers map[string]NodeHandler
}

func NewExtractorEngine(handlers map[string]NodeHandler) *ExtractorEngine {
	return &ExtractorEngine{handlers: handlers}
}

func (e *ExtractorEngine) Walk(ctx *ExtractionContext, node *sitter.Node) {
	if node == nil {
		return
	}

	ctx.ResetProcessedChildren()
	stop := false
	if handler, ok := e.handlers[node.Kind()]; ok {
		stop = handler(ctx, node)
	}

	if !stop && !ctx.ProcessedChildren {
		for i := uint(0); i < node.ChildCount(); i++ {
			e.Walk(ctx, node.Child(i))
		}
	}
}

func (c *ExtractionContext) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(c.Source[node.StartByte():node.EndByte()])
}

func (c *ExtractionContext) Location(node *sitter.Node) Location {
	return Location{
		File:   c.Module.Path,
		Line:   int(node.StartPosition().Row) + 1,
		Column: int(node.StartPosition().Column) + 1,
	}
}

// ChildOfKind returns the first direct child with the given kind.
func (c *ExtractionContext) ChildOfKind(node *sitter.Node, kind string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == kind {
			return child
		}
	}
	return nil
}

// HasChildOfKind reports whether node has a direct child of the given kind.
// Keyword tokens (e.g. the "type" in `import type`) surface as unnamed
// children whose kind equals their text.
func (c *ExtractionContext) HasChildOfKind(node *sitter.Node, kind string) bool {
	return c.ChildOfKind(node, kind) != nil
}

// AppendSpecifier records one extracted specifier, dropping empty values.
func (c *ExtractionContext) AppendSpecifier(raw string, kind SpecifierKind, node *sitter.Node) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}
	c.Module.Specifiers = append(c.Module.Specifiers, Specifier{
		Raw:      raw,
		Kind:     kind,
		Location: c.Location(node),
	})
}

func trimQuoted(value string) string {
	value = strings.TrimSpace(value)
	return strings.Trim(value, "\"'`")
}
