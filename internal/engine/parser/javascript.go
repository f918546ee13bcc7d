// # internal/engine/parser/javascript.go
package parser

import (
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// JSExtractor pulls module specifiers out of JavaScript, TypeScript and TSX
// syntax trees. The same handler set works for all three grammars: node kinds
// for imports/exports/calls are shared.
type JSExtractor struct {
	language string
}

func NewJSExtractor(language string) *JSExtractor {
	return &JSExtractor{language: language}
}

func (e *JSExtractor) Extract(root *sitter.Node, source []byte, filePath string) (*Module, error) {
	module := &Module{
		Path:     filePath,
		Language: e.language,
		ParsedAt: time.Now(),
	}

	ctx := &ExtractionContext{Source: source, Module: module}
	engine := NewExtractorEngine(map[string]NodeHandler{
		"import_statement": e.extractImport,
		"export_statement": e.extractExport,
		"call_expression":  e.extractCall,
	})
	engine.Walk(ctx, root)

	return module, nil
}

// extractImport handles `import X from "s"`, `import "s"`, `import { a } from "s"`
// and `import type { T } from "s"`.
func (e *JSExtractor) extractImport(ctx *ExtractionContext, node *sitter.Node) bool {
	src := ctx.ChildOfKind(node, "string")
	if src == nil {
		return true
	}

	kind := KindSideEffect
	if ctx.HasChildOfKind(node, "import_clause") {
		kind = KindStatic
	}
	// The `type` / `typeof` keyword surfaces as an unnamed token, directly
	// under the statement in the TS grammars.
	if ctx.HasChildOfKind(node, "type") || ctx.HasChildOfKind(node, "typeof") {
		kind = KindTypeOnly
	}

	ctx.AppendSpecifier(trimQuoted(ctx.Text(src)), kind, src)
	return true
}

// extractExport handles `export ... from "s"`, `export * from "s"` and
// `export * as ns from "s"`. Exports without a source clause are not
// specifiers; their declarations may still contain dynamic imports, so the
// walk continues into children.
func (e *JSExtractor) extractExport(ctx *ExtractionContext, node *sitter.Node) bool {
	src := ctx.ChildOfKind(node, "string")
	if src == nil {
		return false
	}

	kind := KindReExport
	if ctx.HasChildOfKind(node, "type") {
		kind = KindTypeOnly
	}

	ctx.AppendSpecifier(trimQuoted(ctx.Text(src)), kind, src)
	return true
}

// extractCall handles `import("s")` and `require("s")`. Only plain string
// literals count; template strings and computed arguments are skipped without
// a warning.
func (e *JSExtractor) extractCall(ctx *ExtractionContext, node *sitter.Node) bool {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return false
	}

	var kind SpecifierKind
	switch {
	case fn.Kind() == "import":
		kind = KindDynamic
	case fn.Kind() == "identifier" && ctx.Text(fn) == "require":
		kind = KindRequire
	default:
		return false
	}

	args := node.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return false
	}
	first := args.NamedChild(0)
	if first == nil || first.Kind() != "string" {
		return false
	}

	ctx.AppendSpecifier(trimQuoted(ctx.Text(first)), kind, first)
	return false
}
