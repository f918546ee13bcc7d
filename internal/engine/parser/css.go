// # internal/engine/parser/css.go
package parser

import (
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// CSSExtractor pulls stylesheet references out of CSS and SCSS sources.
// @import is a first-class node in the CSS grammar; the SCSS-only @use and
// @forward rules surface as generic at_rules and are matched by keyword.
type CSSExtractor struct{}

func NewCSSExtractor() *CSSExtractor {
	return &CSSExtractor{}
}

func (e *CSSExtractor) Extract(root *sitter.Node, source []byte, filePath string) (*Module, error) {
	module := &Module{
		Path:     filePath,
		Language: "css",
		ParsedAt: time.Now(),
	}

	ctx := &ExtractionContext{Source: source, Module: module}
	engine := NewExtractorEngine(map[string]NodeHandler{
		"import_statement": e.extractImport,
		"at_rule":          e.extractAtRule,
		"call_expression":  e.extractURL,
	})
	engine.Walk(ctx, root)

	return module, nil
}

func (e *CSSExtractor) extractImport(ctx *ExtractionContext, node *sitter.Node) bool {
	e.extractTarget(ctx, node)
	return true
}

func (e *CSSExtractor) extractAtRule(ctx *ExtractionContext, node *sitter.Node) bool {
	keyword := ctx.ChildOfKind(node, "at_keyword")
	if keyword == nil {
		return false
	}
	switch ctx.Text(keyword) {
	case "@use", "@forward", "@import":
		e.extractTarget(ctx, node)
		return true
	}
	return false
}

// extractTarget records the first quoted string or url() argument below node.
// SCSS `@use "a" as b` keeps only the string.
func (e *CSSExtractor) extractTarget(ctx *ExtractionContext, node *sitter.Node) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "string_value":
			ctx.AppendSpecifier(trimQuoted(ctx.Text(child)), KindStyleUse, child)
			return
		case "call_expression":
			if e.extractURL(ctx, child) {
				return
			}
		}
	}
}

// extractURL handles url(...) both inside @import and in property values
// (fonts, background images). Data URIs and remote URLs are skipped.
func (e *CSSExtractor) extractURL(ctx *ExtractionContext, node *sitter.Node) bool {
	name := ctx.ChildOfKind(node, "function_name")
	if name == nil || ctx.Text(name) != "url" {
		return false
	}
	args := ctx.ChildOfKind(node, "arguments")
	if args == nil {
		return false
	}
	for i := uint(0); i < args.ChildCount(); i++ {
		child := args.Child(i)
		if child.Kind() != "string_value" && child.Kind() != "plain_value" {
			continue
		}
		target := trimQuoted(ctx.Text(child))
		if target == "" || strings.Contains(target, "://") || strings.HasPrefix(target, "data:") {
			return false
		}
		// Strip fragment/query suffixes used for font formats.
		if idx := strings.IndexAny(target, "?#"); idx != -1 {
			target = target[:idx]
		}
		ctx.AppendSpecifier(target, KindStyleUse, child)
		return true
	}
	return false
}
