// # internal/engine/parser/parser.go
package parser

import (
	"fmt"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"orphan/internal/core/errors"
	"orphan/internal/shared/observability"
)

type Parser struct {
	loader     *GrammarLoader
	pools      map[string]*ParserPool
	extractors map[string]Extractor
}

type Extractor interface {
	Extract(node *sitter.Node, source []byte, filePath string) (*Module, error)
}

func NewParser(loader *GrammarLoader) *Parser {
	p := &Parser{
		loader:     loader,
		pools:      make(map[string]*ParserPool),
		extractors: make(map[string]Extractor),
	}
	for _, lang := range []string{"javascript", "typescript", "tsx"} {
		if grammar := loader.Language(lang); grammar != nil {
			p.pools[lang] = NewParserPool(grammar)
			p.extractors[lang] = NewJSExtractor(lang)
		}
	}
	if grammar := loader.Language("css"); grammar != nil {
		p.pools["css"] = NewParserPool(grammar)
		p.extractors["css"] = NewCSSExtractor()
	}
	return p
}

// ParseFile extracts the specifiers of one source file. A syntax error yields
// a PARSE_ERROR carrying the first error position; callers treat the file as
// having no specifiers.
func (p *Parser) ParseFile(path string, content []byte) (*Module, error) {
	lang := p.loader.LanguageForPath(path)
	if lang == "" {
		return nil, errors.New(errors.CodeParse, fmt.Sprintf("unsupported file type: %s", path))
	}

	pool := p.pools[lang]
	extractor := p.extractors[lang]
	if pool == nil || extractor == nil {
		return nil, errors.New(errors.CodeInternal, fmt.Sprintf("grammar not loaded: %s", lang))
	}

	started := time.Now()
	sp := pool.Get()
	defer pool.Put(sp)

	tree := sp.Parse(content, nil)
	if tree == nil {
		return nil, errors.New(errors.CodeParse, fmt.Sprintf("parse failed: %s", path))
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		line, col := firstErrorPosition(root)
		return nil, errors.New(errors.CodeParse,
			fmt.Sprintf("syntax error in %s at %d:%d", path, line, col))
	}

	module, err := extractor.Extract(root, content, path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParse, "extraction failed")
	}

	observability.ParsingDuration.WithLabelValues(lang).Observe(time.Since(started).Seconds())
	return module, nil
}

// IsParseablePath reports whether path maps to a loaded grammar.
func (p *Parser) IsParseablePath(path string) bool {
	return p.loader.LanguageForPath(path) != ""
}

func (p *Parser) SupportedExtensions() []string {
	return p.loader.SupportedExtensions()
}

// firstErrorPosition locates the first ERROR or missing node, 1-based.
func firstErrorPosition(node *sitter.Node) (int, int) {
	if node.IsError() || node.IsMissing() {
		pos := node.StartPosition()
		return int(pos.Row) + 1, int(pos.Column) + 1
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.HasError() || child.IsError() || child.IsMissing() {
			return firstErrorPosition(child)
		}
	}
	pos := node.StartPosition()
	return int(pos.Row) + 1, int(pos.Column) + 1
}
