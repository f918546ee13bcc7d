// # internal/engine/parser/loader.go
package parser

import (
	"sort"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_css "github.com/tree-sitter/tree-sitter-css/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// GrammarLoader owns the tree-sitter language grammars and the extension
// mapping used to pick one per file.
type GrammarLoader struct {
	languages  map[string]*sitter.Language
	extensions map[string]string
}

// NewGrammarLoader loads the JS/TS grammars and, when styles is true, the CSS
// grammar used for SCSS/CSS import extraction. passthrough extensions are
// parsed with the JavaScript grammar.
func NewGrammarLoader(styles bool, passthrough ...string) *GrammarLoader {
	gl := &GrammarLoader{
		languages: map[string]*sitter.Language{
			"javascript": sitter.NewLanguage(tree_sitter_javascript.Language()),
			"typescript": sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
			"tsx":        sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
		},
		extensions: map[string]string{
			".js":  "javascript",
			".jsx": "javascript",
			".mjs": "javascript",
			".cjs": "javascript",
			".ts":  "typescript",
			".mts": "typescript",
			".cts": "typescript",
			".tsx": "tsx",
		},
	}

	if styles {
		gl.languages["css"] = sitter.NewLanguage(tree_sitter_css.Language())
		gl.extensions[".css"] = "css"
		gl.extensions[".scss"] = "css"
		gl.extensions[".sass"] = "css"
	}

	for _, ext := range passthrough {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, exists := gl.extensions[ext]; !exists {
			gl.extensions[ext] = "javascript"
		}
	}

	return gl
}

func (gl *GrammarLoader) Language(id string) *sitter.Language {
	return gl.languages[id]
}

// LanguageForPath maps a file path to a grammar id, or "" when unsupported.
// The .d.ts suffix maps to typescript like any other .ts file.
func (gl *GrammarLoader) LanguageForPath(path string) string {
	lower := strings.ToLower(path)
	idx := strings.LastIndex(lower, ".")
	if idx == -1 {
		return ""
	}
	return gl.extensions[lower[idx:]]
}

func (gl *GrammarLoader) SupportedExtensions() []string {
	exts := make([]string, 0, len(gl.extensions))
	for ext := range gl.extensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
