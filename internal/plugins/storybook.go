// # internal/plugins/storybook.go
package plugins

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"orphan/internal/core/errors"
)

// StorybookPlugin marks story files as entry points: Storybook loads them by
// glob, so nothing imports them, yet the components they reference are live.
type StorybookPlugin struct{}

func NewStorybookPlugin() *StorybookPlugin {
	return &StorybookPlugin{}
}

func (p *StorybookPlugin) Name() string {
	return "storybook"
}

func (p *StorybookPlugin) ShouldEnable(cwd string, deps map[string]bool) bool {
	if deps["storybook"] {
		return true
	}
	for dep := range deps {
		if strings.HasPrefix(dep, "@storybook/") {
			return true
		}
	}
	return false
}

var storybookConfigNames = []string{
	"main.js", "main.ts", "main.mjs", "main.cjs", "main.mts", "main.cts",
}

func storybookDefaultPatterns() []string {
	return []string{
		"**/*.stories.ts",
		"**/*.stories.tsx",
		"**/*.stories.js",
		"**/*.stories.jsx",
		"**/*.stories.mjs",
		"**/*.stories.cjs",
		"**/*.stories.mdx",
		"**/*.story.ts",
		"**/*.story.tsx",
		"**/*.story.js",
		"**/*.story.jsx",
	}
}

func (p *StorybookPlugin) DetectEntries(cwd string) ([]string, error) {
	storybookDir := filepath.Join(cwd, ".storybook")

	patterns := storybookDefaultPatterns()
	if configPath := firstExisting(storybookDir, storybookConfigNames...); configPath != "" {
		if parsed, err := parseStoriesPatterns(configPath); err == nil && len(parsed) > 0 {
			patterns = parsed
		}
	}

	// Config patterns are relative to .storybook; defaults and absolute-ish
	// patterns are relative to the project root.
	var rels []string
	for _, pattern := range patterns {
		pattern = convertStorybookGlob(pattern)
		base := cwd
		if strings.HasPrefix(pattern, "./") || strings.HasPrefix(pattern, "../") {
			base = storybookDir
		}
		full := filepath.Join(base, filepath.FromSlash(pattern))
		rel, err := filepath.Rel(cwd, full)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		rels = append(rels, filepath.ToSlash(rel))
	}

	return expandPatterns(cwd, rels)
}

var storybookAltGroup = regexp.MustCompile(`@\(([^)]+)\)`)

// convertStorybookGlob rewrites Storybook's @(a|b) alternation into {a,b}
// brace syntax. Each pass rewrites from a group's "@(" to the next ")";
// passes repeat until nothing changes, which also converts nested groups.
func convertStorybookGlob(pattern string) string {
	for {
		next := storybookAltGroup.ReplaceAllStringFunc(pattern, func(group string) string {
			inner := group[2 : len(group)-1]
			return "{" + strings.ReplaceAll(inner, "|", ",") + "}"
		})
		if next == pattern {
			return next
		}
		pattern = next
	}
}

// parseStoriesPatterns extracts the `stories` array from a Storybook main
// config. The pair is matched anywhere in the tree, which covers
// `export default {}`, `module.exports = {}`, `defineConfig({})` and
// variable indirection in one pass.
func parseStoriesPatterns(configPath string) ([]string, error) {
	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodePlugin, "reading storybook config")
	}

	lang := sitter.NewLanguage(tree_sitter_javascript.Language())
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".ts", ".mts", ".cts":
		lang = sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	}

	sp := sitter.NewParser()
	defer sp.Close()
	sp.SetLanguage(lang)

	tree := sp.Parse(content, nil)
	if tree == nil {
		return nil, errors.New(errors.CodePlugin, "failed to parse storybook config")
	}
	defer tree.Close()

	var patterns []string
	walkStoriesPairs(tree.RootNode(), content, &patterns)
	return patterns, nil
}

func walkStoriesPairs(node *sitter.Node, source []byte, patterns *[]string) {
	if node == nil {
		return
	}
	if node.Kind() == "pair" && pairKey(node, source) == "stories" {
		if value := node.ChildByFieldName("value"); value != nil {
			collectStoryPatterns(value, source, patterns)
		}
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		walkStoriesPairs(node.Child(i), source, patterns)
	}
}

func pairKey(node *sitter.Node, source []byte) string {
	key := node.ChildByFieldName("key")
	if key == nil {
		return ""
	}
	text := string(source[key.StartByte():key.EndByte()])
	return strings.Trim(text, "\"'`")
}

// collectStoryPatterns accepts a single string, an array of strings, or
// Storybook's `{ directory, files }` object form.
func collectStoryPatterns(node *sitter.Node, source []byte, patterns *[]string) {
	switch node.Kind() {
	case "array":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			collectStoryPatterns(node.NamedChild(i), source, patterns)
		}
	case "string":
		text := strings.Trim(string(source[node.StartByte():node.EndByte()]), "\"'")
		if text != "" {
			*patterns = append(*patterns, text)
		}
	case "template_string":
		text := string(source[node.StartByte():node.EndByte()])
		if !strings.Contains(text, "${") {
			if trimmed := strings.Trim(text, "`"); trimmed != "" {
				*patterns = append(*patterns, trimmed)
			}
		}
	case "object":
		var directory, files string
		for i := uint(0); i < node.NamedChildCount(); i++ {
			pair := node.NamedChild(i)
			if pair.Kind() != "pair" {
				continue
			}
			value := pair.ChildByFieldName("value")
			if value == nil || value.Kind() != "string" {
				continue
			}
			text := strings.Trim(string(source[value.StartByte():value.EndByte()]), "\"'")
			switch pairKey(pair, source) {
			case "directory":
				directory = text
			case "files":
				files = text
			}
		}
		switch {
		case directory != "" && files != "":
			*patterns = append(*patterns, directory+"/"+files)
		case directory != "":
			*patterns = append(*patterns, directory+"/**/*.stories.@(js|jsx|ts|tsx)")
		case files != "":
			*patterns = append(*patterns, files)
		}
	}
}
