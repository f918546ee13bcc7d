// # internal/plugins/jest.go
package plugins

import (
	"path/filepath"
)

// JestPlugin treats test files and the jest config itself as entry points:
// the runner discovers them by glob, so no import chain reaches them.
type JestPlugin struct{}

func NewJestPlugin() *JestPlugin {
	return &JestPlugin{}
}

func (p *JestPlugin) Name() string {
	return "jest"
}

func (p *JestPlugin) ShouldEnable(cwd string, deps map[string]bool) bool {
	if deps["jest"] || deps["@jest/core"] || deps["ts-jest"] {
		return true
	}
	return firstExisting(cwd, jestConfigNames...) != ""
}

var jestConfigNames = []string{
	"jest.config.js", "jest.config.ts", "jest.config.mjs", "jest.config.cjs",
	"jest.setup.js", "jest.setup.ts",
}

func (p *JestPlugin) DetectEntries(cwd string) ([]string, error) {
	entries, err := expandPatterns(cwd, []string{
		"**/*.test.{js,jsx,ts,tsx,mjs,cjs}",
		"**/*.spec.{js,jsx,ts,tsx,mjs,cjs}",
		"**/__tests__/**/*.{js,jsx,ts,tsx,mjs,cjs}",
		"**/__mocks__/**/*.{js,jsx,ts,tsx,mjs,cjs}",
	})
	if err != nil {
		return nil, err
	}

	for _, name := range jestConfigNames {
		if path := firstExisting(cwd, name); path != "" {
			entries = append(entries, filepath.Clean(path))
		}
	}
	return entries, nil
}
