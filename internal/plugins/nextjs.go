// # internal/plugins/nextjs.go
package plugins

import (
	"path/filepath"
)

// NextjsPlugin covers Next.js's file-system routing: pages, app-router
// segments and root-level framework files are loaded by convention, never
// imported.
type NextjsPlugin struct{}

func NewNextjsPlugin() *NextjsPlugin {
	return &NextjsPlugin{}
}

func (p *NextjsPlugin) Name() string {
	return "nextjs"
}

func (p *NextjsPlugin) ShouldEnable(cwd string, deps map[string]bool) bool {
	return deps["next"]
}

var nextjsRootFiles = []string{
	"next.config.js", "next.config.mjs", "next.config.ts",
	"middleware.ts", "middleware.js",
	"instrumentation.ts", "instrumentation.js",
}

func (p *NextjsPlugin) DetectEntries(cwd string) ([]string, error) {
	entries, err := expandPatterns(cwd, []string{
		"pages/**/*.{js,jsx,ts,tsx}",
		"app/**/*.{js,jsx,ts,tsx}",
		"src/pages/**/*.{js,jsx,ts,tsx}",
		"src/app/**/*.{js,jsx,ts,tsx}",
	})
	if err != nil {
		return nil, err
	}

	for _, name := range nextjsRootFiles {
		if path := firstExisting(cwd, name); path != "" {
			entries = append(entries, filepath.Clean(path))
		}
	}
	return entries, nil
}
