// # internal/plugins/vitest.go
package plugins

import (
	"path/filepath"
)

// VitestPlugin mirrors JestPlugin for vitest projects, additionally keeping
// the vite/vitest config files alive.
type VitestPlugin struct{}

func NewVitestPlugin() *VitestPlugin {
	return &VitestPlugin{}
}

func (p *VitestPlugin) Name() string {
	return "vitest"
}

func (p *VitestPlugin) ShouldEnable(cwd string, deps map[string]bool) bool {
	return deps["vitest"]
}

var vitestConfigNames = []string{
	"vitest.config.ts", "vitest.config.js", "vitest.config.mts", "vitest.config.mjs",
	"vitest.setup.ts", "vitest.setup.js",
	"vite.config.ts", "vite.config.js", "vite.config.mts", "vite.config.mjs",
}

func (p *VitestPlugin) DetectEntries(cwd string) ([]string, error) {
	entries, err := expandPatterns(cwd, []string{
		"**/*.test.{js,jsx,ts,tsx,mjs,cjs,mts,cts}",
		"**/*.spec.{js,jsx,ts,tsx,mjs,cjs,mts,cts}",
		"**/*.bench.{js,ts,jsx,tsx}",
	})
	if err != nil {
		return nil, err
	}

	for _, name := range vitestConfigNames {
		if path := firstExisting(cwd, name); path != "" {
			entries = append(entries, filepath.Clean(path))
		}
	}
	return entries, nil
}
