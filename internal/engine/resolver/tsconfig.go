// # internal/engine/resolver/tsconfig.go
package resolver

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tailscale/hujson"
)

// PathMap implements tsconfig `compilerOptions.paths` expansion: pattern keys
// with at most one trailing `*`, each mapped to one or more base paths
// relative to baseUrl.
type PathMap struct {
	baseDir  string
	patterns []pathPattern
}

type pathPattern struct {
	prefix   string // pattern with the trailing * removed; exact match if wildcard is false
	wildcard bool
	targets  []string
}

type tsconfigFile struct {
	CompilerOptions struct {
		BaseURL string              `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

// LoadPathMap reads tsconfig.json from dir. Absent or unreadable config
// yields a nil map; tsconfig files are JSONC, comments and trailing commas
// are standardized away before decoding.
func LoadPathMap(dir string) (*PathMap, error) {
	raw, err := os.ReadFile(filepath.Join(dir, "tsconfig.json"))
	if err != nil {
		return nil, nil
	}

	standardized, err := hujson.Standardize(raw)
	if err != nil {
		return nil, err
	}

	var cfg tsconfigFile
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.CompilerOptions.Paths) == 0 {
		return nil, nil
	}

	baseDir := dir
	if cfg.CompilerOptions.BaseURL != "" {
		baseDir = filepath.Join(dir, filepath.FromSlash(cfg.CompilerOptions.BaseURL))
	}

	pm := &PathMap{baseDir: baseDir}
	for pattern, targets := range cfg.CompilerOptions.Paths {
		wildcard := strings.HasSuffix(pattern, "*")
		pm.patterns = append(pm.patterns, pathPattern{
			prefix:   strings.TrimSuffix(pattern, "*"),
			wildcard: wildcard,
			targets:  targets,
		})
	}
	// Longest prefix first so the most specific pattern wins.
	sort.Slice(pm.patterns, func(i, j int) bool {
		return len(pm.patterns[i].prefix) > len(pm.patterns[j].prefix)
	})

	return pm, nil
}

// NewPathMap builds a PathMap from explicit patterns, for tests and embedders.
func NewPathMap(baseDir string, paths map[string][]string) *PathMap {
	pm := &PathMap{baseDir: baseDir}
	for pattern, targets := range paths {
		wildcard := strings.HasSuffix(pattern, "*")
		pm.patterns = append(pm.patterns, pathPattern{
			prefix:   strings.TrimSuffix(pattern, "*"),
			wildcard: wildcard,
			targets:  targets,
		})
	}
	sort.Slice(pm.patterns, func(i, j int) bool {
		return len(pm.patterns[i].prefix) > len(pm.patterns[j].prefix)
	})
	return pm
}

// Expand returns the absolute candidate paths for specifier, in pattern
// order. An empty slice means no pattern matched.
func (pm *PathMap) Expand(specifier string) []string {
	if pm == nil {
		return nil
	}

	var out []string
	for _, p := range pm.patterns {
		if p.wildcard {
			if !strings.HasPrefix(specifier, p.prefix) {
				continue
			}
			rest := strings.TrimPrefix(specifier, p.prefix)
			for _, target := range p.targets {
				expanded := strings.Replace(target, "*", rest, 1)
				out = append(out, filepath.Join(pm.baseDir, filepath.FromSlash(expanded)))
			}
		} else if specifier == p.prefix {
			for _, target := range p.targets {
				out = append(out, filepath.Join(pm.baseDir, filepath.FromSlash(target)))
			}
		}
	}
	return out
}
