// # internal/plugins/plugin.go
package plugins

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"orphan/internal/shared/observability"
	"orphan/internal/shared/util"
)

// Plugin discovers additional entry points from tool-specific configuration.
type Plugin interface {
	// Name is the plugin identifier used in config pins and warnings.
	Name() string

	// ShouldEnable reports whether the plugin applies to this project,
	// based on its declared dependencies and, for some plugins, config
	// files present in cwd.
	ShouldEnable(cwd string, deps map[string]bool) bool

	// DetectEntries returns absolute paths of files that should seed
	// reachability.
	DetectEntries(cwd string) ([]string, error)
}

// Registry holds the enabled plugins for one analysis.
type Registry struct {
	plugins []Plugin
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.plugins))
	for _, p := range r.plugins {
		names = append(names, p.Name())
	}
	return names
}

// DetectAllEntries collects every plugin's entries. A failing plugin
// contributes nothing; its error is returned for the caller's warning sink.
func (r *Registry) DetectAllEntries(cwd string) ([]string, map[string]error) {
	var all []string
	failures := make(map[string]error)

	for _, p := range r.plugins {
		entries, err := p.DetectEntries(cwd)
		if err != nil {
			slog.Warn("plugin failed", "plugin", p.Name(), "error", err)
			failures[p.Name()] = err
			continue
		}
		observability.PluginEntriesTotal.WithLabelValues(p.Name()).Add(float64(len(entries)))
		all = append(all, entries...)
	}

	return all, failures
}

// expandPatterns walks cwd once and returns the files matching any of the
// relative glob patterns. node_modules and VCS metadata are skipped; patterns
// escaping cwd are dropped.
func expandPatterns(cwd string, patterns []string) ([]string, error) {
	var matchers []glob.Glob
	for _, pattern := range patterns {
		rel := util.NormalizePatternPath(pattern)
		if rel == "" || strings.HasPrefix(rel, "..") {
			continue
		}
		for _, expanded := range util.ExpandBraces(rel) {
			for _, variant := range util.GlobVariants(expanded) {
				g, err := glob.Compile(variant, '/')
				if err != nil {
					return nil, err
				}
				matchers = append(matchers, g)
			}
		}
	}
	if len(matchers) == 0 {
		return nil, nil
	}

	var out []string
	err := filepath.WalkDir(cwd, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			name := d.Name()
			if name == "node_modules" || name == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(cwd, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		for _, g := range matchers {
			if g.Match(rel) {
				out = append(out, path)
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// firstExisting returns the first path in candidates that exists under dir.
func firstExisting(dir string, candidates ...string) string {
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}
