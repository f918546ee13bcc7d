// # internal/engine/collector/collector.go
package collector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"orphan/internal/core/errors"
	"orphan/internal/shared/util"
)

// ProjectIndex is the outcome of one filesystem walk: the fixed project set
// and the initial entry set. Both hold canonical absolute paths.
type ProjectIndex struct {
	EntryFiles   map[string]bool
	ProjectFiles map[string]bool
}

// matcherSet is a list of compiled globs; a path matches when any glob does.
type matcherSet []glob.Glob

func (m matcherSet) Match(rel string) bool {
	for _, g := range m {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// compileMatchers expands brace alternations and compiles each pattern once.
// The '/' separator keeps single stars within one path segment.
func compileMatchers(patterns []string) (matcherSet, error) {
	var set matcherSet
	for _, pattern := range patterns {
		for _, expanded := range util.ExpandBraces(util.NormalizePatternPath(pattern)) {
			for _, variant := range util.GlobVariants(expanded) {
				g, err := glob.Compile(variant, '/')
				if err != nil {
					return nil, errors.Wrap(err, errors.CodeConfig, fmt.Sprintf("invalid glob pattern %q", pattern))
				}
				set = append(set, g)
			}
		}
	}
	return set, nil
}

// Collector enumerates project and entry files in a single recursive walk.
type Collector struct {
	cwd       string
	entry     matcherSet
	project   matcherSet
	ignore    matcherSet
	parseable func(path string) bool

	includeNodeModules bool
	limiter            *util.Limiter
}

type Option func(*Collector)

// WithNodeModules includes node_modules directories in the walk.
func WithNodeModules() Option {
	return func(c *Collector) { c.includeNodeModules = true }
}

// WithThrottle caps the walk at roughly filesPerSec filesystem entries per
// second, for repositories on contended network mounts.
func WithThrottle(filesPerSec float64) Option {
	return func(c *Collector) {
		if filesPerSec > 0 {
			c.limiter = util.NewLimiter(filesPerSec, int(filesPerSec)+1)
		}
	}
}

// New compiles the matchers. cwd must exist; parseable decides which project
// matches have an extension worth parsing (foreign files are resolvable
// import targets but are never candidates for "unused").
func New(cwd string, entryPatterns, projectPatterns, ignorePatterns []string, parseable func(string) bool, opts ...Option) (*Collector, error) {
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfig, "resolving working directory")
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfig, fmt.Sprintf("working directory %q", cwd))
	}

	entry, err := compileMatchers(entryPatterns)
	if err != nil {
		return nil, err
	}
	project, err := compileMatchers(projectPatterns)
	if err != nil {
		return nil, err
	}
	ignore, err := compileMatchers(ignorePatterns)
	if err != nil {
		return nil, err
	}

	c := &Collector{
		cwd:       canonical,
		entry:     entry,
		project:   project,
		ignore:    ignore,
		parseable: parseable,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Cwd returns the canonicalized working directory.
func (c *Collector) Cwd() string {
	return c.cwd
}

// Collect walks the tree once, categorizing every file. Symlinked
// directories are followed with a visited set to break cycles. It is a
// CONFIG_ERROR when no entry pattern matched any file.
func (c *Collector) Collect(ctx context.Context) (*ProjectIndex, error) {
	index := &ProjectIndex{
		EntryFiles:   make(map[string]bool),
		ProjectFiles: make(map[string]bool),
	}
	visited := map[string]bool{c.cwd: true}

	if err := c.walk(ctx, c.cwd, visited, index); err != nil {
		return nil, err
	}

	if len(index.EntryFiles) == 0 {
		return nil, errors.New(errors.CodeConfig, "no entry files matched the entry patterns")
	}
	return index, nil
}

func (c *Collector) walk(ctx context.Context, dir string, visited map[string]bool, index *ProjectIndex) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		// Unreadable subtrees are skipped, not fatal; the root was validated
		// during construction.
		if dir == c.cwd {
			return errors.Wrap(err, errors.CodeConfig, fmt.Sprintf("reading working directory %q", dir))
		}
		return nil
	}

	for _, entry := range entries {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx, 1); err != nil {
				return errors.Wrap(err, errors.CodeCanceled, "collection canceled")
			}
		}

		path := filepath.Join(dir, entry.Name())

		info := entry.Type()
		isDir := entry.IsDir()
		if info&os.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil {
				continue
			}
			stat, err := os.Stat(resolved)
			if err != nil {
				continue
			}
			if stat.IsDir() {
				if visited[resolved] {
					continue
				}
				visited[resolved] = true
				isDir = true
			}
		}

		if isDir {
			if entry.Name() == "node_modules" && !c.includeNodeModules {
				continue
			}
			rel := util.RelativeTo(c.cwd, path)
			if c.ignore.Match(rel) {
				continue
			}
			if info&os.ModeSymlink == 0 {
				if visited[path] {
					continue
				}
				visited[path] = true
			}
			if err := c.walk(ctx, path, visited, index); err != nil {
				return err
			}
			continue
		}

		c.record(path, index)
	}
	return nil
}

func (c *Collector) record(path string, index *ProjectIndex) {
	rel := util.RelativeTo(c.cwd, path)
	if c.ignore.Match(rel) {
		return
	}

	isProject := c.project.Match(rel) && (c.parseable == nil || c.parseable(path))
	isEntry := c.entry.Match(rel)
	if !isProject && !isEntry {
		return
	}

	canonical, err := filepath.EvalSymlinks(path)
	if err != nil {
		return
	}
	if isProject {
		index.ProjectFiles[canonical] = true
	}
	if isEntry {
		index.EntryFiles[canonical] = true
	}
}

// FilterEntries re-runs plugin-contributed paths through the ignore matcher
// and canonicalizes survivors; discovery output joins the entry set only
// through here.
func (c *Collector) FilterEntries(paths []string) []string {
	var out []string
	for _, path := range paths {
		if !filepath.IsAbs(path) {
			path = filepath.Join(c.cwd, path)
		}
		rel, err := filepath.Rel(c.cwd, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		rel = filepath.ToSlash(rel)
		if c.ignore.Match(rel) {
			continue
		}
		canonical, err := filepath.EvalSymlinks(path)
		if err != nil {
			continue
		}
		out = append(out, canonical)
	}
	return out
}
