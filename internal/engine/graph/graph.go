// # internal/engine/graph/graph.go
package graph

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"orphan/internal/core/errors"
	"orphan/internal/engine/cache"
	"orphan/internal/engine/parser"
	"orphan/internal/engine/resolver"
	"orphan/internal/shared/observability"
)

// Engine owns the reachability computation. It drives the parser through the
// module cache, resolves every extracted specifier, and propagates
// reachability in parallel waves until the frontier is empty.
type Engine struct {
	projectFiles map[string]bool
	resolver     *resolver.Resolver
	cache        *cache.ModuleCache
	warnings     *Warnings
	threads      int
	skipTypeOnly bool
}

type Option func(*Engine)

// WithThreads caps per-wave parallelism; values below one fall back to one.
func WithThreads(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.threads = n
		}
	}
}

// WithTypeOnlyElision drops `import type` edges from reachability. The
// default keeps them reachable, the conservative reading of "unused".
func WithTypeOnlyElision() Option {
	return func(e *Engine) { e.skipTypeOnly = true }
}

func NewEngine(projectFiles map[string]bool, res *resolver.Resolver, mc *cache.ModuleCache, warnings *Warnings, opts ...Option) *Engine {
	e := &Engine{
		projectFiles: projectFiles,
		resolver:     res,
		cache:        mc,
		warnings:     warnings,
		threads:      1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FindReachable computes the transitive closure of Internal resolutions from
// the entry files. Cancellation is honored at wave boundaries; workers within
// a wave run to completion.
func (e *Engine) FindReachable(ctx context.Context, entries []string) (map[string]bool, error) {
	reachable := make(map[string]bool, len(e.projectFiles))
	entrySet := make(map[string]bool, len(entries))

	var frontier []string
	for _, entry := range entries {
		if !entrySet[entry] {
			entrySet[entry] = true
			frontier = append(frontier, entry)
			reachable[entry] = true
		}
	}

	var mu sync.Mutex
	firstWave := true

	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.CodeCanceled, "analysis canceled at wave boundary")
		}

		started := time.Now()
		var next []string

		var g errgroup.Group
		g.SetLimit(e.threads)

		for _, file := range frontier {
			g.Go(func() error {
				return e.processFile(file, entrySet[file] && firstWave, reachable, &next, &mu)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		observability.WavesTotal.Inc()
		observability.WaveDuration.Observe(time.Since(started).Seconds())

		frontier = next
		firstWave = false
	}

	return reachable, nil
}

// processFile parses one file and test-and-inserts each Internal target into
// the reachable set, appending fresh paths to the next frontier. isEntry
// makes read failures fatal; everywhere else they are dropped edges.
func (e *Engine) processFile(file string, isEntry bool, reachable map[string]bool, next *[]string, mu *sync.Mutex) error {
	module, err := e.cache.GetOrParse(file)
	if err != nil {
		if errors.IsCode(err, errors.CodeIO) {
			if isEntry {
				return errors.Wrap(err, errors.CodeConfig, fmt.Sprintf("entry file %s is unreadable", file))
			}
			e.warnings.Add(errors.CodeIO, file, "file could not be read; its imports were dropped")
			return nil
		}
		// Parse failures mark the file as having zero specifiers.
		e.warnings.Add(errors.CodeParse, file, err.Error())
		return nil
	}

	for _, spec := range module.Specifiers {
		if e.skipTypeOnly && spec.Kind == parser.KindTypeOnly {
			continue
		}

		target := e.resolver.Resolve(file, spec.Raw)
		switch target.Kind {
		case resolver.TargetInternal:
			e.markReachable(target.Path, reachable, next, mu)
		case resolver.TargetForeign:
			e.warnings.Add(errors.CodeResolve, "",
				fmt.Sprintf("imports of %s assets are resolved but not analyzed", target.Extension))
		case resolver.TargetUnresolved:
			e.warnings.Add(errors.CodeResolve, file,
				fmt.Sprintf("unresolved specifier %q: %s", spec.Raw, target.Reason))
		case resolver.TargetExternal:
			// Installed packages are outside the project file set.
		}
	}
	return nil
}

func (e *Engine) markReachable(path string, reachable map[string]bool, next *[]string, mu *sync.Mutex) {
	if canonical, err := filepath.EvalSymlinks(path); err == nil {
		path = canonical
	}
	if !e.projectFiles[path] {
		return
	}

	mu.Lock()
	defer mu.Unlock()
	if reachable[path] {
		return
	}
	reachable[path] = true
	*next = append(*next, path)
}

// FindUnused returns the project files no entry reaches, sorted
// lexicographically for reproducibility.
func (e *Engine) FindUnused(ctx context.Context, entries []string) ([]string, error) {
	reachable, err := e.FindReachable(ctx, entries)
	if err != nil {
		return nil, err
	}

	var unused []string
	for path := range e.projectFiles {
		if !reachable[path] {
			unused = append(unused, path)
		}
	}
	sort.Strings(unused)
	return unused, nil
}
