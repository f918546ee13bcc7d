// # internal/core/app/app.go
package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"orphan/internal/core/config"
	"orphan/internal/core/errors"
	"orphan/internal/data/history"
	"orphan/internal/engine/cache"
	"orphan/internal/engine/collector"
	"orphan/internal/engine/graph"
	"orphan/internal/engine/parser"
	"orphan/internal/engine/resolver"
	"orphan/internal/plugins"
	"orphan/internal/shared/observability"
	"orphan/internal/shared/util"
)

// App wires the collector, plugins, parser, resolver, module cache and graph
// engine for one analysis invocation.
type App struct {
	cfg *config.Config
}

func New(cfg *config.Config) *App {
	return &App{cfg: cfg}
}

// Analyze runs the full pipeline and returns the unused-file report.
func (a *App) Analyze(ctx context.Context) (*Report, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.Analyze")
	defer span.End()

	started := time.Now()
	runID := uuid.NewString()
	slog.Debug("analysis starting", "run_id", runID, "cwd", a.cfg.Cwd)

	run, err := a.prepare(ctx)
	if err != nil {
		return nil, err
	}

	unused, err := run.engine.FindUnused(ctx, run.entries)
	if err != nil {
		return nil, err
	}

	rels := make([]string, 0, len(unused))
	for _, path := range unused {
		rels = append(rels, util.RelativeTo(run.cwd, path))
	}
	sort.Strings(rels)

	elapsed := time.Since(started)
	observability.FilesCollected.Set(float64(len(run.project)))
	observability.UnusedFiles.Set(float64(len(rels)))
	observability.AnalysisDuration.Observe(elapsed.Seconds())
	slog.Debug("analysis finished",
		"run_id", runID,
		"total", len(run.project),
		"unused", len(rels),
		"parses", run.moduleCache.ParseCount(),
		"elapsed", elapsed,
	)

	report := NewReport(rels, len(run.project), run.warnings.Drain(), runID, elapsed)
	a.recordHistory(run.cwd, report)
	return report, nil
}

// recordHistory persists one snapshot when the history store is enabled.
// Failures are logged, never fatal.
func (a *App) recordHistory(cwd string, report *Report) {
	if !a.cfg.History.Enabled {
		return
	}
	path := a.cfg.History.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(cwd, path)
	}

	store, err := history.Open(path)
	if err != nil {
		slog.Warn("history store unavailable", "path", path, "error", err)
		return
	}
	defer store.Close()

	err = store.SaveSnapshot(history.Snapshot{
		RunID:       report.RunID,
		Timestamp:   time.Now().UTC(),
		Cwd:         cwd,
		TotalFiles:  report.TotalFiles,
		UnusedCount: report.UnusedCount,
		Warnings:    len(report.Warnings),
		DurationMS:  report.Elapsed.Milliseconds(),
	})
	if err != nil {
		slog.Warn("failed to record history snapshot", "error", err)
	}
}

// FindReachable is the reachability variant: the sorted relative list of
// files reachable from the entry set.
func (a *App) FindReachable(ctx context.Context) ([]string, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.FindReachable")
	defer span.End()

	run, err := a.prepare(ctx)
	if err != nil {
		return nil, err
	}

	reachable, err := run.engine.FindReachable(ctx, run.entries)
	if err != nil {
		return nil, err
	}

	rels := make([]string, 0, len(reachable))
	for path := range reachable {
		rels = append(rels, util.RelativeTo(run.cwd, path))
	}
	sort.Strings(rels)
	return rels, nil
}

// run is the assembled per-invocation state.
type run struct {
	cwd         string
	project     map[string]bool
	entries     []string
	engine      *graph.Engine
	moduleCache *cache.ModuleCache
	warnings    *graph.Warnings
}

func (a *App) prepare(ctx context.Context) (*run, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}

	cwd := a.cfg.Cwd
	deps := DetectDependencies(cwd)
	styles := a.stylesEnabled(deps)

	codeParser := parser.NewParser(parser.NewGrammarLoader(styles, a.cfg.Compilers.Extensions...))

	var collectOpts []collector.Option
	if a.cfg.IncludeNodeModules {
		collectOpts = append(collectOpts, collector.WithNodeModules())
	}
	if a.cfg.Scan.ThrottleFilesPerSec > 0 {
		collectOpts = append(collectOpts, collector.WithThrottle(a.cfg.Scan.ThrottleFilesPerSec))
	}

	col, err := collector.New(cwd, a.cfg.Entry, a.cfg.Project, a.cfg.Ignore, codeParser.IsParseablePath, collectOpts...)
	if err != nil {
		return nil, err
	}

	collectCtx, collectSpan := observability.Tracer.Start(ctx, "collector.Collect")
	index, err := col.Collect(collectCtx)
	collectSpan.End()
	if err != nil {
		return nil, err
	}

	warnings := graph.NewWarnings()

	_, pluginSpan := observability.Tracer.Start(ctx, "plugins.DetectAllEntries")
	discovered, failures := a.pluginRegistry(deps).DetectAllEntries(col.Cwd())
	pluginSpan.End()
	for name, failure := range failures {
		warnings.Add(errors.CodePlugin, "", name+": "+failure.Error())
	}
	for _, entry := range col.FilterEntries(discovered) {
		index.EntryFiles[entry] = true
	}

	pathMap, err := resolver.LoadPathMap(col.Cwd())
	if err != nil {
		warnings.Add(errors.CodeConfig, "", "tsconfig.json paths were ignored: "+err.Error())
	}

	resolveOpts := []resolver.Option{}
	if a.cfg.IncludeNodeModules {
		resolveOpts = append(resolveOpts, resolver.WithNodeModules())
	}
	if styles {
		resolveOpts = append(resolveOpts, resolver.WithStyles())
	}
	if pathMap != nil {
		resolveOpts = append(resolveOpts, resolver.WithPathMap(pathMap))
	}
	res := resolver.New(col.Cwd(), resolveOpts...)

	moduleCache := cache.NewModuleCache(func(path string) (*parser.Module, error) {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeIO, "reading file")
		}
		return codeParser.ParseFile(path, content)
	})

	engine := graph.NewEngine(index.ProjectFiles, res, moduleCache, warnings,
		graph.WithThreads(a.cfg.Threads))

	entries := make([]string, 0, len(index.EntryFiles))
	for entry := range index.EntryFiles {
		entries = append(entries, entry)
	}
	sort.Strings(entries)

	observability.EntryFiles.Set(float64(len(entries)))

	return &run{
		cwd:         col.Cwd(),
		project:     index.ProjectFiles,
		entries:     entries,
		engine:      engine,
		moduleCache: moduleCache,
		warnings:    warnings,
	}, nil
}

// stylesEnabled applies the config pin, falling back to dependency
// auto-detection the way plugins do.
func (a *App) stylesEnabled(deps map[string]bool) bool {
	if a.cfg.Compilers.Scss != nil {
		return *a.cfg.Compilers.Scss
	}
	return deps["sass"] || deps["sass-embedded"] || deps["node-sass"]
}

// pluginRegistry applies config pins, falling back to each plugin's own
// dependency detection.
func (a *App) pluginRegistry(deps map[string]bool) *plugins.Registry {
	reg := plugins.NewRegistry()
	pin := func(p plugins.Plugin, pinned *bool) {
		enabled := p.ShouldEnable(a.cfg.Cwd, deps)
		if pinned != nil {
			enabled = *pinned
		}
		if enabled {
			reg.Register(p)
		}
	}
	pin(plugins.NewStorybookPlugin(), a.cfg.Plugins.Storybook)
	pin(plugins.NewJestPlugin(), a.cfg.Plugins.Jest)
	pin(plugins.NewVitestPlugin(), a.cfg.Plugins.Vitest)
	pin(plugins.NewNextjsPlugin(), a.cfg.Plugins.Nextjs)
	return reg
}
