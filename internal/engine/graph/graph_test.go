// # internal/engine/graph/graph_test.go
package graph

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"orphan/internal/core/errors"
	"orphan/internal/engine/cache"
	"orphan/internal/engine/parser"
	"orphan/internal/engine/resolver"
)

// fixture builds a temp project, returning canonical paths keyed by the
// relative names used to create them.
type fixture struct {
	root  string
	files map[string]string
}

func newFixture(t *testing.T, sources map[string]string) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{files: make(map[string]string)}
	for rel, content := range sources {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		canonical, err := filepath.EvalSymlinks(path)
		if err != nil {
			t.Fatal(err)
		}
		f.files[rel] = canonical
	}
	canonical, err := filepath.EvalSymlinks(root)
	if err != nil {
		t.Fatal(err)
	}
	f.root = canonical
	return f
}

func (f *fixture) projectSet(rels ...string) map[string]bool {
	set := make(map[string]bool, len(rels))
	for _, rel := range rels {
		set[f.files[rel]] = true
	}
	return set
}

func newEngine(t *testing.T, f *fixture, project map[string]bool, opts ...Option) (*Engine, *cache.ModuleCache, *Warnings) {
	t.Helper()
	p := parser.NewParser(parser.NewGrammarLoader(false))
	mc := cache.NewModuleCache(func(path string) (*parser.Module, error) {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeIO, "reading file")
		}
		return p.ParseFile(path, content)
	})
	warnings := NewWarnings()
	res := resolver.New(f.root)
	opts = append([]Option{WithThreads(4)}, opts...)
	return NewEngine(project, res, mc, warnings, opts...), mc, warnings
}

func TestFindUnusedChain(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.ts": `import "./b";`,
		"b.ts": `import "./c";`,
		"c.ts": ``,
		"d.ts": ``,
	})
	project := f.projectSet("a.ts", "b.ts", "c.ts", "d.ts")
	engine, mc, _ := newEngine(t, f, project)

	unused, err := engine.FindUnused(context.Background(), []string{f.files["a.ts"]})
	if err != nil {
		t.Fatal(err)
	}
	if len(unused) != 1 || unused[0] != f.files["d.ts"] {
		t.Errorf("Expected only d.ts unused, got %v", unused)
	}
	// One parse per file touched: a, b, c.
	if mc.ParseCount() != 3 {
		t.Errorf("Expected 3 parses, got %d", mc.ParseCount())
	}
}

func TestDynamicImportReachable(t *testing.T) {
	f := newFixture(t, map[string]string{
		"index.ts": `const p = import("./lazy");`,
		"lazy.ts":  ``,
	})
	project := f.projectSet("index.ts", "lazy.ts")
	engine, _, _ := newEngine(t, f, project)

	unused, err := engine.FindUnused(context.Background(), []string{f.files["index.ts"]})
	if err != nil {
		t.Fatal(err)
	}
	if len(unused) != 0 {
		t.Errorf("Expected no unused files, got %v", unused)
	}
}

func TestTemplateDynamicImportNotFollowed(t *testing.T) {
	f := newFixture(t, map[string]string{
		"index.ts": "const mod = (name: string) => import(`./${name}`);",
		"a.ts":     ``,
		"b.ts":     ``,
	})
	project := f.projectSet("index.ts", "a.ts", "b.ts")
	engine, _, warnings := newEngine(t, f, project)

	unused, err := engine.FindUnused(context.Background(), []string{f.files["index.ts"]})
	if err != nil {
		t.Fatal(err)
	}
	if len(unused) != 2 {
		t.Errorf("Expected 2 unused files, got %v", unused)
	}
	if warnings.Len() != 0 {
		t.Errorf("Non-literal dynamic imports must not warn, got %v", warnings.Drain())
	}
}

func TestReExportChain(t *testing.T) {
	f := newFixture(t, map[string]string{
		"index.ts":  `export * from "./barrel";`,
		"barrel.ts": `export { x } from "./x";`,
		"x.ts":      `export const x = 1;`,
		"y.ts":      ``,
	})
	project := f.projectSet("index.ts", "barrel.ts", "x.ts", "y.ts")
	engine, _, _ := newEngine(t, f, project)

	unused, err := engine.FindUnused(context.Background(), []string{f.files["index.ts"]})
	if err != nil {
		t.Fatal(err)
	}
	if len(unused) != 1 || unused[0] != f.files["y.ts"] {
		t.Errorf("Expected only y.ts unused, got %v", unused)
	}
}

func TestDirectoryIndexImport(t *testing.T) {
	f := newFixture(t, map[string]string{
		"index.ts":       `import "./util";`,
		"util/index.ts":  ``,
		"util/helper.ts": ``,
	})
	project := f.projectSet("index.ts", "util/index.ts", "util/helper.ts")
	engine, _, _ := newEngine(t, f, project)

	unused, err := engine.FindUnused(context.Background(), []string{f.files["index.ts"]})
	if err != nil {
		t.Fatal(err)
	}
	if len(unused) != 1 || unused[0] != f.files["util/helper.ts"] {
		t.Errorf("Expected util/helper.ts unused, got %v", unused)
	}
}

func TestTypeOnlyImportsReachableByDefault(t *testing.T) {
	f := newFixture(t, map[string]string{
		"index.ts": `import type { T } from "./types";`,
		"types.ts": `export type T = number;`,
	})
	project := f.projectSet("index.ts", "types.ts")

	engine, _, _ := newEngine(t, f, project)
	unused, err := engine.FindUnused(context.Background(), []string{f.files["index.ts"]})
	if err != nil {
		t.Fatal(err)
	}
	if len(unused) != 0 {
		t.Errorf("Type-only imports are reachable by default, got %v", unused)
	}

	elided, _, _ := newEngine(t, f, project, WithTypeOnlyElision())
	unused, err = elided.FindUnused(context.Background(), []string{f.files["index.ts"]})
	if err != nil {
		t.Fatal(err)
	}
	if len(unused) != 1 || unused[0] != f.files["types.ts"] {
		t.Errorf("Expected types.ts unused under elision, got %v", unused)
	}
}

func TestImportCycle(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.ts": `import "./b";`,
		"b.ts": `import "./a";`,
		"c.ts": ``,
	})
	project := f.projectSet("a.ts", "b.ts", "c.ts")
	engine, mc, _ := newEngine(t, f, project)

	unused, err := engine.FindUnused(context.Background(), []string{f.files["a.ts"]})
	if err != nil {
		t.Fatal(err)
	}
	if len(unused) != 1 || unused[0] != f.files["c.ts"] {
		t.Errorf("Expected c.ts unused, got %v", unused)
	}
	if mc.ParseCount() != 2 {
		t.Errorf("Cycle must not trigger re-parses, got %d", mc.ParseCount())
	}
}

func TestParseErrorIsNonFatal(t *testing.T) {
	f := newFixture(t, map[string]string{
		"index.ts":  `import "./broken"; import "./fine";`,
		"broken.ts": `import { ;;; ???`,
		"fine.ts":   ``,
	})
	project := f.projectSet("index.ts", "broken.ts", "fine.ts")
	engine, _, warnings := newEngine(t, f, project)

	unused, err := engine.FindUnused(context.Background(), []string{f.files["index.ts"]})
	if err != nil {
		t.Fatal(err)
	}
	if len(unused) != 0 {
		t.Errorf("Broken file is still reachable, got %v", unused)
	}

	found := false
	for _, w := range warnings.Drain() {
		if w.Code == errors.CodeParse && w.Path == f.files["broken.ts"] {
			found = true
		}
	}
	if !found {
		t.Error("Expected a PARSE_ERROR warning for broken.ts")
	}
}

func TestUnresolvedSpecifierWarnsOnce(t *testing.T) {
	f := newFixture(t, map[string]string{
		"index.ts": `import "./missing"; import "./missing";`,
	})
	project := f.projectSet("index.ts")
	engine, _, warnings := newEngine(t, f, project)

	if _, err := engine.FindUnused(context.Background(), []string{f.files["index.ts"]}); err != nil {
		t.Fatal(err)
	}

	count := 0
	for _, w := range warnings.Drain() {
		if w.Code == errors.CodeResolve {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Expected one deduplicated resolve warning, got %d", count)
	}
}

func TestUnreadableEntryIsFatal(t *testing.T) {
	f := newFixture(t, map[string]string{"index.ts": ``})
	project := f.projectSet("index.ts")
	engine, _, _ := newEngine(t, f, project)

	missing := filepath.Join(f.root, "gone.ts")
	_, err := engine.FindReachable(context.Background(), []string{missing})
	if !errors.IsCode(err, errors.CodeConfig) {
		t.Errorf("Expected CONFIG_ERROR for unreadable entry, got %v", err)
	}
}

func TestCancellationAtWaveBoundary(t *testing.T) {
	f := newFixture(t, map[string]string{"index.ts": `import "./a";`, "a.ts": ``})
	project := f.projectSet("index.ts", "a.ts")
	engine, _, _ := newEngine(t, f, project)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.FindReachable(ctx, []string{f.files["index.ts"]})
	if !errors.IsCode(err, errors.CodeCanceled) {
		t.Errorf("Expected CANCELED, got %v", err)
	}
}

func TestDeterministicResult(t *testing.T) {
	f := newFixture(t, map[string]string{
		"index.ts":  `import "./a"; import "./b"; import "./c";`,
		"a.ts":      `import "./shared";`,
		"b.ts":      `import "./shared";`,
		"c.ts":      ``,
		"shared.ts": ``,
		"dead.ts":   ``,
		"dead2.ts":  ``,
	})
	project := f.projectSet("index.ts", "a.ts", "b.ts", "c.ts", "shared.ts", "dead.ts", "dead2.ts")

	var first []string
	for i := 0; i < 5; i++ {
		engine, _, _ := newEngine(t, f, project)
		unused, err := engine.FindUnused(context.Background(), []string{f.files["index.ts"]})
		if err != nil {
			t.Fatal(err)
		}
		if i == 0 {
			first = unused
			continue
		}
		if len(unused) != len(first) {
			t.Fatalf("Run %d differs: %v vs %v", i, unused, first)
		}
		for j := range unused {
			if unused[j] != first[j] {
				t.Fatalf("Run %d differs at %d: %v vs %v", i, j, unused, first)
			}
		}
	}
}
