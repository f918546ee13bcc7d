// # internal/core/app/app_test.go
package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"orphan/internal/core/config"
	"orphan/internal/core/errors"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func analyze(t *testing.T, root string, entry []string, mutate ...func(*config.Config)) *Report {
	t.Helper()
	cfg := config.Default()
	cfg.Entry = entry
	cfg.Cwd = root
	cfg.Threads = 4
	for _, m := range mutate {
		m(cfg)
	}
	report, err := New(cfg).Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	return report
}

func TestScenarioImportChain(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.ts": `import "./b";`,
		"b.ts": `import "./c";`,
		"c.ts": ``,
		"d.ts": ``,
	})

	report := analyze(t, root, []string{"a.ts"})
	if report.TotalFiles != 4 || report.UnusedCount != 1 {
		t.Errorf("Expected 4 total / 1 unused, got %d / %d", report.TotalFiles, report.UnusedCount)
	}
	if len(report.UnusedFiles) != 1 || report.UnusedFiles[0] != "d.ts" {
		t.Errorf("Expected [d.ts], got %v", report.UnusedFiles)
	}
}

func TestScenarioDynamicImport(t *testing.T) {
	root := writeTree(t, map[string]string{
		"index.ts": `const lazy = import("./lazy");`,
		"lazy.ts":  ``,
	})

	report := analyze(t, root, []string{"index.ts"})
	if report.UnusedCount != 0 {
		t.Errorf("Expected no unused files, got %v", report.UnusedFiles)
	}
}

func TestScenarioReExportChain(t *testing.T) {
	root := writeTree(t, map[string]string{
		"index.ts":  `export * from "./barrel";`,
		"barrel.ts": `export { x } from "./x";`,
		"x.ts":      `export const x = 1;`,
		"y.ts":      ``,
	})

	report := analyze(t, root, []string{"index.ts"})
	if len(report.UnusedFiles) != 1 || report.UnusedFiles[0] != "y.ts" {
		t.Errorf("Expected [y.ts], got %v", report.UnusedFiles)
	}
}

func TestScenarioDirectoryIndex(t *testing.T) {
	root := writeTree(t, map[string]string{
		"index.ts":       `import "./util";`,
		"util/index.ts":  ``,
		"util/helper.ts": ``,
	})

	report := analyze(t, root, []string{"index.ts"})
	if len(report.UnusedFiles) != 1 || report.UnusedFiles[0] != "util/helper.ts" {
		t.Errorf("Expected [util/helper.ts], got %v", report.UnusedFiles)
	}
}

func TestScenarioTemplateImportNotFollowed(t *testing.T) {
	root := writeTree(t, map[string]string{
		"index.ts": "const dyn = (name: string) => import(`./${name}`);",
		"a.ts":     ``,
		"b.ts":     ``,
	})

	report := analyze(t, root, []string{"index.ts"})
	if report.UnusedCount != 2 {
		t.Errorf("Expected 2 unused files, got %v", report.UnusedFiles)
	}
}

func TestScenarioStorybookPlugin(t *testing.T) {
	files := map[string]string{
		"package.json":       `{"devDependencies": {"@storybook/react": "^8.0.0"}}`,
		"index.ts":           ``,
		"Button.tsx":         `export const Button = () => null;`,
		"Button.stories.tsx": `import { Button } from "./Button"; export default { component: Button };`,
	}

	root := writeTree(t, files)
	report := analyze(t, root, []string{"index.ts"})
	if report.UnusedCount != 0 {
		t.Errorf("Expected stories and components reachable, got %v", report.UnusedFiles)
	}

	// With the plugin pinned off, both become unused.
	off := false
	report = analyze(t, root, []string{"index.ts"}, func(cfg *config.Config) {
		cfg.Plugins.Storybook = &off
	})
	if report.UnusedCount != 2 {
		t.Errorf("Expected 2 unused with plugin disabled, got %v", report.UnusedFiles)
	}
}

func TestUnreferencedFileIncreasesCount(t *testing.T) {
	files := map[string]string{
		"index.ts": `import "./used";`,
		"used.ts":  ``,
	}
	root := writeTree(t, files)
	before := analyze(t, root, []string{"index.ts"})

	if err := os.WriteFile(filepath.Join(root, "extra.ts"), []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	after := analyze(t, root, []string{"index.ts"})

	if after.UnusedCount != before.UnusedCount+1 {
		t.Errorf("Expected unused count to grow by one, got %d -> %d", before.UnusedCount, after.UnusedCount)
	}
}

func TestRemovingReferrerOrphansTarget(t *testing.T) {
	root := writeTree(t, map[string]string{
		"index.ts":  `import "./parent";`,
		"parent.ts": `import "./child";`,
		"child.ts":  ``,
	})

	before := analyze(t, root, []string{"index.ts"})
	if before.UnusedCount != 0 {
		t.Fatalf("Expected a fully-connected project, got %v", before.UnusedFiles)
	}

	if err := os.WriteFile(filepath.Join(root, "parent.ts"), []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	after := analyze(t, root, []string{"index.ts"})
	if len(after.UnusedFiles) != 1 || after.UnusedFiles[0] != "child.ts" {
		t.Errorf("Expected [child.ts], got %v", after.UnusedFiles)
	}
}

func TestDeterministicReports(t *testing.T) {
	root := writeTree(t, map[string]string{
		"index.ts": `import "./a"; import "./b";`,
		"a.ts":     ``,
		"b.ts":     ``,
		"x.ts":     ``,
		"y.ts":     ``,
		"z.ts":     ``,
	})

	first := analyze(t, root, []string{"index.ts"})
	for i := 0; i < 3; i++ {
		next := analyze(t, root, []string{"index.ts"})
		if len(next.UnusedFiles) != len(first.UnusedFiles) {
			t.Fatalf("Report size differs across runs: %v vs %v", next.UnusedFiles, first.UnusedFiles)
		}
		for j := range next.UnusedFiles {
			if next.UnusedFiles[j] != first.UnusedFiles[j] {
				t.Fatalf("Report order differs across runs: %v vs %v", next.UnusedFiles, first.UnusedFiles)
			}
		}
	}
}

func TestFindReachable(t *testing.T) {
	root := writeTree(t, map[string]string{
		"index.ts": `import "./a";`,
		"a.ts":     ``,
		"dead.ts":  ``,
	})

	cfg := config.Default()
	cfg.Entry = []string{"index.ts"}
	cfg.Cwd = root
	reachable, err := New(cfg).FindReachable(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"a.ts", "index.ts"}
	if len(reachable) != len(want) {
		t.Fatalf("Expected %v, got %v", want, reachable)
	}
	for i := range want {
		if reachable[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, reachable)
		}
	}
}

func TestNoEntriesMatchedIsConfigError(t *testing.T) {
	root := writeTree(t, map[string]string{"a.ts": ``})

	cfg := config.Default()
	cfg.Entry = []string{"missing.ts"}
	cfg.Cwd = root
	_, err := New(cfg).Analyze(context.Background())
	if !errors.IsCode(err, errors.CodeConfig) {
		t.Errorf("Expected CONFIG_ERROR, got %v", err)
	}
}

func TestEntryOutsideProjectSetIsStillRoot(t *testing.T) {
	root := writeTree(t, map[string]string{
		"tools/build.mjs": `import "../src/used.ts";`,
		"src/used.ts":     ``,
		"src/dead.ts":     ``,
	})

	report := analyze(t, root, []string{"tools/build.mjs"}, func(cfg *config.Config) {
		cfg.Project = []string{"src/**/*.ts"}
	})
	if report.TotalFiles != 2 {
		t.Errorf("Expected 2 project files, got %d", report.TotalFiles)
	}
	if len(report.UnusedFiles) != 1 || report.UnusedFiles[0] != "src/dead.ts" {
		t.Errorf("Expected [src/dead.ts], got %v", report.UnusedFiles)
	}
}

func TestTsconfigPathsResolve(t *testing.T) {
	root := writeTree(t, map[string]string{
		"tsconfig.json": `{
  "compilerOptions": {
    "baseUrl": ".",
    "paths": { "@lib/*": ["lib/*"] }
  }
}`,
		"index.ts":      `import { helper } from "@lib/helper";`,
		"lib/helper.ts": `export const helper = 1;`,
		"lib/dead.ts":   ``,
	})

	report := analyze(t, root, []string{"index.ts"})
	if len(report.UnusedFiles) != 1 || report.UnusedFiles[0] != "lib/dead.ts" {
		t.Errorf("Expected [lib/dead.ts], got %v", report.UnusedFiles)
	}
}

func TestScssProjectTraversal(t *testing.T) {
	root := writeTree(t, map[string]string{
		"package.json":           `{"devDependencies": {"sass": "^1.60.0"}}`,
		"index.ts":               `import "./styles/main.scss";`,
		"styles/main.scss":       `@use "./variables";`,
		"styles/_variables.scss": `$accent: #f00;`,
		"styles/dead.scss":       `.unused {}`,
	})

	report := analyze(t, root, []string{"index.ts"}, func(cfg *config.Config) {
		cfg.Project = []string{"**/*.{ts,scss}"}
	})
	for _, unused := range report.UnusedFiles {
		if unused != "styles/dead.scss" {
			t.Errorf("Unexpected unused file %s", unused)
		}
	}
	if report.UnusedCount != 1 {
		t.Errorf("Expected only styles/dead.scss unused, got %v", report.UnusedFiles)
	}
}

func TestWarningsSurfaceInReport(t *testing.T) {
	root := writeTree(t, map[string]string{
		"index.ts": `import "./missing";`,
	})

	report := analyze(t, root, []string{"index.ts"})
	if len(report.Warnings) == 0 {
		t.Error("Expected a resolve warning in the report")
	}
}
