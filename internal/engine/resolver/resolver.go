// # internal/engine/resolver/resolver.go
package resolver

import (
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"orphan/internal/shared/observability"
)

// TargetKind classifies a resolution outcome.
type TargetKind int

const (
	// TargetInternal is a concrete file on disk, candidate for traversal.
	TargetInternal TargetKind = iota
	// TargetExternal is a bare specifier naming an installed package.
	TargetExternal
	// TargetForeign is a file whose extension is not a code extension.
	TargetForeign
	// TargetUnresolved is a specifier no candidate satisfied.
	TargetUnresolved
)

// Target is the outcome of resolving one (referrer, specifier) pair.
type Target struct {
	Kind TargetKind
	// Path is set for Internal and Foreign targets (absolute, cleaned).
	Path string
	// Package is set for External targets (first path segment, keeping the
	// scope for @scoped/packages).
	Package string
	// Extension is set for Foreign targets.
	Extension string
	// Reason is set for Unresolved targets.
	Reason string
}

// codeExtensions is the candidate list for extensionless specifiers, in
// probe order. First hit wins.
var codeExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".d.ts"}

// styleExtensions extends the probe list for stylesheet referrers.
var styleExtensions = []string{".scss", ".sass", ".css"}

type statKind uint8

const (
	statMissing statKind = iota
	statFile
	statDir
)

// Resolver maps module specifiers to concrete files using filesystem
// metadata only; it never reads file contents. Results are deterministic
// given the filesystem state.
type Resolver struct {
	cwd                string
	includeNodeModules bool
	styles             bool
	paths              *PathMap
	stats              *lru.Cache[string, statKind]
}

const statCacheSize = 65536

type Option func(*Resolver)

// WithNodeModules lets bare specifiers resolve into node_modules instead of
// classifying them External.
func WithNodeModules() Option {
	return func(r *Resolver) { r.includeNodeModules = true }
}

// WithStyles enables stylesheet candidate extensions and SCSS partial probing.
func WithStyles() Option {
	return func(r *Resolver) { r.styles = true }
}

// WithPathMap installs a tsconfig-style path mapping consulted before
// classification.
func WithPathMap(pm *PathMap) Option {
	return func(r *Resolver) { r.paths = pm }
}

func New(cwd string, opts ...Option) *Resolver {
	stats, _ := lru.New[string, statKind](statCacheSize)
	r := &Resolver{cwd: cwd, stats: stats}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve converts a (referrer, specifier) pair into a Target.
func (r *Resolver) Resolve(referrer, specifier string) Target {
	specifier = strings.TrimSpace(specifier)
	if specifier == "" {
		return r.unresolved(specifier, "empty specifier")
	}

	// Path mapping runs before classification; the first expansion that
	// resolves wins.
	if r.paths != nil {
		for _, candidate := range r.paths.Expand(specifier) {
			if t, ok := r.resolvePath(referrer, candidate); ok {
				return t
			}
		}
	}

	switch {
	case strings.HasPrefix(specifier, "./"), strings.HasPrefix(specifier, "../"):
		base := filepath.Dir(referrer)
		if t, ok := r.resolvePath(referrer, filepath.Join(base, specifier)); ok {
			return t
		}
		return r.unresolved(specifier, "no candidate file exists")

	case strings.HasPrefix(specifier, "/"):
		if t, ok := r.resolvePath(referrer, filepath.Clean(specifier)); ok {
			return t
		}
		return r.unresolved(specifier, "no candidate file exists")

	default:
		return r.resolveBare(referrer, specifier)
	}
}

func (r *Resolver) resolveBare(referrer, specifier string) Target {
	name := strings.TrimPrefix(specifier, "node:")

	if r.includeNodeModules && !strings.HasPrefix(specifier, "node:") {
		root := filepath.Join(r.cwd, "node_modules", filepath.FromSlash(name))
		if t, ok := r.resolvePath(referrer, root); ok {
			return t
		}
	}

	observability.ResolveTotal.WithLabelValues("external").Inc()
	return Target{Kind: TargetExternal, Package: packageName(name)}
}

// resolvePath runs the candidate-extension and directory-index probes for an
// already-joined absolute path. ok is false when nothing matched and the
// caller should fall through.
func (r *Resolver) resolvePath(referrer, path string) (Target, bool) {
	if hit, ok := r.probeFile(referrer, path); ok {
		return hit, true
	}

	// Directory → retry with index appended.
	if r.stat(path) == statDir {
		if hit, ok := r.probeFile(referrer, filepath.Join(path, "index")); ok {
			return hit, true
		}
	}

	return Target{}, false
}

// probeFile tries the exact path, then each candidate extension.
func (r *Resolver) probeFile(referrer, path string) (Target, bool) {
	if r.stat(path) == statFile {
		if ext := r.nonCodeExtension(path); ext != "" {
			observability.ResolveTotal.WithLabelValues("foreign").Inc()
			return Target{Kind: TargetForeign, Path: path, Extension: ext}, true
		}
		observability.ResolveTotal.WithLabelValues("internal").Inc()
		return Target{Kind: TargetInternal, Path: path}, true
	}

	for _, ext := range r.candidateExtensions(referrer) {
		candidate := path + ext
		if r.stat(candidate) == statFile {
			observability.ResolveTotal.WithLabelValues("internal").Inc()
			return Target{Kind: TargetInternal, Path: candidate}, true
		}
	}

	if r.styles && isStylePath(referrer) {
		if hit, ok := r.probeScssPartial(path); ok {
			return hit, true
		}
	}

	return Target{}, false
}

// probeScssPartial retries with an underscore-prefixed basename, the SCSS
// convention for non-emitted files.
func (r *Resolver) probeScssPartial(path string) (Target, bool) {
	base := filepath.Base(path)
	if strings.HasPrefix(base, "_") {
		return Target{}, false
	}
	partial := filepath.Join(filepath.Dir(path), "_"+base)

	if r.stat(partial) == statFile {
		observability.ResolveTotal.WithLabelValues("internal").Inc()
		return Target{Kind: TargetInternal, Path: partial}, true
	}
	for _, ext := range styleExtensions {
		candidate := partial + ext
		if r.stat(candidate) == statFile {
			observability.ResolveTotal.WithLabelValues("internal").Inc()
			return Target{Kind: TargetInternal, Path: candidate}, true
		}
	}
	return Target{}, false
}

func (r *Resolver) candidateExtensions(referrer string) []string {
	if r.styles && isStylePath(referrer) {
		return append(append([]string{}, styleExtensions...), codeExtensions...)
	}
	return codeExtensions
}

func (r *Resolver) unresolved(specifier, reason string) Target {
	observability.ResolveTotal.WithLabelValues("unresolved").Inc()
	return Target{Kind: TargetUnresolved, Reason: reason}
}

// stat consults the LRU-backed metadata cache; one os.Stat per unique path.
func (r *Resolver) stat(path string) statKind {
	if kind, ok := r.stats.Get(path); ok {
		return kind
	}
	kind := statMissing
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			kind = statDir
		} else {
			kind = statFile
		}
	}
	r.stats.Add(path, kind)
	return kind
}

// nonCodeExtension returns the file's extension when it is not one of the
// parseable extensions, or "" for parseable files. Style extensions count as
// parseable only when style support is on.
func (r *Resolver) nonCodeExtension(path string) string {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".d.ts") {
		return ""
	}
	ext := filepath.Ext(lower)
	if ext == "" {
		return ""
	}
	for _, code := range codeExtensions {
		if ext == code {
			return ""
		}
	}
	if r.styles {
		for _, style := range styleExtensions {
			if ext == style {
				return ""
			}
		}
	}
	return ext
}

func isStylePath(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range styleExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// packageName extracts the installed-package name from a bare specifier,
// keeping both segments for @scoped packages.
func packageName(specifier string) string {
	parts := strings.SplitN(specifier, "/", 3)
	if strings.HasPrefix(specifier, "@") && len(parts) >= 2 {
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}
