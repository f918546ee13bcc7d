package util

import (
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// NormalizePatternPath cleans and normalizes paths for matcher/pattern usage.
func NormalizePatternPath(s string) string {
	trimmed := strings.TrimSpace(strings.ReplaceAll(s, "\\", "/"))
	clean := path.Clean(trimmed)
	if clean == "." {
		return ""
	}
	return strings.TrimPrefix(clean, "./")
}

// HasPathPrefix returns true when path equals prefix or is contained within prefix.
func HasPathPrefix(path, prefix string) bool {
	path = NormalizePatternPath(path)
	prefix = NormalizePatternPath(prefix)
	if path == "" || prefix == "" {
		return path == prefix
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}

// SortedStringKeys returns the map's keys in sorted order.
func SortedStringKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// ExpandBraces expands a single-level or nested brace alternation in a glob
// pattern, e.g. "**/*.{ts,tsx}" -> ["**/*.ts", "**/*.tsx"].
// Patterns without braces are returned unchanged.
func ExpandBraces(pattern string) []string {
	start := strings.Index(pattern, "{")
	if start == -1 {
		return []string{pattern}
	}
	depth := 0
	end := -1
	for i := start; i < len(pattern); i++ {
		switch pattern[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				end = i
			}
		}
		if end != -1 {
			break
		}
	}
	if end == -1 {
		return []string{pattern}
	}

	prefix := pattern[:start]
	suffix := pattern[end+1:]
	var alts []string
	depth = 0
	last := start + 1
	for i := start + 1; i < end; i++ {
		switch pattern[i] {
		case '{':
			depth++
		case '}':
			depth--
		case ',':
			if depth == 0 {
				alts = append(alts, pattern[last:i])
				last = i + 1
			}
		}
	}
	alts = append(alts, pattern[last:end])

	var out []string
	for _, alt := range alts {
		out = append(out, ExpandBraces(prefix+alt+suffix)...)
	}
	return out
}

// GlobVariants returns the pattern plus variants with each "**/" collapsed
// to nothing. gobwas/glob matches "a/**/b" only with an intermediate
// segment; the variants make it also match "a/b".
func GlobVariants(pattern string) []string {
	idx := strings.Index(pattern, "**/")
	if idx == -1 {
		return []string{pattern}
	}
	var out []string
	for _, tail := range GlobVariants(pattern[idx+3:]) {
		out = append(out, pattern[:idx]+"**/"+tail, pattern[:idx]+tail)
	}
	return out
}

// RelativeTo returns path relative to base using forward slashes, or the
// original path when it is not under base.
func RelativeTo(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
