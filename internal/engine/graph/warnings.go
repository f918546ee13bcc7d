// # internal/engine/graph/warnings.go
package graph

import (
	"fmt"
	"sort"
	"sync"

	"orphan/internal/core/errors"
	"orphan/internal/shared/observability"
)

// Warning is one non-fatal issue recorded during analysis.
type Warning struct {
	Code   errors.ErrorCode `json:"code"`
	Path   string           `json:"path,omitempty"`
	Detail string           `json:"detail"`
}

func (w Warning) String() string {
	if w.Path == "" {
		return fmt.Sprintf("[%s] %s", w.Code, w.Detail)
	}
	return fmt.Sprintf("[%s] %s: %s", w.Code, w.Path, w.Detail)
}

// Warnings accumulates deduplicated warnings from concurrent workers.
// The dedup key is the full (code, path, detail) triple, which covers the
// per-(file, specifier) and per-extension rules.
type Warnings struct {
	mu   sync.Mutex
	seen map[string]bool
	list []Warning
}

func NewWarnings() *Warnings {
	return &Warnings{seen: make(map[string]bool)}
}

func (w *Warnings) Add(code errors.ErrorCode, path, detail string) {
	key := string(code) + "\x00" + path + "\x00" + detail
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seen[key] {
		return
	}
	w.seen[key] = true
	w.list = append(w.list, Warning{Code: code, Path: path, Detail: detail})
	observability.WarningsTotal.WithLabelValues(string(code)).Inc()
}

// Drain returns the recorded warnings sorted for reproducible output.
func (w *Warnings) Drain() []Warning {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Warning, len(w.list))
	copy(out, w.list)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Detail < out[j].Detail
	})
	return out
}

func (w *Warnings) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.list)
}
