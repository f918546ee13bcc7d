// # internal/engine/cache/module_cache.go
package cache

import (
	"sync"
	"sync/atomic"

	"orphan/internal/engine/parser"
	"orphan/internal/shared/observability"
)

// ParseState tracks the lifecycle of one cache entry. Transitions are
// monotonic: InProgress -> Done | Failed.
type ParseState int

const (
	StateInProgress ParseState = iota
	StateDone
	StateFailed
)

type entry struct {
	state  ParseState
	module *parser.Module
	err    error
	done   chan struct{}
}

// ParseFunc loads and parses one file. The cache calls it at most once per
// path regardless of concurrent demand.
type ParseFunc func(path string) (*parser.Module, error)

// ModuleCache guarantees each file is parsed exactly once per analysis.
// Concurrent requesters of an in-progress entry block on the entry's
// completion signal and then observe the published result. There is no
// eviction; the cache lives for one analysis and is discarded.
type ModuleCache struct {
	mu      sync.Mutex
	entries map[string]*entry
	parse   ParseFunc
	parses  atomic.Int64
}

func NewModuleCache(parse ParseFunc) *ModuleCache {
	return &ModuleCache{
		entries: make(map[string]*entry),
		parse:   parse,
	}
}

// GetOrParse returns the parse result for path, parsing on first demand.
// The first claimant owns the parse; everyone else waits on the completion
// signal.
func (c *ModuleCache) GetOrParse(path string) (*parser.Module, error) {
	c.mu.Lock()
	if e, ok := c.entries[path]; ok {
		c.mu.Unlock()
		observability.CacheHitsTotal.Inc()
		<-e.done
		return e.module, e.err
	}

	e := &entry{state: StateInProgress, done: make(chan struct{})}
	c.entries[path] = e
	c.mu.Unlock()

	observability.CacheMissesTotal.Inc()
	c.parses.Add(1)

	module, err := c.parse(path)
	if err != nil {
		e.err = err
		e.state = StateFailed
	} else {
		e.module = module
		e.state = StateDone
	}
	close(e.done)

	return e.module, e.err
}

// Get returns a completed result without parsing; ok is false when the path
// was never requested or is still in progress.
func (c *ModuleCache) Get(path string) (*parser.Module, error, bool) {
	c.mu.Lock()
	e, exists := c.entries[path]
	c.mu.Unlock()
	if !exists {
		return nil, nil, false
	}
	select {
	case <-e.done:
		return e.module, e.err, true
	default:
		return nil, nil, false
	}
}

// ParseCount reports how many parses actually ran.
func (c *ModuleCache) ParseCount() int64 {
	return c.parses.Load()
}

// Len is the number of files ever requested.
func (c *ModuleCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
