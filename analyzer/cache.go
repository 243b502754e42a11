package analyzer

import (
	"sync"

	"github.com/larascan/larascan/rulesets"
)

// resultCache stores rule-set analysis results keyed by file content hash
// plus class and method name. A file edit changes the hash, so stale entries
// are simply never hit again; Invalidate exists for watch mode to keep the
// map from growing across long sessions.
type resultCache struct {
	mu      sync.RWMutex
	results map[string]*rulesets.Result
}

func newResultCache() *resultCache {
	return &resultCache{results: make(map[string]*rulesets.Result)}
}

func (c *resultCache) get(key string) (*rulesets.Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result, ok := c.results[key]
	return result, ok
}

func (c *resultCache) put(key string, result *rulesets.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[key] = result
}

// Invalidate drops all cached results. Called between watch-mode scans when
// files changed; per-key eviction is not worth the bookkeeping at the scale
// of a single application's request classes.
func (c *resultCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = make(map[string]*rulesets.Result)
}
