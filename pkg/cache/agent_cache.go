package cache

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// DefaultSize is the number of agents a cache holds when no size is given.
const DefaultSize = 512

// Disposer is implemented by handles that own resources which must be
// released when the handle leaves the cache. Dispose must be idempotent.
type Disposer interface {
	Dispose()
}

// Stats are the running counters of an AgentCache.
type Stats struct {
	Size      int    `json:"size"`
	Capacity  int    `json:"capacity"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
	Disposals uint64 `json:"disposals"`
}

// AgentCache is a bounded, least-recently-used store of transport handles
// keyed by their cache key. Every handle that leaves the cache, through
// eviction or Clear, is disposed exactly once.
type AgentCache struct {
	mu        sync.Mutex
	lru       *simplelru.LRU[string, http.RoundTripper]
	capacity  int
	onDispose func(key string)

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
	disposals atomic.Uint64

	// explicit is set while handles are removed on request so the eviction
	// callback does not count them as evictions.
	explicit bool
}

// New creates an AgentCache holding at most size handles. A size <= 0
// selects DefaultSize. onDispose, if non-nil, is called with the key of
// every disposed handle.
func New(size int, onDispose func(key string)) (*AgentCache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	c := &AgentCache{
		capacity:  size,
		onDispose: onDispose,
	}
	lru, err := simplelru.NewLRU[string, http.RoundTripper](size, c.evicted)
	if err != nil {
		return nil, err
	}
	c.lru = lru
	return c, nil
}

// evicted runs with c.mu held.
func (c *AgentCache) evicted(key string, h http.RoundTripper) {
	if !c.explicit {
		c.evictions.Add(1)
	}
	c.dispose(key, h)
}

func (c *AgentCache) dispose(key string, h http.RoundTripper) {
	if d, ok := h.(Disposer); ok {
		d.Dispose()
	}
	c.disposals.Add(1)
	if c.onDispose != nil {
		c.onDispose(key)
	}
}

// Get returns the handle stored under key and marks it most recently used.
func (c *AgentCache) Get(key string) (http.RoundTripper, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return h, ok
}

// Peek returns the handle stored under key without touching its recency or
// the hit counters.
func (c *AgentCache) Peek(key string) (http.RoundTripper, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Peek(key)
}

// Contains reports whether key is cached without touching its recency or
// the hit counters.
func (c *AgentCache) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Contains(key)
}

// GetOrAdd returns the handle already stored under key, or stores h and
// returns it. added is true when h was stored. Storing past capacity
// evicts and disposes the least recently used handle first.
func (c *AgentCache) GetOrAdd(key string, h http.RoundTripper) (actual http.RoundTripper, added bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.lru.Get(key); ok {
		return existing, false
	}
	c.lru.Add(key, h)
	return h, true
}

// Add stores h under key. A handle previously stored under the same key is
// disposed first, so a key never maps to more than one live handle.
func (c *AgentCache) Add(key string, h http.RoundTripper) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lru.Contains(key) {
		c.explicit = true
		c.lru.Remove(key)
		c.explicit = false
	}
	c.lru.Add(key, h)
}

// Remove drops and disposes the handle stored under key, if any.
func (c *AgentCache) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.explicit = true
	defer func() { c.explicit = false }()
	return c.lru.Remove(key)
}

// Clear disposes every cached handle and empties the cache. It is safe to
// call on an empty cache and at any time.
func (c *AgentCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.explicit = true
	c.lru.Purge()
	c.explicit = false
}

// Len returns the number of cached handles.
func (c *AgentCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Capacity returns the maximum number of cached handles.
func (c *AgentCache) Capacity() int {
	return c.capacity
}

// Keys returns the cached keys from least to most recently used.
func (c *AgentCache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Keys()
}

// Stats returns a snapshot of the cache counters.
func (c *AgentCache) Stats() Stats {
	return Stats{
		Size:      c.Len(),
		Capacity:  c.capacity,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Disposals: c.disposals.Load(),
	}
}
