// Package cache memoizes per-file symbol tables across analysis runs.
package cache

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/panbanda/shed/pkg/models"
)

// DefaultMaxSize is the LRU capacity used when none is given.
const DefaultMaxSize = 1000

// Cache is a bounded, mtime-validated LRU of extracted symbol tables.
// It is safe for concurrent use.
type Cache struct {
	mu    sync.Mutex
	lru   *simplelru.LRU[string, entry]
	store *Store

	hits      uint64
	misses    uint64
	evictions uint64
}

type entry struct {
	mtime   time.Time
	exports []models.ExportRecord
	imports []models.ImportRecord
}

// Option configures a Cache.
type Option func(*Cache)

// WithStore backs the in-memory LRU with a persistent store.
// Memory misses consult the store and store hits are promoted.
func WithStore(s *Store) Option {
	return func(c *Cache) {
		c.store = s
	}
}

// New creates a cache holding at most maxSize files.
func New(maxSize int, opts ...Option) (*Cache, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	lru, err := simplelru.NewLRU[string, entry](maxSize, nil)
	if err != nil {
		return nil, err
	}
	c := &Cache{lru: lru}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get returns the cached symbols for path when they were recorded at mtime.
// An entry with a different mtime is dropped and counted as a miss.
func (c *Cache) Get(path string, mtime time.Time) (models.FileSymbols, bool) {
	c.mu.Lock()
	if e, ok := c.lru.Get(path); ok {
		if e.mtime.Equal(mtime) {
			c.hits++
			c.mu.Unlock()
			return e.symbols(path), true
		}
		c.lru.Remove(path)
	}
	store := c.store
	c.mu.Unlock()

	if store != nil {
		if syms, ok := store.Load(path, mtime); ok {
			c.mu.Lock()
			c.hits++
			c.add(path, entry{mtime: mtime, exports: syms.Exports, imports: syms.Imports})
			c.mu.Unlock()
			return syms, true
		}
	}

	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
	return models.FileSymbols{}, false
}

// Put records the symbols extracted from path at mtime, evicting the least
// recently used entry when the cache is full. The returned error reports a
// failed write to the persistent store; the in-memory entry is kept.
func (c *Cache) Put(path string, mtime time.Time, exports []models.ExportRecord, imports []models.ImportRecord) error {
	c.mu.Lock()
	c.add(path, entry{mtime: mtime, exports: exports, imports: imports})
	store := c.store
	c.mu.Unlock()

	if store == nil {
		return nil
	}
	return store.Save(models.FileSymbols{Path: path, ModTime: mtime, Exports: exports, Imports: imports})
}

// add must be called with mu held.
func (c *Cache) add(path string, e entry) {
	if c.lru.Add(path, e) {
		c.evictions++
	}
}

// Remove drops path from memory and from the persistent store.
func (c *Cache) Remove(path string) {
	c.mu.Lock()
	c.lru.Remove(path)
	store := c.store
	c.mu.Unlock()

	if store != nil {
		_ = store.Invalidate(path)
	}
}

// Len returns the number of in-memory entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Stats is a snapshot of the cache counters.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Entries   int    `json:"entries"`
	Evictions uint64 `json:"evictions"`
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Stats returns the running counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Entries:   c.lru.Len(),
		Evictions: c.evictions,
	}
}

// HitRate returns the lifetime hit rate.
func (c *Cache) HitRate() float64 {
	return c.Stats().HitRate()
}

func (e entry) symbols(path string) models.FileSymbols {
	return models.FileSymbols{
		Path:    path,
		ModTime: e.mtime,
		Exports: e.exports,
		Imports: e.imports,
	}
}
