// Package cache provides a bounded cache of extracted formulas built on
// Akita's set-associative cache directory.
package cache

import (
	"fmt"
	"hash/fnv"
	"sync"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/isasem/formula"
)

// Config holds cache geometry.
type Config struct {
	// Sets is the number of sets.
	Sets int
	// Ways is the associativity.
	Ways int
}

// DefaultConfig returns a cache of 256 entries.
func DefaultConfig() Config {
	return Config{Sets: 64, Ways: 4}
}

// Key identifies one extraction: the same routine body extracted against
// the same architecture yields the same formula shape.
type Key struct {
	Arch string
	// Catalog is the fingerprint of the location catalog; formulas bind
	// every catalog location.
	Catalog     string
	Routine     string
	Fingerprint string
}

// Statistics holds cache statistics.
type Statistics struct {
	Lookups   uint64
	Hits      uint64
	Misses    uint64
	Inserts   uint64
	Evictions uint64
}

type entry struct {
	key     Key
	formula formula.Formula
}

// FormulaCache is an LRU cache of formulas. It is safe for concurrent use.
type FormulaCache struct {
	mu        sync.Mutex
	config    Config
	directory *akitacache.DirectoryImpl

	// entries is indexed by setID*ways + wayID.
	entries []entry
	stats   Statistics
}

// New creates a formula cache.
func New(config Config) (*FormulaCache, error) {
	if config.Sets <= 0 || config.Ways <= 0 {
		return nil, fmt.Errorf("cache geometry must be positive, got %d sets x %d ways", config.Sets, config.Ways)
	}
	return &FormulaCache{
		config: config,
		directory: akitacache.NewDirectory(
			config.Sets,
			config.Ways,
			1,
			akitacache.NewLRUVictimFinder(),
		),
		entries: make([]entry, config.Sets*config.Ways),
	}, nil
}

// Config returns the cache geometry.
func (c *FormulaCache) Config() Config { return c.config }

func (k Key) hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte(k.Arch))
	h.Write([]byte{0})
	h.Write([]byte(k.Catalog))
	h.Write([]byte{0})
	h.Write([]byte(k.Routine))
	h.Write([]byte{0})
	h.Write([]byte(k.Fingerprint))
	return h.Sum64()
}

func (c *FormulaCache) index(block *akitacache.Block) int {
	return block.SetID*c.config.Ways + block.WayID
}

// Get returns the cached formula for k.
func (c *FormulaCache) Get(k Key) (formula.Formula, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Lookups++
	block := c.directory.Lookup(0, k.hash())
	if block != nil && block.IsValid {
		e := c.entries[c.index(block)]
		if e.key == k {
			c.stats.Hits++
			c.directory.Visit(block)
			return e.formula, true
		}
	}
	c.stats.Misses++
	return nil, false
}

// Put stores f under k. It reports whether another entry was evicted.
func (c *FormulaCache) Put(k Key, f formula.Formula) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := k.hash()
	c.stats.Inserts++

	block := c.directory.Lookup(0, h)
	evicted := false
	if block == nil || !block.IsValid {
		block = c.directory.FindVictim(h)
		if block.IsValid {
			evicted = true
			c.stats.Evictions++
		}
		block.Tag = h
		block.IsValid = true
	}
	block.IsDirty = false

	c.entries[c.index(block)] = entry{key: k, formula: f}
	c.directory.Visit(block)
	return evicted
}

// Len returns the number of cached formulas.
func (c *FormulaCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid {
				n++
			}
		}
	}
	return n
}

// Stats returns cache statistics.
func (c *FormulaCache) Stats() Statistics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Reset drops every entry and clears statistics.
func (c *FormulaCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.directory.Reset()
	for i := range c.entries {
		c.entries[i] = entry{}
	}
	c.stats = Statistics{}
}
