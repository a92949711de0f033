package outline

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

var (
	// ErrNotIndexed is returned when no outline has been cached for a document.
	ErrNotIndexed = errors.New("document not indexed")
	// ErrStale is returned when the cached outline was computed from text
	// other than the text being sliced.
	ErrStale = errors.New("outline is stale")
)

// Provider looks up the outline of a document by ID. hash is the Hash of the
// text the caller will slice; an outline computed from other text must not
// be returned.
type Provider interface {
	Outline(id string, hash uint64) (*Outline, error)
}

// Entry is a cached outline together with the hash of the text it was
// computed from.
type Entry struct {
	Outline   *Outline
	Hash      uint64
	IndexedAt time.Time
}

// Cache is a thread-safe in-memory outline registry keyed by document ID.
// Cached outlines are shared snapshots and must not be mutated by callers.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]Entry)}
}

// Hash returns the content hash used to detect changed documents.
func Hash(text string) uint64 {
	return xxhash.Sum64String(text)
}

// Outline implements Provider.
func (c *Cache) Outline(id string, hash uint64) (*Outline, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotIndexed, id)
	}
	if e.Hash != hash {
		return nil, fmt.Errorf("%w: %s", ErrStale, id)
	}
	return e.Outline, nil
}

func (c *Cache) Get(id string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	return e, ok
}

func (c *Cache) Put(id string, ol *Outline, hash uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = Entry{Outline: ol, Hash: hash, IndexedAt: time.Now()}
}

// Fresh reports whether id is cached with the given content hash.
func (c *Cache) Fresh(id string, hash uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	return ok && e.Hash == hash
}

func (c *Cache) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// DeletePrefix removes every entry whose ID starts with prefix and returns
// how many were removed.
func (c *Cache) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for id := range c.entries {
		if strings.HasPrefix(id, prefix) {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}

// Prune removes every entry whose ID is not in keep and returns how many
// were removed.
func (c *Cache) Prune(keep map[string]bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for id := range c.entries {
		if !keep[id] {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
