package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"ragchat/internal/domain"
	"ragchat/internal/port"
)

// ChunkCache is an LRU of chunking results. Chunking is a pure function of
// document text and parameters, so entries never go stale; the TTL only
// bounds memory held for documents that stopped being requested.
type ChunkCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	order   []string
	maxSize int
	ttl     time.Duration
	hits    uint64
	misses  uint64
}

type cacheEntry struct {
	chunks    []domain.Chunk
	timestamp time.Time
}

func NewChunkCache(maxSize int, ttl time.Duration) *ChunkCache {
	if maxSize <= 0 {
		maxSize = 64
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ChunkCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Key identifies a chunking of doc under the given parameters.
func Key(doc domain.Document, params string) string {
	hash := sha256.New()
	hash.Write([]byte(doc.ID))
	hash.Write([]byte{0})
	hash.Write([]byte(params))
	hash.Write([]byte{0})
	hash.Write([]byte(doc.Text))
	return hex.EncodeToString(hash.Sum(nil)[:16])
}

func (c *ChunkCache) Get(key string) ([]domain.Chunk, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		c.misses++
		return nil, false
	}

	if time.Since(entry.timestamp) > c.ttl {
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.misses++
		return nil, false
	}

	c.moveToEnd(key)
	c.hits++
	return entry.chunks, true
}

func (c *ChunkCache) Put(key string, chunks []domain.Chunk) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = &cacheEntry{chunks: chunks, timestamp: time.Now()}
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = &cacheEntry{chunks: chunks, timestamp: time.Now()}
	c.order = append(c.order, key)
}

func (c *ChunkCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
}

func (c *ChunkCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit and miss counters.
func (c *ChunkCache) Stats() (hits, misses uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

func (c *ChunkCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *ChunkCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *ChunkCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// CachedChunker memoizes another chunker. params must describe every setting
// that influences the inner chunker's output.
type CachedChunker struct {
	chunker port.Chunker
	cache   *ChunkCache
	params  string
}

func NewCachedChunker(chunker port.Chunker, cache *ChunkCache, size, overlap int) *CachedChunker {
	return &CachedChunker{
		chunker: chunker,
		cache:   cache,
		params:  fmt.Sprintf("window:%d:%d", size, overlap),
	}
}

func (c *CachedChunker) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	key := Key(doc, c.params)
	if chunks, hit := c.cache.Get(key); hit {
		return chunks, nil
	}

	chunks, err := c.chunker.Chunk(doc)
	if err != nil {
		return nil, err
	}

	c.cache.Put(key, chunks)
	return chunks, nil
}
