package memstore

import (
	"fmt"
	"sync"
)

// EmbeddingCache is an unbounded in-memory port.EmbeddingCache, used when no
// cache path is configured.
type EmbeddingCache struct {
	mu      sync.RWMutex
	vectors map[string][]float32
}

func NewEmbeddingCache() *EmbeddingCache {
	return &EmbeddingCache{vectors: make(map[string][]float32)}
}

func (c *EmbeddingCache) GetMany(model string, texts []string) ([][]float32, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = c.vectors[cacheKey(model, text)]
	}
	return out, nil
}

func (c *EmbeddingCache) PutMany(model string, texts []string, vectors [][]float32) error {
	if len(texts) != len(vectors) {
		return fmt.Errorf("got %d vectors for %d texts", len(vectors), len(texts))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, text := range texts {
		c.vectors[cacheKey(model, text)] = vectors[i]
	}
	return nil
}

func (c *EmbeddingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.vectors)
}

func cacheKey(model, text string) string {
	return model + "\x00" + text
}
