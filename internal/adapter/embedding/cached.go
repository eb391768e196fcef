package embedding

import (
	"context"
	"fmt"

	"ragchat/internal/domain"
	"ragchat/internal/port"
)

// CachedEmbedder serves repeated texts from a persistent cache and only
// sends misses to the wrapped embedder.
type CachedEmbedder struct {
	embedder port.Embedder
	cache    port.EmbeddingCache
}

func NewCachedEmbedder(embedder port.Embedder, cache port.EmbeddingCache) *CachedEmbedder {
	return &CachedEmbedder{
		embedder: embedder,
		cache:    cache,
	}
}

func (e *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	model := e.embedder.ModelName()
	vectors, err := e.cache.GetMany(model, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedding cache: %w", err)
	}

	var missing []string
	var missingIdx []int
	for i, v := range vectors {
		if v == nil {
			missing = append(missing, texts[i])
			missingIdx = append(missingIdx, i)
		}
	}
	if len(missing) == 0 {
		return vectors, nil
	}

	fresh, err := e.embedder.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missing) {
		return nil, fmt.Errorf("%w: embedder returned %d vectors for %d texts", domain.ErrExternalService, len(fresh), len(missing))
	}

	for j, idx := range missingIdx {
		vectors[idx] = fresh[j]
	}

	if err := e.cache.PutMany(model, missing, fresh); err != nil {
		return nil, fmt.Errorf("failed to write embedding cache: %w", err)
	}

	return vectors, nil
}

func (e *CachedEmbedder) Dimension() int {
	return e.embedder.Dimension()
}

func (e *CachedEmbedder) ModelName() string {
	return e.embedder.ModelName()
}
