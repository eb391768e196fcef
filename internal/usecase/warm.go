package usecase

import (
	"context"
	"fmt"

	"ragchat/internal/port"
)

// WarmResult summarizes a cache warm-up run.
type WarmResult struct {
	Chunks  int
	Batches int
}

// WarmUseCase embeds every chunk ahead of time so requests hit the cache.
type WarmUseCase struct {
	retrieve  *RetrieveUseCase
	embedder  port.Embedder
	batchSize int
}

func NewWarmUseCase(retrieve *RetrieveUseCase, embedder port.Embedder, batchSize int) *WarmUseCase {
	if batchSize <= 0 {
		batchSize = 32
	}
	return &WarmUseCase{
		retrieve:  retrieve,
		embedder:  embedder,
		batchSize: batchSize,
	}
}

// Warm calls progress with the running count after each batch.
func (u *WarmUseCase) Warm(ctx context.Context, progress func(done, total int)) (*WarmResult, error) {
	chunks, err := u.retrieve.Chunks()
	if err != nil {
		return nil, err
	}

	result := &WarmResult{Chunks: len(chunks)}
	for start := 0; start < len(chunks); start += u.batchSize {
		end := min(start+u.batchSize, len(chunks))

		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}

		if _, err := u.embedder.Embed(ctx, texts); err != nil {
			return nil, fmt.Errorf("failed to embed chunks %d-%d: %w", start, end-1, err)
		}
		result.Batches++

		if progress != nil {
			progress(end, len(chunks))
		}
	}

	return result, nil
}
