package port

import (
	"context"

	"ragchat/internal/domain"
)

// Retriever ranks chunks against a query.
type Retriever interface {
	Search(ctx context.Context, chunks []domain.Chunk, query string, k int) ([]domain.ScoredChunk, error)
}
