package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ragchat/internal/domain"
	"ragchat/internal/port"
)

// RetrieveUseCase loads documents, chunks them and ranks the chunks.
type RetrieveUseCase struct {
	loader    port.DocumentLoader
	chunker   port.Chunker
	retriever port.Retriever
	timeout   time.Duration
	logger    *zerolog.Logger
}

func NewRetrieveUseCase(
	loader port.DocumentLoader,
	chunker port.Chunker,
	retriever port.Retriever,
	timeout time.Duration,
	logger *zerolog.Logger,
) *RetrieveUseCase {
	return &RetrieveUseCase{
		loader:    loader,
		chunker:   chunker,
		retriever: retriever,
		timeout:   timeout,
		logger:    logger,
	}
}

// Chunks returns the chunks of every document, documents in load order.
func (u *RetrieveUseCase) Chunks() ([]domain.Chunk, error) {
	docs, err := u.loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}

	var chunks []domain.Chunk
	for _, doc := range docs {
		docChunks, err := u.chunker.Chunk(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to chunk %s: %w", doc.ID, err)
		}
		chunks = append(chunks, docChunks...)
	}

	u.logger.Debug().Int("documents", len(docs)).Int("chunks", len(chunks)).Msg("documents chunked")
	return chunks, nil
}

// Retrieve returns the k chunks most similar to query.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidParameter, k)
	}

	chunks, err := u.Chunks()
	if err != nil {
		return nil, err
	}

	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	start := time.Now()
	results, err := u.retriever.Search(ctx, chunks, query, k)
	if err != nil {
		return nil, err
	}

	event := u.logger.Debug().Int("results", len(results)).Dur("took", time.Since(start))
	if len(results) > 0 {
		event = event.Float64("top_score", results[0].Score)
	}
	event.Msg("chunks ranked")

	return results, nil
}

// ScoredChunkResult is a flattened result for CLI and JSON output.
type ScoredChunkResult struct {
	DocID string  `json:"doc_id"`
	Index int     `json:"index"`
	Start int     `json:"start"`
	End   int     `json:"end"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

func ToResults(scored []domain.ScoredChunk) []ScoredChunkResult {
	out := make([]ScoredChunkResult, len(scored))
	for i, s := range scored {
		out[i] = ScoredChunkResult{
			DocID: s.Chunk.DocID,
			Index: s.Chunk.Index,
			Start: s.Chunk.Start,
			End:   s.Chunk.End(),
			Score: s.Score,
			Text:  s.Chunk.Text,
		}
	}
	return out
}
