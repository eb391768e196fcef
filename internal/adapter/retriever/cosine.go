package retriever

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"ragchat/internal/domain"
	"ragchat/internal/port"
)

const (
	DefaultBatchSize   = 32
	DefaultConcurrency = 4
)

// CosineRetriever ranks chunks by cosine similarity between their embeddings
// and the query embedding. Every call embeds from scratch; wrap the embedder
// with a cache to reuse vectors.
type CosineRetriever struct {
	embedder    port.Embedder
	batchSize   int
	concurrency int
}

type Option func(*CosineRetriever)

// WithBatchSize sets how many chunk texts go into one embedder call.
func WithBatchSize(n int) Option {
	return func(r *CosineRetriever) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithConcurrency bounds the number of embedder calls in flight.
func WithConcurrency(n int) Option {
	return func(r *CosineRetriever) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

func NewCosineRetriever(embedder port.Embedder, opts ...Option) *CosineRetriever {
	r := &CosineRetriever{
		embedder:    embedder,
		batchSize:   DefaultBatchSize,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *CosineRetriever) Search(ctx context.Context, chunks []domain.Chunk, query string, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidParameter, k)
	}
	if len(chunks) == 0 {
		return []domain.ScoredChunk{}, nil
	}

	queryVecs, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, externalError("failed to embed query", err)
	}
	if len(queryVecs) != 1 {
		return nil, fmt.Errorf("%w: expected 1 query vector, got %d", domain.ErrExternalService, len(queryVecs))
	}
	queryVec := queryVecs[0]

	chunkVecs, err := r.embedChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	results := make([]domain.ScoredChunk, len(chunks))
	for i, chunk := range chunks {
		score, err := CosineSimilarity(queryVec, chunkVecs[i])
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", chunk.Index, err)
		}
		if math.IsNaN(score) {
			return nil, fmt.Errorf("%w: chunk %d has a NaN similarity", domain.ErrExternalService, chunk.Index)
		}
		results[i] = domain.ScoredChunk{Chunk: chunk, Score: score}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// embedChunks embeds chunk texts in batches. Each batch writes into its own
// index range, so the order in which batches finish does not matter.
func (r *CosineRetriever) embedChunks(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for start := 0; start < len(chunks); start += r.batchSize {
		end := start + r.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		texts := make([]string, end-start)
		for i := start; i < end; i++ {
			texts[i-start] = chunks[i].Text
		}

		g.Go(func() error {
			batch, err := r.embedder.Embed(gctx, texts)
			if err != nil {
				return externalError(fmt.Sprintf("failed to embed chunks %d-%d", start, end-1), err)
			}
			if len(batch) != len(texts) {
				return fmt.Errorf("%w: got %d vectors for %d chunks", domain.ErrExternalService, len(batch), len(texts))
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

func externalError(msg string, err error) error {
	if errors.Is(err, domain.ErrExternalService) {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return fmt.Errorf("%s: %w: %w", msg, domain.ErrExternalService, err)
}
