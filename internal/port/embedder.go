package port

import "context"

//go:generate mockgen -destination=mocks/embedder.go -package=mocks ragchat/internal/port Embedder

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// EmbeddingCache persists vectors keyed by model and text.
type EmbeddingCache interface {
	// GetMany returns a slice aligned with texts; missing entries are nil.
	GetMany(model string, texts []string) ([][]float32, error)

	PutMany(model string, texts []string, vectors [][]float32) error
}
