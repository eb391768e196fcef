package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"ragchat/internal/domain"
)

// WindowChunker splits documents into fixed-size rune windows that overlap
// by a configured number of runes.
type WindowChunker struct {
	size    int
	overlap int
}

func NewWindowChunker(size, overlap int) (*WindowChunker, error) {
	if err := validate(size, overlap); err != nil {
		return nil, err
	}
	return &WindowChunker{
		size:    size,
		overlap: overlap,
	}, nil
}

func (c *WindowChunker) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	return Split(doc, c.size, c.overlap)
}

// Split walks the document text with a window of size runes, advancing by
// size-overlap. The walk stops at the first window that reaches the end of the
// text, so only the final chunk can be shorter than size.
func Split(doc domain.Document, size, overlap int) ([]domain.Chunk, error) {
	if err := validate(size, overlap); err != nil {
		return nil, err
	}

	runes := []rune(doc.Text)
	if len(runes) == 0 {
		return nil, nil
	}

	step := size - overlap
	chunks := make([]domain.Chunk, 0, len(runes)/step+1)

	for start := 0; start < len(runes); start += step {
		end := min(start+size, len(runes))

		chunks = append(chunks, domain.Chunk{
			ID:     generateChunkID(doc.ID, start, end),
			DocID:  doc.ID,
			Index:  len(chunks),
			Start:  start,
			Length: end - start,
			Text:   string(runes[start:end]),
		})

		if end == len(runes) {
			break
		}
	}

	return chunks, nil
}

func validate(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidParameter, size)
	}
	if overlap < 0 || overlap >= size {
		return fmt.Errorf("%w: overlap must be in [0, %d), got %d", domain.ErrInvalidParameter, size, overlap)
	}
	return nil
}

func generateChunkID(docID string, start, end int) string {
	data := fmt.Sprintf("%s:%d-%d", docID, start, end)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:8])
}
