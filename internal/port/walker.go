package port

import "ragchat/internal/domain"

type FileWalker interface {
	Walk(root string) ([]FileInfo, error)
}

type FileInfo struct {
	Path    string
	ModTime int64
	Size    int64
}

// DocumentLoader yields the documents retrieval runs over.
type DocumentLoader interface {
	Load() ([]domain.Document, error)
}
