package fs

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"ragchat/internal/domain"
	"ragchat/internal/port"
)

// Loader reads every file the walker finds under root into a Document.
type Loader struct {
	root   string
	walker port.FileWalker
}

func NewLoader(root string, walker port.FileWalker) *Loader {
	return &Loader{root: root, walker: walker}
}

func (l *Loader) Load() ([]domain.Document, error) {
	files, err := l.walker.Walk(l.root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", l.root, err)
	}

	absRoot, err := filepath.Abs(l.root)
	if err != nil {
		return nil, err
	}

	docs := make([]domain.Document, 0, len(files))
	for _, f := range files {
		text, err := ReadText(f.Path)
		if err != nil {
			return nil, err
		}

		id := f.Path
		if rel, err := filepath.Rel(absRoot, f.Path); err == nil {
			id = filepath.ToSlash(rel)
		}

		docs = append(docs, domain.Document{
			ID:      id,
			Path:    f.Path,
			ModTime: time.Unix(f.ModTime, 0),
			Text:    text,
		})
	}

	return docs, nil
}

// ReadDocument loads a single file with its base name as ID.
func ReadDocument(path string) (domain.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.Document{}, err
	}
	text, err := ReadText(path)
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{
		ID:      filepath.Base(path),
		Path:    path,
		ModTime: info.ModTime(),
		Text:    text,
	}, nil
}

// ReadText extracts plain text from PDFs and reads anything else as UTF-8.
func ReadText(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return readPDF(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s is not valid UTF-8 text", path)
	}
	return string(data), nil
}

func readPDF(path string) (string, error) {
	f, rdr, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	defer f.Close()

	b, err := rdr.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text %s: %w", path, err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, b); err != nil {
		return "", fmt.Errorf("failed to read pdf buffer %s: %w", path, err)
	}
	return buf.String(), nil
}
