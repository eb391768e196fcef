package usecase

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"ragchat/internal/domain"
)

//go:embed templates/*.tmpl
var promptTemplates embed.FS

// ContextSeparator goes between chunk texts in the assembled context.
const ContextSeparator = "\n\n"

// BuildContext joins chunk texts in the given order. No truncation or
// escaping is applied.
func BuildContext(results []domain.ScoredChunk) string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Chunk.Text
	}
	return strings.Join(texts, ContextSeparator)
}

// Prompts renders the system and memory prompts.
type Prompts struct {
	tmpl     *template.Template
	language string
}

func NewPrompts(language string) (*Prompts, error) {
	if language == "" {
		language = "English"
	}

	tmpl, err := template.ParseFS(promptTemplates, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Prompts{tmpl: tmpl, language: language}, nil
}

// Retrieval embeds an assembled context into the retrieval system prompt.
func (p *Prompts) Retrieval(context string) (string, error) {
	return p.render("retrieval.tmpl", map[string]any{
		"Context":  context,
		"Language": p.language,
	})
}

func (p *Prompts) Assistant() (string, error) {
	return p.render("assistant.tmpl", map[string]any{
		"Language": p.language,
	})
}

// Memory renders the whole conversation plus the new input as one prompt.
func (p *Prompts) Memory(history []domain.Message, input string) (string, error) {
	return p.render("memory.tmpl", map[string]any{
		"History":  history,
		"Input":    input,
		"Language": p.language,
	})
}

func (p *Prompts) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}
