package usecase

import (
	"strings"
	"testing"

	"ragchat/internal/domain"
)

func scored(texts ...string) []domain.ScoredChunk {
	out := make([]domain.ScoredChunk, len(texts))
	for i, text := range texts {
		out[i] = domain.ScoredChunk{Chunk: domain.Chunk{Index: i, Text: text}, Score: 1 - float64(i)/10}
	}
	return out
}

func TestBuildContext(t *testing.T) {
	tests := []struct {
		name    string
		results []domain.ScoredChunk
		want    string
	}{
		{"empty", nil, ""},
		{"single", scored("only chunk"), "only chunk"},
		{"keeps order", scored("second best", "best"), "second best\n\nbest"},
		{"no trimming", scored("  padded\n", "x"), "  padded\n\n\nx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildContext(tt.results); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRetrievalPromptEmbedsContextVerbatim(t *testing.T) {
	prompts, err := NewPrompts("Japanese")
	if err != nil {
		t.Fatal(err)
	}

	context := "<b>Tom & Jerry</b> {{not a template}}\n\nsecond chunk"
	got, err := prompts.Retrieval(context)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(got, context) {
		t.Errorf("expected context verbatim in prompt, got:\n%s", got)
	}
	if !strings.Contains(got, "in Japanese") {
		t.Errorf("expected language in prompt, got:\n%s", got)
	}
}

func TestAssistantPrompt(t *testing.T) {
	prompts, err := NewPrompts("")
	if err != nil {
		t.Fatal(err)
	}

	got, err := prompts.Assistant()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "You are a helpful assistant.") || !strings.Contains(got, "in English") {
		t.Errorf("unexpected assistant prompt:\n%s", got)
	}
}

func TestMemoryPrompt(t *testing.T) {
	prompts, err := NewPrompts("English")
	if err != nil {
		t.Fatal(err)
	}

	got, err := prompts.Memory([]domain.Message{
		{Role: domain.RoleUser, Content: "I'm John"},
		{Role: domain.RoleAssistant, Content: "Hello John"},
	}, "What's my name?")
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"Human: I'm John\n", "AI: Hello John\n", "Human: What's my name?", "Assistant: "} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in prompt:\n%s", want, got)
		}
	}
	if strings.Index(got, "Human: I'm John") > strings.Index(got, "AI: Hello John") {
		t.Error("history out of order")
	}
}
