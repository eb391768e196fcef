package usecase

import (
	"strings"
	"testing"
	"unicode/utf8"

	"ragchat/internal/adapter/analyzer"
	"ragchat/internal/domain"
)

// runeEstimator counts one token per rune.
type runeEstimator struct{}

func (runeEstimator) CountTokens(text string) float64 {
	return float64(utf8.RuneCountInString(text))
}

func msgs(contents ...string) []domain.Message {
	out := make([]domain.Message, len(contents))
	for i, c := range contents {
		out[i] = domain.Message{Role: domain.RoleUser, Content: c}
	}
	return out
}

func contents(messages []domain.Message) string {
	parts := make([]string, len(messages))
	for i, m := range messages {
		parts[i] = m.Content
	}
	return strings.Join(parts, ",")
}

func TestTrimHistory(t *testing.T) {
	tests := []struct {
		name     string
		messages []domain.Message
		budget   int
		want     string
	}{
		{"all fit", msgs("aa", "bb", "cc"), 10, "aa,bb,cc"},
		{"oldest dropped", msgs("aaaa", "bb", "cc"), 6, "bb,cc"},
		{"total equal to budget is dropped", msgs("aa", "bb", "cc"), 6, "bb,cc"},
		{"newest alone too large", msgs("a", "bbbbbbbbbb"), 5, ""},
		{"stops at first overflow", msgs("a", "bbbbbbbb", "c"), 5, "c"},
		{"empty", nil, 10, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimHistory(tt.messages, runeEstimator{}, tt.budget)
			if contents(got) != tt.want {
				t.Errorf("expected [%s], got [%s]", tt.want, contents(got))
			}
		})
	}
}

func TestTrimHistoryCharsEstimator(t *testing.T) {
	chars, err := analyzer.NewEstimator(analyzer.EstimatorChars)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		messages []domain.Message
		budget   int
		want     string
	}{
		// 5 x 0.75 = 3.75 stays under 4
		{"fractions are summed", msgs("abc", "abc", "abc", "abc", "abc"), 4, "abc,abc,abc,abc,abc"},
		{"sum reaching budget drops oldest", msgs("abcd", "abcd", "abcd", "abcd"), 4, "abcd,abcd,abcd"},
		{"long message dropped", msgs(strings.Repeat("x", 40), "hi", "yo"), 10, "hi,yo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimHistory(tt.messages, chars, tt.budget)
			if contents(got) != tt.want {
				t.Errorf("expected [%s], got [%s]", tt.want, contents(got))
			}
		})
	}
}
