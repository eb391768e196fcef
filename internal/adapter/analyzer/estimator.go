package analyzer

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"ragchat/internal/port"
)

const (
	EstimatorChars = "chars"
	EstimatorWords = "words"
)

// NewEstimator returns the token estimation strategy registered under name.
func NewEstimator(name string) (port.TokenEstimator, error) {
	switch name {
	case "", EstimatorChars:
		return CharEstimator{CharsPerToken: 4}, nil
	case EstimatorWords:
		return WordEstimator{TokensPerWord: 1.3}, nil
	default:
		return nil, fmt.Errorf("unknown token estimator: %s", name)
	}
}

// CharEstimator assumes a fixed number of characters per token.
type CharEstimator struct {
	CharsPerToken float64
}

func (e CharEstimator) CountTokens(text string) float64 {
	per := e.CharsPerToken
	if per <= 0 {
		per = 4
	}
	return float64(utf8.RuneCountInString(text)) / per
}

// WordEstimator counts words and scales for subword tokens.
type WordEstimator struct {
	TokensPerWord float64
}

func (e WordEstimator) CountTokens(text string) float64 {
	return float64(len(splitWords(text))) * e.TokensPerWord
}

// splitWords splits text into words using unicode word boundaries.
func splitWords(text string) []string {
	var words []string
	start := -1

	for i, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			words = append(words, text[start:i])
			start = -1
		}
	}
	if start >= 0 {
		words = append(words, text[start:])
	}

	return words
}
