package usecase

import (
	"ragchat/internal/domain"
	"ragchat/internal/port"
)

// TrimHistory keeps the newest messages whose running estimated token total
// stays under budget. Order is preserved.
func TrimHistory(messages []domain.Message, estimator port.TokenEstimator, budget int) []domain.Message {
	limit := float64(budget)
	total := 0.0
	start := len(messages)
	for i := len(messages) - 1; i >= 0; i-- {
		total += estimator.CountTokens(messages[i].Content)
		if total >= limit {
			break
		}
		start = i
	}
	return messages[start:]
}
