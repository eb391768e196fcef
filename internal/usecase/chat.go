package usecase

import (
	"context"
	"fmt"

	"ragchat/internal/domain"
	"ragchat/internal/port"
)

// Generation holds per-call completion settings.
type Generation struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

func (g Generation) request(messages []domain.Message) port.CompletionRequest {
	return port.CompletionRequest{
		Messages:    messages,
		Model:       g.Model,
		Temperature: g.Temperature,
		MaxTokens:   g.MaxTokens,
	}
}

// ChatUseCase forwards conversations to the completion model.
type ChatUseCase struct {
	completer   port.Completer
	estimator   port.TokenEstimator
	tokenBudget int
	prompts     *Prompts
	gen         Generation
}

func NewChatUseCase(
	completer port.Completer,
	estimator port.TokenEstimator,
	tokenBudget int,
	prompts *Prompts,
	gen Generation,
) *ChatUseCase {
	return &ChatUseCase{
		completer:   completer,
		estimator:   estimator,
		tokenBudget: tokenBudget,
		prompts:     prompts,
		gen:         gen,
	}
}

// Chat sends the newest messages that fit the token budget.
func (u *ChatUseCase) Chat(ctx context.Context, messages []domain.Message) (*port.CompletionResponse, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("%w: messages must not be empty", domain.ErrInvalidParameter)
	}

	trimmed := TrimHistory(messages, u.estimator, u.tokenBudget)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: newest message exceeds the token budget of %d", domain.ErrInvalidParameter, u.tokenBudget)
	}

	return u.completer.Complete(ctx, u.gen.request(trimmed))
}

// Assist prefixes the conversation with the assistant guidelines.
func (u *ChatUseCase) Assist(ctx context.Context, messages []domain.Message) (*port.CompletionResponse, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("%w: messages must not be empty", domain.ErrInvalidParameter)
	}

	system, err := u.prompts.Assistant()
	if err != nil {
		return nil, err
	}

	full := make([]domain.Message, 0, len(messages)+1)
	full = append(full, domain.Message{Role: domain.RoleSystem, Content: system})
	full = append(full, messages...)

	return u.completer.Complete(ctx, u.gen.request(full))
}
