package usecase

import (
	"context"
	"fmt"

	"ragchat/internal/domain"
	"ragchat/internal/port"
)

// fewShot primes the streaming conversation with a short exchange.
var fewShot = []domain.Message{
	{Role: domain.RoleSystem, Content: "You are a helpful assistant."},
	{Role: domain.RoleUser, Content: "Hi! My name is John!"},
	{Role: domain.RoleAssistant, Content: "Hello, John! How can I help you today?"},
	{Role: domain.RoleUser, Content: "I live in Shibuya 3-chome, Shibuya-ku."},
}

type StreamUseCase struct {
	completer port.Completer
	gen       Generation
}

func NewStreamUseCase(completer port.Completer, gen Generation) *StreamUseCase {
	return &StreamUseCase{completer: completer, gen: gen}
}

// Messages returns the conversation sent for question.
func (u *StreamUseCase) Messages(question string) []domain.Message {
	messages := make([]domain.Message, 0, len(fewShot)+1)
	messages = append(messages, fewShot...)
	return append(messages, domain.Message{Role: domain.RoleUser, Content: question})
}

// Stream passes every delta to callback as it arrives.
func (u *StreamUseCase) Stream(ctx context.Context, question string, callback port.StreamCallback) (*port.CompletionResponse, error) {
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrInvalidParameter)
	}
	return u.completer.Stream(ctx, u.gen.request(u.Messages(question)), callback)
}

func (u *StreamUseCase) ModelName() string {
	if u.gen.Model != "" {
		return u.gen.Model
	}
	return u.completer.ModelName()
}
