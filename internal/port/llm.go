package port

import (
	"context"

	"ragchat/internal/domain"
)

//go:generate mockgen -destination=mocks/completer.go -package=mocks ragchat/internal/port Completer

type CompletionRequest struct {
	Messages    []domain.Message
	Tools       []domain.ToolSpec
	Temperature float64
	MaxTokens   int
	// Model overrides the client's default model when set.
	Model string
}

type CompletionResponse struct {
	Content    string
	StopReason string
	Model      string
	ToolCalls  []domain.ToolCall
}

// StreamCallback receives each text delta as it arrives.
type StreamCallback func(chunk string) error

// Completer represents a hosted chat-completion model.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Stream invokes callback per delta and returns the assembled response.
	Stream(ctx context.Context, req CompletionRequest, callback StreamCallback) (*CompletionResponse, error)

	ModelName() string
}
