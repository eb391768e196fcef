package api

import (
	"encoding/json"
	"fmt"

	"ragchat/internal/domain"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Details string `json:"details,omitempty"`
}

type MessageDTO struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type MessagesRequest struct {
	Messages []MessageDTO `json:"messages"`
}

func (r MessagesRequest) Validate() error {
	if len(r.Messages) == 0 {
		return fmt.Errorf("%w: messages must not be empty", domain.ErrInvalidParameter)
	}
	for i, m := range r.Messages {
		switch m.Role {
		case domain.RoleSystem, domain.RoleUser, domain.RoleAssistant:
		default:
			return fmt.Errorf("%w: message %d has unsupported role %q", domain.ErrInvalidParameter, i, m.Role)
		}
	}
	return nil
}

func (r MessagesRequest) DomainMessages() []domain.Message {
	out := make([]domain.Message, len(r.Messages))
	for i, m := range r.Messages {
		out[i] = domain.Message{Role: m.Role, Content: m.Content}
	}
	return out
}

type Choice struct {
	Index        int        `json:"index"`
	Message      MessageDTO `json:"message"`
	FinishReason string     `json:"finish_reason,omitempty"`
}

type ChatResponse struct {
	Choices []Choice `json:"choices"`
	Model   string   `json:"model,omitempty"`
}

type ToolCallDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type FunctionResponse struct {
	Choices   []Choice      `json:"choices"`
	Model     string        `json:"model,omitempty"`
	ToolCalls []ToolCallDTO `json:"toolCalls"`
}

type StreamRequest struct {
	Question string `json:"question"`
}

type MemoryRequest struct {
	SessionID    string `json:"sessionId,omitempty"`
	Message      string `json:"message"`
	ClearHistory bool   `json:"clearHistory,omitempty"`
}

type MemoryResponse struct {
	SessionID string `json:"sessionId"`
	Response  string `json:"response"`
}

type HistoryResponse struct {
	SessionID string       `json:"sessionId"`
	Messages  []MessageDTO `json:"messages"`
}

type VectorResponse struct {
	Response       string   `json:"response"`
	RelevantChunks []string `json:"relevantChunks"`
	Model          string   `json:"model,omitempty"`
}

// SSEEvent is one server-sent event; Data is written as JSON.
type SSEEvent struct {
	Event string `json:"-"`
	Data  any    `json:"-"`
}

type StreamStartEvent struct {
	Model string `json:"model"`
}

type StreamChunkEvent struct {
	Text string `json:"text"`
}

type StreamDoneEvent struct {
	StopReason string `json:"stop_reason"`
}

type StreamErrorEvent struct {
	Error string `json:"error"`
}

func (e SSEEvent) Format() (string, error) {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("event: %s\ndata: %s\n\n", e.Event, data), nil
}

func choiceFrom(content, finishReason string) []Choice {
	return []Choice{{
		Message:      MessageDTO{Role: domain.RoleAssistant, Content: content},
		FinishReason: finishReason,
	}}
}
