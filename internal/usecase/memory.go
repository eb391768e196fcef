package usecase

import (
	"context"
	"errors"
	"fmt"

	"ragchat/internal/domain"
	"ragchat/internal/port"
)

// MemoryUseCase holds a conversation across requests through a session store.
type MemoryUseCase struct {
	completer port.Completer
	sessions  port.SessionStore
	prompts   *Prompts
	gen       Generation
}

func NewMemoryUseCase(completer port.Completer, sessions port.SessionStore, prompts *Prompts, gen Generation) *MemoryUseCase {
	return &MemoryUseCase{
		completer: completer,
		sessions:  sessions,
		prompts:   prompts,
		gen:       gen,
	}
}

// Send answers message in the light of the session's history, then records
// both turns. A failed completion leaves the history untouched.
func (u *MemoryUseCase) Send(ctx context.Context, sessionID, message string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("%w: session id is required", domain.ErrInvalidParameter)
	}
	if message == "" {
		return "", fmt.Errorf("%w: message is required", domain.ErrInvalidParameter)
	}

	var history []domain.Message
	session, err := u.sessions.Get(ctx, sessionID)
	switch {
	case err == nil:
		history = session.Messages
	case errors.Is(err, domain.ErrSessionNotFound):
	default:
		return "", fmt.Errorf("failed to load session: %w", err)
	}

	prompt, err := u.prompts.Memory(history, message)
	if err != nil {
		return "", err
	}

	resp, err := u.completer.Complete(ctx, u.gen.request([]domain.Message{
		{Role: domain.RoleUser, Content: prompt},
	}))
	if err != nil {
		return "", err
	}

	err = u.sessions.Append(ctx, sessionID,
		domain.Message{Role: domain.RoleUser, Content: message},
		domain.Message{Role: domain.RoleAssistant, Content: resp.Content},
	)
	if err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}

	return resp.Content, nil
}

func (u *MemoryUseCase) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("%w: session id is required", domain.ErrInvalidParameter)
	}
	return u.sessions.Clear(ctx, sessionID)
}

// History returns the stored turns, or none for an unknown session.
func (u *MemoryUseCase) History(ctx context.Context, sessionID string) ([]domain.Message, error) {
	session, err := u.sessions.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return session.Messages, nil
}
