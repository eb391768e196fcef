package port

import (
	"context"

	"ragchat/internal/domain"
)

//go:generate mockgen -destination=mocks/session.go -package=mocks ragchat/internal/port SessionStore

// SessionStore keeps conversation history per session id.
type SessionStore interface {
	// Get returns domain.ErrSessionNotFound for unknown or expired sessions.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// Append creates the session when it does not exist.
	Append(ctx context.Context, id string, messages ...domain.Message) error

	Clear(ctx context.Context, id string) error
}
