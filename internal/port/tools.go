package port

import (
	"context"

	"ragchat/internal/domain"
)

// ToolRunner executes functions the completion model asks for.
type ToolRunner interface {
	Specs() []domain.ToolSpec

	// Call returns domain.ErrUnknownTool for names not in Specs.
	Call(ctx context.Context, name, arguments string) (string, error)
}
