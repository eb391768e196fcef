package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"ragchat/internal/domain"
	"ragchat/internal/port"
)

// FunctionResult is the final completion plus the tool calls made on the way.
type FunctionResult struct {
	Response  *port.CompletionResponse
	ToolCalls []domain.ToolCall
}

type FunctionUseCase struct {
	completer port.Completer
	tools     port.ToolRunner
	gen       Generation
	logger    *zerolog.Logger
}

func NewFunctionUseCase(completer port.Completer, tools port.ToolRunner, gen Generation, logger *zerolog.Logger) *FunctionUseCase {
	return &FunctionUseCase{
		completer: completer,
		tools:     tools,
		gen:       gen,
		logger:    logger,
	}
}

// Run offers the registered tools to the model. If it calls any, each call
// is executed and the results go back in a second completion without tools.
func (u *FunctionUseCase) Run(ctx context.Context, messages []domain.Message) (*FunctionResult, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("%w: messages must not be empty", domain.ErrInvalidParameter)
	}

	req := u.gen.request(messages)
	req.Tools = u.tools.Specs()

	first, err := u.completer.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(first.ToolCalls) == 0 {
		return &FunctionResult{Response: first}, nil
	}

	followUp := make([]domain.Message, 0, len(messages)+1+len(first.ToolCalls))
	followUp = append(followUp, messages...)
	followUp = append(followUp, domain.Message{
		Role:      domain.RoleAssistant,
		Content:   first.Content,
		ToolCalls: first.ToolCalls,
	})

	for _, call := range first.ToolCalls {
		output, err := u.tools.Call(ctx, call.Name, call.Arguments)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", call.Name, err)
		}
		u.logger.Debug().Str("tool", call.Name).Str("arguments", call.Arguments).Msg("tool called")

		followUp = append(followUp, domain.Message{
			Role:       domain.RoleTool,
			Name:       call.Name,
			ToolCallID: call.ID,
			Content:    output,
		})
	}

	second, err := u.completer.Complete(ctx, u.gen.request(followUp))
	if err != nil {
		return nil, err
	}

	return &FunctionResult{Response: second, ToolCalls: first.ToolCalls}, nil
}
