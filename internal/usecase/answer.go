package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"ragchat/internal/domain"
	"ragchat/internal/port"
)

// Answer is a grounded response and the chunks it was grounded on.
type Answer struct {
	Response       string
	Model          string
	RelevantChunks []domain.ScoredChunk
}

// AnswerUseCase runs the retrieval-augmented pipeline: rank chunks, build
// the context, render the system prompt, ask the model.
type AnswerUseCase struct {
	retrieve  *RetrieveUseCase
	completer port.Completer
	prompts   *Prompts
	topK      int
	gen       Generation
	logger    *zerolog.Logger
}

func NewAnswerUseCase(
	retrieve *RetrieveUseCase,
	completer port.Completer,
	prompts *Prompts,
	topK int,
	gen Generation,
	logger *zerolog.Logger,
) *AnswerUseCase {
	return &AnswerUseCase{
		retrieve:  retrieve,
		completer: completer,
		prompts:   prompts,
		topK:      topK,
		gen:       gen,
		logger:    logger,
	}
}

// Prompt returns the messages that would be sent for question.
func (u *AnswerUseCase) Prompt(ctx context.Context, question string) ([]domain.Message, []domain.ScoredChunk, error) {
	if question == "" {
		return nil, nil, fmt.Errorf("%w: question is required", domain.ErrInvalidParameter)
	}

	results, err := u.retrieve.Retrieve(ctx, question, u.topK)
	if err != nil {
		return nil, nil, err
	}

	system, err := u.prompts.Retrieval(BuildContext(results))
	if err != nil {
		return nil, nil, err
	}

	return []domain.Message{
		{Role: domain.RoleSystem, Content: system},
		{Role: domain.RoleUser, Content: question},
	}, results, nil
}

func (u *AnswerUseCase) Ask(ctx context.Context, question string) (*Answer, error) {
	messages, results, err := u.Prompt(ctx, question)
	if err != nil {
		return nil, err
	}

	resp, err := u.completer.Complete(ctx, u.gen.request(messages))
	if err != nil {
		return nil, err
	}

	u.logger.Info().Int("chunks", len(results)).Str("model", resp.Model).Msg("answered with context")

	return &Answer{
		Response:       resp.Content,
		Model:          resp.Model,
		RelevantChunks: results,
	}, nil
}

// AskMessages answers the content of the last message.
func (u *AnswerUseCase) AskMessages(ctx context.Context, messages []domain.Message) (*Answer, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("%w: messages must not be empty", domain.ErrInvalidParameter)
	}
	return u.Ask(ctx, messages[len(messages)-1].Content)
}
