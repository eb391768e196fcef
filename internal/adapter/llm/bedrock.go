package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"ragchat/internal/domain"
	"ragchat/internal/port"
)

const anthropicVersion = "bedrock-2023-05-31"

type bedrockAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
	InvokeModelWithResponseStream(ctx context.Context, params *bedrockruntime.InvokeModelWithResponseStreamInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelWithResponseStreamOutput, error)
}

// BedrockCompleter runs Anthropic Claude models on AWS Bedrock. Tool calls are
// not supported.
type BedrockCompleter struct {
	client  bedrockAPI
	modelID string
}

func NewBedrockCompleter(ctx context.Context, region, modelID string) (*BedrockCompleter, error) {
	if modelID == "" {
		return nil, fmt.Errorf("bedrock model ID is required")
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	return &BedrockCompleter{
		client:  bedrockruntime.NewFromConfig(cfg),
		modelID: modelID,
	}, nil
}

type claudeMessageRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	Temperature      float64         `json:"temperature,omitempty"`
	System           string          `json:"system,omitempty"`
	Messages         []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeMessageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Model      string `json:"model"`
}

func (c *BedrockCompleter) ModelName() string {
	return c.modelID
}

func (c *BedrockCompleter) Complete(ctx context.Context, req port.CompletionRequest) (*port.CompletionResponse, error) {
	body, modelID, err := c.body(req)
	if err != nil {
		return nil, err
	}

	output, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: bedrock invoke: %v", domain.ErrExternalService, err)
	}

	var response claudeMessageResponse
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal bedrock response: %v", domain.ErrExternalService, err)
	}

	var content strings.Builder
	for _, block := range response.Content {
		if block.Type == "" || block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	model := response.Model
	if model == "" {
		model = modelID
	}
	return &port.CompletionResponse{
		Content:    content.String(),
		StopReason: response.StopReason,
		Model:      model,
	}, nil
}

func (c *BedrockCompleter) Stream(ctx context.Context, req port.CompletionRequest, callback port.StreamCallback) (*port.CompletionResponse, error) {
	body, modelID, err := c.body(req)
	if err != nil {
		return nil, err
	}

	output, err := c.client.InvokeModelWithResponseStream(ctx, &bedrockruntime.InvokeModelWithResponseStreamInput{
		ModelId:     aws.String(modelID),
		Body:        body,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: bedrock invoke stream: %v", domain.ErrExternalService, err)
	}

	stream := output.GetStream()
	defer stream.Close()

	var content strings.Builder
	var stopReason string

	for event := range stream.Events() {
		chunk, ok := event.(*types.ResponseStreamMemberChunk)
		if !ok {
			continue
		}

		var ev struct {
			Type  string `json:"type"`
			Delta struct {
				Text       string `json:"text"`
				StopReason string `json:"stop_reason"`
			} `json:"delta"`
			ContentBlock struct {
				Text string `json:"text"`
			} `json:"content_block"`
		}
		if err := json.Unmarshal(chunk.Value.Bytes, &ev); err != nil {
			continue
		}

		if ev.Delta.StopReason != "" {
			stopReason = ev.Delta.StopReason
		}

		text := ev.Delta.Text
		if text == "" {
			text = ev.ContentBlock.Text
		}
		if text == "" {
			continue
		}

		content.WriteString(text)
		if callback != nil {
			if err := callback(text); err != nil {
				return nil, fmt.Errorf("callback error: %w", err)
			}
		}
	}

	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("%w: bedrock stream: %v", domain.ErrExternalService, err)
	}

	return &port.CompletionResponse{
		Content:    content.String(),
		StopReason: stopReason,
		Model:      modelID,
	}, nil
}

func (c *BedrockCompleter) body(req port.CompletionRequest) ([]byte, string, error) {
	if len(req.Tools) > 0 {
		return nil, "", fmt.Errorf("%w: bedrock completer does not support tools", domain.ErrInvalidParameter)
	}

	modelID := c.modelID
	if req.Model != "" {
		modelID = req.Model
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	payload := claudeMessageRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        maxTokens,
		Temperature:      req.Temperature,
	}

	var system []string
	for _, msg := range req.Messages {
		switch msg.Role {
		case domain.RoleSystem:
			system = append(system, msg.Content)
		case domain.RoleAssistant:
			payload.Messages = appendClaudeMessage(payload.Messages, "assistant", msg.Content)
		default:
			payload.Messages = appendClaudeMessage(payload.Messages, "user", msg.Content)
		}
	}
	payload.System = strings.Join(system, "\n\n")

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal request: %w", err)
	}
	return body, modelID, nil
}

// appendClaudeMessage merges consecutive turns from the same role, which the
// messages API rejects.
func appendClaudeMessage(messages []claudeMessage, role, content string) []claudeMessage {
	if n := len(messages); n > 0 && messages[n-1].Role == role {
		messages[n-1].Content += "\n\n" + content
		return messages
	}
	return append(messages, claudeMessage{Role: role, Content: content})
}
