// Package openai implements both provider interfaces on the OpenAI API via
// go-openai: gpt-4o for chat replies and a configurable multimodal model for
// photo analyses.
package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/pianotechmtl/ptm-chat-backend/internal/providers"
)

const (
	defaultChatModel = "gpt-4o"
	chatTemperature  = 0.7
	chatTimeout      = 60 * time.Second
)

// ChatProvider implements providers.ChatResponder.
type ChatProvider struct {
	client *openai.Client
	model  string
}

// NewChatProvider creates a ChatProvider. The API key is required; an empty
// model selects the default.
func NewChatProvider(apiKey, model string) (*ChatProvider, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if model == "" {
		model = defaultChatModel
	}
	return &ChatProvider{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

// Respond sends the assembled message sequence and returns the reply text.
func (p *ChatProvider) Respond(ctx context.Context, messages []providers.Message, budget providers.ReplyBudget) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, chatTimeout)
	defer cancel()

	converted := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		converted[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    converted,
		Temperature: chatTemperature,
		MaxTokens:   int(budget),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", providers.ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
