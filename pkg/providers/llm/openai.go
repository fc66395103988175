// Package llm adapts chat completion services to the orchestrator's
// Generator interface. Everything here speaks the OpenAI chat protocol; the
// per-vendor constructors only differ in base URL and default model.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/voxwire-ai/voxwire/pkg/orchestrator"
)

// ChatClient streams completions from any OpenAI-compatible endpoint.
type ChatClient struct {
	client      *openai.Client
	model       string
	name        string
	maxTokens   int
	temperature float32
}

// NewOpenAI targets the OpenAI API directly.
func NewOpenAI(apiKey, model string) *ChatClient {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &ChatClient{
		client:      openai.NewClient(apiKey),
		model:       model,
		name:        "openai",
		maxTokens:   256,
		temperature: 0.7,
	}
}

func (c *ChatClient) Name() string {
	return c.name
}

func (c *ChatClient) StreamComplete(ctx context.Context, messages []orchestrator.Message, onToken func(string) error) error {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toChatMessages(messages),
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Stream:      true,
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return fmt.Errorf("%s completion: %w", c.name, err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s stream: %w", c.name, err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if token := resp.Choices[0].Delta.Content; token != "" {
			if err := onToken(token); err != nil {
				return err
			}
		}
	}
}

func toChatMessages(messages []orchestrator.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return out
}
