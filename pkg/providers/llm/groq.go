package llm

import (
	openai "github.com/sashabaranov/go-openai"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// NewGroq targets Groq's OpenAI-compatible API. Groq's inference latency is
// what makes streaming replies feel conversational on a phone line.
func NewGroq(apiKey, model string) *ChatClient {
	if model == "" {
		model = "llama-3.3-70b-versatile"
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = groqBaseURL
	return &ChatClient{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		name:        "groq",
		maxTokens:   256,
		temperature: 0.7,
	}
}
