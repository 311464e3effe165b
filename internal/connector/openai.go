package connector

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConnector talks to OpenAI chat models (gpt-4o, gpt-4o-mini, ...).
type OpenAIConnector struct {
	client       *openai.Client
	model        string
	systemPrompt string
	temperature  float32
	maxTokens    int
}

// OpenAIOption customises an OpenAIConnector.
type OpenAIOption func(*OpenAIConnector)

// WithSystemPrompt sets a system message prepended to every prompt.
func WithSystemPrompt(prompt string) OpenAIOption {
	return func(c *OpenAIConnector) { c.systemPrompt = prompt }
}

// WithTemperature overrides the default sampling temperature (0.7).
func WithTemperature(t float32) OpenAIOption {
	return func(c *OpenAIConnector) { c.temperature = t }
}

// WithMaxTokens overrides the default completion budget (1000).
func WithMaxTokens(n int) OpenAIOption {
	return func(c *OpenAIConnector) { c.maxTokens = n }
}

// NewOpenAIConnector creates a connector for the given model and API key.
func NewOpenAIConnector(model, apiKey string, opts ...OpenAIOption) *OpenAIConnector {
	c := &OpenAIConnector{
		client:      openai.NewClient(apiKey),
		model:       model,
		temperature: 0.7,
		maxTokens:   1000,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements Connector.
func (c *OpenAIConnector) Name() string { return "openai" }

// Respond sends the prompt to OpenAI and returns a standardised Response.
func (c *OpenAIConnector) Respond(ctx context.Context, prompt string) (*Response, error) {
	var messages []openai.ChatCompletionMessage
	if c.systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: c.systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	start := time.Now()
	completion, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	elapsed := time.Since(start)

	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	return &Response{
		Text:       completion.Choices[0].Message.Content,
		LatencyMS:  float64(elapsed) / float64(time.Millisecond),
		TokenCount: completion.Usage.TotalTokens,
		Model:      completion.Model,
		Prompt:     prompt,
		Metadata: map[string]string{
			"finish_reason": string(completion.Choices[0].FinishReason),
		},
	}, nil
}
