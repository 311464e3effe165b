package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// chatMessage is a single message in an OpenAI-compatible chat request.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is an OpenAI-compatible chat completion request.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// chatResponse is an OpenAI-compatible chat completion response.
type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// CompatConnector drives any OpenAI-compatible chat endpoint. Ollama and
// OpenRouter both speak this protocol, so they share the implementation and
// differ only in base URL, auth, and the name they report.
type CompatConnector struct {
	name         string
	endpoint     string
	apiKey       string
	model        string
	systemPrompt string
	httpClient   *http.Client
}

// NewOllamaConnector creates a connector for a local Ollama server.
// baseURL defaults to http://localhost:11434/v1 when empty.
func NewOllamaConnector(model, baseURL string) *CompatConnector {
	if baseURL == "" {
		baseURL = "http://localhost:11434/v1"
	}
	return newCompat("ollama", baseURL, "", model)
}

// NewOpenRouterConnector creates a connector for the OpenRouter gateway.
func NewOpenRouterConnector(model, apiKey string) *CompatConnector {
	return newCompat("openrouter", "https://openrouter.ai/api/v1", apiKey, model)
}

func newCompat(name, endpoint, apiKey, model string) *CompatConnector {
	return &CompatConnector{
		name:     name,
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// SetSystemPrompt sets a system message prepended to every prompt.
func (c *CompatConnector) SetSystemPrompt(prompt string) {
	c.systemPrompt = prompt
}

// Name implements Connector.
func (c *CompatConnector) Name() string { return c.name }

// Respond sends a non-streaming chat completion request.
func (c *CompatConnector) Respond(ctx context.Context, prompt string) (*Response, error) {
	var messages []chatMessage
	if c.systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: c.systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	reqBody, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	elapsed := time.Since(start)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error: status=%d body=%s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	return &Response{
		Text:       chatResp.Choices[0].Message.Content,
		LatencyMS:  float64(elapsed) / float64(time.Millisecond),
		TokenCount: chatResp.Usage.TotalTokens,
		Model:      chatResp.Model,
		Prompt:     prompt,
		Metadata: map[string]string{
			"finish_reason": chatResp.Choices[0].FinishReason,
		},
	}, nil
}
