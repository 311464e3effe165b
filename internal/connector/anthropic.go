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

const anthropicEndpoint = "https://api.anthropic.com/v1/messages"

// anthropicRequest is the Anthropic messages API request body.
type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// anthropicResponse is the Anthropic messages API response body.
type anthropicResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// AnthropicConnector talks to Anthropic models via the native messages API,
// which is not OpenAI-compatible and needs its own request shape.
type AnthropicConnector struct {
	model        string
	apiKey       string
	systemPrompt string
	maxTokens    int
	httpClient   *http.Client
}

// NewAnthropicConnector creates a connector for the given model and API key.
func NewAnthropicConnector(model, apiKey string) *AnthropicConnector {
	return &AnthropicConnector{
		model:     model,
		apiKey:    apiKey,
		maxTokens: 1000,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// SetSystemPrompt sets a system message sent with every prompt.
func (c *AnthropicConnector) SetSystemPrompt(prompt string) {
	c.systemPrompt = prompt
}

// Name implements Connector.
func (c *AnthropicConnector) Name() string { return "anthropic" }

// Respond sends the prompt to Anthropic and returns a standardised Response.
func (c *AnthropicConnector) Respond(ctx context.Context, prompt string) (*Response, error) {
	reqBody, err := json.Marshal(anthropicRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    c.systemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicEndpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

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

	var msgResp anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&msgResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	text := ""
	for _, block := range msgResp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return nil, fmt.Errorf("no text content in response")
	}

	return &Response{
		Text:       text,
		LatencyMS:  float64(elapsed) / float64(time.Millisecond),
		TokenCount: msgResp.Usage.InputTokens + msgResp.Usage.OutputTokens,
		Model:      msgResp.Model,
		Prompt:     prompt,
		Metadata: map[string]string{
			"stop_reason": msgResp.StopReason,
		},
	}, nil
}
