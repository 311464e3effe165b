package connector

import (
	"context"
	"fmt"
)

// Response is a single standardised answer from a model. It is created once
// by a connector and never mutated afterwards; downstream components treat
// it as read-only.
type Response struct {
	Text       string            `json:"text"`
	LatencyMS  float64           `json:"latency_ms"`
	TokenCount int               `json:"token_count,omitempty"`
	Model      string            `json:"model,omitempty"`
	Prompt     string            `json:"prompt,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// WordCount returns the number of whitespace-separated words in the text.
func (r *Response) WordCount() int {
	count := 0
	inWord := false
	for _, c := range r.Text {
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			inWord = false
		} else if !inWord {
			inWord = true
			count++
		}
	}
	return count
}

// Connector is the single capability the checkers consume: send a prompt,
// get a Response. Implementations wrap a specific provider; failures
// surface as ordinary errors that callers wrap into CollaboratorError.
type Connector interface {
	Respond(ctx context.Context, prompt string) (*Response, error)
	Name() string
}

// CollaboratorError reports that a required model invocation failed. Run
// carries the zero-based invocation index so callers can retry precisely;
// the core itself never retries.
type CollaboratorError struct {
	Run int
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("collaborator failed on run %d: %v", e.Run, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}
