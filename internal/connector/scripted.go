package connector

import (
	"context"
	"fmt"
	"sync"
)

// ScriptedConnector replays a fixed sequence of canned responses. It exists
// for tests and for wiring custom systems into the checkers without a real
// provider: the sequence wraps around when exhausted.
type ScriptedConnector struct {
	mu      sync.Mutex
	replies []string
	errs    map[int]error
	next    int
}

// NewScriptedConnector creates a connector that answers with replies in
// order, wrapping around after the last one.
func NewScriptedConnector(replies ...string) *ScriptedConnector {
	return &ScriptedConnector{
		replies: replies,
		errs:    make(map[int]error),
	}
}

// FailOn makes the nth call (zero-based) return err instead of a response.
func (c *ScriptedConnector) FailOn(n int, err error) *ScriptedConnector {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs[n] = err
	return c
}

// Name implements Connector.
func (c *ScriptedConnector) Name() string { return "scripted" }

// Respond implements Connector.
func (c *ScriptedConnector) Respond(ctx context.Context, prompt string) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	call := c.next
	c.next++
	err := c.errs[call]
	var text string
	if len(c.replies) > 0 {
		text = c.replies[call%len(c.replies)]
	}
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if len(c.replies) == 0 {
		return nil, fmt.Errorf("scripted connector has no replies")
	}

	return &Response{
		Text:     text,
		Model:    "scripted",
		Prompt:   prompt,
		Metadata: map[string]string{"call": fmt.Sprintf("%d", call)},
	}, nil
}

// Calls returns how many times Respond has been invoked.
func (c *ScriptedConnector) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}
