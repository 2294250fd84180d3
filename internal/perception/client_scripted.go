package perception

import (
	"context"
	"errors"
	"sync"
)

// ErrScriptExhausted is returned when a ScriptedClient runs out of replies.
var ErrScriptExhausted = errors.New("scripted client has no replies left")

// ScriptedReply is one canned model answer.
type ScriptedReply struct {
	Text string
	Err  error
}

// ScriptedClient replays canned replies in order. It records every prompt it
// receives. Used for offline runs and tests.
type ScriptedClient struct {
	mu      sync.Mutex
	replies []ScriptedReply
	prompts []string
	systems []string
}

// NewScriptedClient creates a client that answers with texts in order.
func NewScriptedClient(texts ...string) *ScriptedClient {
	c := &ScriptedClient{}
	for _, t := range texts {
		c.replies = append(c.replies, ScriptedReply{Text: t})
	}
	return c
}

// Push appends a reply.
func (c *ScriptedClient) Push(reply ScriptedReply) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, reply)
}

// Complete implements LLMClient.
func (c *ScriptedClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem implements LLMClient.
func (c *ScriptedClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, userPrompt)
	c.systems = append(c.systems, systemPrompt)
	if len(c.replies) == 0 {
		return "", ErrScriptExhausted
	}
	next := c.replies[0]
	c.replies = c.replies[1:]
	return next.Text, next.Err
}

// Prompts returns the user prompts received so far.
func (c *ScriptedClient) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prompts...)
}

// Remaining returns the number of unused replies.
func (c *ScriptedClient) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.replies)
}
