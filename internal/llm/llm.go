package llm

import (
	"context"
	"errors"
)

// Chat message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Upstream failures, translated from provider responses so handlers never
// surface a raw provider error body.
var (
	ErrInvalidRequest       = errors.New("completion service rejected the request")
	ErrAuthenticationFailed = errors.New("completion service authentication failed")
	ErrUnavailable          = errors.New("completion service unavailable")
)

// Message is one turn in an ordered chat sequence.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client abstracts the completion service: it accepts an ordered message
// sequence and returns the generated text of the first choice.
type Client interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}
