package ai

import "context"

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one generation call. Model travels per request so a caller can
// walk a fallback list over a single provider instance.
type Request struct {
	Model     string
	System    string
	Messages  []Message
	MaxTokens int
}

type Provider interface {
	// Chat runs one blocking generation round trip. Failures are returned
	// as *Error so callers can branch on the failure class instead of
	// matching failure text.
	Chat(ctx context.Context, req Request) (string, error)
	Name() string
}
