// Package host declares the contracts the embedding application fulfils for
// the agent layer: source material, contextual data and authentication.
package host

import "context"

// Source is a piece of reference material owned by the host application.
type Source struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Content  string         `json:"content,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ContextInfo describes one external subject a conversation can be tied to.
type ContextInfo struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SourceProvider exposes the host's source/guideline material.
type SourceProvider interface {
	AllSources(ctx context.Context) ([]Source, error)
	SourceByID(ctx context.Context, id string) (*Source, error)
	RelevantSources(ctx context.Context, query, contextID string, limit int) ([]Source, error)
	Guidelines(ctx context.Context, contextID string) (string, error)
}

// ContextProvider exposes the host's contextual data.
type ContextProvider interface {
	ContextName(ctx context.Context, contextID, contextType string) (string, error)
	ContextData(ctx context.Context, contextID, contextType string) (map[string]any, error)
	ListContexts(ctx context.Context, contextType string) ([]ContextInfo, error)
	CurrentUser(ctx context.Context) (*User, error)
	AssembleContext(ctx context.Context, sourceID, query string, params map[string]any) (map[string]any, error)
	FormatContext(ctx context.Context, data map[string]any, maxTokens int) (string, error)
	GuidelinesForSource(ctx context.Context, sourceID string) (string, error)
}

// Auth is the pluggable authentication boundary.
type Auth interface {
	CurrentUser(ctx context.Context) (*User, error)
	IsAuthenticated(ctx context.Context) bool
}

// NoopAuth treats every caller as an authenticated anonymous user.
type NoopAuth struct{}

func (NoopAuth) CurrentUser(context.Context) (*User, error) { return &User{ID: "anonymous"}, nil }
func (NoopAuth) IsAuthenticated(context.Context) bool       { return true }
