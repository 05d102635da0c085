// Package session holds the live, not-yet-persisted conversation for each
// client between chat turns.
package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/agentpanel/agentpanel/internal/conversation"
)

// Store is the live-conversation session abstraction. Get returns (nil, nil)
// when the key holds nothing.
type Store interface {
	Get(ctx context.Context, key string) (*conversation.Conversation, error)
	Set(ctx context.Context, key string, c *conversation.Conversation) error
	Reset(ctx context.Context, key, sourceID string) (*conversation.Conversation, error)
}

// NewKey mints a fresh session key for clients that present none.
func NewKey() string {
	return ulid.Make().String()
}

func fresh(sourceID string) *conversation.Conversation {
	c := conversation.New("", "", "")
	if sourceID != "" {
		c.Metadata["source_id"] = sourceID
	}
	return c
}

// MemoryStore keeps sessions in process memory. Values are stored encoded so
// callers never share mutable state through the store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*conversation.Conversation, error) {
	s.mu.RLock()
	b, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var c conversation.Conversation
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, c *conversation.Conversation) error {
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[key] = b
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Reset(ctx context.Context, key, sourceID string) (*conversation.Conversation, error) {
	c := fresh(sourceID)
	if err := s.Set(ctx, key, c); err != nil {
		return nil, err
	}
	return c, nil
}
