package conversation

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Envelope is the versioned JSON wrapper used for export and import.
type Envelope struct {
	SchemaVersion int              `json:"schema_version"`
	Conversation  WireConversation `json:"conversation"`
	Messages      []WireMessage    `json:"messages"`
}

type WireConversation struct {
	Title       string   `json:"title"`
	ContextID   string   `json:"context_id"`
	ContextType string   `json:"context_type"`
	ContextName string   `json:"context_name"`
	CreatedAt   *string  `json:"created_at"`
	Metadata    Metadata `json:"metadata"`
}

type WireMessage struct {
	Role      string   `json:"role"`
	Content   string   `json:"content"`
	Timestamp *string  `json:"timestamp"`
	Metadata  Metadata `json:"metadata"`
}

// Envelope serializes the full conversation, messages in their current order.
func (c *Conversation) Envelope() *Envelope {
	env := &Envelope{
		SchemaVersion: SchemaVersion,
		Conversation: WireConversation{
			Title:       c.Title,
			ContextID:   c.ContextID,
			ContextType: c.ContextType,
			ContextName: c.ContextName,
			CreatedAt:   formatTime(c.CreatedAt),
			Metadata:    c.Metadata,
		},
		Messages: make([]WireMessage, 0, len(c.Messages)),
	}
	for _, m := range c.Messages {
		env.Messages = append(env.Messages, WireMessage{
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: formatTime(m.Timestamp),
			Metadata:  m.Metadata,
		})
	}
	return env
}

// FromEnvelope constructs a fresh, unpersisted conversation. Message order in
// the envelope becomes the persisted chronological order.
func FromEnvelope(env *Envelope) *Conversation {
	c := New(env.Conversation.ContextID, env.Conversation.ContextType, env.Conversation.ContextName)
	c.Title = env.Conversation.Title
	if env.Conversation.Metadata != nil {
		c.Metadata = env.Conversation.Metadata
	}
	if t, ok := parseTime(env.Conversation.CreatedAt); ok {
		c.CreatedAt = t
		c.UpdatedAt = t
	}
	base := time.Now()
	for i, wm := range env.Messages {
		role := wm.Role
		if role == "" {
			role = "assistant"
		}
		m := &Message{
			Role:     role,
			Content:  wm.Content,
			Metadata: wm.Metadata,
		}
		if t, ok := parseTime(wm.Timestamp); ok {
			m.Timestamp = t
		} else {
			// Keep input order stable when timestamps are absent.
			m.Timestamp = base.Add(time.Duration(i) * time.Millisecond)
		}
		c.AddMessage(m)
	}
	return c
}

// ParseEnvelope decodes raw JSON and rejects payloads missing the
// conversation object or the messages array.
func ParseEnvelope(raw []byte) (*Envelope, error) {
	var probe struct {
		SchemaVersion int             `json:"schema_version"`
		Conversation  json.RawMessage `json:"conversation"`
		Messages      json.RawMessage `json:"messages"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, err
	}
	if len(probe.Conversation) == 0 || string(probe.Conversation) == "null" {
		return nil, errors.New("envelope: missing conversation object")
	}
	if len(probe.Messages) == 0 || string(probe.Messages) == "null" {
		return nil, errors.New("envelope: missing messages array")
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

func formatTime(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func parseTime(s *string) (time.Time, bool) {
	if s == nil || *s == "" {
		return time.Time{}, false
	}
	v := strings.TrimSpace(*s)
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, true
	}
	// Bare timestamps without a zone are accepted as local time.
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", v, time.Local); err == nil {
		return t, true
	}
	return time.Time{}, false
}
