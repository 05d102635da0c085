package conversation

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// SchemaVersion is recorded once in schema_info and stamped on every export
// envelope. Bump it when the persisted shape changes.
const SchemaVersion = 1

// Metadata is an open string-keyed map persisted as a JSON text column.
// Malformed stored JSON degrades to an empty map instead of failing the read.
type Metadata map[string]any

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *Metadata) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("metadata: unsupported column type %T", src)
	}
	out := Metadata{}
	if err := json.Unmarshal(b, &out); err != nil {
		*m = Metadata{}
		return nil
	}
	*m = out
	return nil
}

// Conversation is a titled, timestamped sequence of messages tied to an
// external subject identified by context_id/context_type.
type Conversation struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id,omitempty"`
	Title       string    `gorm:"type:text;not null" json:"title"`
	ContextID   string    `gorm:"type:text;not null;index:idx_conversation_context,priority:2" json:"context_id"`
	ContextType string    `gorm:"type:text;not null;index:idx_conversation_context,priority:1" json:"context_type"`
	ContextName string    `gorm:"type:text;not null" json:"context_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `gorm:"index" json:"updated_at"`
	Metadata    Metadata  `gorm:"type:text" json:"metadata"`
	Messages    []Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"messages"`
}

func (Conversation) TableName() string { return "conversations" }

type Message struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id,omitempty"`
	ConversationID int64     `gorm:"not null;index:idx_message_conversation" json:"conversation_id,omitempty"`
	Role           string    `gorm:"type:text;not null" json:"role"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	Timestamp      time.Time `gorm:"not null" json:"timestamp"`
	Metadata       Metadata  `gorm:"type:text" json:"metadata"`
}

func (Message) TableName() string { return "messages" }

// MessageEmbedding is a reserved extension point: one optional vector per
// message, cascade-deleted with it. Nothing in the core writes or reads it.
type MessageEmbedding struct {
	MessageID    int64     `gorm:"primaryKey"`
	Message      Message   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Embedding    []byte    `gorm:"not null"`
	ModelVersion string    `gorm:"type:text;not null"`
	CreatedAt    time.Time
}

func (MessageEmbedding) TableName() string { return "message_embeddings" }

// SchemaInfo holds the schema version marker, written once on first init.
type SchemaInfo struct {
	Version   int       `gorm:"primaryKey"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

func (SchemaInfo) TableName() string { return "schema_info" }

func New(contextID, contextType, contextName string) *Conversation {
	now := time.Now()
	return &Conversation{
		ContextID:   contextID,
		ContextType: contextType,
		ContextName: contextName,
		CreatedAt:   now,
		UpdatedAt:   now,
		Metadata:    Metadata{},
	}
}

func NewMessage(role, content string) *Message {
	return &Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Metadata:  Metadata{},
	}
}

// AddMessage appends m, stamps the conversation id when already assigned and
// refreshes UpdatedAt.
func (c *Conversation) AddMessage(m *Message) {
	if c.ID != 0 {
		m.ConversationID = c.ID
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	if m.Metadata == nil {
		m.Metadata = Metadata{}
	}
	c.Messages = append(c.Messages, *m)
	c.UpdatedAt = time.Now()
}

const maxTitleLen = 50

// DefaultTitle derives a title from the first user message, truncated to 50
// runes with a trailing ellipsis, falling back to timestamped context labels.
func (c *Conversation) DefaultTitle() string {
	for _, m := range c.Messages {
		if m.Role == "user" && m.Content != "" {
			return truncateTitle(m.Content)
		}
	}
	stamp := time.Now().Format("2006-01-02 15:04")
	switch {
	case c.ContextName != "":
		return fmt.Sprintf("%s - %s", c.ContextName, stamp)
	case c.ContextType != "" && c.ContextID != "":
		return fmt.Sprintf("%s %s - %s", capitalize(c.ContextType), c.ContextID, stamp)
	default:
		return fmt.Sprintf("Conversation - %s", stamp)
	}
}

func truncateTitle(s string) string {
	runes := []rune(s)
	if len(runes) <= maxTitleLen {
		return s
	}
	return string(runes[:maxTitleLen-3]) + "..."
}

func capitalize(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	return string(unicode.ToUpper(runes[0])) + strings.ToLower(string(runes[1:]))
}
