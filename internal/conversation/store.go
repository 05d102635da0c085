package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/agentpanel/agentpanel/internal/logger"
)

// Store provides CRUD, listing, search and import/export over the
// conversation schema. Save/Get/List/Count propagate storage faults to the
// caller; Delete/Import/Search convert them to benign results after logging.
type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStore(db *gorm.DB, log *logger.Logger) *Store {
	return &Store{db: db, log: log}
}

// Summary is a conversation row without its messages, used by list and
// search results.
type Summary struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	ContextID   string    `json:"context_id"`
	ContextType string    `json:"context_type"`
	ContextName string    `json:"context_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Metadata    Metadata  `gorm:"type:text" json:"metadata"`
}

// Filter narrows list/count to an exact context match. Empty fields are
// ignored; both set means both must match.
type Filter struct {
	ContextType string
	ContextID   string
}

func (f Filter) apply(q *gorm.DB) *gorm.DB {
	if f.ContextType != "" {
		q = q.Where("context_type = ?", f.ContextType)
	}
	if f.ContextID != "" {
		q = q.Where("context_id = ?", f.ContextID)
	}
	return q
}

// Save inserts the conversation when it has no id yet, otherwise updates the
// existing row, then re-persists every attached message under the same
// insert-vs-update rule. The whole write is one transaction. Generated ids
// are assigned back onto the entities.
func (s *Store) Save(ctx context.Context, c *Conversation) (int64, error) {
	if c.Title == "" {
		c.Title = c.DefaultTitle()
	}
	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	if c.Metadata == nil {
		c.Metadata = Metadata{}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if c.ID == 0 {
			if err := tx.Omit(clause.Associations).Create(c).Error; err != nil {
				return err
			}
		} else {
			res := tx.Model(&Conversation{}).Where("id = ?", c.ID).Updates(map[string]any{
				"title":        c.Title,
				"context_id":   c.ContextID,
				"context_type": c.ContextType,
				"context_name": c.ContextName,
				"updated_at":   c.UpdatedAt,
				"metadata":     c.Metadata,
			})
			if res.Error != nil {
				return res.Error
			}
		}

		for i := range c.Messages {
			m := &c.Messages[i]
			m.ConversationID = c.ID
			if m.Timestamp.IsZero() {
				m.Timestamp = time.Now()
			}
			if m.Metadata == nil {
				m.Metadata = Metadata{}
			}
			if m.ID == 0 {
				if err := tx.Create(m).Error; err != nil {
					return err
				}
			} else {
				res := tx.Model(&Message{}).
					Where("id = ? AND conversation_id = ?", m.ID, m.ConversationID).
					Updates(map[string]any{
						"role":      m.Role,
						"content":   m.Content,
						"timestamp": m.Timestamp,
						"metadata":  m.Metadata,
					})
				if res.Error != nil {
					return res.Error
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("save conversation: %w", err)
	}
	return c.ID, nil
}

// Get loads one conversation and its messages ordered by timestamp
// ascending. A missing id yields (nil, nil), not an error.
func (s *Store) Get(ctx context.Context, id int64) (*Conversation, error) {
	var c Conversation
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if err := s.db.WithContext(ctx).
		Where("conversation_id = ?", id).
		Order("timestamp ASC, id ASC").
		Find(&c.Messages).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns lightweight summaries ordered by most-recently-updated first.
func (s *Store) List(ctx context.Context, f Filter, limit, offset int) ([]Summary, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	var out []Summary
	q := f.apply(s.db.WithContext(ctx).Model(&Conversation{}))
	if err := q.Order("updated_at DESC").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Count applies the same filter semantics as List, without pagination.
func (s *Store) Count(ctx context.Context, f Filter) (int64, error) {
	var n int64
	q := f.apply(s.db.WithContext(ctx).Model(&Conversation{}))
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// Delete removes the conversation; the foreign-key cascade removes its
// messages. Returns false after logging on storage fault.
func (s *Store) Delete(ctx context.Context, id int64) bool {
	if err := s.db.WithContext(ctx).Delete(&Conversation{}, id).Error; err != nil {
		s.log.Error("delete conversation failed", "conversation_id", id, "error", err)
		return false
	}
	return true
}

// Export serializes a conversation under the versioned envelope. A missing
// id yields (nil, nil).
func (s *Store) Export(ctx context.Context, id int64) ([]byte, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, nil
	}
	return json.MarshalIndent(c.Envelope(), "", "  ")
}

// Import accepts raw JSON text or an already-parsed envelope, validates the
// shape and persists a fresh conversation with messages in the input's
// order. Any failure yields (0, false) after logging; no error escapes.
func (s *Store) Import(ctx context.Context, data any) (int64, bool) {
	var env *Envelope
	var raw []byte

	switch v := data.(type) {
	case *Envelope:
		env = v
	case Envelope:
		env = &v
	case []byte:
		raw = v
	case json.RawMessage:
		raw = []byte(v)
	case string:
		raw = []byte(v)
	default:
		s.log.Error("import conversation failed", "error", fmt.Sprintf("unsupported payload type %T", data))
		return 0, false
	}

	if env == nil {
		parsed, err := ParseEnvelope(raw)
		if err != nil {
			s.log.Error("import conversation failed", "error", err)
			return 0, false
		}
		env = parsed
	}

	c := FromEnvelope(env)
	id, err := s.Save(ctx, c)
	if err != nil {
		s.log.Error("import conversation failed", "error", err)
		return 0, false
	}
	return id, true
}

// Search matches conversations whose title or any owned message content
// contains text as a substring, newest first, each conversation once. The
// join is LEFT so a title match needs no messages. Faults degrade to an
// empty result after logging.
func (s *Store) Search(ctx context.Context, text string, limit int) []Summary {
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + text + "%"
	var out []Summary
	err := s.db.WithContext(ctx).Model(&Conversation{}).
		Distinct(
			"conversations.id", "conversations.title", "conversations.context_id",
			"conversations.context_type", "conversations.context_name",
			"conversations.created_at", "conversations.updated_at", "conversations.metadata",
		).
		Joins("LEFT JOIN messages ON messages.conversation_id = conversations.id").
		Where("conversations.title LIKE ? OR messages.content LIKE ?", pattern, pattern).
		Order("conversations.updated_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		s.log.Error("search conversations failed", "query", text, "error", err)
		return []Summary{}
	}
	return out
}
