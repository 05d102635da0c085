package session

import (
	"context"
	"testing"

	"github.com/agentpanel/agentpanel/internal/conversation"
)

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()
	c, err := s.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c != nil {
		t.Fatalf("expected nil for missing key, got %+v", c)
	}
}

func TestMemoryStoreSetGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	c := conversation.New("w1", "world", "World One")
	c.AddMessage(conversation.NewMessage("user", "hi"))
	if err := s.Set(ctx, "k1", c); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := s.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || len(got.Messages) != 1 || got.Messages[0].Content != "hi" {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	// Stored value must be isolated from later mutation of the original.
	c.AddMessage(conversation.NewMessage("assistant", "later"))
	again, err := s.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(again.Messages) != 1 {
		t.Fatalf("stored session shares state with caller: %+v", again.Messages)
	}
}

func TestMemoryStoreReset(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	c := conversation.New("w1", "world", "World One")
	c.AddMessage(conversation.NewMessage("user", "hi"))
	if err := s.Set(ctx, "k1", c); err != nil {
		t.Fatalf("set: %v", err)
	}

	fresh, err := s.Reset(ctx, "k1", "src-9")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if len(fresh.Messages) != 0 {
		t.Fatalf("expected empty conversation, got %+v", fresh.Messages)
	}
	if fresh.Metadata["source_id"] != "src-9" {
		t.Fatalf("source id not carried: %v", fresh.Metadata)
	}

	got, err := s.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || len(got.Messages) != 0 {
		t.Fatalf("reset not persisted: %+v", got)
	}
}

func TestNewKeyUnique(t *testing.T) {
	a, b := NewKey(), NewKey()
	if a == "" || a == b {
		t.Fatalf("expected distinct non-empty keys, got %q and %q", a, b)
	}
}
