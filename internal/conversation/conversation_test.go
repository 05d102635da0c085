package conversation

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultTitleFromFirstUserMessage(t *testing.T) {
	c := New("w1", "world", "Engineering Ethics")
	c.AddMessage(NewMessage("assistant", "Hello! How can I help?"))
	c.AddMessage(NewMessage("user", "Explain X in depth please now"))

	if got := c.DefaultTitle(); got != "Explain X in depth please now" {
		t.Fatalf("unexpected title: %q", got)
	}
}

func TestDefaultTitleTruncation(t *testing.T) {
	long := strings.Repeat("a", 80)
	c := New("", "", "")
	c.AddMessage(NewMessage("user", long))

	got := c.DefaultTitle()
	if len([]rune(got)) != 50 {
		t.Fatalf("expected 50 runes, got %d (%q)", len([]rune(got)), got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}
	if !strings.HasPrefix(got, strings.Repeat("a", 47)) {
		t.Fatalf("expected first 47 chars preserved, got %q", got)
	}
}

func TestDefaultTitleFallbacks(t *testing.T) {
	c := New("w1", "world", "Engineering Ethics")
	if got := c.DefaultTitle(); !strings.HasPrefix(got, "Engineering Ethics - ") {
		t.Fatalf("expected context-name fallback, got %q", got)
	}

	c = New("w1", "world", "")
	if got := c.DefaultTitle(); !strings.HasPrefix(got, "World w1 - ") {
		t.Fatalf("expected capitalized context-type fallback, got %q", got)
	}

	c = New("j9", "JOURNEY", "")
	if got := c.DefaultTitle(); !strings.HasPrefix(got, "Journey j9 - ") {
		t.Fatalf("expected capitalized context-type fallback, got %q", got)
	}

	c = New("", "", "")
	if got := c.DefaultTitle(); !strings.HasPrefix(got, "Conversation - ") {
		t.Fatalf("expected generic fallback, got %q", got)
	}
}

func TestMetadataScanMalformed(t *testing.T) {
	var m Metadata
	if err := m.Scan("{not json"); err != nil {
		t.Fatalf("scan returned error: %v", err)
	}
	if m == nil || len(m) != 0 {
		t.Fatalf("expected empty map, got %v", m)
	}
}

func TestMetadataScanRoundTrip(t *testing.T) {
	src := Metadata{"source_id": "42", "pinned": true}
	v, err := src.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	var out Metadata
	if err := out.Scan(v); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if out["source_id"] != "42" || out["pinned"] != true {
		t.Fatalf("round trip mismatch: %v", out)
	}
}

func TestMetadataValueNil(t *testing.T) {
	var m Metadata
	v, err := m.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if v != "{}" {
		t.Fatalf("expected empty object, got %v", v)
	}
}

func TestAddMessageStampsConversation(t *testing.T) {
	c := New("w1", "world", "World One")
	c.ID = 7
	before := c.UpdatedAt

	time.Sleep(time.Millisecond)
	c.AddMessage(NewMessage("user", "hi"))

	if len(c.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(c.Messages))
	}
	if c.Messages[0].ConversationID != 7 {
		t.Fatalf("expected conversation id stamped, got %d", c.Messages[0].ConversationID)
	}
	if !c.UpdatedAt.After(before) {
		t.Fatalf("expected updated_at refreshed")
	}
	if c.Messages[0].Timestamp.IsZero() {
		t.Fatalf("expected message timestamp defaulted")
	}
}

func TestParseEnvelopeValidation(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"missing conversation", `{"schema_version":1,"messages":[]}`},
		{"missing messages", `{"schema_version":1,"conversation":{"title":"t"}}`},
		{"null conversation", `{"schema_version":1,"conversation":null,"messages":[]}`},
		{"not json", `{"schema_version":`},
		{"wrong messages type", `{"conversation":{},"messages":{}}`},
	}
	for _, tc := range cases {
		if _, err := ParseEnvelope([]byte(tc.raw)); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}

	env, err := ParseEnvelope([]byte(`{"schema_version":1,"conversation":{"title":"t"},"messages":[]}`))
	if err != nil {
		t.Fatalf("valid envelope rejected: %v", err)
	}
	if env.Conversation.Title != "t" {
		t.Fatalf("unexpected title: %q", env.Conversation.Title)
	}
}

func TestFromEnvelopePreservesOrderWithoutTimestamps(t *testing.T) {
	env := &Envelope{
		SchemaVersion: SchemaVersion,
		Conversation:  WireConversation{Title: "t"},
		Messages: []WireMessage{
			{Role: "user", Content: "first"},
			{Role: "assistant", Content: "second"},
			{Role: "user", Content: "third"},
		},
	}
	c := FromEnvelope(env)
	if len(c.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(c.Messages))
	}
	for i := 1; i < len(c.Messages); i++ {
		if !c.Messages[i].Timestamp.After(c.Messages[i-1].Timestamp) {
			t.Fatalf("expected strictly increasing timestamps at %d", i)
		}
	}
	if c.Messages[1].Role != "assistant" || c.Messages[2].Content != "third" {
		t.Fatalf("order not preserved: %+v", c.Messages)
	}
}

func TestFromEnvelopeDefaultsRole(t *testing.T) {
	env := &Envelope{
		Conversation: WireConversation{},
		Messages:     []WireMessage{{Content: "no role"}},
	}
	c := FromEnvelope(env)
	if c.Messages[0].Role != "assistant" {
		t.Fatalf("expected assistant default, got %q", c.Messages[0].Role)
	}
}
