package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/agentpanel/agentpanel/internal/ai"
	"github.com/agentpanel/agentpanel/internal/conversation"
	"github.com/agentpanel/agentpanel/internal/logger"
)

// scriptedProvider answers per model and records every request it sees.
type scriptedProvider struct {
	replies map[string]string
	errs    map[string]error
	calls   []string
	lastReq ai.Request
}

func (p *scriptedProvider) Chat(_ context.Context, req ai.Request) (string, error) {
	p.calls = append(p.calls, req.Model)
	p.lastReq = req
	if err := p.errs[req.Model]; err != nil {
		return "", err
	}
	return p.replies[req.Model], nil
}

func (p *scriptedProvider) Name() string { return "scripted" }

func unavailable(model string) error {
	return &ai.Error{Class: ai.ClassModelUnavailable, Provider: "scripted", Model: model, Err: context.Canceled}
}

func newTestAdapter(p ai.Provider, fallbacks ...string) *Adapter {
	return NewAdapter("scripted", p, "model-a", fallbacks, 1024, logger.NewNop())
}

func TestSendHappyPath(t *testing.T) {
	p := &scriptedProvider{replies: map[string]string{"model-a": "hi there"}}
	a := newTestAdapter(p, "model-b")

	reply := a.Send(context.Background(), "hello", nil)
	if reply.Role != "assistant" || reply.Content != "hi there" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if len(p.calls) != 1 || p.calls[0] != "model-a" {
		t.Fatalf("unexpected calls: %v", p.calls)
	}

	a.Send(context.Background(), "and again", nil)
	msgs := p.lastReq.Messages
	if len(msgs) != 3 {
		t.Fatalf("expected accumulated history of 3 messages, got %d: %+v", len(msgs), msgs)
	}
	if msgs[0].Content != "hello" || msgs[1].Content != "hi there" || msgs[2].Content != "and again" {
		t.Fatalf("history order wrong: %+v", msgs)
	}
}

func TestSendStickyFallback(t *testing.T) {
	p := &scriptedProvider{
		replies: map[string]string{"model-c": "from c"},
		errs: map[string]error{
			"model-a": unavailable("model-a"),
			"model-b": unavailable("model-b"),
		},
	}
	a := newTestAdapter(p, "model-b", "model-c")

	reply := a.Send(context.Background(), "hello", nil)
	if reply.Content != "from c" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if len(p.calls) != 3 {
		t.Fatalf("expected 3 attempts, got %v", p.calls)
	}

	p.calls = nil
	a.Send(context.Background(), "again", nil)
	if len(p.calls) != 1 || p.calls[0] != "model-c" {
		t.Fatalf("promoted model not tried first: %v", p.calls)
	}
}

func TestSendApologyWhenAllModelsUnavailable(t *testing.T) {
	p := &scriptedProvider{
		errs: map[string]error{
			"model-a": unavailable("model-a"),
			"model-b": unavailable("model-b"),
		},
	}
	a := newTestAdapter(p, "model-b")

	reply := a.Send(context.Background(), "hello", nil)
	if reply.Role != "assistant" {
		t.Fatalf("unexpected role: %q", reply.Role)
	}
	if !strings.Contains(reply.Content, "I apologize") {
		t.Fatalf("expected apology, got %q", reply.Content)
	}

	// The failed turn must not pollute history.
	p.errs = map[string]error{}
	p.replies = map[string]string{"model-a": "ok"}
	a.Send(context.Background(), "second", nil)
	if len(p.lastReq.Messages) != 1 || p.lastReq.Messages[0].Content != "second" {
		t.Fatalf("failed turn leaked into history: %+v", p.lastReq.Messages)
	}
}

func TestSendStopsOnNonAvailabilityError(t *testing.T) {
	p := &scriptedProvider{
		replies: map[string]string{"model-b": "would work"},
		errs: map[string]error{
			"model-a": &ai.Error{Class: ai.ClassOther, Provider: "scripted", Model: "model-a", Err: context.Canceled},
		},
	}
	a := newTestAdapter(p, "model-b")

	reply := a.Send(context.Background(), "hello", nil)
	if !strings.Contains(reply.Content, "I apologize") {
		t.Fatalf("expected apology, got %q", reply.Content)
	}
	if len(p.calls) != 1 {
		t.Fatalf("fallback attempted on non-availability failure: %v", p.calls)
	}
}

func TestSendUsesConversationHistory(t *testing.T) {
	p := &scriptedProvider{replies: map[string]string{"model-a": "reply"}}
	a := newTestAdapter(p)

	conv := conversation.New("w1", "world", "World One")
	conv.AddMessage(conversation.NewMessage("user", "earlier question"))
	conv.AddMessage(conversation.NewMessage("assistant", "earlier answer"))
	conv.AddMessage(conversation.NewMessage("user", ""))

	a.Send(context.Background(), "now", &Context{Conversation: conv})
	msgs := p.lastReq.Messages
	if len(msgs) != 3 {
		t.Fatalf("expected 2 history + 1 new, got %d: %+v", len(msgs), msgs)
	}
	if msgs[0].Content != "earlier question" || msgs[2].Content != "now" {
		t.Fatalf("history mismatch: %+v", msgs)
	}
}

func TestResetClearsHistory(t *testing.T) {
	p := &scriptedProvider{replies: map[string]string{"model-a": "reply"}}
	a := newTestAdapter(p)

	a.Send(context.Background(), "one", nil)
	a.Reset()
	a.Send(context.Background(), "two", nil)
	if len(p.lastReq.Messages) != 1 || p.lastReq.Messages[0].Content != "two" {
		t.Fatalf("history survived reset: %+v", p.lastReq.Messages)
	}
}

func TestSystemPromptSections(t *testing.T) {
	p := &scriptedProvider{replies: map[string]string{"model-a": "reply"}}
	a := newTestAdapter(p)

	wps := make([]Waypoint, 7)
	for i := range wps {
		wps[i] = Waypoint{Title: strings.Repeat("w", i+1), Notes: "n"}
	}
	c := &Context{
		Persona:    &Persona{Name: "Guide", Description: "patient", Traits: []string{"calm"}},
		Journey:    &Journey{Name: "Onboarding", Description: "first steps", Type: "linear"},
		Waypoints:  wps,
		Guidelines: "Be brief.",
	}
	a.Send(context.Background(), "hello", c)

	sys := p.lastReq.System
	for _, want := range []string{"# Persona Context", "# Journey Context", "# Journey Waypoints", "# Guidelines", "Guide", "Onboarding", "Be brief."} {
		if !strings.Contains(sys, want) {
			t.Fatalf("system prompt missing %q:\n%s", want, sys)
		}
	}
	if strings.Contains(sys, strings.Repeat("w", 6)) {
		t.Fatalf("waypoints beyond the cap leaked into the prompt:\n%s", sys)
	}
}

func TestSuggestParsesNumberedList(t *testing.T) {
	p := &scriptedProvider{replies: map[string]string{
		"model-a": "1. Tell me more\n2. What else?\n3. Thanks",
	}}
	a := newTestAdapter(p)

	got := a.Suggest(context.Background(), nil)
	if len(got) != 3 {
		t.Fatalf("expected 3 suggestions, got %+v", got)
	}
	want := []string{"Tell me more", "What else?", "Thanks"}
	for i, s := range got {
		if s.Text != want[i] || s.ID != i {
			t.Fatalf("suggestion %d mismatch: %+v", i, s)
		}
	}
	if p.lastReq.MaxTokens != suggestionMaxTokens {
		t.Fatalf("unexpected max tokens: %d", p.lastReq.MaxTokens)
	}
}

func TestSuggestDefaultsOnEmptyOutput(t *testing.T) {
	p := &scriptedProvider{replies: map[string]string{"model-a": "   \n  "}}
	a := newTestAdapter(p)

	got := a.Suggest(context.Background(), nil)
	if len(got) != 3 {
		t.Fatalf("expected default set, got %+v", got)
	}
	if got[0].Text != "Tell me more about this topic" {
		t.Fatalf("unexpected default: %+v", got[0])
	}
}

func TestSuggestDefaultsOnFailure(t *testing.T) {
	p := &scriptedProvider{errs: map[string]error{"model-a": unavailable("model-a")}}
	a := newTestAdapter(p)

	got := a.Suggest(context.Background(), nil)
	if len(got) != 3 || got[2].Text != "Can you provide an example?" {
		t.Fatalf("expected default set, got %+v", got)
	}
}

func TestParseSuggestionsMarkersAndCap(t *testing.T) {
	got := parseSuggestions("- alpha\n1) beta\n\n3. gamma\ndelta\nepsilon")
	if len(got) != 3 {
		t.Fatalf("expected cap at 3, got %+v", got)
	}
	want := []string{"alpha", "beta", "gamma"}
	for i, s := range got {
		if s.Text != want[i] {
			t.Fatalf("suggestion %d mismatch: %+v", i, s)
		}
	}

	if got := parseSuggestions(""); len(got) != 0 {
		t.Fatalf("expected no suggestions from empty text, got %+v", got)
	}
}
