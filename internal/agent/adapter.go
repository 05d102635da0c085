package agent

import (
	"context"
	"strings"
	"sync"

	"github.com/agentpanel/agentpanel/internal/ai"
	"github.com/agentpanel/agentpanel/internal/logger"
)

const apologyMessage = "I apologize, but I encountered an error processing your request. " +
	"My team has been notified and will resolve this issue as soon as possible."

const suggestionPrompt = "Generate 3 possible user messages that would be natural continuations " +
	"of this conversation. Make them concise, diverse, and numbered (1-3)."

const suggestionMaxTokens = 200

type Suggestion struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// Adapter decouples the chat surface from a specific generation backend and
// tolerates the requested model identifier being unavailable: it walks an
// ordered fallback list and, on success with a non-primary identifier, makes
// that identifier the new primary.
type Adapter struct {
	typeTag  string
	provider ai.Provider
	log      *logger.Logger

	mu        sync.Mutex
	model     string
	fallbacks []string
	maxTokens int
	history   []ai.Message
}

func NewAdapter(typeTag string, provider ai.Provider, primary string, fallbacks []string, maxTokens int, log *logger.Logger) *Adapter {
	return &Adapter{
		typeTag:   typeTag,
		provider:  provider,
		log:       log,
		model:     primary,
		fallbacks: fallbacks,
		maxTokens: maxTokens,
	}
}

// Name returns the stable adapter-type tag the owning manager keys on.
func (a *Adapter) Name() string { return a.typeTag }

// Reset clears the internally accumulated message history.
func (a *Adapter) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = nil
}

// Send runs one chat turn. It never returns a hard failure: when every model
// attempt fails the reply is a canned apology and the internal history is
// left untouched for the failed turn.
func (a *Adapter) Send(ctx context.Context, message string, c *Context) ai.Message {
	a.mu.Lock()
	defer a.mu.Unlock()

	history := c.History()
	if history == nil {
		history = a.history
	}
	msgs := make([]ai.Message, 0, len(history)+1)
	msgs = append(msgs, history...)
	userMsg := ai.Message{Role: "user", Content: message}
	msgs = append(msgs, userMsg)

	content, err := a.tryModels(ctx, ai.Request{
		System:    systemPrompt(c, false),
		Messages:  msgs,
		MaxTokens: a.maxTokens,
	})
	if err != nil {
		a.log.Error("all models failed", "adapter", a.typeTag, "error", err)
		return ai.Message{Role: "assistant", Content: apologyMessage}
	}

	reply := ai.Message{Role: "assistant", Content: content}
	a.history = append(a.history, userMsg, reply)
	return reply
}

// Suggest asks the backend for exactly three short continuations and parses
// them out of free text. Parsing failure or model exhaustion yields the
// fixed default set.
func (a *Adapter) Suggest(ctx context.Context, c *Context) []Suggestion {
	a.mu.Lock()
	defer a.mu.Unlock()

	history := c.History()
	if history == nil {
		history = a.history
	}
	msgs := make([]ai.Message, 0, len(history)+1)
	msgs = append(msgs, history...)
	msgs = append(msgs, ai.Message{Role: "user", Content: suggestionPrompt})

	content, err := a.tryModels(ctx, ai.Request{
		System:    systemPrompt(c, true),
		Messages:  msgs,
		MaxTokens: suggestionMaxTokens,
	})
	if err != nil {
		a.log.Error("all models failed for suggestions", "adapter", a.typeTag, "error", err)
		return defaultSuggestions()
	}

	if suggestions := parseSuggestions(content); len(suggestions) > 0 {
		return suggestions
	}
	return defaultSuggestions()
}

// tryModels attempts the primary model then each fallback in order. Only a
// model-unavailable failure advances the scan; other failure classes stop it
// early since another identifier cannot fix them. Success with a non-primary
// identifier promotes it (sticky fallback). Callers hold a.mu.
func (a *Adapter) tryModels(ctx context.Context, req ai.Request) (string, error) {
	models := make([]string, 0, len(a.fallbacks)+1)
	models = append(models, a.model)
	for _, m := range a.fallbacks {
		if m != a.model {
			models = append(models, m)
		}
	}

	var lastErr error
	for _, model := range models {
		req.Model = model
		content, err := a.provider.Chat(ctx, req)
		if err == nil {
			if model != a.model {
				a.log.Info("switching primary model", "adapter", a.typeTag, "from", a.model, "to", model)
				a.model = model
			}
			return content, nil
		}
		lastErr = err
		if ai.ClassOf(err) == ai.ClassModelUnavailable {
			a.log.Warn("model unavailable", "adapter", a.typeTag, "model", model, "error", err)
			continue
		}
		break
	}
	return "", lastErr
}

var suggestionMarkers = []string{"1. ", "2. ", "3. ", "1) ", "2) ", "3) ", "- "}

func parseSuggestions(content string) []Suggestion {
	var out []Suggestion
	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		line = strings.TrimSpace(line)
		for _, marker := range suggestionMarkers {
			if strings.HasPrefix(line, marker) {
				line = line[len(marker):]
				break
			}
		}
		if line == "" {
			continue
		}
		out = append(out, Suggestion{ID: len(out), Text: line})
		if len(out) == 3 {
			break
		}
	}
	return out
}

func defaultSuggestions() []Suggestion {
	return []Suggestion{
		{ID: 0, Text: "Tell me more about this topic"},
		{ID: 1, Text: "How does this relate to my current task?"},
		{ID: 2, Text: "Can you provide an example?"},
	}
}
