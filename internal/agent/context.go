package agent

import (
	"fmt"
	"strings"

	"github.com/agentpanel/agentpanel/internal/ai"
	"github.com/agentpanel/agentpanel/internal/conversation"
)

type Persona struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Traits      []string `json:"traits,omitempty"`
}

type Journey struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

type Waypoint struct {
	Title string `json:"title"`
	Notes string `json:"notes"`
}

// Context is the situational bundle assembled for one backend call. Both the
// combined shape (a full conversation) and the legacy flat history are
// accepted; History unifies them so nothing downstream branches on which
// shape arrived.
type Context struct {
	Persona      *Persona
	Journey      *Journey
	Waypoints    []Waypoint
	Guidelines   string
	Conversation *conversation.Conversation
	Legacy       []ai.Message
}

// History returns the canonical ordered message history carried by the
// context, or nil when the caller supplied none.
func (c *Context) History() []ai.Message {
	if c == nil {
		return nil
	}
	if c.Conversation != nil {
		out := make([]ai.Message, 0, len(c.Conversation.Messages))
		for _, m := range c.Conversation.Messages {
			if m.Content == "" {
				continue
			}
			role := m.Role
			if role == "" {
				role = "user"
			}
			out = append(out, ai.Message{Role: role, Content: m.Content})
		}
		return out
	}
	return c.Legacy
}

const maxWaypoints = 5

// systemPrompt concatenates the context fragments into one instruction
// preamble.
func systemPrompt(c *Context, forSuggestions bool) string {
	var parts []string

	if c != nil && c.Persona != nil {
		var b strings.Builder
		fmt.Fprintf(&b, "# Persona Context\nName: %s\nDescription: %s\n", c.Persona.Name, c.Persona.Description)
		if len(c.Persona.Traits) > 0 {
			fmt.Fprintf(&b, "Traits: %s\n", strings.Join(c.Persona.Traits, ", "))
		}
		parts = append(parts, b.String())
	}

	if c != nil && c.Journey != nil {
		parts = append(parts, fmt.Sprintf(
			"# Journey Context\nName: %s\nDescription: %s\nType: %s\n",
			c.Journey.Name, c.Journey.Description, c.Journey.Type))
	}

	if c != nil && len(c.Waypoints) > 0 {
		var b strings.Builder
		b.WriteString("# Journey Waypoints\n")
		wps := c.Waypoints
		if len(wps) > maxWaypoints {
			wps = wps[:maxWaypoints]
		}
		for _, wp := range wps {
			fmt.Fprintf(&b, "- %s: %s\n", wp.Title, wp.Notes)
		}
		parts = append(parts, b.String())
	}

	if c != nil && c.Guidelines != "" {
		parts = append(parts, "# Guidelines\n"+c.Guidelines)
	}

	if forSuggestions {
		parts = append(parts,
			"You are generating suggested user messages to continue the conversation. "+
				"Make these suggestions concise, diverse, and appropriate for the context.")
	} else {
		parts = append(parts,
			"You are a helpful assistant providing information and assistance. "+
				"Respond in a natural conversational manner, being concise but thorough.")
	}

	return strings.Join(parts, "\n\n")
}
