package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agentpanel/agentpanel/internal/agent"
	"github.com/agentpanel/agentpanel/internal/common"
	"github.com/agentpanel/agentpanel/internal/conversation"
	"github.com/agentpanel/agentpanel/internal/httpapi/middleware"
	"github.com/agentpanel/agentpanel/internal/session"
)

const sessionCookie = "agent_session"

// sessionKey resolves the caller's live-session key, minting one (and
// setting the cookie) for first-time callers.
func (h *Handler) sessionKey(c *gin.Context) string {
	if key := c.GetHeader("X-Session-Key"); key != "" {
		return key
	}
	if key, err := c.Cookie(sessionCookie); err == nil && key != "" {
		return key
	}
	key := session.NewKey()
	c.SetCookie(sessionCookie, key, h.Cfg.SessionTTLSecs, "/", "", false, true)
	return key
}

type sendMessageReq struct {
	Message  string         `json:"message" binding:"required"`
	SourceID string         `json:"source_id"`
	Adapter  string         `json:"adapter"`
	Params   map[string]any `json:"params"`
}

// SendMessage runs one chat turn: loads the live conversation from the
// session, assembles host context, calls the adapter strategy and persists
// the round trip back into the session.
func (h *Handler) SendMessage(c *gin.Context) {
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	ctx := c.Request.Context()
	key := h.sessionKey(c)

	conv, err := h.Sessions.Get(ctx, key)
	if err != nil {
		h.Log.Error("load session failed", "error", err)
		common.Fail(c, http.StatusInternalServerError, 50010, "failed to load session")
		return
	}
	if conv == nil {
		conv = conversation.New("", "", "")
	}
	if req.SourceID != "" {
		conv.Metadata["source_id"] = req.SourceID
	}
	for k, v := range req.Params {
		conv.Metadata[k] = v
	}

	adapterType := req.Adapter
	if adapterType == "" {
		adapterType = h.Cfg.AdapterType
	}
	adapter, err := h.Adapters.Adapter(adapterType)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10006, "unknown adapter type")
		return
	}

	promptCtx := &agent.Context{Conversation: conv}
	if req.SourceID != "" && h.Contexts != nil {
		if data, err := h.Contexts.AssembleContext(ctx, req.SourceID, req.Message, req.Params); err == nil {
			if formatted, err := h.Contexts.FormatContext(ctx, data, 0); err == nil {
				promptCtx.Guidelines = formatted
			}
		}
	}

	reply := adapter.Send(ctx, req.Message, promptCtx)

	conv.AddMessage(conversation.NewMessage("user", req.Message))
	conv.AddMessage(conversation.NewMessage(reply.Role, reply.Content))
	if err := h.Sessions.Set(ctx, key, conv); err != nil {
		h.Log.Error("store session failed", "error", err)
		common.Fail(c, http.StatusInternalServerError, 50011, "failed to store session")
		return
	}

	common.OK(c, gin.H{
		"message": gin.H{
			"role":    reply.Role,
			"content": reply.Content,
		},
	})
}

// Suggestions asks the adapter for three short continuations of the live
// conversation.
func (h *Handler) Suggestions(c *gin.Context) {
	ctx := c.Request.Context()
	key := h.sessionKey(c)

	conv, err := h.Sessions.Get(ctx, key)
	if err != nil {
		h.Log.Error("load session failed", "error", err)
		common.Fail(c, http.StatusInternalServerError, 50010, "failed to load session")
		return
	}
	if conv == nil {
		conv = conversation.New("", "", "")
	}

	adapter, err := h.Adapters.Adapter(h.Cfg.AdapterType)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50012, "no adapter available")
		return
	}

	suggestions := adapter.Suggest(ctx, &agent.Context{Conversation: conv})
	common.OK(c, gin.H{"suggestions": suggestions})
}

type resetReq struct {
	SourceID string `json:"source_id"`
}

// resetSession replaces the live conversation with a fresh one greeting the
// user with the configured welcome message.
func (h *Handler) resetSession(ctx context.Context, key, sourceID string) (*conversation.Conversation, error) {
	conv, err := h.Sessions.Reset(ctx, key, sourceID)
	if err != nil {
		return nil, err
	}
	if h.Cfg.WelcomeMessage != "" {
		conv.AddMessage(conversation.NewMessage("assistant", h.Cfg.WelcomeMessage))
		if err := h.Sessions.Set(ctx, key, conv); err != nil {
			return nil, err
		}
	}
	return conv, nil
}

// ResetConversation discards the live conversation and the adapter's
// accumulated history.
func (h *Handler) ResetConversation(c *gin.Context) {
	var req resetReq
	_ = c.ShouldBindJSON(&req) // empty body allowed

	conv, err := h.resetSession(c.Request.Context(), h.sessionKey(c), req.SourceID)
	if err != nil {
		h.Log.Error("reset session failed", "error", err)
		common.Fail(c, http.StatusInternalServerError, 50013, "failed to reset conversation")
		return
	}

	if adapter, err := h.Adapters.Adapter(h.Cfg.AdapterType); err == nil {
		adapter.Reset()
	}

	common.OK(c, gin.H{"conversation": conv})
}

// Guidelines returns the host's guideline text for one source.
func (h *Handler) Guidelines(c *gin.Context) {
	sourceID := c.Query("source_id")
	if sourceID == "" {
		sourceID = c.Query("world_id")
	}
	if sourceID == "" {
		common.Fail(c, http.StatusBadRequest, 10007, "source_id is required")
		return
	}
	if h.Sources == nil {
		common.Fail(c, http.StatusServiceUnavailable, 50314, "no source provider configured")
		return
	}

	guidelines, err := h.Sources.Guidelines(c.Request.Context(), sourceID)
	if err != nil {
		h.Log.Error("load guidelines failed", "source_id", sourceID, "error", err)
		common.Fail(c, http.StatusInternalServerError, 50014, "failed to load guidelines")
		return
	}
	common.OK(c, gin.H{"guidelines": guidelines})
}

// CurrentUser reports the authenticated caller. With auth disabled the user
// is null; the JWT subject, when present, overrides the host-supplied id.
func (h *Handler) CurrentUser(c *gin.Context) {
	if !h.Cfg.AuthRequired {
		common.OK(c, gin.H{"user": nil})
		return
	}

	ctx := c.Request.Context()
	if !h.Auth.IsAuthenticated(ctx) {
		common.Fail(c, http.StatusUnauthorized, 40102, "not authenticated")
		return
	}
	user, err := h.Auth.CurrentUser(ctx)
	if err != nil || user == nil {
		common.Fail(c, http.StatusUnauthorized, 40102, "not authenticated")
		return
	}
	if sub := c.GetString(middleware.UserIDKey); sub != "" {
		user.ID = sub
	}
	common.OK(c, gin.H{"user": user})
}

type switchServiceReq struct {
	Service  string `json:"service"`
	SourceID string `json:"source_id"`
}

// SwitchService rebuilds the live adapter as the requested type. The live
// conversation is discarded along with it.
func (h *Handler) SwitchService(c *gin.Context) {
	var req switchServiceReq
	_ = c.ShouldBindJSON(&req) // empty body allowed

	service := req.Service
	if service == "" {
		service = h.Cfg.AdapterType
	}
	adapter, err := h.Adapters.Switch(service)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10006, "unknown adapter type")
		return
	}

	conv, err := h.resetSession(c.Request.Context(), h.sessionKey(c), req.SourceID)
	if err != nil {
		h.Log.Error("reset session failed", "error", err)
		common.Fail(c, http.StatusInternalServerError, 50013, "failed to reset conversation")
		return
	}

	common.OK(c, gin.H{
		"adapter":      adapter.Name(),
		"types":        h.Adapters.Types(),
		"conversation": conv,
	})
}
