package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agentpanel/agentpanel/internal/common"
	"github.com/agentpanel/agentpanel/internal/conversation"
)

// ListConversations returns lightweight summaries plus the unpaginated total
// so clients can render pagination.
func (h *Handler) ListConversations(c *gin.Context) {
	filter := conversation.Filter{
		ContextType: c.Query("context_type"),
		ContextID:   c.Query("context_id"),
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	ctx := c.Request.Context()
	summaries, err := h.Store.List(ctx, filter, limit, offset)
	if err != nil {
		h.Log.Error("list conversations failed", "error", err)
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to list conversations")
		return
	}
	total, err := h.Store.Count(ctx, filter)
	if err != nil {
		h.Log.Error("count conversations failed", "error", err)
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to list conversations")
		return
	}

	common.OK(c, gin.H{
		"conversations": summaries,
		"total":         total,
		"limit":         limit,
		"offset":        offset,
	})
}

func (h *Handler) GetConversation(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	conv, err := h.Store.Get(c.Request.Context(), id)
	if err != nil {
		h.Log.Error("get conversation failed", "conversation_id", id, "error", err)
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to load conversation")
		return
	}
	if conv == nil {
		common.Fail(c, http.StatusNotFound, 40401, fmt.Sprintf("conversation %d not found", id))
		return
	}
	common.OK(c, gin.H{"conversation": conv})
}

func (h *Handler) DeleteConversation(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if !h.Store.Delete(c.Request.Context(), id) {
		common.Fail(c, http.StatusInternalServerError, 50003, fmt.Sprintf("failed to delete conversation %d", id))
		return
	}
	common.OK(c, gin.H{"message": fmt.Sprintf("conversation %d deleted", id)})
}

// ExportConversation streams the versioned envelope as a file download.
func (h *Handler) ExportConversation(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	data, err := h.Store.Export(ctx, id)
	if err != nil {
		h.Log.Error("export conversation failed", "conversation_id", id, "error", err)
		common.Fail(c, http.StatusInternalServerError, 50004, "failed to export conversation")
		return
	}
	if data == nil {
		common.Fail(c, http.StatusNotFound, 40401, fmt.Sprintf("conversation %d not found", id))
		return
	}

	filename := fmt.Sprintf("conversation_%d", id)
	if conv, err := h.Store.Get(ctx, id); err == nil && conv != nil && conv.Title != "" {
		filename = fmt.Sprintf("%s_%d", sanitizeFilename(conv.Title), id)
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".json"))
	c.Data(http.StatusOK, "application/json", data)
}

func (h *Handler) ImportConversation(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil || len(raw) == 0 {
		common.Fail(c, http.StatusBadRequest, 10001, "request must be JSON")
		return
	}
	id, ok := h.Store.Import(c.Request.Context(), raw)
	if !ok {
		common.Fail(c, http.StatusBadRequest, 10002, "failed to import conversation")
		return
	}
	common.OK(c, gin.H{
		"conversation_id": id,
		"message":         "conversation imported successfully",
	})
}

func (h *Handler) SearchConversations(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		common.Fail(c, http.StatusBadRequest, 10003, "search query is required")
		return
	}
	limit := intQuery(c, "limit", 20)

	results := h.Store.Search(c.Request.Context(), query, limit)
	common.OK(c, gin.H{
		"conversations": results,
		"count":         len(results),
	})
}

// SaveConversation persists the caller-supplied live conversation. Context
// fields are defaulted before the write and the context display name is
// denormalized from the host when it can resolve one.
func (h *Handler) SaveConversation(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil || len(raw) == 0 {
		common.Fail(c, http.StatusBadRequest, 10001, "request must be JSON")
		return
	}
	env, err := conversation.ParseEnvelope(raw)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10004, "invalid conversation format")
		return
	}

	ctx := c.Request.Context()
	if env.Conversation.ContextID == "" {
		env.Conversation.ContextID = "default"
	}
	if env.Conversation.ContextType == "" {
		env.Conversation.ContextType = "world"
	}
	if env.Conversation.ContextName == "" {
		env.Conversation.ContextName = h.resolveContextName(c, env.Conversation.ContextID, env.Conversation.ContextType)
	}

	id, ok := h.Store.Import(ctx, env)
	if !ok {
		common.Fail(c, http.StatusInternalServerError, 50005, "failed to save conversation")
		return
	}
	common.OK(c, gin.H{
		"conversation_id": id,
		"message":         "conversation saved successfully",
	})
}

func (h *Handler) resolveContextName(c *gin.Context, contextID, contextType string) string {
	if h.Contexts != nil {
		if name, err := h.Contexts.ContextName(c.Request.Context(), contextID, contextType); err == nil && name != "" {
			return name
		}
	}
	return "Default Context"
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		common.Fail(c, http.StatusBadRequest, 10005, "invalid conversation id")
		return 0, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func sanitizeFilename(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == ' ', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
