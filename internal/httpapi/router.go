package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agentpanel/agentpanel/internal/common"
	"github.com/agentpanel/agentpanel/internal/config"
	"github.com/agentpanel/agentpanel/internal/httpapi/handlers"
	"github.com/agentpanel/agentpanel/internal/httpapi/middleware"
)

func NewRouter(h *handlers.Handler, cfg config.Config) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.GET("/ping", h.Ping)

	agentGroup := r.Group("/agent")
	if cfg.AuthRequired {
		agentGroup.Use(middleware.AuthRequired(cfg.JWTSecret))
	}

	agentGroup.POST("/api/message", h.SendMessage)
	agentGroup.GET("/api/suggestions", h.Suggestions)
	agentGroup.POST("/api/reset", h.ResetConversation)
	agentGroup.GET("/api/guidelines", h.Guidelines)
	agentGroup.GET("/api/current-user", h.CurrentUser)
	agentGroup.POST("/api/switch_service", h.SwitchService)

	history := agentGroup.Group("/history")
	history.GET("/api/conversations", h.ListConversations)
	history.GET("/api/conversations/search", h.SearchConversations)
	history.GET("/api/conversations/:id", h.GetConversation)
	history.DELETE("/api/conversations/:id", h.DeleteConversation)
	history.GET("/api/conversations/:id/export", h.ExportConversation)
	history.POST("/api/conversations/import", h.ImportConversation)
	history.POST("/api/conversations/save", h.SaveConversation)

	return r
}
