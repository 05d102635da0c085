package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/agentpanel/agentpanel/internal/agent"
	"github.com/agentpanel/agentpanel/internal/common"
	"github.com/agentpanel/agentpanel/internal/config"
	"github.com/agentpanel/agentpanel/internal/conversation"
	"github.com/agentpanel/agentpanel/internal/host"
	"github.com/agentpanel/agentpanel/internal/logger"
	"github.com/agentpanel/agentpanel/internal/session"
)

// Handler carries the wired services behind the HTTP surface. Sources and
// Contexts are host-supplied collaborators and may be nil when the embedding
// application provides none; Auth defaults to NoopAuth when nil.
type Handler struct {
	Cfg      config.Config
	Log      *logger.Logger
	Store    *conversation.Store
	Sessions session.Store
	Adapters *agent.Manager
	Sources  host.SourceProvider
	Contexts host.ContextProvider
	Auth     host.Auth
}

func NewHandler(
	cfg config.Config,
	log *logger.Logger,
	store *conversation.Store,
	sessions session.Store,
	adapters *agent.Manager,
	sources host.SourceProvider,
	contexts host.ContextProvider,
	auth host.Auth,
) *Handler {
	if auth == nil {
		auth = host.NoopAuth{}
	}
	return &Handler{
		Cfg:      cfg,
		Log:      log,
		Store:    store,
		Sessions: sessions,
		Adapters: adapters,
		Sources:  sources,
		Contexts: contexts,
		Auth:     auth,
	}
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true})
}
