package handler

import (
	"errors"
	"net/http"

	"github.com/Ta-h-a/Hack2SkillFrontend/middleware"
	"github.com/Ta-h-a/Hack2SkillFrontend/pkg/logger"
	"github.com/Ta-h-a/Hack2SkillFrontend/service"
	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	engine *service.EngineService
	store  *service.DocumentStore
	cache  *service.ChatHistoryCache // nil when redis is not configured
}

func NewChatHandler(engine *service.EngineService, store *service.DocumentStore, cache *service.ChatHistoryCache) *ChatHandler {
	return &ChatHandler{
		engine: engine,
		store:  store,
		cache:  cache,
	}
}

type ChatRequest struct {
	Question  string `json:"question" binding:"required"`
	SessionID string `json:"session_id"`
}

// Send forwards one assistant question scoped to a document. When no
// session id is supplied the engine creates one; the returned session_id is
// what the client must carry for subsequent turns.
func (h *ChatHandler) Send(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	id := c.Param("id")

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	doc := h.store.GetForTenant(id, tenant)
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	resp, err := h.engine.Chat(c.Request.Context(), id, req.Question, req.SessionID)
	if err != nil {
		logger.Warn(c.Request.Context(), "chat failed", "document_id", id, "error", err)
		c.JSON(service.HTTPStatus(err), gin.H{"error": "Chat failed: " + err.Error()})
		return
	}

	// The transcript changed; drop the cached copy
	if h.cache != nil && resp.SessionID != "" {
		if err := h.cache.Invalidate(c.Request.Context(), resp.SessionID); err != nil {
			logger.Warn(c.Request.Context(), "failed to invalidate history cache", "session_id", resp.SessionID, "error", err)
		}
	}

	c.JSON(http.StatusOK, resp)
}

// ListSessions lists saved assistant sessions.
func (h *ChatHandler) ListSessions(c *gin.Context) {
	sessions, err := h.engine.ListSessions(c.Request.Context())
	if err != nil {
		c.JSON(service.HTTPStatus(err), gin.H{"error": "Failed to fetch sessions: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// GetHistory returns one session's transcript wholesale, from cache when
// fresh enough.
func (h *ChatHandler) GetHistory(c *gin.Context) {
	sessionID := c.Param("sessionId")

	if h.cache != nil {
		if history, ok, err := h.cache.GetHistory(c.Request.Context(), sessionID); err != nil {
			logger.Warn(c.Request.Context(), "history cache read failed", "session_id", sessionID, "error", err)
		} else if ok {
			c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "history": history})
			return
		}
	}

	history, err := h.engine.GetSessionHistory(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(service.HTTPStatus(err), gin.H{"error": "Failed to fetch session history: " + err.Error()})
		return
	}

	if h.cache != nil {
		if err := h.cache.SetHistory(c.Request.Context(), sessionID, history.History); err != nil {
			logger.Warn(c.Request.Context(), "history cache write failed", "session_id", sessionID, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"session_id": history.SessionID, "history": history.History})
}

// DeleteSession removes a session. Deleting is idempotent: a session the
// engine no longer knows still answers success, so a client deleting the
// session it is currently viewing can always reset cleanly.
func (h *ChatHandler) DeleteSession(c *gin.Context) {
	sessionID := c.Param("sessionId")

	if err := h.engine.DeleteSession(c.Request.Context(), sessionID); err != nil {
		var nf *service.NotFoundError
		if !errors.As(err, &nf) {
			c.JSON(service.HTTPStatus(err), gin.H{"error": "Failed to delete session: " + err.Error()})
			return
		}
	}

	if h.cache != nil {
		if err := h.cache.Invalidate(c.Request.Context(), sessionID); err != nil {
			logger.Warn(c.Request.Context(), "failed to invalidate history cache", "session_id", sessionID, "error", err)
		}
	}

	c.Status(http.StatusNoContent)
}
