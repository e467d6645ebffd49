package chat

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Mubi-byte/thinktank/internal/llm"
	"github.com/Mubi-byte/thinktank/internal/search"
	"github.com/Mubi-byte/thinktank/internal/shared/server/respond"
)

// Handler wires the chat endpoint to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches chat routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/chat", h.chat)
}

type chatRequest struct {
	UserInput string `json:"user_input"`
	History   []Turn `json:"history"`
	SessionID string `json:"session_id"`
	UseSearch bool   `json:"use_search"`
}

func (h *Handler) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.UserInput) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "user_input is required", nil)
		return
	}
	if req.SessionID != "" {
		c.Set("sessionId", req.SessionID)
	}

	answer, err := h.Svc.Respond(c.Request.Context(), Request{
		UserInput: req.UserInput,
		History:   req.History,
		SessionID: req.SessionID,
		UseSearch: req.UseSearch,
	})
	switch {
	case err == nil && answer.Sources != nil:
		respond.OK(c, gin.H{"response": answer.Response, "sources": answer.Sources})
	case err == nil:
		respond.OK(c, gin.H{"response": answer.Response})
	case errors.Is(err, ErrNoRelevantContent):
		respond.Error(c, http.StatusNotFound, "no_relevant_content", "no indexed content matched the question", nil)
	case errors.Is(err, search.ErrSearchFailed):
		respond.Error(c, http.StatusBadGateway, "search_failed", "document index is unavailable", nil)
	case errors.Is(err, llm.ErrInvalidRequest):
		respond.Error(c, http.StatusBadRequest, "upstream_invalid_request", "completion service rejected the request", nil)
	case errors.Is(err, llm.ErrAuthenticationFailed):
		respond.Error(c, http.StatusBadGateway, "upstream_authentication_failed", "completion service authentication failed", nil)
	case errors.Is(err, llm.ErrUnavailable):
		respond.Error(c, http.StatusBadGateway, "upstream_unavailable", "completion service is unavailable", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to answer", nil)
	}
}
