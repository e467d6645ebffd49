package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mubi-byte/thinktank/internal/shared/metrics"
	"github.com/Mubi-byte/thinktank/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches credential routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/register", h.register)
	rg.POST("/login", h.login)
	rg.GET("/2fa/setup", h.setupSecondFactor)
	rg.POST("/2fa/verify", h.verifySecondFactor)
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	err := h.Svc.Register(c.Request.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		respond.JSON(c, http.StatusCreated, gin.H{"message": "account created"})
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", "username and a password of at least 8 characters are required", nil)
	case errors.Is(err, ErrDuplicateUsername):
		respond.Error(c, http.StatusBadRequest, "duplicate_username", "username already registered", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to register", nil)
	}
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	metrics.IncLoginAttempt()
	result, err := h.Svc.Login(c.Request.Context(), req.Username, req.Password)
	switch {
	case err == nil && result.RequiresSecondFactor:
		respond.JSON(c, http.StatusOK, gin.H{"requires_2fa": true})
	case err == nil:
		respond.JSON(c, http.StatusOK, gin.H{"access_token": result.AccessToken})
	case errors.Is(err, ErrInvalidCredentials):
		metrics.IncLoginFailed()
		respond.Error(c, http.StatusUnauthorized, "invalid_credentials", "invalid username or password", nil)
	default:
		metrics.IncLoginFailed()
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to log in", nil)
	}
}

func (h *Handler) setupSecondFactor(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "username query parameter is required", nil)
		return
	}

	qr, err := h.Svc.SetupSecondFactor(c.Request.Context(), username)
	switch {
	case err == nil:
		c.Data(http.StatusOK, "image/png", qr)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
	case errors.Is(err, ErrSecondFactorEnabled):
		respond.Error(c, http.StatusBadRequest, "already_enabled", "second factor already enabled", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to set up second factor", nil)
	}
}

type verifyRequest struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

func (h *Handler) verifySecondFactor(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	token, err := h.Svc.VerifySecondFactor(c.Request.Context(), req.Username, req.Token)
	switch {
	case err == nil:
		respond.JSON(c, http.StatusOK, gin.H{"access_token": token})
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrSecondFactorNotSetUp):
		respond.Error(c, http.StatusBadRequest, "not_set_up", "second factor not set up for this user", nil)
	case errors.Is(err, ErrInvalidSecondFactorToken):
		respond.Error(c, http.StatusUnauthorized, "invalid_token", "invalid second factor token", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to verify second factor", nil)
	}
}
