package auth

import (
	"net/http"
	"strconv"

	"campus/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles endpoints for the authenticated user
type Handler struct {
	repo       *Repository
	tokenStore *TokenStore
	logger     *zap.Logger
}

// NewHandler creates a new auth handler
func NewHandler(repo *Repository, tokenStore *TokenStore, logger *zap.Logger) *Handler {
	return &Handler{
		repo:       repo,
		tokenStore: tokenStore,
		logger:     logger,
	}
}

// Me returns the current authenticated user
// GET /auth/me
func (h *Handler) Me(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		common.RespondError(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	common.Respond(c, http.StatusOK, gin.H{"user": user})
}

// ListTokens returns all tokens for the current user
// GET /auth/tokens
func (h *Handler) ListTokens(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		common.RespondError(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	tokens, err := h.tokenStore.ListUserTokens(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error("list tokens", zap.Int64("userId", user.ID), zap.Error(err))
		common.RespondError(c, http.StatusInternalServerError, "failed to list tokens")
		return
	}

	common.Respond(c, http.StatusOK, gin.H{"tokens": tokens})
}

// CreateToken creates a new token for the current user
// POST /auth/tokens
func (h *Handler) CreateToken(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		common.RespondError(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req TokenCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.tokenStore.CreateToken(c.Request.Context(), user.ID, req.Label, req.ExpiresAt)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	common.Respond(c, http.StatusCreated, gin.H{
		"token":   token.RawToken,
		"details": token.Token,
		"message": "Token created. Save this token now - it will not be shown again.",
	})
}

// RevokeToken revokes a token owned by the current user
// DELETE /auth/tokens/:id
func (h *Handler) RevokeToken(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		common.RespondError(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	tokenID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid token ID")
		return
	}

	if err := h.tokenStore.RevokeToken(c.Request.Context(), tokenID, user.ID); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	common.Respond(c, http.StatusOK, gin.H{"message": "Token revoked successfully"})
}
