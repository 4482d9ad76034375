package auth

import (
	"errors"
	"net/http"
	"strconv"

	"campus/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler handles permission-manager endpoints
type AdminHandler struct {
	repo       *Repository
	tokenStore *TokenStore
	logger     *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(repo *Repository, tokenStore *TokenStore, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		repo:       repo,
		tokenStore: tokenStore,
		logger:     logger,
	}
}

// --- User Management ---

// ListUsers returns all users with pagination
// GET /admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	users, err := h.repo.GetAllUsers(c.Request.Context(), limit, offset)
	if err != nil {
		h.logger.Error("list users", zap.Error(err))
		common.RespondError(c, http.StatusInternalServerError, "failed to list users")
		return
	}

	common.Respond(c, http.StatusOK, gin.H{
		"users":  users,
		"limit":  limit,
		"offset": offset,
	})
}

// GetUser returns a user by ID
// GET /admin/users/:id
func (h *AdminHandler) GetUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	user, err := h.repo.GetUserByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("get user", zap.Int64("userId", id), zap.Error(err))
		common.RespondError(c, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		common.RespondError(c, http.StatusNotFound, "user not found")
		return
	}

	common.Respond(c, http.StatusOK, gin.H{"user": user})
}

// CreateUser registers a campus member
// POST /admin/users
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req UserCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if !validRoles(req.Roles) {
		common.RespondError(c, http.StatusBadRequest, "unknown role")
		return
	}

	user, err := h.repo.CreateUser(c.Request.Context(), req.Name, req.Email, req.Type, req.Roles)
	if errors.Is(err, ErrEmailTaken) {
		common.RespondError(c, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("create user", zap.Error(err))
		common.RespondError(c, http.StatusInternalServerError, "failed to create user")
		return
	}

	common.Respond(c, http.StatusCreated, gin.H{"user": user})
}

// UpdateUser updates a user
// PATCH /admin/users/:id
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	var req UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	existing, err := h.repo.GetUserByID(ctx, id)
	if err != nil {
		h.logger.Error("get user", zap.Int64("userId", id), zap.Error(err))
		common.RespondError(c, http.StatusInternalServerError, "failed to update user")
		return
	}
	if existing == nil {
		common.RespondError(c, http.StatusNotFound, "user not found")
		return
	}

	if err := h.repo.UpdateUser(ctx, id, req.Name, req.Type, req.IsActive); err != nil {
		h.logger.Error("update user", zap.Int64("userId", id), zap.Error(err))
		common.RespondError(c, http.StatusInternalServerError, "failed to update user")
		return
	}

	user, _ := h.repo.GetUserByID(ctx, id)
	common.Respond(c, http.StatusOK, gin.H{"user": user})
}

// SetUserRoles replaces the roles of a user
// PUT /admin/users/:id/roles
func (h *AdminHandler) SetUserRoles(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	var req RolesUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if !validRoles(req.Roles) {
		common.RespondError(c, http.StatusBadRequest, "unknown role")
		return
	}

	ctx := c.Request.Context()
	existing, err := h.repo.GetUserByID(ctx, id)
	if err != nil {
		h.logger.Error("get user", zap.Int64("userId", id), zap.Error(err))
		common.RespondError(c, http.StatusInternalServerError, "failed to update roles")
		return
	}
	if existing == nil {
		common.RespondError(c, http.StatusNotFound, "user not found")
		return
	}

	if err := h.repo.SetRoles(ctx, id, req.Roles); err != nil {
		h.logger.Error("set roles", zap.Int64("userId", id), zap.Error(err))
		common.RespondError(c, http.StatusInternalServerError, "failed to update roles")
		return
	}

	common.Respond(c, http.StatusOK, gin.H{"userId": id})
}

// --- Token Management ---

// CreateUserToken creates a token for a user (admin)
// POST /admin/users/:id/tokens
func (h *AdminHandler) CreateUserToken(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	var req TokenCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.tokenStore.CreateToken(c.Request.Context(), id, req.Label, req.ExpiresAt)
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

// ListUserTokens returns all tokens for a user (admin)
// GET /admin/users/:id/tokens
func (h *AdminHandler) ListUserTokens(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	tokens, err := h.tokenStore.ListUserTokens(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("list tokens", zap.Int64("userId", id), zap.Error(err))
		common.RespondError(c, http.StatusInternalServerError, "failed to list tokens")
		return
	}

	common.Respond(c, http.StatusOK, gin.H{"tokens": tokens})
}

// RevokeToken revokes any token (admin)
// DELETE /admin/tokens/:id
func (h *AdminHandler) RevokeToken(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid token ID")
		return
	}

	if err := h.tokenStore.AdminRevokeToken(c.Request.Context(), id); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	common.Respond(c, http.StatusOK, gin.H{"message": "token revoked"})
}

func parseUserID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid user ID")
		return 0, false
	}
	return id, true
}

func validRoles(roles []Role) bool {
	for _, r := range roles {
		if !r.Valid() {
			return false
		}
	}
	return true
}
