package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"campus/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// Context keys
	ContextKeyUser  = "auth_user"
	ContextKeyToken = "auth_token"

	HeaderAuthorization = "Authorization"
)

// Middleware provides authentication and authorization middleware
type Middleware struct {
	tokenStore *TokenStore
	logger     *zap.Logger
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(tokenStore *TokenStore, logger *zap.Logger) *Middleware {
	return &Middleware{
		tokenStore: tokenStore,
		logger:     logger,
	}
}

// RequireToken returns a middleware that validates bearer tokens
func (m *Middleware) RequireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(HeaderAuthorization)
		if authHeader == "" {
			common.AbortWithError(c, http.StatusUnauthorized, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			common.AbortWithError(c, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		validated, err := m.tokenStore.ValidateToken(c.Request.Context(), strings.TrimSpace(parts[1]))
		switch {
		case errors.Is(err, ErrUserInactive):
			common.AbortWithError(c, http.StatusForbidden, err.Error())
			return
		case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrTokenRevoked), errors.Is(err, ErrTokenExpired):
			common.AbortWithError(c, http.StatusUnauthorized, err.Error())
			return
		case err != nil:
			m.logger.Error("token validation failed", zap.Error(err))
			common.AbortWithError(c, http.StatusInternalServerError, "Internal server error")
			return
		}

		c.Set(ContextKeyUser, validated.User)
		c.Set(ContextKeyToken, validated.Token)

		c.Next()
	}
}

// RequireRole returns a middleware that checks if the user has the required role
func (m *Middleware) RequireRole(role Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetUserFromContext(c)
		if user == nil {
			common.AbortWithError(c, http.StatusUnauthorized, "not authenticated")
			return
		}

		if !user.HasRole(role) {
			common.AbortWithError(c, http.StatusForbidden, fmt.Sprintf("requires %s role", role))
			return
		}

		c.Next()
	}
}

// GetUserFromContext retrieves the authenticated user from the context
func GetUserFromContext(c *gin.Context) *User {
	userVal, exists := c.Get(ContextKeyUser)
	if !exists {
		return nil
	}
	user, ok := userVal.(*User)
	if !ok {
		return nil
	}
	return user
}

// GetTokenFromContext retrieves the validated token from the context
func GetTokenFromContext(c *gin.Context) *Token {
	tokenVal, exists := c.Get(ContextKeyToken)
	if !exists {
		return nil
	}
	token, ok := tokenVal.(*Token)
	if !ok {
		return nil
	}
	return token
}
