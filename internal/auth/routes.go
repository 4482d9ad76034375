package auth

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all auth-related routes
func RegisterRoutes(
	router *gin.RouterGroup,
	handler *Handler,
	adminHandler *AdminHandler,
	middleware *Middleware,
) {
	auth := router.Group("/auth")
	auth.Use(middleware.RequireToken())
	{
		auth.GET("/me", handler.Me)

		// Token management
		auth.GET("/tokens", handler.ListTokens)
		auth.POST("/tokens", handler.CreateToken)
		auth.DELETE("/tokens/:id", handler.RevokeToken)
	}

	// Admin routes
	admin := router.Group("/admin")
	admin.Use(middleware.RequireToken())
	admin.Use(middleware.RequireRole(RolePermissionManager))
	{
		// User management
		admin.GET("/users", adminHandler.ListUsers)
		admin.POST("/users", adminHandler.CreateUser)
		admin.GET("/users/:id", adminHandler.GetUser)
		admin.PATCH("/users/:id", adminHandler.UpdateUser)
		admin.PUT("/users/:id/roles", adminHandler.SetUserRoles)
		admin.GET("/users/:id/tokens", adminHandler.ListUserTokens)
		admin.POST("/users/:id/tokens", adminHandler.CreateUserToken)

		// Token management (admin)
		admin.DELETE("/tokens/:id", adminHandler.RevokeToken)
	}
}
