package routes

import (
	"github.com/gin-gonic/gin"
)

// setupPublicRoutes mounts the routes outside /v1's protected group:
// health, registration, login, and refresh start anonymous, while invite
// acceptance requires an authenticated caller.
func setupPublicRoutes(router *gin.Engine, deps *Dependencies) {
	h := deps.Handlers

	router.GET("/health", h.Health)

	auth := router.Group("/auth")
	auth.Use(deps.Middleware.SetupAPIMiddleware()...)
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
	}

	invites := router.Group("/v1/invites")
	invites.Use(deps.Middleware.SetupProtectedAPIMiddleware()...)
	{
		invites.POST("/accept", h.AcceptInvite)
	}
}
