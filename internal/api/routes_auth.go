package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/abordo/internal/handlers"
)

func registerAuthRoutes(public, protected *gin.RouterGroup, handler *handlers.AuthHandler) {
	auth := public.Group("/auth")
	{
		auth.POST("/register", handler.Register)
		auth.POST("/login", handler.Login)
	}

	protected.GET("/auth/me", handler.Me)
	protected.GET("/auth/profile", handler.Me)
	protected.PUT("/auth/preferences", handler.UpdatePreferences)
}
