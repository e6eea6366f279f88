package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/abordo/internal/handlers"
)

func registerNotificationRoutes(api *gin.RouterGroup, handler *handlers.NotificationHandler) {
	group := api.Group("/notifications")
	{
		group.GET("", handler.List)
		group.GET("/urgent", handler.Urgent)
		group.GET("/stats", handler.Stats)
		group.GET("/stats/summary", handler.Stats)
		group.GET("/vehicle/:vehicleId", handler.ForVehicle)
		group.POST("/send-emails", handler.SendEmails)
		group.PUT("/:id", handler.Update)
		group.DELETE("/:id", handler.Delete)
	}
}
