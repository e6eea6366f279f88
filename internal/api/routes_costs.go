package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/abordo/internal/handlers"
)

func registerCostRoutes(api *gin.RouterGroup, handler *handlers.CostHandler) {
	group := api.Group("/costs")
	{
		group.GET("/summary", handler.Summary)
		group.GET("/export", handler.Export)
	}
}
