package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/abordo/internal/app"
	"github.com/charlesng35/abordo/internal/handlers"
	"github.com/charlesng35/abordo/internal/monitoring"
	"github.com/charlesng35/abordo/internal/monitoring/checks"
	"github.com/charlesng35/abordo/internal/services"
)

func newHealthManager(db *gorm.DB, cfg *app.Config) *monitoring.HealthManager {
	manager := monitoring.NewHealthManager()
	manager.RegisterReadiness(checks.Database(db))
	if cfg.Reminders.Enabled {
		manager.RegisterReadiness(checks.Reminders(services.DispatchScheduled, 0))
	}
	return manager
}

func registerHealthRoutes(r *gin.Engine, handler *handlers.HealthHandler) {
	for _, router := range []gin.IRouter{r, r.Group("/api")} {
		router.GET("/health", handler.Summary)
		router.GET("/health/live", handler.Live)
		router.GET("/health/ready", handler.Ready)
	}
}
