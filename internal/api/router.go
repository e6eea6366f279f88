package api

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/charlesng35/abordo/internal/app"
	iauth "github.com/charlesng35/abordo/internal/auth"
	"github.com/charlesng35/abordo/internal/handlers"
	"github.com/charlesng35/abordo/internal/middleware"
	"github.com/charlesng35/abordo/internal/realtime"
)

// NewRouter builds the Gin engine, wires middleware and registers every route.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, hub *realtime.Hub, svc *Services) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if svc == nil {
		return nil, fmt.Errorf("services must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins...))
	r.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))

	registerHealthRoutes(r, handlers.NewHealthHandler(newHealthManager(db, cfg)))

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := strings.TrimSpace(cfg.Monitoring.Prometheus.Endpoint)
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	r.GET("/ws", middleware.StreamAuth(jwt), handlers.NewRealtimeHandler(hub).Stream)

	api := r.Group("/api")
	protected := api.Group("")
	protected.Use(middleware.Auth(jwt))

	registerAuthRoutes(api, protected, handlers.NewAuthHandler(svc.Auth))
	registerVehicleRoutes(protected, handlers.NewVehicleHandler(svc.Vehicles), handlers.NewRecordHandler(svc.Records))
	registerNotificationRoutes(protected, handlers.NewNotificationHandler(svc.Notifications, svc.Reminders))
	registerCostRoutes(protected, handlers.NewCostHandler(svc.Costs))

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
