package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/abordo/internal/api"
	"github.com/charlesng35/abordo/internal/app"
	"github.com/charlesng35/abordo/internal/app/scheduler"
	iauth "github.com/charlesng35/abordo/internal/auth"
	"github.com/charlesng35/abordo/internal/database"
	"github.com/charlesng35/abordo/internal/realtime"
	"github.com/charlesng35/abordo/pkg/mail"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB        *gorm.DB
	Hub       *realtime.Hub
	Services  *api.Services
	Scheduler *scheduler.ReminderScheduler
	Router    *gin.Engine
}

// bootstrapRuntime opens the database and wires services, the reminder
// scheduler and the HTTP router.
func bootstrapRuntime(_ context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	// enable gin debug mod
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg, log)
	if err != nil {
		return nil, err
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	mailer, err := app.NewMailer(cfg.Email)
	if err != nil {
		return nil, fmt.Errorf("initialise mailer: %w", err)
	}
	log.Info("mailer configured", zap.String("provider", mail.ProviderName(mailer)))

	stack.Hub = realtime.NewHub()

	stack.Services, err = api.BuildServices(api.ServiceDeps{
		DB:     stack.DB,
		JWT:    jwtSvc,
		Hub:    stack.Hub,
		Mailer: mailer,
		Config: cfg,
	})
	if err != nil {
		return nil, err
	}

	stack.Scheduler, err = newReminderScheduler(cfg.Reminders, stack.Services)
	if err != nil {
		return nil, err
	}
	if stack.Scheduler != nil {
		if err := stack.Scheduler.Start(); err != nil {
			return nil, fmt.Errorf("start reminder scheduler: %w", err)
		}
		log.Info("reminder scheduler started",
			zap.String("schedule", cfg.Reminders.Schedule),
			zap.String("timezone", cfg.Reminders.Timezone),
		)
	}

	stack.Router, err = api.NewRouter(stack.DB, jwtSvc, cfg, stack.Hub, stack.Services)
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// newReminderScheduler returns nil when scheduled reminders are disabled.
func newReminderScheduler(cfg app.ReminderConfig, svc *api.Services) (*scheduler.ReminderScheduler, error) {
	if !cfg.Enabled || svc == nil || svc.Reminders == nil {
		return nil, nil
	}
	loc, err := scheduler.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("reminder timezone: %w", err)
	}
	sched, err := scheduler.NewReminderScheduler(svc.Reminders,
		scheduler.WithSchedule(cfg.Schedule),
		scheduler.WithLocation(loc),
	)
	if err != nil {
		return nil, fmt.Errorf("initialise reminder scheduler: %w", err)
	}
	return sched, nil
}

// Shutdown stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Scheduler != nil {
		stopCtx := s.Scheduler.Stop()
		select {
		case <-stopCtx.Done():
		case <-ctx.Done():
			log.Warn("reminder run still in progress at shutdown")
		}
		s.Scheduler = nil
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
		s.DB = nil
	}
}

func initialiseDatabase(cfg *app.Config, log *zap.Logger) (*gorm.DB, error) {
	dbCfg := cfg.Database.DatabaseSettings()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		closeDatabase(db, log)
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))
	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
