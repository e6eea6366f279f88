package api

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/abordo/internal/app"
	iauth "github.com/charlesng35/abordo/internal/auth"
	"github.com/charlesng35/abordo/internal/expiry"
	"github.com/charlesng35/abordo/internal/realtime"
	"github.com/charlesng35/abordo/internal/services"
	"github.com/charlesng35/abordo/pkg/mail"
)

// Services bundles the domain services served over HTTP and by the scheduler.
type Services struct {
	Auth          *services.AuthService
	Vehicles      *services.VehicleService
	Records       *services.RecordService
	Notifications *services.NotificationService
	Reminders     *services.ReminderService
	Costs         *services.CostService
}

// ServiceDeps are the collaborators shared by every service.
type ServiceDeps struct {
	DB     *gorm.DB
	JWT    *iauth.JWTService
	Hub    *realtime.Hub
	Mailer mail.Mailer
	Config *app.Config
	Now    expiry.Clock
}

// BuildServices wires the domain services over one database handle and clock.
func BuildServices(deps ServiceDeps) (*Services, error) {
	if deps.DB == nil {
		return nil, errors.New("services: database handle must be provided")
	}
	if deps.JWT == nil {
		return nil, errors.New("services: jwt service must be provided")
	}
	cfg := deps.Config
	if cfg == nil {
		cfg = &app.Config{}
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	sync, err := services.NewNotificationSynchronizer(deps.DB,
		services.WithSyncClock(now),
		services.WithSyncEvents(deps.Hub),
	)
	if err != nil {
		return nil, err
	}

	authSvc, err := services.NewAuthService(deps.DB, deps.JWT)
	if err != nil {
		return nil, err
	}

	vehicles, err := services.NewVehicleService(deps.DB, sync,
		services.WithVehicleClock(now),
		services.WithSeedNotifications(cfg.Reminders.SeedOnVehicleCreate),
	)
	if err != nil {
		return nil, err
	}

	records, err := services.NewRecordService(deps.DB, sync, services.WithRecordClock(now))
	if err != nil {
		return nil, err
	}

	notifications, err := services.NewNotificationService(deps.DB,
		services.WithNotificationClock(now),
		services.WithNotificationEvents(deps.Hub),
	)
	if err != nil {
		return nil, err
	}

	reminders, err := services.NewReminderService(deps.DB, deps.Mailer,
		services.WithReminderClock(now),
		services.WithSendRate(cfg.Email.SendRate, 1),
		services.WithFrontendURL(cfg.Email.FrontendURL),
	)
	if err != nil {
		return nil, err
	}

	costs, err := services.NewCostService(deps.DB, now)
	if err != nil {
		return nil, err
	}

	return &Services{
		Auth:          authSvc,
		Vehicles:      vehicles,
		Records:       records,
		Notifications: notifications,
		Reminders:     reminders,
		Costs:         costs,
	}, nil
}
