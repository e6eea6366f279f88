package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/abordo/internal/expiry"
	"github.com/charlesng35/abordo/internal/models"
	"github.com/charlesng35/abordo/internal/realtime"
	"github.com/charlesng35/abordo/pkg/logger"
	"github.com/charlesng35/abordo/pkg/metrics"
)

// EventPublisher delivers notification change events to a user.
type EventPublisher interface {
	Publish(userID, event string, data any)
}

// SyncTarget identifies the notification row a deadline projects onto.
type SyncTarget struct {
	VehicleID string
	Kind      expiry.Kind
	Scope     expiry.Scope
	// Label is the maintenance sub-label used in messages.
	Label string
}

func (t SyncTarget) validate() error {
	if strings.TrimSpace(t.VehicleID) == "" {
		return errors.New("notification sync: vehicle id is required")
	}
	if _, ok := expiry.ParseKind(string(t.Kind)); !ok {
		return fmt.Errorf("notification sync: unknown type %q", t.Kind)
	}
	return nil
}

var scopeColumns = []clause.Column{{Name: "vehicle_id"}, {Name: "type"}, {Name: "scope_key"}}

// NotificationSynchronizer keeps notification rows in line with the deadlines
// of their source records.
type NotificationSynchronizer struct {
	db     *gorm.DB
	now    expiry.Clock
	events EventPublisher
	log    *zap.Logger
}

// SyncOption configures a NotificationSynchronizer.
type SyncOption func(*NotificationSynchronizer)

// WithSyncClock overrides the clock used to classify deadlines.
func WithSyncClock(now expiry.Clock) SyncOption {
	return func(s *NotificationSynchronizer) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSyncEvents publishes upserts and deletes to the owning user.
func WithSyncEvents(events EventPublisher) SyncOption {
	return func(s *NotificationSynchronizer) {
		s.events = events
	}
}

// NewNotificationSynchronizer constructs a NotificationSynchronizer.
func NewNotificationSynchronizer(db *gorm.DB, opts ...SyncOption) (*NotificationSynchronizer, error) {
	if db == nil {
		return nil, errors.New("notification sync: db is required")
	}
	s := &NotificationSynchronizer{
		db:  db,
		now: time.Now,
		log: logger.WithModule("notification_sync"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// UpsertForSource writes the notification for target. A nil expiry date means
// the deadline is gone and the notification is deleted. Writing a deadline
// clears any manual safe mark, and a deadline moved further out restarts the
// email stages it no longer reaches.
func (s *NotificationSynchronizer) UpsertForSource(ctx context.Context, target SyncTarget, expiryDate *time.Time) (*models.Notification, error) {
	ctx = ensureContext(ctx)
	if err := target.validate(); err != nil {
		return nil, err
	}
	if expiryDate == nil {
		return nil, s.DeleteForSource(ctx, target)
	}

	now := s.now()
	due := calendarDate(*expiryDate)
	days, status := expiry.Evaluate(now, due)
	row := models.Notification{
		BaseModel:       models.BaseModel{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now},
		VehicleID:       target.VehicleID,
		Type:            string(target.Kind),
		ScopeKey:        target.Scope.Key(),
		Status:          string(status),
		DaysUntilExpiry: days,
		Message:         BuildMessage(target.Kind, days, target.Label),
		Label:           target.Label,
		ExpiryDate:      due,
	}
	if sourceType, sourceID, ok := target.Scope.Source(); ok {
		row.SourceType = stringPtr(sourceType)
		row.SourceID = stringPtr(sourceID)
	}

	assignments := append(stageResets(days), clause.Set{
		{Column: clause.Column{Name: "status"}, Value: row.Status},
		{Column: clause.Column{Name: "days_until_expiry"}, Value: row.DaysUntilExpiry},
		{Column: clause.Column{Name: "message"}, Value: row.Message},
		{Column: clause.Column{Name: "label"}, Value: row.Label},
		{Column: clause.Column{Name: "expiry_date"}, Value: due},
		{Column: clause.Column{Name: "resolved_at"}, Value: nil},
		{Column: clause.Column{Name: "updated_at"}, Value: now},
	}...)

	var stored models.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{Columns: scopeColumns, DoUpdates: assignments}).Create(&row).Error; err != nil {
			return err
		}
		return tx.Where("vehicle_id = ? AND type = ? AND scope_key = ?", row.VehicleID, row.Type, row.ScopeKey).
			First(&stored).Error
	})
	if err != nil {
		metrics.NotificationSyncs.WithLabelValues(row.Type, "upsert", "error").Inc()
		return nil, fmt.Errorf("notification sync: upsert: %w", err)
	}

	metrics.NotificationSyncs.WithLabelValues(row.Type, "upsert", "ok").Inc()
	s.publish(ctx, stored.VehicleID, realtime.EventNotificationUpserted, &stored)
	return &stored, nil
}

// stageResets clears the stored email stage when it is more urgent than the
// stage the new deadline reaches, so only stages still ahead get emailed again.
// email_sent comes first: MySQL evaluates assignments in order and the CASE
// must still see the previous email_stage.
func stageResets(days int) clause.Set {
	cleared := expiry.ClearedAt(days)
	if len(cleared) == 0 {
		return clause.Set{}
	}
	stages := make([]string, len(cleared))
	for i, stage := range cleared {
		stages[i] = string(stage)
	}
	return clause.Set{
		{Column: clause.Column{Name: "email_sent"}, Value: gorm.Expr("CASE WHEN email_stage IN ? THEN ? ELSE email_sent END", stages, false)},
		{Column: clause.Column{Name: "email_stage"}, Value: gorm.Expr("CASE WHEN email_stage IN ? THEN NULL ELSE email_stage END", stages)},
	}
}

// DeleteForSource removes the notification for target if there is one.
func (s *NotificationSynchronizer) DeleteForSource(ctx context.Context, target SyncTarget) error {
	ctx = ensureContext(ctx)
	if err := target.validate(); err != nil {
		return err
	}

	var rows []models.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("vehicle_id = ? AND type = ? AND scope_key = ?", target.VehicleID, string(target.Kind), target.Scope.Key()).
			Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Delete(&rows).Error
	})
	if err != nil {
		metrics.NotificationSyncs.WithLabelValues(string(target.Kind), "delete", "error").Inc()
		return fmt.Errorf("notification sync: delete: %w", err)
	}

	metrics.NotificationSyncs.WithLabelValues(string(target.Kind), "delete", "ok").Inc()
	for i := range rows {
		s.publish(ctx, target.VehicleID, realtime.EventNotificationDeleted, map[string]string{"id": rows[i].ID})
	}
	return nil
}

// RecomputeOrDeleteAfterDelete refreshes the aggregated notification of kind
// after one of its records was deleted: it follows the soonest remaining
// deadline, or disappears when none is left.
func (s *NotificationSynchronizer) RecomputeOrDeleteAfterDelete(ctx context.Context, vehicleID string, kind expiry.Kind) error {
	ctx = ensureContext(ctx)

	next, label, err := s.nextDeadline(ctx, vehicleID, kind)
	if err != nil {
		metrics.NotificationSyncs.WithLabelValues(string(kind), "recompute", "error").Inc()
		return fmt.Errorf("notification sync: recompute: %w", err)
	}

	target := SyncTarget{VehicleID: vehicleID, Kind: kind, Scope: expiry.Aggregated(), Label: label}
	if next == nil {
		return s.DeleteForSource(ctx, target)
	}
	_, err = s.UpsertForSource(ctx, target, next)
	return err
}

// HasAggregated reports whether the vehicle has an aggregated notification of kind.
func (s *NotificationSynchronizer) HasAggregated(ctx context.Context, vehicleID string, kind expiry.Kind) (bool, error) {
	var count int64
	if err := s.db.WithContext(ensureContext(ctx)).Model(&models.Notification{}).
		Where("vehicle_id = ? AND type = ? AND scope_key = ?", vehicleID, string(kind), expiry.Aggregated().Key()).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("notification sync: lookup aggregated: %w", err)
	}
	return count > 0, nil
}

type seedNotification struct {
	kind    expiry.Kind
	status  expiry.Status
	days    int
	message string
}

var vehicleSeeds = []seedNotification{
	{expiry.KindInsurance, expiry.StatusWarning, 30, "Assicurazione in scadenza tra 30 giorni"},
	{expiry.KindTax, expiry.StatusSafe, 90, "Bollo auto in scadenza tra 90 giorni"},
	{expiry.KindService, expiry.StatusSafe, 60, "Tagliando consigliato tra 60 giorni"},
}

// SeedVehicle creates the placeholder aggregated notifications of a new vehicle.
func (s *NotificationSynchronizer) SeedVehicle(ctx context.Context, vehicleID string) error {
	now := s.now()
	rows := make([]models.Notification, 0, len(vehicleSeeds))
	for _, seed := range vehicleSeeds {
		rows = append(rows, models.Notification{
			BaseModel:       models.BaseModel{CreatedAt: now, UpdatedAt: now},
			VehicleID:       vehicleID,
			Type:            string(seed.kind),
			ScopeKey:        expiry.Aggregated().Key(),
			Status:          string(seed.status),
			DaysUntilExpiry: seed.days,
			Message:         seed.message,
			ExpiryDate:      today(now).AddDate(0, 0, seed.days),
		})
	}
	if err := s.db.WithContext(ensureContext(ctx)).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return fmt.Errorf("notification sync: seed vehicle: %w", err)
	}
	return nil
}

func (s *NotificationSynchronizer) nextDeadline(ctx context.Context, vehicleID string, kind expiry.Kind) (*time.Time, string, error) {
	db := s.db.WithContext(ctx)
	switch kind {
	case expiry.KindInsurance:
		rec, err := soonest[models.Insurance](db, vehicleID, "expiry_date")
		if err != nil || rec == nil {
			return nil, "", err
		}
		return &rec.ExpiryDate, "", nil
	case expiry.KindTax:
		rec, err := soonest[models.CarTax](db, vehicleID, "expiry_date")
		if err != nil || rec == nil {
			return nil, "", err
		}
		return &rec.ExpiryDate, "", nil
	case expiry.KindInspection:
		rec, err := soonest[models.Inspection](db, vehicleID, "next_inspection_date")
		if err != nil || rec == nil {
			return nil, "", err
		}
		return &rec.NextInspectionDate, "", nil
	case expiry.KindMaintenance:
		rec, err := soonest[models.Maintenance](db, vehicleID, "next_maintenance")
		if err != nil || rec == nil {
			return nil, "", err
		}
		return rec.NextMaintenance, MaintenanceLabel(rec.Type, rec.Title), nil
	default:
		// Services are mileage based and never carry a dated deadline.
		return nil, "", nil
	}
}

// soonest returns the vehicle's record with the earliest non-null dateColumn.
func soonest[T any](db *gorm.DB, vehicleID, dateColumn string) (*T, error) {
	var rec T
	err := db.Where("vehicle_id = ? AND "+dateColumn+" IS NOT NULL", vehicleID).
		Order(dateColumn + " ASC").
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *NotificationSynchronizer) publish(ctx context.Context, vehicleID, event string, data any) {
	if s.events == nil {
		return
	}
	var vehicle models.Vehicle
	if err := s.db.WithContext(ctx).Select("user_id").Where("id = ?", vehicleID).Take(&vehicle).Error; err != nil {
		s.log.Debug("skip event for unknown vehicle", zap.String("vehicle_id", vehicleID), zap.Error(err))
		return
	}
	s.events.Publish(vehicle.UserID, event, data)
}
