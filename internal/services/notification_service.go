package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/abordo/internal/expiry"
	"github.com/charlesng35/abordo/internal/models"
	"github.com/charlesng35/abordo/internal/realtime"
	apperrors "github.com/charlesng35/abordo/pkg/errors"
)

// UrgentLimit caps the urgent notification list.
const UrgentLimit = 100

// NotificationDTO is a notification with its status derived at read time.
type NotificationDTO struct {
	ID              string     `json:"id"`
	VehicleID       string     `json:"vehicle_id"`
	Type            string     `json:"type"`
	SourceType      *string    `json:"source_type,omitempty"`
	SourceID        *string    `json:"source_id,omitempty"`
	Status          string     `json:"status"`
	DaysUntilExpiry int        `json:"days_until_expiry"`
	Message         string     `json:"message"`
	ExpiryDate      string     `json:"expiry_date"`
	EmailSent       bool       `json:"email_sent"`
	EmailStage      *string    `json:"email_stage"`
	Overridden      bool       `json:"overridden"`
	PlateNumber     string     `json:"plate_number"`
	Brand           string     `json:"brand"`
	Model           string     `json:"model"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
}

// NotificationStats counts a user's notifications by live status.
type NotificationStats struct {
	Total        int `json:"total"`
	Safe         int `json:"safe"`
	Warning      int `json:"warning"`
	Critical     int `json:"critical"`
	Expired      int `json:"expired"`
	PendingEmail int `json:"pending_email"`
}

// UpdateNotificationInput carries the user editable fields of a notification.
type UpdateNotificationInput struct {
	Status    *string
	EmailSent *bool
}

// NotificationService answers notification queries for a user. It never trusts
// the stored status: every read reclassifies the expiry date against the clock.
type NotificationService struct {
	db     *gorm.DB
	now    expiry.Clock
	events EventPublisher
}

// NotificationOption configures a NotificationService.
type NotificationOption func(*NotificationService)

// WithNotificationClock overrides the clock used for live classification.
func WithNotificationClock(now expiry.Clock) NotificationOption {
	return func(s *NotificationService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithNotificationEvents publishes updates and deletes made through the service.
func WithNotificationEvents(events EventPublisher) NotificationOption {
	return func(s *NotificationService) {
		s.events = events
	}
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(db *gorm.DB, opts ...NotificationOption) (*NotificationService, error) {
	if db == nil {
		return nil, errors.New("notification service: db is required")
	}
	s := &NotificationService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ListForUser returns the user's notifications ordered by urgency. statusFilter
// is matched against the live status; unknown values are ignored.
func (s *NotificationService) ListForUser(ctx context.Context, userID, statusFilter string) ([]NotificationDTO, error) {
	views, err := s.load(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	if status, ok := expiry.ParseStatus(statusFilter); ok {
		views = filterStatus(views, status)
	}
	return views, nil
}

// UrgentForUser returns the most urgent notifications of the user.
func (s *NotificationService) UrgentForUser(ctx context.Context, userID string) ([]NotificationDTO, error) {
	views, err := s.load(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	if len(views) > UrgentLimit {
		views = views[:UrgentLimit]
	}
	return views, nil
}

// ListForVehicle returns the warning and critical notifications of one vehicle.
func (s *NotificationService) ListForVehicle(ctx context.Context, userID, vehicleID string) ([]NotificationDTO, error) {
	if strings.TrimSpace(vehicleID) == "" {
		return nil, apperrors.NewBadRequest("vehicle id is required")
	}
	if _, err := ownedVehicle(ctx, s.db, userID, vehicleID); err != nil {
		return nil, err
	}
	views, err := s.load(ctx, userID, vehicleID)
	if err != nil {
		return nil, err
	}
	out := views[:0]
	for _, view := range views {
		if view.Status == string(expiry.StatusWarning) || view.Status == string(expiry.StatusCritical) {
			out = append(out, view)
		}
	}
	return out, nil
}

// StatsForUser counts the user's notifications by live status. PendingEmail is
// the number of critical notifications (0 to 7 days) never emailed.
func (s *NotificationService) StatsForUser(ctx context.Context, userID string) (NotificationStats, error) {
	views, err := s.load(ctx, userID, "")
	if err != nil {
		return NotificationStats{}, err
	}

	var stats NotificationStats
	for _, view := range views {
		stats.Total++
		switch expiry.Status(view.Status) {
		case expiry.StatusSafe:
			stats.Safe++
		case expiry.StatusWarning:
			stats.Warning++
		case expiry.StatusCritical:
			stats.Critical++
		case expiry.StatusExpired:
			stats.Expired++
		}
		if view.DaysUntilExpiry >= 0 && view.DaysUntilExpiry <= expiry.CriticalDays && !view.EmailSent {
			stats.PendingEmail++
		}
	}
	return stats, nil
}

// Update changes the status or email flag of a notification. Setting the status
// to safe is the explicit override; any other status lifts it.
func (s *NotificationService) Update(ctx context.Context, userID, notificationID string, input UpdateNotificationInput) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)
	row, vehicle, err := s.owned(ctx, userID, notificationID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	updates := map[string]any{"updated_at": now}
	if input.Status != nil {
		status, ok := expiry.ParseStatus(*input.Status)
		if !ok {
			return nil, apperrors.NewBadRequest("status must be one of safe, warning, critical, expired")
		}
		updates["status"] = string(status)
		if status == expiry.StatusSafe {
			updates["resolved_at"] = now
		} else {
			updates["resolved_at"] = nil
		}
	}
	if input.EmailSent != nil {
		updates["email_sent"] = *input.EmailSent
	}

	if err := s.db.WithContext(ctx).Model(row).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("notification service: update: %w", err)
	}
	if err := s.db.WithContext(ctx).First(row, "id = ?", row.ID).Error; err != nil {
		return nil, fmt.Errorf("notification service: reload: %w", err)
	}

	view := liveView(*row, vehicle, now)
	if s.events != nil {
		s.events.Publish(userID, realtime.EventNotificationUpserted, view)
	}
	return &view, nil
}

// Delete removes a notification owned by the user.
func (s *NotificationService) Delete(ctx context.Context, userID, notificationID string) error {
	ctx = ensureContext(ctx)
	row, _, err := s.owned(ctx, userID, notificationID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(row).Error; err != nil {
		return fmt.Errorf("notification service: delete: %w", err)
	}
	if s.events != nil {
		s.events.Publish(userID, realtime.EventNotificationDeleted, map[string]string{"id": row.ID})
	}
	return nil
}

func (s *NotificationService) owned(ctx context.Context, userID, notificationID string) (*models.Notification, *models.Vehicle, error) {
	var row models.Notification
	err := s.db.WithContext(ctx).
		Joins("JOIN vehicles ON vehicles.id = notifications.vehicle_id").
		Where("notifications.id = ? AND vehicles.user_id = ?", notificationID, userID).
		Take(&row).Error
	if err != nil {
		return nil, nil, notFound(err, "Notification not found")
	}
	vehicle, err := ownedVehicle(ctx, s.db, userID, row.VehicleID)
	if err != nil {
		return nil, nil, err
	}
	return &row, vehicle, nil
}

// load fetches the user's notifications, optionally for one vehicle, and
// returns them classified and sorted by live day delta then newest first.
func (s *NotificationService) load(ctx context.Context, userID, vehicleID string) ([]NotificationDTO, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.ErrUnauthorized
	}

	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if vehicleID != "" {
		query = query.Where("id = ?", vehicleID)
	}
	var vehicles []models.Vehicle
	if err := query.Find(&vehicles).Error; err != nil {
		return nil, fmt.Errorf("notification service: load vehicles: %w", err)
	}
	if len(vehicles) == 0 {
		return []NotificationDTO{}, nil
	}

	byID := make(map[string]*models.Vehicle, len(vehicles))
	ids := make([]string, 0, len(vehicles))
	for i := range vehicles {
		byID[vehicles[i].ID] = &vehicles[i]
		ids = append(ids, vehicles[i].ID)
	}

	var rows []models.Notification
	if err := s.db.WithContext(ctx).Where("vehicle_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("notification service: load notifications: %w", err)
	}

	now := s.now()
	views := make([]NotificationDTO, 0, len(rows))
	for _, row := range rows {
		views = append(views, liveView(row, byID[row.VehicleID], now))
	}
	sortByUrgency(views)
	return views, nil
}

// liveView reclassifies a stored notification at now. A user's safe mark
// survives reclassification until the synchronizer writes a new deadline.
func liveView(row models.Notification, vehicle *models.Vehicle, now time.Time) NotificationDTO {
	days, status := expiry.Evaluate(now, row.ExpiryDate)
	overridden := row.Overridden()
	if overridden {
		status = expiry.StatusSafe
	}

	// Service placeholders keep their seeded wording.
	message := row.Message
	if expiry.Kind(row.Type) != expiry.KindService {
		message = BuildMessage(expiry.Kind(row.Type), days, row.Label)
	}

	view := NotificationDTO{
		ID:              row.ID,
		VehicleID:       row.VehicleID,
		Type:            row.Type,
		SourceType:      row.SourceType,
		SourceID:        row.SourceID,
		Status:          string(status),
		DaysUntilExpiry: days,
		Message:         message,
		ExpiryDate:      row.ExpiryDate.Format("2006-01-02"),
		EmailSent:       row.EmailSent,
		EmailStage:      row.EmailStage,
		Overridden:      overridden,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
		ResolvedAt:      row.ResolvedAt,
	}
	if vehicle != nil {
		view.PlateNumber = vehicle.PlateNumber
		view.Brand = vehicle.Brand
		view.Model = vehicle.Model
	}
	return view
}

func sortByUrgency(views []NotificationDTO) {
	sort.SliceStable(views, func(i, j int) bool {
		if views[i].DaysUntilExpiry != views[j].DaysUntilExpiry {
			return views[i].DaysUntilExpiry < views[j].DaysUntilExpiry
		}
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})
}

func filterStatus(views []NotificationDTO, status expiry.Status) []NotificationDTO {
	out := make([]NotificationDTO, 0, len(views))
	for _, view := range views {
		if view.Status == string(status) {
			out = append(out, view)
		}
	}
	return out
}
