package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/abordo/internal/expiry"
	"github.com/charlesng35/abordo/internal/models"
	"github.com/charlesng35/abordo/internal/monitoring"
	"github.com/charlesng35/abordo/pkg/logger"
	"github.com/charlesng35/abordo/pkg/mail"
	"github.com/charlesng35/abordo/pkg/metrics"
)

// Dispatch modes reported to metrics.
const (
	DispatchScheduled = "scheduled"
	DispatchOnDemand  = "on_demand"
)

// DispatchError describes one notification whose reminder could not be sent.
type DispatchError struct {
	NotificationID string `json:"notificationId"`
	Message        string `json:"message"`
}

// DispatchResult summarises a reminder run.
type DispatchResult struct {
	Processed int             `json:"processed"`
	Sent      int             `json:"sent"`
	Skipped   int             `json:"skipped"`
	Errors    []DispatchError `json:"errors"`
}

// Err combines the per-notification failures of the run, or returns nil.
func (r DispatchResult) Err() error {
	var err error
	for _, e := range r.Errors {
		err = multierr.Append(err, fmt.Errorf("notification %s: %s", e.NotificationID, e.Message))
	}
	return err
}

// ReminderService emails deadline reminders, at most once per stage of each
// notification.
type ReminderService struct {
	db          *gorm.DB
	mailer      mail.Mailer
	now         expiry.Clock
	limiter     *rate.Limiter
	frontendURL string
	log         *zap.Logger
}

// ReminderOption configures a ReminderService.
type ReminderOption func(*ReminderService)

// WithReminderClock overrides the clock used to compute stages.
func WithReminderClock(now expiry.Clock) ReminderOption {
	return func(s *ReminderService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSendRate throttles outbound emails to perSecond with the given burst.
// A non-positive rate disables throttling.
func WithSendRate(perSecond float64, burst int) ReminderOption {
	return func(s *ReminderService) {
		if perSecond <= 0 {
			s.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithFrontendURL sets the base URL linked from reminder emails.
func WithFrontendURL(url string) ReminderOption {
	return func(s *ReminderService) {
		if strings.TrimSpace(url) != "" {
			s.frontendURL = url
		}
	}
}

// NewReminderService constructs a ReminderService.
func NewReminderService(db *gorm.DB, mailer mail.Mailer, opts ...ReminderOption) (*ReminderService, error) {
	if db == nil {
		return nil, errors.New("reminder service: db is required")
	}
	if mailer == nil {
		mailer = mail.NewDisabledMailer()
	}
	s := &ReminderService{
		db:          db,
		mailer:      mailer,
		now:         time.Now,
		frontendURL: "http://localhost:3000",
		log:         logger.WithModule("reminders"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SweepAll sends due reminders for every user with reminders enabled.
func (s *ReminderService) SweepAll(ctx context.Context) (DispatchResult, error) {
	return s.dispatch(ctx, "", DispatchScheduled)
}

// SendForUser sends the user's due reminders now.
func (s *ReminderService) SendForUser(ctx context.Context, userID string) (DispatchResult, error) {
	if strings.TrimSpace(userID) == "" {
		return DispatchResult{}, errors.New("reminder service: user id is required")
	}
	return s.dispatch(ctx, userID, DispatchOnDemand)
}

type reminderCandidate struct {
	row     models.Notification
	vehicle *models.Vehicle
	user    *models.User
}

// dispatch runs over a snapshot of eligible notifications. Per-notification
// failures are collected and never stop the run; the returned error is only set
// when the snapshot cannot be loaded.
func (s *ReminderService) dispatch(ctx context.Context, userID, mode string) (result DispatchResult, err error) {
	ctx = ensureContext(ctx)
	started := time.Now()
	defer func() {
		elapsed := time.Since(started)
		metrics.ReminderSweepDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
		monitoring.RecordReminderRun(mode, result.Sent, multierr.Append(err, result.Err()), elapsed)
	}()

	now := s.now()
	candidates, err := s.eligible(ctx, userID, now)
	if err != nil {
		return DispatchResult{}, err
	}

	result = DispatchResult{Errors: []DispatchError{}}
	for _, candidate := range candidates {
		result.Processed++

		view := liveView(candidate.row, candidate.vehicle, now)
		stage, ok := expiry.StageFor(view.DaysUntilExpiry)
		if !ok || !candidate.row.StageState().Due(stage) {
			result.Skipped++
			continue
		}

		if err := s.sendReminder(ctx, candidate, view, stage, now); err != nil {
			result.Errors = append(result.Errors, DispatchError{NotificationID: candidate.row.ID, Message: err.Error()})
			s.log.Warn("reminder not sent",
				zap.String("notification_id", candidate.row.ID),
				zap.String("stage", string(stage)),
				zap.Error(err),
			)
			continue
		}
		result.Sent++
	}

	s.log.Info("reminder run completed",
		zap.String("mode", mode),
		zap.Int("processed", result.Processed),
		zap.Int("sent", result.Sent),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

// eligible loads notifications within the warning horizon whose owner has
// reminders enabled, excluding the ones the user marked safe.
func (s *ReminderService) eligible(ctx context.Context, userID string, now time.Time) ([]reminderCandidate, error) {
	horizon := today(now).AddDate(0, 0, expiry.WarningDays)

	query := s.db.WithContext(ctx).Model(&models.Notification{}).
		Select("notifications.*").
		Joins("JOIN vehicles ON vehicles.id = notifications.vehicle_id").
		Joins("JOIN users ON users.id = vehicles.user_id").
		Where("users.email_notifications = ?", true).
		Where("notifications.expiry_date <= ?", horizon).
		Where("(notifications.status <> ? OR notifications.resolved_at IS NULL)", string(expiry.StatusSafe)).
		Order("notifications.expiry_date ASC")
	if userID != "" {
		query = query.Where("vehicles.user_id = ?", userID)
	}

	var rows []models.Notification
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("reminder service: load notifications: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	vehicleIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		vehicleIDs = append(vehicleIDs, row.VehicleID)
	}
	var vehicles []models.Vehicle
	if err := s.db.WithContext(ctx).Where("id IN ?", vehicleIDs).Find(&vehicles).Error; err != nil {
		return nil, fmt.Errorf("reminder service: load vehicles: %w", err)
	}
	vehiclesByID := make(map[string]*models.Vehicle, len(vehicles))
	userIDs := make([]string, 0, len(vehicles))
	for i := range vehicles {
		vehiclesByID[vehicles[i].ID] = &vehicles[i]
		userIDs = append(userIDs, vehicles[i].UserID)
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("reminder service: load users: %w", err)
	}
	usersByID := make(map[string]*models.User, len(users))
	for i := range users {
		usersByID[users[i].ID] = &users[i]
	}

	candidates := make([]reminderCandidate, 0, len(rows))
	for _, row := range rows {
		vehicle := vehiclesByID[row.VehicleID]
		if vehicle == nil {
			continue
		}
		user := usersByID[vehicle.UserID]
		if user == nil {
			continue
		}
		candidates = append(candidates, reminderCandidate{row: row, vehicle: vehicle, user: user})
	}
	return candidates, nil
}

func (s *ReminderService) sendReminder(ctx context.Context, candidate reminderCandidate, view NotificationDTO, stage expiry.Stage, now time.Time) error {
	provider := mail.ProviderName(s.mailer)

	rendered, err := renderReminder(view, candidate.user.FirstName, candidate.vehicle.Year, candidate.row.ExpiryDate, s.frontendURL)
	if err != nil {
		return s.recordFailure(ctx, candidate, stage, provider, err, now)
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return s.recordFailure(ctx, candidate, stage, provider, err, now)
		}
	}

	receipt, err := s.mailer.Send(ctx, mail.Message{
		To:       []string{candidate.user.Email},
		Subject:  rendered.Subject,
		HTMLBody: rendered.HTML,
		TextBody: rendered.Text,
	})
	if err != nil {
		return s.recordFailure(ctx, candidate, stage, provider, err, now)
	}
	if receipt.Provider != "" {
		provider = receipt.Provider
	}

	metrics.ReminderEmails.WithLabelValues(provider, string(stage), "sent").Inc()

	// The email is out: the attempt is logged whatever happens to the stage.
	entry := s.emailLog(candidate, stage, provider, now)
	entry.Status = models.EmailStatusSent
	entry.MessageID = receipt.MessageID
	entry.Metadata = reminderMetadata(view.DaysUntilExpiry, provider, receipt.MessageID)
	persistCtx := context.WithoutCancel(ctx)
	if err := s.db.WithContext(persistCtx).Create(&entry).Error; err != nil {
		s.log.Error("failed to record sent email", zap.String("notification_id", candidate.row.ID), zap.Error(err))
	}

	next := expiry.Sent(stage)
	err = s.db.WithContext(persistCtx).Model(&models.Notification{}).
		Where("id = ?", candidate.row.ID).
		Updates(map[string]any{
			"email_stage": next.Column(),
			"email_sent":  true,
			"updated_at":  now,
		}).Error
	if err != nil {
		// The next run may send this stage again.
		return fmt.Errorf("reminder service: persist stage: %w", err)
	}
	return nil
}

// recordFailure logs a failed attempt without advancing the stage, so the next
// run retries it. It returns the send error.
func (s *ReminderService) recordFailure(ctx context.Context, candidate reminderCandidate, stage expiry.Stage, provider string, sendErr error, now time.Time) error {
	metrics.ReminderEmails.WithLabelValues(provider, string(stage), "failed").Inc()

	entry := s.emailLog(candidate, stage, provider, now)
	entry.Status = models.EmailStatusFailed
	entry.ErrorMessage = stringPtr(sendErr.Error())
	entry.Metadata = reminderMetadata(liveDays(candidate.row, now), provider, "")
	if err := s.db.WithContext(context.WithoutCancel(ctx)).Create(&entry).Error; err != nil {
		s.log.Error("failed to record email failure", zap.String("notification_id", candidate.row.ID), zap.Error(err))
	}
	return sendErr
}

func (s *ReminderService) emailLog(candidate reminderCandidate, stage expiry.Stage, provider string, now time.Time) models.EmailLog {
	return models.EmailLog{
		UserID:         candidate.user.ID,
		NotificationID: candidate.row.ID,
		EmailType:      models.EmailTypeExpiry,
		RecipientEmail: candidate.user.Email,
		EmailStage:     string(stage),
		Provider:       provider,
		SentAt:         now,
	}
}

func liveDays(row models.Notification, now time.Time) int {
	days, _ := expiry.Evaluate(now, row.ExpiryDate)
	return days
}

func reminderMetadata(days int, provider, messageID string) datatypes.JSON {
	raw, err := json.Marshal(map[string]any{
		"days_until_expiry": days,
		"provider":          provider,
		"message_id":        messageID,
	})
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
