package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/abordo/internal/expiry"
	"github.com/charlesng35/abordo/internal/models"
	"github.com/charlesng35/abordo/pkg/mail"
)

type fakeMailer struct {
	sent []mail.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mail.Message) (mail.Receipt, error) {
	if m.err != nil {
		return mail.Receipt{}, m.err
	}
	m.sent = append(m.sent, msg)
	return mail.Receipt{Provider: "fake", MessageID: "msg-" + msg.To[0]}, nil
}

func (m *fakeMailer) Provider() string { return "fake" }

func newReminderService(t *testing.T, db *gorm.DB, mailer mail.Mailer, clock *testClock) *ReminderService {
	t.Helper()
	svc, err := NewReminderService(db, mailer, WithReminderClock(clock.Now), WithFrontendURL("https://app.example.com/"))
	require.NoError(t, err)
	return svc
}

func emailLogs(t *testing.T, db *gorm.DB, notificationID string) []models.EmailLog {
	t.Helper()
	var logs []models.EmailLog
	require.NoError(t, db.Where("notification_id = ?", notificationID).Order("created_at ASC").Find(&logs).Error)
	return logs
}

func TestReminderStagesAdvanceAtMostOnce(t *testing.T) {
	db := openServiceDB(t)
	clock := newClock()
	user := createUser(t, db, "owner@example.com", true)
	vehicle := createVehicle(t, db, user.ID, "AB123CD")
	sync := newSynchronizer(t, db, clock)
	mailer := &fakeMailer{}
	svc := newReminderService(t, db, mailer, clock)
	ctx := context.Background()

	due := day(5)
	row, err := sync.UpsertForSource(ctx, SyncTarget{VehicleID: vehicle.ID, Kind: expiry.KindInsurance, Scope: expiry.ItemScoped(models.SourceInsurance, "ins-1")}, &due)
	require.NoError(t, err)

	result, err := svc.SweepAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, result.Processed)
	require.Equal(t, 1, result.Sent)
	require.Empty(t, result.Errors)
	require.NoError(t, result.Err())
	require.Len(t, mailer.sent, 1)
	require.True(t, strings.HasPrefix(mailer.sent[0].Subject, "⚠️ Scadenza imminente: "))
	require.Contains(t, mailer.sent[0].HTMLBody, "https://app.example.com/dashboard")
	require.Contains(t, mailer.sent[0].HTMLBody, "5 giorni rimanenti")

	var stored models.Notification
	require.NoError(t, db.First(&stored, "id = ?", row.ID).Error)
	require.True(t, stored.EmailSent)
	require.Equal(t, expiry.Sent(expiry.StageCritical), stored.StageState())

	result, err = svc.SweepAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, result.Sent)
	require.Equal(t, 1, result.Skipped)
	require.Len(t, mailer.sent, 1)

	clock.advance(6)
	result, err = svc.SweepAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, result.Sent)
	require.Len(t, mailer.sent, 2)
	require.True(t, strings.HasPrefix(mailer.sent[1].Subject, "⏰ Scadenza scaduta: "))
	require.Contains(t, mailer.sent[1].HTMLBody, "scaduto da 1 giorni")

	require.NoError(t, db.First(&stored, "id = ?", row.ID).Error)
	require.Equal(t, expiry.Sent(expiry.StageFinal), stored.StageState())

	logs := emailLogs(t, db, row.ID)
	require.Len(t, logs, 2)
	require.Equal(t, string(expiry.StageCritical), logs[0].EmailStage)
	require.Equal(t, string(expiry.StageFinal), logs[1].EmailStage)
	require.Equal(t, models.EmailStatusSent, logs[1].Status)
	require.Equal(t, "fake", logs[1].Provider)
	require.Equal(t, "msg-owner@example.com", logs[1].MessageID)
}

func TestReminderFailureKeepsStageForRetry(t *testing.T) {
	db := openServiceDB(t)
	clock := newClock()
	user := createUser(t, db, "owner@example.com", true)
	vehicle := createVehicle(t, db, user.ID, "AB123CD")
	sync := newSynchronizer(t, db, clock)
	mailer := &fakeMailer{err: &mail.TransportError{Provider: "fake", Message: "connection refused"}}
	svc := newReminderService(t, db, mailer, clock)
	ctx := context.Background()

	due := day(20)
	row, err := sync.UpsertForSource(ctx, SyncTarget{VehicleID: vehicle.ID, Kind: expiry.KindTax, Scope: expiry.ItemScoped(models.SourceCarTax, "tax-1")}, &due)
	require.NoError(t, err)

	result, err := svc.SendForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, 1, result.Processed)
	require.Equal(t, 0, result.Sent)
	require.Len(t, result.Errors, 1)
	require.Equal(t, row.ID, result.Errors[0].NotificationID)
	require.Contains(t, result.Errors[0].Message, "connection refused")
	require.Error(t, result.Err())

	var stored models.Notification
	require.NoError(t, db.First(&stored, "id = ?", row.ID).Error)
	require.False(t, stored.EmailSent)
	require.Nil(t, stored.EmailStage)

	logs := emailLogs(t, db, row.ID)
	require.Len(t, logs, 1)
	require.Equal(t, models.EmailStatusFailed, logs[0].Status)
	require.NotNil(t, logs[0].ErrorMessage)
	require.Equal(t, string(expiry.StageWarning), logs[0].EmailStage)

	mailer.err = nil
	result, err = svc.SendForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, 1, result.Sent)
	require.Len(t, emailLogs(t, db, row.ID), 2)
}

func TestSentEmailIsLoggedWhenStageUpdateFails(t *testing.T) {
	db := openServiceDB(t)
	clock := newClock()
	user := createUser(t, db, "owner@example.com", true)
	vehicle := createVehicle(t, db, user.ID, "AB123CD")
	sync := newSynchronizer(t, db, clock)
	mailer := &fakeMailer{}
	svc := newReminderService(t, db, mailer, clock)
	ctx := context.Background()

	due := day(3)
	row, err := sync.UpsertForSource(ctx, SyncTarget{VehicleID: vehicle.ID, Kind: expiry.KindTax, Scope: expiry.ItemScoped(models.SourceCarTax, "tax-1")}, &due)
	require.NoError(t, err)

	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:reject_notification_update", func(tx *gorm.DB) {
		if tx.Statement.Table == "notifications" {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))

	result, err := svc.SendForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Zero(t, result.Sent)
	require.Len(t, result.Errors, 1)
	require.Contains(t, result.Errors[0].Message, "persist stage")
	require.Len(t, mailer.sent, 1)

	logs := emailLogs(t, db, row.ID)
	require.Len(t, logs, 1)
	require.Equal(t, models.EmailStatusSent, logs[0].Status)
	require.Equal(t, "msg-owner@example.com", logs[0].MessageID)

	var stored models.Notification
	require.NoError(t, db.First(&stored, "id = ?", row.ID).Error)
	require.Nil(t, stored.EmailStage)
}

func TestReminderEligibility(t *testing.T) {
	db := openServiceDB(t)
	clock := newClock()
	optedIn := createUser(t, db, "in@example.com", true)
	optedOut := createUser(t, db, "out@example.com", false)
	mine := createVehicle(t, db, optedIn.ID, "AB123CD")
	theirs := createVehicle(t, db, optedOut.ID, "ZZ999ZZ")
	sync := newSynchronizer(t, db, clock)
	queries, err := NewNotificationService(db, WithNotificationClock(clock.Now))
	require.NoError(t, err)
	mailer := &fakeMailer{}
	svc := newReminderService(t, db, mailer, clock)
	ctx := context.Background()

	upsert := func(vehicleID string, kind expiry.Kind, id string, offset int) *models.Notification {
		due := day(offset)
		row, err := sync.UpsertForSource(ctx, SyncTarget{VehicleID: vehicleID, Kind: kind, Scope: expiry.ItemScoped(string(kind), id)}, &due)
		require.NoError(t, err)
		return row
	}

	upsert(mine.ID, expiry.KindInsurance, "far", 45)
	overridden := upsert(mine.ID, expiry.KindInspection, "done", 2)
	upsert(theirs.ID, expiry.KindTax, "muted", 3)
	upsert(mine.ID, expiry.KindTax, "due", 30)

	safe := string(expiry.StatusSafe)
	_, err = queries.Update(ctx, optedIn.ID, overridden.ID, UpdateNotificationInput{Status: &safe})
	require.NoError(t, err)

	result, err := svc.SweepAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, result.Processed)
	require.Equal(t, 1, result.Sent)
	require.Len(t, mailer.sent, 1)
	require.Equal(t, []string{"in@example.com"}, mailer.sent[0].To)
}

func TestSendForUserOnlyTouchesThatUser(t *testing.T) {
	db := openServiceDB(t)
	clock := newClock()
	first := createUser(t, db, "first@example.com", true)
	second := createUser(t, db, "second@example.com", true)
	sync := newSynchronizer(t, db, clock)
	mailer := &fakeMailer{}
	svc := newReminderService(t, db, mailer, clock)
	ctx := context.Background()

	for _, user := range []*models.User{first, second} {
		vehicle := createVehicle(t, db, user.ID, "AB123CD")
		due := day(1)
		_, err := sync.UpsertForSource(ctx, SyncTarget{VehicleID: vehicle.ID, Kind: expiry.KindTax, Scope: expiry.Aggregated()}, &due)
		require.NoError(t, err)
	}

	result, err := svc.SendForUser(ctx, second.ID)
	require.NoError(t, err)
	require.Equal(t, 1, result.Sent)
	require.Equal(t, []string{"second@example.com"}, mailer.sent[0].To)

	_, err = svc.SendForUser(ctx, " ")
	require.Error(t, err)
}

func TestDisabledMailerReportsErrors(t *testing.T) {
	db := openServiceDB(t)
	clock := newClock()
	user := createUser(t, db, "owner@example.com", true)
	vehicle := createVehicle(t, db, user.ID, "AB123CD")
	sync := newSynchronizer(t, db, clock)
	svc, err := NewReminderService(db, nil, WithReminderClock(clock.Now))
	require.NoError(t, err)
	ctx := context.Background()

	due := day(0)
	_, err = sync.UpsertForSource(ctx, SyncTarget{VehicleID: vehicle.ID, Kind: expiry.KindInsurance, Scope: expiry.Aggregated()}, &due)
	require.NoError(t, err)

	result, err := svc.SweepAll(ctx)
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	require.Error(t, result.Err())
	require.Contains(t, result.Errors[0].Message, "disabled")
}

func TestRenderReminderEscapesHTML(t *testing.T) {
	view := NotificationDTO{
		Type:            string(expiry.KindMaintenance),
		Message:         "<b>Freni</b> in scadenza tra 3 giorni",
		DaysUntilExpiry: 3,
		PlateNumber:     "AB123CD",
		Brand:           "Fiat",
		Model:           "Panda",
	}
	rendered, err := renderReminder(view, "", 2019, day(3), "https://app.example.com")
	require.NoError(t, err)
	require.NotContains(t, rendered.HTML, "<b>Freni</b>")
	require.Contains(t, rendered.HTML, "Ciao utente")
	require.Contains(t, rendered.HTML, "13/03/2026")
	require.Contains(t, rendered.Text, "Manutenzione")
	require.Equal(t, "⚠️ Scadenza imminente: <b>Freni</b> in scadenza tra 3 giorni", rendered.Subject)
}
