package handlers_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/abordo/internal/handlers/testutil"
)

type notificationPayload struct {
	ID              string  `json:"id"`
	VehicleID       string  `json:"vehicle_id"`
	Type            string  `json:"type"`
	Status          string  `json:"status"`
	DaysUntilExpiry int     `json:"days_until_expiry"`
	Message         string  `json:"message"`
	EmailSent       bool    `json:"email_sent"`
	EmailStage      *string `json:"email_stage"`
	Overridden      bool    `json:"overridden"`
	PlateNumber     string  `json:"plate_number"`
}

type statsPayload struct {
	Total        int `json:"total"`
	Safe         int `json:"safe"`
	Warning      int `json:"warning"`
	Critical     int `json:"critical"`
	Expired      int `json:"expired"`
	PendingEmail int `json:"pending_email"`
}

type dispatchPayload struct {
	Processed int `json:"processed"`
	Sent      int `json:"sent"`
	Skipped   int `json:"skipped"`
	Errors    []struct {
		NotificationID string `json:"notificationId"`
		Message        string `json:"message"`
	} `json:"errors"`
}

func listNotifications(t *testing.T, env *testutil.Env, account testutil.Account, path string) []notificationPayload {
	t.Helper()
	w := env.Request(http.MethodGet, path, nil, account.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var items []notificationPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &items)
	return items
}

func sendEmails(t *testing.T, env *testutil.Env, account testutil.Account) dispatchPayload {
	t.Helper()
	w := env.Request(http.MethodPost, "/api/notifications/send-emails", nil, account.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result dispatchPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &result)
	return result
}

func TestTaxRecordDrivesNotification(t *testing.T) {
	env := testutil.NewEnv(t)
	owner := env.Register("owner@example.com")
	vehicleID := env.CreateVehicle(owner, "AB123CD")

	w := env.Request(http.MethodPost, "/api/vehicles/"+vehicleID+"/taxes", map[string]any{
		"expiryDate": env.Date(5),
		"amount":     180.5,
		"region":     "Lazio",
	}, owner.Token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var tax struct {
		ID string `json:"id"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &tax)

	items := listNotifications(t, env, owner, "/api/notifications")
	require.Len(t, items, 1)
	require.Equal(t, "tax", items[0].Type)
	require.Equal(t, "critical", items[0].Status)
	require.Equal(t, 5, items[0].DaysUntilExpiry)
	require.Equal(t, "Bollo auto in scadenza tra 5 giorni", items[0].Message)
	require.Equal(t, "AB123CD", items[0].PlateNumber)

	require.Len(t, listNotifications(t, env, owner, "/api/notifications/urgent"), 1)
	require.Len(t, listNotifications(t, env, owner, "/api/notifications/vehicle/"+vehicleID), 1)
	require.Len(t, listNotifications(t, env, owner, "/api/notifications?status=critical"), 1)
	require.Empty(t, listNotifications(t, env, owner, "/api/notifications?status=safe"))
	// Unknown filters are ignored.
	require.Len(t, listNotifications(t, env, owner, "/api/notifications?status=bogus"), 1)

	w = env.Request(http.MethodGet, "/api/notifications/stats", nil, owner.Token)
	require.Equal(t, http.StatusOK, w.Code)
	var stats statsPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &stats)
	require.Equal(t, statsPayload{Total: 1, Critical: 1, PendingEmail: 1}, stats)

	// Moving the deadline away makes the same notification safe.
	w = env.Request(http.MethodPut, "/api/vehicles/"+vehicleID+"/taxes/"+tax.ID, map[string]any{"expiryDate": env.Date(400)}, owner.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	items = listNotifications(t, env, owner, "/api/notifications")
	require.Len(t, items, 1)
	require.Equal(t, "safe", items[0].Status)
	require.Equal(t, 400, items[0].DaysUntilExpiry)
	require.Empty(t, listNotifications(t, env, owner, "/api/notifications/vehicle/"+vehicleID))

	w = env.Request(http.MethodDelete, "/api/vehicles/"+vehicleID+"/taxes/"+tax.ID, nil, owner.Token)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, listNotifications(t, env, owner, "/api/notifications"))
}

func TestNotificationsAreReclassifiedOnRead(t *testing.T) {
	env := testutil.NewEnv(t)
	owner := env.Register("owner@example.com")
	vehicleID := env.CreateVehicle(owner, "AB123CD")

	w := env.Request(http.MethodPost, "/api/vehicles/"+vehicleID+"/insurances", map[string]any{
		"company":       "Generali",
		"expiryDate":    env.Date(20),
		"annualPremium": 540,
	}, owner.Token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	items := listNotifications(t, env, owner, "/api/notifications")
	require.Equal(t, "warning", items[0].Status)

	env.Clock.Advance(21 * 24 * time.Hour)
	items = listNotifications(t, env, owner, "/api/notifications")
	require.Equal(t, "expired", items[0].Status)
	require.Equal(t, -1, items[0].DaysUntilExpiry)
}

func TestSendEmailsOncePerStage(t *testing.T) {
	env := testutil.NewEnv(t)
	owner := env.Register("owner@example.com")
	vehicleID := env.CreateVehicle(owner, "AB123CD")

	w := env.Request(http.MethodPost, "/api/vehicles/"+vehicleID+"/taxes", map[string]any{
		"expiryDate": env.Date(5),
		"amount":     180,
	}, owner.Token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	result := sendEmails(t, env, owner)
	require.Equal(t, 1, result.Sent)
	require.Empty(t, result.Errors)

	messages := env.Mailer.Messages()
	require.Len(t, messages, 1)
	require.Equal(t, []string{"owner@example.com"}, messages[0].To)
	require.True(t, strings.HasPrefix(messages[0].Subject, "⚠️ Scadenza imminente: "))
	require.Contains(t, messages[0].HTMLBody, "https://app.example.com")

	items := listNotifications(t, env, owner, "/api/notifications")
	require.True(t, items[0].EmailSent)
	require.NotNil(t, items[0].EmailStage)
	require.Equal(t, "critical", *items[0].EmailStage)

	result = sendEmails(t, env, owner)
	require.Equal(t, 0, result.Sent)
	require.Equal(t, 1, result.Skipped)
	require.Len(t, env.Mailer.Messages(), 1)

	// The final stage is due once the deadline passes.
	env.Clock.Advance(6 * 24 * time.Hour)
	result = sendEmails(t, env, owner)
	require.Equal(t, 1, result.Sent)
	messages = env.Mailer.Messages()
	require.Len(t, messages, 2)
	require.True(t, strings.HasPrefix(messages[1].Subject, "⏰ Scadenza scaduta: "))
}

func TestOverriddenNotificationIsNotEmailed(t *testing.T) {
	env := testutil.NewEnv(t)
	owner := env.Register("owner@example.com")
	vehicleID := env.CreateVehicle(owner, "AB123CD")

	w := env.Request(http.MethodPost, "/api/vehicles/"+vehicleID+"/taxes", map[string]any{
		"expiryDate": env.Date(3),
		"amount":     180,
	}, owner.Token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	items := listNotifications(t, env, owner, "/api/notifications")
	w = env.Request(http.MethodPut, "/api/notifications/"+items[0].ID, map[string]any{"status": "safe"}, owner.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated notificationPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &updated)
	require.Equal(t, "safe", updated.Status)
	require.True(t, updated.Overridden)

	result := sendEmails(t, env, owner)
	require.Equal(t, 0, result.Sent)
	require.Empty(t, env.Mailer.Messages())

	w = env.Request(http.MethodPut, "/api/notifications/"+items[0].ID, map[string]any{"status": "resolved"}, owner.Token)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEmailOptOutSkipsUser(t *testing.T) {
	env := testutil.NewEnv(t)
	owner := env.Register("owner@example.com")
	vehicleID := env.CreateVehicle(owner, "AB123CD")

	w := env.Request(http.MethodPost, "/api/vehicles/"+vehicleID+"/taxes", map[string]any{
		"expiryDate": env.Date(2),
		"amount":     99,
	}, owner.Token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.Request(http.MethodPut, "/api/auth/preferences", map[string]any{"emailNotifications": false}, owner.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	result := sendEmails(t, env, owner)
	require.Equal(t, 0, result.Processed)
	require.Empty(t, env.Mailer.Messages())
}

func TestNotificationOwnership(t *testing.T) {
	env := testutil.NewEnv(t)
	owner := env.Register("owner@example.com")
	stranger := env.Register("stranger@example.com")
	vehicleID := env.CreateVehicle(owner, "AB123CD")

	w := env.Request(http.MethodPost, "/api/vehicles/"+vehicleID+"/taxes", map[string]any{
		"expiryDate": env.Date(10),
		"amount":     99,
	}, owner.Token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	items := listNotifications(t, env, owner, "/api/notifications")

	require.Empty(t, listNotifications(t, env, stranger, "/api/notifications"))

	w = env.Request(http.MethodPut, "/api/notifications/"+items[0].ID, map[string]any{"status": "safe"}, stranger.Token)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.Request(http.MethodDelete, "/api/notifications/"+items[0].ID, nil, stranger.Token)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.Request(http.MethodGet, "/api/notifications/vehicle/"+vehicleID, nil, stranger.Token)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.Request(http.MethodDelete, "/api/notifications/"+items[0].ID, nil, owner.Token)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, listNotifications(t, env, owner, "/api/notifications"))
}
