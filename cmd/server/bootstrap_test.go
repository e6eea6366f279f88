package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/charlesng35/abordo/internal/app"
)

func testConfig(t *testing.T) *app.Config {
	t.Helper()
	return &app.Config{
		Database: app.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "abordo.sqlite")},
		Auth:     app.AuthConfig{JWT: app.JWTSettings{Secret: "bootstrap-test-secret-0123456789abcdef", Issuer: "abordo"}},
		Email:    app.EmailConfig{Provider: "disabled"},
		Reminders: app.ReminderConfig{
			Enabled:  true,
			Schedule: "0 8 * * *",
			Timezone: "UTC",
		},
	}
}

func TestBootstrapRuntimeServesHealth(t *testing.T) {
	cfg := testConfig(t)
	log := zap.NewNop()

	stack, err := bootstrapRuntime(context.Background(), cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { stack.Shutdown(context.Background(), log) })

	require.NotNil(t, stack.Scheduler)
	require.NotNil(t, stack.Services.Reminders)

	w := httptest.NewRecorder()
	stack.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	result, err := stack.Services.Reminders.SweepAll(context.Background())
	require.NoError(t, err)
	require.Zero(t, result.Processed)
}

func TestBootstrapRuntimeWithoutScheduler(t *testing.T) {
	cfg := testConfig(t)
	cfg.Reminders.Enabled = false
	log := zap.NewNop()

	stack, err := bootstrapRuntime(context.Background(), cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { stack.Shutdown(context.Background(), log) })
	require.Nil(t, stack.Scheduler)
}

func TestBootstrapRuntimeRejectsBadTimezone(t *testing.T) {
	cfg := testConfig(t)
	cfg.Reminders.Timezone = "Mars/Olympus_Mons"

	_, err := bootstrapRuntime(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
}

func TestBootstrapRuntimeRejectsUnknownMailProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.Email.Provider = "pigeon"

	_, err := bootstrapRuntime(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
}

func TestLoadApplicationConfigMissingPath(t *testing.T) {
	_, err := loadApplicationConfig(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
