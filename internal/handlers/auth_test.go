package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/abordo/internal/handlers/testutil"
)

func TestAuthRegisterLoginAndProfile(t *testing.T) {
	env := testutil.NewEnv(t)
	account := env.Register("Marco.Rossi@Example.com")
	require.Equal(t, "marco.rossi@example.com", account.Email)

	w := env.Request(http.MethodPost, "/api/auth/register", map[string]string{
		"email":     "marco.rossi@example.com",
		"password":  "Password123!",
		"firstName": "Marco",
		"lastName":  "Rossi",
	}, "")
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	w = env.Request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "marco.rossi@example.com",
		"password": "wrong-password",
	}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.Request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "MARCO.ROSSI@example.com",
		"password": "Password123!",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.Request(http.MethodGet, "/api/auth/me", nil, account.Token)
	require.Equal(t, http.StatusOK, w.Code)
	var me struct {
		ID                 string `json:"id"`
		EmailNotifications bool   `json:"email_notifications"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &me)
	require.Equal(t, account.UserID, me.ID)
	require.True(t, me.EmailNotifications)

	w = env.Request(http.MethodPut, "/api/auth/preferences", map[string]bool{"emailNotifications": false}, account.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &me)
	require.False(t, me.EmailNotifications)
}

func TestAuthRegisterValidation(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodPost, "/api/auth/register", map[string]string{
		"email":     "not-an-email",
		"password":  "123",
		"firstName": "Marco",
		"lastName":  "Rossi",
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := testutil.DecodeResponse(t, w)
	require.False(t, resp.Success)
	require.Contains(t, resp.Error.Message, "email must be a valid email address")
	require.Contains(t, resp.Error.Message, "password must be at least 6 characters")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := testutil.NewEnv(t)

	for _, path := range []string{"/api/auth/me", "/api/vehicles", "/api/notifications", "/api/costs/summary"} {
		w := env.Request(http.MethodGet, path, nil, "")
		require.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}
