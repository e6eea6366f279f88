package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/abordo/internal/handlers/testutil"
)

type vehiclePayload struct {
	ID                  string `json:"id"`
	PlateNumber         string `json:"plate_number"`
	CurrentMileage      int    `json:"current_mileage"`
	NotificationCount   int    `json:"notification_count"`
	UrgentNotifications int    `json:"urgent_notifications"`
}

func TestVehicleLifecycle(t *testing.T) {
	env := testutil.NewEnv(t)
	owner := env.Register("owner@example.com")

	vehicleID := env.CreateVehicle(owner, "ab 123-cd")

	w := env.Request(http.MethodGet, "/api/vehicles", nil, owner.Token)
	require.Equal(t, http.StatusOK, w.Code)
	resp := testutil.DecodeResponse(t, w)
	require.Equal(t, 1, resp.Meta.Total)
	var list []vehiclePayload
	testutil.DecodeInto(t, resp.Data, &list)
	require.Equal(t, "AB123CD", list[0].PlateNumber)

	// Same plate, different formatting.
	w = env.Request(http.MethodPost, "/api/vehicles", map[string]any{
		"plateNumber":    "AB123CD",
		"brand":          "Fiat",
		"model":          "Punto",
		"year":           2015,
		"currentMileage": 1000,
		"fuelType":       "diesel",
	}, owner.Token)
	require.Equal(t, http.StatusConflict, w.Code)

	w = env.Request(http.MethodPut, "/api/vehicles/"+vehicleID, map[string]any{"currentMileage": 43000}, owner.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated vehiclePayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &updated)
	require.Equal(t, 43000, updated.CurrentMileage)

	w = env.Request(http.MethodPut, "/api/vehicles/"+vehicleID, map[string]any{"currentMileage": 100}, owner.Token)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.Request(http.MethodGet, "/api/vehicles/"+vehicleID, nil, owner.Token)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.Request(http.MethodDelete, "/api/vehicles/"+vehicleID, nil, owner.Token)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.Request(http.MethodGet, "/api/vehicles/"+vehicleID, nil, owner.Token)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestVehicleValidation(t *testing.T) {
	env := testutil.NewEnv(t)
	owner := env.Register("owner@example.com")

	cases := map[string]map[string]any{
		"bad plate":    {"plateNumber": "!!", "brand": "Fiat", "model": "Panda", "year": 2019, "currentMileage": 0, "fuelType": "gasoline"},
		"bad year":     {"plateNumber": "AB123CD", "brand": "Fiat", "model": "Panda", "year": 1850, "currentMileage": 0, "fuelType": "gasoline"},
		"bad fuel":     {"plateNumber": "AB123CD", "brand": "Fiat", "model": "Panda", "year": 2019, "currentMileage": 0, "fuelType": "steam"},
		"no mileage":   {"plateNumber": "AB123CD", "brand": "Fiat", "model": "Panda", "year": 2019, "fuelType": "gasoline"},
		"neg. mileage": {"plateNumber": "AB123CD", "brand": "Fiat", "model": "Panda", "year": 2019, "currentMileage": -5, "fuelType": "gasoline"},
	}
	for name, body := range cases {
		w := env.Request(http.MethodPost, "/api/vehicles", body, owner.Token)
		require.Equal(t, http.StatusBadRequest, w.Code, name)
	}
}

func TestVehiclesAreScopedToOwner(t *testing.T) {
	env := testutil.NewEnv(t)
	owner := env.Register("owner@example.com")
	stranger := env.Register("stranger@example.com")

	vehicleID := env.CreateVehicle(owner, "AB123CD")

	w := env.Request(http.MethodGet, "/api/vehicles/"+vehicleID, nil, stranger.Token)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.Request(http.MethodDelete, "/api/vehicles/"+vehicleID, nil, stranger.Token)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.Request(http.MethodPost, "/api/vehicles/"+vehicleID+"/taxes", map[string]any{"expiryDate": env.Date(10), "amount": 120}, stranger.Token)
	require.Equal(t, http.StatusNotFound, w.Code)

	// Plates are unique per user, not globally.
	env.CreateVehicle(stranger, "AB123CD")
}

func TestVehicleCreateSeedsNotificationsWhenEnabled(t *testing.T) {
	env := testutil.NewEnv(t, testutil.WithSeedNotifications())
	owner := env.Register("owner@example.com")
	env.CreateVehicle(owner, "AB123CD")

	w := env.Request(http.MethodGet, "/api/notifications", nil, owner.Token)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 3, testutil.DecodeResponse(t, w).Meta.Total)

	w = env.Request(http.MethodGet, "/api/vehicles", nil, owner.Token)
	var list []vehiclePayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &list)
	require.Equal(t, 3, list[0].NotificationCount)
	require.Equal(t, 1, list[0].UrgentNotifications)
}
