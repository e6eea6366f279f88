package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/abordo/internal/database/testutil"
	"github.com/charlesng35/abordo/internal/models"
)

// fixedNow is the reference instant of the service tests.
var fixedNow = time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) advance(days int) { c.now = c.now.AddDate(0, 0, days) }

func newClock() *testClock { return &testClock{now: fixedNow} }

func day(offset int) time.Time {
	return calendarDate(fixedNow).AddDate(0, 0, offset)
}

func openServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
}

func createUser(t *testing.T, db *gorm.DB, email string, notify bool) *models.User {
	t.Helper()
	user := &models.User{Email: email, PasswordHash: "hash", FirstName: "Marta", EmailNotifications: notify}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createVehicle(t *testing.T, db *gorm.DB, userID, plate string) *models.Vehicle {
	t.Helper()
	vehicle := &models.Vehicle{UserID: userID, PlateNumber: plate, Brand: "Fiat", Model: "Panda", Year: 2019, FuelType: "gasoline", CurrentMileage: 42000}
	require.NoError(t, db.Create(vehicle).Error)
	return vehicle
}

type recordedEvent struct {
	userID string
	event  string
}

type eventRecorder struct {
	events []recordedEvent
}

func (r *eventRecorder) Publish(userID, event string, _ any) {
	r.events = append(r.events, recordedEvent{userID: userID, event: event})
}
