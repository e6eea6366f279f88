package services

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/abordo/internal/expiry"
	"github.com/charlesng35/abordo/internal/models"
	apperrors "github.com/charlesng35/abordo/pkg/errors"
)

func TestListForUserDerivesStatusAtReadTime(t *testing.T) {
	db := openServiceDB(t)
	clock := newClock()
	user := createUser(t, db, "owner@example.com", true)
	vehicle := createVehicle(t, db, user.ID, "AB123CD")
	sync := newSynchronizer(t, db, clock)
	queries, err := NewNotificationService(db, WithNotificationClock(clock.Now))
	require.NoError(t, err)
	ctx := context.Background()

	due := day(31)
	_, err = sync.UpsertForSource(ctx, SyncTarget{VehicleID: vehicle.ID, Kind: expiry.KindInsurance, Scope: expiry.ItemScoped(models.SourceInsurance, "ins-1")}, &due)
	require.NoError(t, err)

	views, err := queries.ListForUser(ctx, user.ID, "")
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, string(expiry.StatusSafe), views[0].Status)
	require.Equal(t, "AB123CD", views[0].PlateNumber)

	// Nothing is written, yet the status follows the calendar.
	clock.advance(25)
	views, err = queries.ListForUser(ctx, user.ID, "")
	require.NoError(t, err)
	require.Equal(t, string(expiry.StatusCritical), views[0].Status)
	require.Equal(t, 6, views[0].DaysUntilExpiry)
	require.Equal(t, "Assicurazione in scadenza tra 6 giorni", views[0].Message)

	clock.advance(7)
	views, err = queries.ListForUser(ctx, user.ID, string(expiry.StatusExpired))
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, -1, views[0].DaysUntilExpiry)
	require.Equal(t, "Assicurazione scaduta", views[0].Message)
}

func TestListForUserSortsAndFilters(t *testing.T) {
	db := openServiceDB(t)
	clock := newClock()
	user := createUser(t, db, "owner@example.com", true)
	other := createUser(t, db, "other@example.com", true)
	vehicle := createVehicle(t, db, user.ID, "AB123CD")
	foreign := createVehicle(t, db, other.ID, "XY987ZT")
	sync := newSynchronizer(t, db, clock)
	queries, err := NewNotificationService(db, WithNotificationClock(clock.Now))
	require.NoError(t, err)
	ctx := context.Background()

	for i, offset := range []int{40, -3, 10, 2} {
		due := day(offset)
		_, err := sync.UpsertForSource(ctx, SyncTarget{VehicleID: vehicle.ID, Kind: expiry.KindInsurance, Scope: expiry.ItemScoped(models.SourceInsurance, string(rune('a'+i)))}, &due)
		require.NoError(t, err)
	}
	due := day(1)
	_, err = sync.UpsertForSource(ctx, SyncTarget{VehicleID: foreign.ID, Kind: expiry.KindTax, Scope: expiry.Aggregated()}, &due)
	require.NoError(t, err)

	views, err := queries.ListForUser(ctx, user.ID, "")
	require.NoError(t, err)
	require.Len(t, views, 4)
	days := make([]int, 0, len(views))
	for _, view := range views {
		days = append(days, view.DaysUntilExpiry)
	}
	require.Equal(t, []int{-3, 2, 10, 40}, days)

	critical, err := queries.ListForUser(ctx, user.ID, "critical")
	require.NoError(t, err)
	require.Len(t, critical, 1)
	require.Equal(t, 2, critical[0].DaysUntilExpiry)

	unfiltered, err := queries.ListForUser(ctx, user.ID, "bogus")
	require.NoError(t, err)
	require.Len(t, unfiltered, 4)

	urgent, err := queries.UrgentForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, urgent, 4)
	require.Equal(t, -3, urgent[0].DaysUntilExpiry)
}

func TestSortByUrgencyBreaksTiesByNewest(t *testing.T) {
	older := NotificationDTO{ID: "older", DaysUntilExpiry: 4, CreatedAt: fixedNow}
	newer := NotificationDTO{ID: "newer", DaysUntilExpiry: 4, CreatedAt: fixedNow.Add(time.Minute)}
	sooner := NotificationDTO{ID: "sooner", DaysUntilExpiry: 1, CreatedAt: fixedNow}

	views := []NotificationDTO{older, newer, sooner}
	sortByUrgency(views)
	require.Equal(t, "sooner", views[0].ID)
	require.Equal(t, "newer", views[1].ID)
	require.Equal(t, "older", views[2].ID)
}

func TestStatsForUser(t *testing.T) {
	db := openServiceDB(t)
	clock := newClock()
	user := createUser(t, db, "owner@example.com", true)
	vehicle := createVehicle(t, db, user.ID, "AB123CD")
	sync := newSynchronizer(t, db, clock)
	queries, err := NewNotificationService(db, WithNotificationClock(clock.Now))
	require.NoError(t, err)
	ctx := context.Background()

	ids := map[int]string{}
	for _, offset := range []int{-2, 0, 5, 20, 90} {
		due := day(offset)
		row, err := sync.UpsertForSource(ctx, SyncTarget{VehicleID: vehicle.ID, Kind: expiry.KindInspection, Scope: expiry.ItemScoped(models.SourceInspection, strconv.Itoa(offset))}, &due)
		require.NoError(t, err)
		ids[offset] = row.ID
	}
	sent := true
	_, err = queries.Update(ctx, user.ID, ids[5], UpdateNotificationInput{EmailSent: &sent})
	require.NoError(t, err)

	stats, err := queries.StatsForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, NotificationStats{Total: 5, Safe: 1, Warning: 1, Critical: 2, Expired: 1, PendingEmail: 1}, stats)
}

func TestListForVehicleKeepsWarningAndCritical(t *testing.T) {
	db := openServiceDB(t)
	clock := newClock()
	user := createUser(t, db, "owner@example.com", true)
	other := createUser(t, db, "other@example.com", true)
	vehicle := createVehicle(t, db, user.ID, "AB123CD")
	second := createVehicle(t, db, user.ID, "EF456GH")
	sync := newSynchronizer(t, db, clock)
	queries, err := NewNotificationService(db, WithNotificationClock(clock.Now))
	require.NoError(t, err)
	ctx := context.Background()

	for _, tc := range []struct {
		vehicleID string
		kind      expiry.Kind
		offset    int
	}{
		{vehicle.ID, expiry.KindInsurance, 3},
		{vehicle.ID, expiry.KindTax, 25},
		{vehicle.ID, expiry.KindInspection, -1},
		{vehicle.ID, expiry.KindMaintenance, 100},
		{second.ID, expiry.KindInsurance, 3},
	} {
		due := day(tc.offset)
		_, err := sync.UpsertForSource(ctx, SyncTarget{VehicleID: tc.vehicleID, Kind: tc.kind, Scope: expiry.Aggregated()}, &due)
		require.NoError(t, err)
	}

	views, err := queries.ListForVehicle(ctx, user.ID, vehicle.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.Equal(t, string(expiry.KindInsurance), views[0].Type)
	require.Equal(t, string(expiry.KindTax), views[1].Type)

	_, err = queries.ListForVehicle(ctx, other.ID, vehicle.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateAndDeleteEnforceOwnership(t *testing.T) {
	db := openServiceDB(t)
	clock := newClock()
	user := createUser(t, db, "owner@example.com", true)
	other := createUser(t, db, "other@example.com", true)
	vehicle := createVehicle(t, db, user.ID, "AB123CD")
	sync := newSynchronizer(t, db, clock)
	events := &eventRecorder{}
	queries, err := NewNotificationService(db, WithNotificationClock(clock.Now), WithNotificationEvents(events))
	require.NoError(t, err)
	ctx := context.Background()

	due := day(4)
	row, err := sync.UpsertForSource(ctx, SyncTarget{VehicleID: vehicle.ID, Kind: expiry.KindTax, Scope: expiry.Aggregated()}, &due)
	require.NoError(t, err)

	safe := "safe"
	_, err = queries.Update(ctx, other.ID, row.ID, UpdateNotificationInput{Status: &safe})
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	bogus := "done"
	_, err = queries.Update(ctx, user.ID, row.ID, UpdateNotificationInput{Status: &bogus})
	require.ErrorIs(t, err, apperrors.ErrBadRequest)

	view, err := queries.Update(ctx, user.ID, row.ID, UpdateNotificationInput{Status: &safe})
	require.NoError(t, err)
	require.True(t, view.Overridden)

	// Any other status lifts the override.
	warning := "warning"
	view, err = queries.Update(ctx, user.ID, row.ID, UpdateNotificationInput{Status: &warning})
	require.NoError(t, err)
	require.False(t, view.Overridden)
	require.Equal(t, string(expiry.StatusCritical), view.Status)

	require.ErrorIs(t, queries.Delete(ctx, other.ID, row.ID), apperrors.ErrNotFound)
	require.NoError(t, queries.Delete(ctx, user.ID, row.ID))
	require.ErrorIs(t, queries.Delete(ctx, user.ID, row.ID), apperrors.ErrNotFound)

	require.Len(t, events.events, 3)
	for _, event := range events.events {
		require.Equal(t, user.ID, event.userID)
	}
}
