package expiry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClassifyDaysBoundaries(t *testing.T) {
	cases := map[int]Status{
		-30: StatusExpired,
		-1:  StatusExpired,
		0:   StatusCritical,
		7:   StatusCritical,
		8:   StatusWarning,
		30:  StatusWarning,
		31:  StatusSafe,
		400: StatusSafe,
	}
	for days, want := range cases {
		require.Equal(t, want, ClassifyDays(days), "days=%d", days)
	}
}

func TestClassifyMileageBoundaries(t *testing.T) {
	cases := map[int]Status{
		-100: StatusExpired,
		0:    StatusExpired,
		1:    StatusCritical,
		250:  StatusCritical,
		251:  StatusWarning,
		600:  StatusWarning,
		601:  StatusSafe,
	}
	for km, want := range cases {
		require.Equal(t, want, ClassifyMileage(km), "km=%d", km)
	}
}

func TestDaysUntilIgnoresTimeOfDay(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	morning := time.Date(2026, 3, 10, 0, 5, 0, 0, loc)
	evening := time.Date(2026, 3, 10, 23, 55, 0, 0, loc)

	expiryEarly := time.Date(2026, 3, 15, 1, 0, 0, 0, loc)
	expiryLate := time.Date(2026, 3, 15, 22, 0, 0, 0, loc)

	for _, now := range []time.Time{morning, evening} {
		for _, exp := range []time.Time{expiryEarly, expiryLate} {
			require.Equal(t, 5, DaysUntil(now, exp))
		}
	}
	require.Equal(t, -5, DaysUntil(time.Date(2026, 3, 15, 12, 0, 0, 0, loc), time.Date(2026, 3, 10, 0, 0, 0, 0, loc)))
	require.Equal(t, 0, DaysUntil(evening, morning))
}

func TestDaysUntilTreatsStoredDatesAsCalendarDays(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, loc)
	// A DATE column read back as UTC midnight must not slip to the previous day.
	stored := time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC)

	require.Equal(t, 5, DaysUntil(now, stored))
}

func TestDaysUntilAcrossDSTChange(t *testing.T) {
	rome, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	now := time.Date(2026, 3, 28, 10, 0, 0, 0, rome)
	require.Equal(t, 2, DaysUntil(now, time.Date(2026, 3, 30, 0, 0, 0, 0, rome)))
}

func TestEvaluateAndMileageStatus(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	days, status := Evaluate(now, now.AddDate(0, 0, 5))
	require.Equal(t, 5, days)
	require.Equal(t, StatusCritical, status)

	remaining, mStatus := MileageStatus(49_500, 50_000)
	require.Equal(t, 500, remaining)
	require.Equal(t, StatusWarning, mStatus)
}

func TestParseStatus(t *testing.T) {
	s, ok := ParseStatus(" Critical ")
	require.True(t, ok)
	require.Equal(t, StatusCritical, s)

	_, ok = ParseStatus("urgent")
	require.False(t, ok)
	_, ok = ParseStatus("")
	require.False(t, ok)
}

func TestStageFor(t *testing.T) {
	cases := []struct {
		days  int
		stage Stage
		ok    bool
	}{
		{-3, StageFinal, true},
		{0, StageFinal, true},
		{1, StageCritical, true},
		{7, StageCritical, true},
		{8, StageWarning, true},
		{30, StageWarning, true},
		{31, "", false},
	}
	for _, tc := range cases {
		stage, ok := StageFor(tc.days)
		require.Equal(t, tc.ok, ok, "days=%d", tc.days)
		require.Equal(t, tc.stage, stage, "days=%d", tc.days)
	}
}

func TestStageStateOnlyAdvances(t *testing.T) {
	state := NotSent()
	require.False(t, state.IsSent())
	require.Nil(t, state.Column())
	require.True(t, state.Due(StageWarning))

	state = Sent(StageCritical)
	require.True(t, state.IsSent())
	require.False(t, state.Due(StageWarning))
	require.False(t, state.Due(StageCritical))
	require.True(t, state.Due(StageFinal))
	require.Equal(t, "critical", *state.Column())

	stored := "final"
	last, ok := StageStateOf(&stored).Last()
	require.True(t, ok)
	require.Equal(t, StageFinal, last)

	bogus := "later"
	require.False(t, StageStateOf(&bogus).IsSent())
	require.False(t, StageStateOf(nil).IsSent())
}

func TestClearedAt(t *testing.T) {
	require.Empty(t, ClearedAt(-3))
	require.Equal(t, []Stage{StageFinal}, ClearedAt(4))
	require.Equal(t, []Stage{StageCritical, StageFinal}, ClearedAt(20))
	require.Equal(t, []Stage{StageWarning, StageCritical, StageFinal}, ClearedAt(365))
}

func TestScope(t *testing.T) {
	item := ItemScoped("insurance", "abc")
	require.False(t, item.IsAggregated())
	require.Equal(t, "insurance:abc", item.Key())
	st, id, ok := item.Source()
	require.True(t, ok)
	require.Equal(t, "insurance", st)
	require.Equal(t, "abc", id)

	agg := Aggregated()
	require.True(t, agg.IsAggregated())
	require.Equal(t, "aggregate", agg.Key())
	_, _, ok = agg.Source()
	require.False(t, ok)

	require.True(t, ScopeOf(nil, nil).IsAggregated())
	kind, id2 := "tax", "t1"
	require.Equal(t, "tax:t1", ScopeOf(&kind, &id2).Key())
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("Maintenance")
	require.True(t, ok)
	require.Equal(t, KindMaintenance, k)
	_, ok = ParseKind("tyres")
	require.False(t, ok)
}
