package monitoring_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/abordo/internal/monitoring"
	"github.com/charlesng35/abordo/internal/monitoring/checks"
)

func TestHealthManagerEvaluate(t *testing.T) {
	manager := monitoring.NewHealthManager()
	manager.RegisterReadiness(monitoring.NewCheck("database", func(ctx context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusUp}
	}))
	manager.RegisterReadiness(monitoring.NewCheck("mailer", func(ctx context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusDown, Details: "connection refused"}
	}))

	report := manager.EvaluateReadiness(context.Background())
	require.False(t, report.Success)
	require.Equal(t, monitoring.StatusDown, report.Status)
	require.Len(t, report.Checks, 2)
	require.Equal(t, "mailer", report.Checks[1].Component)

	live := manager.EvaluateLiveness(context.Background())
	require.True(t, live.Success)
	require.Empty(t, live.Checks)
}

func TestHealthManagerRecoversPanics(t *testing.T) {
	manager := monitoring.NewHealthManager()
	manager.RegisterReadiness(monitoring.NewCheck("broken", func(ctx context.Context) monitoring.ProbeResult {
		panic("boom")
	}))
	manager.RegisterReadiness(monitoring.Check{})

	report := manager.EvaluateReadiness(context.Background())
	require.Len(t, report.Checks, 1)
	require.Equal(t, monitoring.StatusDown, report.Checks[0].Status)
	require.Equal(t, "boom", report.Checks[0].Details)
	require.Equal(t, "broken", report.Checks[0].Component)
}

func TestResultFromError(t *testing.T) {
	require.Equal(t, monitoring.StatusUp, monitoring.ResultFromError("db", nil, time.Millisecond).Status)
	require.Equal(t, monitoring.StatusDown, monitoring.ResultFromError("db", errors.New("refused"), 0).Status)
	require.Equal(t, monitoring.StatusDegraded, monitoring.ResultFromError("db", context.DeadlineExceeded, 0).Status)
}

func TestReminderRunsTrackConsecutiveFailures(t *testing.T) {
	monitoring.ResetReminderRuns()
	t.Cleanup(monitoring.ResetReminderRuns)

	check := checks.Reminders("scheduled", 0)
	require.Equal(t, monitoring.StatusUp, check.Run(context.Background()).Status)

	monitoring.RecordReminderRun("scheduled", 0, errors.New("smtp refused"), time.Second)
	monitoring.RecordReminderRun("scheduled", 0, errors.New("smtp refused"), time.Second)
	monitoring.RecordReminderRun("on_demand", 2, nil, time.Second)

	runs := monitoring.ReminderRuns()
	require.Len(t, runs, 2)
	require.Equal(t, "on_demand", runs[0].Mode)
	require.Equal(t, uint64(2), runs[1].ConsecutiveFailures)

	result := check.Run(context.Background())
	require.Equal(t, monitoring.StatusDegraded, result.Status)
	require.Contains(t, result.Details, "2 consecutive failures")

	monitoring.RecordReminderRun("scheduled", 3, nil, time.Second)
	require.Equal(t, monitoring.StatusUp, check.Run(context.Background()).Status)
	require.Equal(t, uint64(2), monitoring.ReminderRuns()[1].Failures)
}

func TestReminderCheckFlagsStaleRuns(t *testing.T) {
	monitoring.ResetReminderRuns()
	t.Cleanup(monitoring.ResetReminderRuns)

	monitoring.RecordReminderRun("scheduled", 1, nil, time.Second)
	time.Sleep(5 * time.Millisecond)

	result := checks.Reminders("scheduled", time.Millisecond).Run(context.Background())
	require.Equal(t, monitoring.StatusDegraded, result.Status)
	require.Contains(t, result.Details, "stale run")
}
