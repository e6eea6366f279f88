package checks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charlesng35/abordo/internal/monitoring"
)

const defaultReminderMaxAge = 26 * time.Hour

// Reminders reports the scheduled reminder run as degraded when it keeps
// failing or has not completed within maxAge. Zero maxAge uses 26h, one daily
// run plus slack. Reminder problems never take the API down.
func Reminders(mode string, maxAge time.Duration) monitoring.Check {
	if maxAge <= 0 {
		maxAge = defaultReminderMaxAge
	}

	return monitoring.NewCheck("reminders", func(ctx context.Context) monitoring.ProbeResult {
		var summary *monitoring.RunSummary
		for _, run := range monitoring.ReminderRuns() {
			if run.Mode == mode {
				summary = &run
				break
			}
		}
		if summary == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: "pending first run"}
		}

		status := monitoring.StatusUp
		var details []string
		if summary.ConsecutiveFailures > 0 {
			status = monitoring.StatusDegraded
			details = append(details, fmt.Sprintf("%d consecutive failures: %s", summary.ConsecutiveFailures, summary.LastError))
		}
		if since := time.Since(summary.LastRunAt); since > maxAge {
			status = monitoring.StatusDegraded
			details = append(details, "stale run "+summary.LastRunAt.UTC().Format(time.RFC3339))
		}

		return monitoring.ProbeResult{Status: status, Details: strings.Join(details, "; ")}
	})
}
