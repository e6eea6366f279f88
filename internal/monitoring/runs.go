package monitoring

import (
	"sort"
	"sync"
	"time"
)

// RunSummary is the recorded history of one reminder dispatch mode.
type RunSummary struct {
	Mode                string        `json:"mode"`
	TotalRuns           uint64        `json:"total_runs"`
	Failures            uint64        `json:"failures"`
	ConsecutiveFailures uint64        `json:"consecutive_failures"`
	LastRunAt           time.Time     `json:"last_run_at"`
	LastDuration        time.Duration `json:"last_duration"`
	LastSent            int           `json:"last_sent"`
	LastError           string        `json:"last_error,omitempty"`
}

var (
	runsMu sync.Mutex
	runs   = map[string]*RunSummary{}
)

// RecordReminderRun stores the outcome of a reminder run. A run with err set
// counts as a failure even when some emails went out.
func RecordReminderRun(mode string, sent int, err error, duration time.Duration) {
	runsMu.Lock()
	defer runsMu.Unlock()

	summary, ok := runs[mode]
	if !ok {
		summary = &RunSummary{Mode: mode}
		runs[mode] = summary
	}
	summary.TotalRuns++
	summary.LastRunAt = time.Now()
	summary.LastDuration = duration
	summary.LastSent = sent
	if err != nil {
		summary.Failures++
		summary.ConsecutiveFailures++
		summary.LastError = err.Error()
		return
	}
	summary.ConsecutiveFailures = 0
	summary.LastError = ""
}

// ReminderRuns returns a snapshot of every recorded mode, sorted by name.
func ReminderRuns() []RunSummary {
	runsMu.Lock()
	defer runsMu.Unlock()

	out := make([]RunSummary, 0, len(runs))
	for _, summary := range runs {
		out = append(out, *summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Mode < out[j].Mode })
	return out
}

// ResetReminderRuns clears the recorded history.
func ResetReminderRuns() {
	runsMu.Lock()
	defer runsMu.Unlock()
	runs = map[string]*RunSummary{}
}
