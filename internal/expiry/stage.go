package expiry

// Stage gates reminder emails. Each stage is emailed at most once per deadline.
type Stage string

const (
	StageWarning  Stage = "warning"
	StageCritical Stage = "critical"
	StageFinal    Stage = "final"
)

// StageFor returns the reminder stage for a day delta; false means the deadline
// is too far away to email about.
func StageFor(days int) (Stage, bool) {
	switch {
	case days <= 0:
		return StageFinal, true
	case days <= CriticalDays:
		return StageCritical, true
	case days <= WarningDays:
		return StageWarning, true
	default:
		return "", false
	}
}

// ParseStage accepts a stored stage value.
func ParseStage(value string) (Stage, bool) {
	switch s := Stage(value); s {
	case StageWarning, StageCritical, StageFinal:
		return s, true
	}
	return "", false
}

func (s Stage) rank() int {
	switch s {
	case StageWarning:
		return 1
	case StageCritical:
		return 2
	case StageFinal:
		return 3
	}
	return 0
}

// StageState is the email progress of one notification: either nothing sent
// yet, or the last stage delivered.
type StageState struct {
	last Stage
}

// NotSent is the initial state.
func NotSent() StageState { return StageState{} }

// Sent records stage as the last delivered stage.
func Sent(stage Stage) StageState { return StageState{last: stage} }

// StageStateOf rebuilds the state from its stored column value.
func StageStateOf(stored *string) StageState {
	if stored == nil {
		return NotSent()
	}
	if stage, ok := ParseStage(*stored); ok {
		return Sent(stage)
	}
	return NotSent()
}

// IsSent reports whether any stage was delivered.
func (s StageState) IsSent() bool { return s.last != "" }

// Last returns the last delivered stage.
func (s StageState) Last() (Stage, bool) { return s.last, s.last != "" }

// Due reports whether next should be emailed: only stages beyond the last
// delivered one are due, so the state only ever advances.
func (s StageState) Due(next Stage) bool {
	return next.rank() > s.last.rank()
}

// Column returns the value persisted for the state.
func (s StageState) Column() *string {
	if s.last == "" {
		return nil
	}
	value := string(s.last)
	return &value
}

// ClearedAt returns the stored stages that a deadline days away no longer
// reaches: every stage more urgent than StageFor(days), or all of them when the
// deadline is past the warning horizon. Stages at or below the new one stay
// delivered.
func ClearedAt(days int) []Stage {
	next, ok := StageFor(days)
	var cleared []Stage
	for _, stage := range []Stage{StageWarning, StageCritical, StageFinal} {
		if !ok || stage.rank() > next.rank() {
			cleared = append(cleared, stage)
		}
	}
	return cleared
}
