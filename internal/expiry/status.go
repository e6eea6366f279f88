// Package expiry classifies how close a deadline is. Everything here is pure:
// callers supply "now" so results are deterministic.
package expiry

import (
	"math"
	"strings"
	"time"
)

// Status is the urgency classification of a deadline.
type Status string

const (
	StatusSafe     Status = "safe"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
	StatusExpired  Status = "expired"
)

// Day thresholds for time-based deadlines.
const (
	CriticalDays = 7
	WarningDays  = 30
)

// Kilometre thresholds for mileage-based deadlines.
const (
	CriticalKm = 250
	WarningKm  = 600
)

// Statuses lists every status in urgency order, most urgent first.
var Statuses = []Status{StatusExpired, StatusCritical, StatusWarning, StatusSafe}

// ParseStatus accepts a status filter value. Unknown values report false.
func ParseStatus(value string) (Status, bool) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	switch status {
	case StatusSafe, StatusWarning, StatusCritical, StatusExpired:
		return status, true
	}
	return "", false
}

// Clock returns the current instant.
type Clock func() time.Time

// ClassifyDays maps a signed calendar-day delta to a status.
func ClassifyDays(days int) Status {
	switch {
	case days < 0:
		return StatusExpired
	case days <= CriticalDays:
		return StatusCritical
	case days <= WarningDays:
		return StatusWarning
	default:
		return StatusSafe
	}
}

// ClassifyMileage maps the kilometres left before a service is due to a status.
func ClassifyMileage(remainingKm int) Status {
	switch {
	case remainingKm <= 0:
		return StatusExpired
	case remainingKm <= CriticalKm:
		return StatusCritical
	case remainingKm <= WarningKm:
		return StatusWarning
	default:
		return StatusSafe
	}
}

// Midnight returns the start of t's calendar day in loc.
func Midnight(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// CalendarDate reinterprets a stored date in loc without shifting its day. Date
// columns carry no zone, so drivers may hand them back as UTC midnight.
func CalendarDate(d time.Time, loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

// DaysUntil returns the whole calendar days from now's day to the expiry date.
// Both ends are taken at local midnight and the difference is rounded, so the
// time of day never changes the result and DST shifts are absorbed.
func DaysUntil(now, expiry time.Time) int {
	loc := now.Location()
	today := Midnight(now, loc)
	due := CalendarDate(expiry, loc)
	return int(math.Round(due.Sub(today).Hours() / 24))
}

// Evaluate returns the day delta and status for an expiry date at now.
func Evaluate(now, expiry time.Time) (int, Status) {
	days := DaysUntil(now, expiry)
	return days, ClassifyDays(days)
}

// MileageStatus returns the kilometres left and the status for a due odometer
// reading given the vehicle's current reading.
func MileageStatus(currentKm, dueKm int) (int, Status) {
	remaining := dueKm - currentKm
	return remaining, ClassifyMileage(remaining)
}
