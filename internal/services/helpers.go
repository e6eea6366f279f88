package services

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/charlesng35/abordo/internal/expiry"
	apperrors "github.com/charlesng35/abordo/pkg/errors"
	"github.com/charlesng35/abordo/pkg/validator"
)

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func defaultIfEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// calendarDate strips the time of day; every DATE column is written as UTC midnight.
func calendarDate(t time.Time) time.Time {
	return expiry.CalendarDate(t, time.UTC)
}

func calendarDatePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := calendarDate(*t)
	return &d
}

// today is now's calendar day expressed in the storage convention.
func today(now time.Time) time.Time {
	return calendarDate(now)
}

// ParseDate parses an API date (YYYY-MM-DD).
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(validator.DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, apperrors.NewBadRequest("invalid date " + value + ", expected YYYY-MM-DD")
	}
	return t, nil
}

// ParseOptionalDate parses an optional API date; empty input yields nil.
func ParseOptionalDate(value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	t, err := ParseDate(*value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func stringPtr(v string) *string { return &v }

// requireDeadline rejects a missing deadline date.
func requireDeadline(date time.Time, message string) error {
	if date.IsZero() {
		return apperrors.NewBadRequest(message)
	}
	return nil
}

func requireOptionalDeadline(date *time.Time, message string) error {
	if date == nil {
		return nil
	}
	return requireDeadline(*date, message)
}
