package types

import (
	"fmt"
	"time"
)

// DateLayout is the storage and display layout for calendar dates.
const DateLayout = "2006-01-02"

// DateOf returns the calendar date of t as midnight UTC. The wall-clock date
// in t's own location is kept, so 23:30 local time stays on the same day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, Validationf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// MustDate parses a YYYY-MM-DD string and panics on failure. Intended for
// tests and constant tables.
func MustDate(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(fmt.Sprintf("types.MustDate(%q): %v", s, err))
	}
	return t
}

// DaysBetween returns the number of whole calendar days from a to b.
// The result is negative when b precedes a. It counts in Unix seconds
// rather than time.Duration, which saturates near 292 years.
func DaysBetween(a, b time.Time) int {
	return int((DateOf(b).Unix() - DateOf(a).Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60
