// Package dates holds the calendar math shared by pricing and eligibility.
// Both consumers must use the same age function; the rules around boundary
// ages (6, 12, 15) are sensitive to off-by-one drift between copies.
package dates

import "time"

// AgeAt returns the full years a person born on birth has completed as of
// the reference date. The reference date is typically a camp's start date,
// never "today".
func AgeAt(birth, at time.Time) int {
	age := at.Year() - birth.Year()
	if before(at.Month(), at.Day(), birth.Month(), birth.Day()) {
		age--
	}
	return age
}

// before compares (month, day) pairs lexicographically.
func before(m1 time.Month, d1 int, m2 time.Month, d2 int) bool {
	if m1 != m2 {
		return m1 < m2
	}
	return d1 < d2
}

// WithinWindow reports whether day falls inside [start, end] with inclusive
// bounds, comparing at day precision in UTC.
func WithinWindow(day, start, end time.Time) bool {
	d := truncate(day)
	return !d.Before(truncate(start)) && !d.After(truncate(end))
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
