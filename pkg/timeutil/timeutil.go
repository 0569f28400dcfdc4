// Package timeutil holds the calendar arithmetic shared by the booking rules.
// All date-only comparisons happen in an explicit location so that the
// process timezone never leaks into business decisions.
package timeutil

import (
	"math"
	"time"
)

const Day = 24 * time.Hour

// DateOnly truncates t to midnight in loc. A nil loc keeps t's own location.
func DateOnly(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// SameDate reports whether a and b fall on the same calendar day in loc.
func SameDate(a, b time.Time, loc *time.Location) bool {
	return DateOnly(a, loc).Equal(DateOnly(b, loc))
}

// BeforeDate reports whether a falls on an earlier calendar day than b in loc.
func BeforeDate(a, b time.Time, loc *time.Location) bool {
	return DateOnly(a, loc).Before(DateOnly(b, loc))
}

// AfterDate reports whether a falls on a later calendar day than b in loc.
func AfterDate(a, b time.Time, loc *time.Location) bool {
	return DateOnly(a, loc).After(DateOnly(b, loc))
}

func HoursBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours()
}

func MinutesBetween(from, to time.Time) float64 {
	return to.Sub(from).Minutes()
}

// Nights is the rounded number of 24h periods between check-in and
// check-out, never less than one.
func Nights(checkIn, checkOut time.Time) int {
	n := int(math.Round(float64(checkOut.Sub(checkIn)) / float64(Day)))
	if n < 1 {
		return 1
	}
	return n
}

// AddDays moves t by n calendar days, keeping the wall clock time.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}
