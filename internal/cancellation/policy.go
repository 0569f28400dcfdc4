// Package cancellation decides whether a booking may still be cancelled and
// runs the confirm dialog that cancels it.
package cancellation

import (
	"time"

	"staybook/pkg/model"
	"staybook/pkg/timeutil"
)

const (
	ShortWindow = 30 * time.Minute
	LongWindow  = 48 * time.Hour
)

type Window string

const (
	WindowSameDay  Window = "same_day"
	WindowRecent   Window = "recent"
	WindowStandard Window = "standard"
)

const (
	ExplainSameDay  = "Cancellation is only allowed within 30 minutes of booking creation for bookings on the current date."
	ExplainRecent   = "Cancellation is only allowed within 30 minutes of booking creation for bookings created within 48 hours."
	ExplainStandard = "Cancellation is only allowed within 48 hours of booking creation."
)

type Decision struct {
	Cancellable bool   `json:"cancellable"`
	Window      Window `json:"window"`
}

func (d Decision) Explanation() string {
	switch d.Window {
	case WindowSameDay:
		return ExplainSameDay
	case WindowRecent:
		return ExplainRecent
	default:
		return ExplainStandard
	}
}

// Policy evaluates bookings against the wall clock of one location.
type Policy struct {
	loc *time.Location
}

func NewPolicy(loc *time.Location) Policy {
	if loc == nil {
		loc = time.UTC
	}
	return Policy{loc: loc}
}

// Evaluate measures the time since the booking was created. A check-in on
// today's date, or a booking younger than 48 hours, is cancellable only in
// its first 30 minutes. Older bookings fall through to the 48 hour rule,
// which they can never meet.
func (p Policy) Evaluate(b *model.Booking, now time.Time) Decision {
	w := p.window(b, now)
	if b == nil || b.Status != model.BookingStatusOngoing {
		return Decision{Window: w}
	}

	if w == WindowStandard {
		return Decision{Cancellable: timeutil.HoursBetween(b.CreatedAt, now) <= LongWindow.Hours(), Window: w}
	}
	return Decision{Cancellable: timeutil.MinutesBetween(b.CreatedAt, now) <= ShortWindow.Minutes(), Window: w}
}

func (p Policy) window(b *model.Booking, now time.Time) Window {
	if b == nil {
		return WindowStandard
	}
	switch {
	case timeutil.SameDate(b.CheckIn, now, p.loc):
		return WindowSameDay
	case timeutil.HoursBetween(b.CreatedAt, now) <= LongWindow.Hours():
		return WindowRecent
	default:
		return WindowStandard
	}
}

func (p Policy) IsCancellable(b *model.Booking, now time.Time) bool {
	return p.Evaluate(b, now).Cancellable
}
