package models

import (
	"fmt"
	"strings"
	"time"
)

// Weekday is the lower-case three letter day key used in schedules.
type Weekday string

const (
	Sunday    Weekday = "sun"
	Monday    Weekday = "mon"
	Tuesday   Weekday = "tue"
	Wednesday Weekday = "wed"
	Thursday  Weekday = "thu"
	Friday    Weekday = "fri"
	Saturday  Weekday = "sat"
)

var weekdayKeys = [7]Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// WeekdayOf returns the weekday key of t's calendar day.
func WeekdayOf(t time.Time) Weekday {
	return weekdayKeys[t.Weekday()]
}

// Valid reports whether w is one of the seven day keys.
func (w Weekday) Valid() bool {
	_, ok := w.TimeWeekday()
	return ok
}

// TimeWeekday converts the key to a time.Weekday.
func (w Weekday) TimeWeekday() (time.Weekday, bool) {
	for i, k := range weekdayKeys {
		if k == w {
			return time.Weekday(i), true
		}
	}
	return 0, false
}

// ClockLayout is the "h:mma" wall-clock format, e.g. "8:00am".
const ClockLayout = "3:04pm"

// ParseClock returns minutes since midnight for an "h:mma" string.
func ParseClock(s string) (int, error) {
	t, err := time.Parse(ClockLayout, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ParseEndClock is ParseClock where "12:00am" means the end of the day.
func ParseEndClock(s string) (int, error) {
	m, err := ParseClock(s)
	if err != nil {
		return 0, err
	}
	if m == 0 {
		return 24 * 60, nil
	}
	return m, nil
}

// DateOnly truncates t to its wall-clock calendar day, expressed in UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay compares two instants by wall-clock calendar day.
func SameDay(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}

// StartOfWeek is the Sunday of t's week.
func StartOfWeek(t time.Time) time.Time {
	d := DateOnly(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// EndOfWeek is the Saturday of t's week.
func EndOfWeek(t time.Time) time.Time {
	return StartOfWeek(t).AddDate(0, 0, 6)
}

// OpenEndedHorizon is how far in the future a null end date is placed.
const OpenEndedHorizon = 1000

// EffectiveEnd resolves an optional end date; nil is treated as
// OpenEndedHorizon years after start.
func EffectiveEnd(start time.Time, end *Timestamp) time.Time {
	if end == nil || end.IsZero() {
		return DateOnly(start).AddDate(OpenEndedHorizon, 0, 0)
	}
	return DateOnly(end.Time)
}

// WithinDays reports whether d lies in [from, to] by calendar day.
func WithinDays(d, from, to time.Time) bool {
	day := DateOnly(d)
	return !day.Before(DateOnly(from)) && !day.After(DateOnly(to))
}
