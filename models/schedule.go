package models

import "time"

// WeekdayEntry is one recurring weekly session.
type WeekdayEntry struct {
	DayOfWeek Weekday `json:"dayOfWeek" bson:"dayOfWeek" validate:"required,weekday"`
	StartTime string  `json:"startTime" bson:"startTime" validate:"required,clocktime"`
	EndTime   string  `json:"endTime" bson:"endTime" validate:"required,clocktime"`
}

type ExceptionType string

const (
	ExceptionAddDate    ExceptionType = "addDate"
	ExceptionRemoveDate ExceptionType = "removeDate"
	ExceptionChangeDate ExceptionType = "changeDate"
)

// Exception overrides a single calendar date of a recurring pattern.
type Exception struct {
	Date      Timestamp     `json:"date" bson:"date"`
	Day       Weekday       `json:"day" bson:"day" validate:"omitempty,weekday"`
	StartTime string        `json:"startTime,omitempty" bson:"startTime,omitempty" validate:"omitempty,clocktime"`
	EndTime   string        `json:"endTime,omitempty" bson:"endTime,omitempty" validate:"omitempty,clocktime"`
	Type      ExceptionType `json:"type" bson:"type" validate:"required,oneof=addDate removeDate changeDate"`
}

type ExceptionSet struct {
	AddedDays   []Exception `json:"addedDays" bson:"addedDays" validate:"dive"`
	RemovedDays []Exception `json:"removedDays" bson:"removedDays" validate:"dive"`
	ChangedDays []Exception `json:"changedDays" bson:"changedDays" validate:"dive"`
}

// FindException returns the exception in list that falls on d's calendar day.
func FindException(list []Exception, d time.Time) (Exception, bool) {
	for _, e := range list {
		if SameDay(e.Date.Time, d) {
			return e, true
		}
	}
	return Exception{}, false
}

// HasExceptionOn reports whether any exception in list falls on d.
func HasExceptionOn(list []Exception, d time.Time) bool {
	_, ok := FindException(list, d)
	return ok
}

// ExceptionsWithin keeps the exceptions dated inside [from, to].
func ExceptionsWithin(list []Exception, from, to time.Time) []Exception {
	var out []Exception
	for _, e := range list {
		if WithinDays(e.Date.Time, from, to) {
			out = append(out, e)
		}
	}
	return out
}

// Days lists the weekdays of a pattern in pattern order.
func Days(pattern []WeekdayEntry) []Weekday {
	days := make([]Weekday, 0, len(pattern))
	for _, e := range pattern {
		days = append(days, e.DayOfWeek)
	}
	return days
}

func ContainsDay(days []Weekday, d Weekday) bool {
	for _, w := range days {
		if w == d {
			return true
		}
	}
	return false
}
