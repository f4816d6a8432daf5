package availability

import (
	"fmt"
	"time"

	"carebook/models"
)

// IsBlockedOneTime reports whether any candidate date collides with the
// listing's booked dates or with a recurring record that occupies it.
func IsBlockedOneTime(dates []time.Time, listing models.Listing) bool {
	for _, d := range dates {
		for _, booked := range listing.Metadata.BookedDates {
			if models.SameDay(booked.Time, d) {
				return true
			}
		}
		for _, rec := range listing.Metadata.BookedDays {
			if recordOccupies(rec.StartDate.Time, rec.EndDate, rec.Days, rec.Exceptions, d) {
				return true
			}
		}
	}
	return false
}

// IsBlockedRecurring reports whether a recurring candidate collides with the
// listing:
//
//	(a) a booked one-time date inside the candidate window lands on a
//	    candidate day;
//	(b) an existing record overlaps the window and shares a weekday,
//	    counting weekdays introduced by added days on either side;
//	(c) a candidate added day lands on a day an overlapping record occupies.
func IsBlockedRecurring(
	schedule []models.WeekdayEntry,
	start time.Time,
	end *models.Timestamp,
	exceptions models.ExceptionSet,
	listing models.Listing,
) bool {
	days := models.Days(schedule)
	candStart := models.DateOnly(start)
	candEnd := models.EffectiveEnd(start, end)

	for _, booked := range listing.Metadata.BookedDates {
		if recordOccupies(start, end, days, exceptions, booked.Time) {
			return true
		}
	}

	candDays := withAddedWeekdays(days, exceptions)
	for _, rec := range listing.Metadata.BookedDays {
		recStart := models.DateOnly(rec.StartDate.Time)
		recEnd := models.EffectiveEnd(rec.StartDate.Time, rec.EndDate)
		if !rangesOverlap(candStart, candEnd, recStart, recEnd) {
			continue
		}
		if sharesWeekday(candDays, withAddedWeekdays(rec.Days, rec.Exceptions)) {
			return true
		}
		for _, added := range exceptions.AddedDays {
			if recordOccupies(rec.StartDate.Time, rec.EndDate, rec.Days, rec.Exceptions, added.Date.Time) {
				return true
			}
		}
	}
	return false
}

// Detect dispatches a candidate to the matching check.
func Detect(candidate models.BookingCandidate, listing models.Listing) (bool, error) {
	switch candidate.Type {
	case models.BookingTypeOneTime:
		if len(candidate.Dates) == 0 {
			return false, models.NewBookingError(models.CodeInvalidSchedule, "one-time booking without dates", nil)
		}
		dates := make([]time.Time, 0, len(candidate.Dates))
		for _, d := range candidate.Dates {
			dates = append(dates, d.Time)
		}
		return IsBlockedOneTime(dates, listing), nil
	case models.BookingTypeRecurring:
		if len(candidate.Schedule) == 0 && len(candidate.Exceptions.AddedDays) == 0 {
			return false, models.NewBookingError(models.CodeInvalidSchedule, "recurring booking without schedule", nil)
		}
		if candidate.StartDate.IsZero() {
			return false, models.NewBookingError(models.CodeInvalidSchedule, "recurring booking without start date", nil)
		}
		if err := models.ValidatePattern(candidate.Schedule); err != nil {
			return false, err
		}
		return IsBlockedRecurring(candidate.Schedule, candidate.StartDate.Time, candidate.EndDate, candidate.Exceptions, listing), nil
	default:
		return false, models.NewBookingError(models.CodeInvalidSchedule, fmt.Sprintf("unknown booking type %q", candidate.Type), nil)
	}
}

// recordOccupies reports whether a recurring claim covers calendar day d.
func recordOccupies(start time.Time, end *models.Timestamp, days []models.Weekday, ex models.ExceptionSet, d time.Time) bool {
	if !models.WithinDays(d, start, models.EffectiveEnd(start, end)) {
		return false
	}
	if models.HasExceptionOn(ex.AddedDays, d) {
		return true
	}
	return models.ContainsDay(days, models.WeekdayOf(d)) && !models.HasExceptionOn(ex.RemovedDays, d)
}

func rangesOverlap(start1, end1, start2, end2 time.Time) bool {
	return !start1.After(end2) && !start2.After(end1)
}

func withAddedWeekdays(days []models.Weekday, ex models.ExceptionSet) []models.Weekday {
	out := append([]models.Weekday(nil), days...)
	for _, a := range ex.AddedDays {
		if wd := models.WeekdayOf(a.Date.Time); !models.ContainsDay(out, wd) {
			out = append(out, wd)
		}
	}
	return out
}

func sharesWeekday(a, b []models.Weekday) bool {
	for _, d := range a {
		if models.ContainsDay(b, d) {
			return true
		}
	}
	return false
}
