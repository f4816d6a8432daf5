package schedule

import (
	"sort"
	"time"

	"carebook/config"
	"carebook/models"
)

// Resolver turns a weekly pattern plus date-keyed exceptions into the
// sessions of one concrete week.
type Resolver struct {
	Config config.EngineConfig
}

func NewResolver(cfg config.EngineConfig) *Resolver {
	return &Resolver{Config: cfg}
}

// ResolveWeek returns the effective sessions of the Sunday..Saturday week
// containing weekAnchor, ordered by weekday.
//
// A pattern day is dropped after endDate or when removed; a changed day takes
// the exception's hours; otherwise it is kept only on or after startDate.
// Added days are appended as-is, so an added day that lands on a kept pattern
// date shows up twice. Use DedupeByDate when one entry per date is required.
func (r *Resolver) ResolveWeek(
	pattern []models.WeekdayEntry,
	exceptions models.ExceptionSet,
	weekAnchor time.Time,
	startDate time.Time,
	endDate *models.Timestamp,
) []models.WeekdayEntry {
	weekStart := models.StartOfWeek(weekAnchor)
	weekEnd := models.EndOfWeek(weekAnchor)

	added := models.ExceptionsWithin(exceptions.AddedDays, weekStart, weekEnd)
	removed := models.ExceptionsWithin(exceptions.RemovedDays, weekStart, weekEnd)
	changed := models.ExceptionsWithin(exceptions.ChangedDays, weekStart, weekEnd)

	start := models.DateOnly(startDate)
	resolved := make([]models.WeekdayEntry, 0, len(pattern)+len(added))

	for _, entry := range pattern {
		wd, ok := entry.DayOfWeek.TimeWeekday()
		if !ok {
			continue
		}
		date := weekStart.AddDate(0, 0, int(wd))

		if endDate != nil && !endDate.IsZero() && date.After(models.DateOnly(endDate.Time)) {
			continue
		}
		if models.HasExceptionOn(removed, date) {
			continue
		}
		if ch, ok := models.FindException(changed, date); ok {
			resolved = append(resolved, models.WeekdayEntry{
				DayOfWeek: entry.DayOfWeek,
				StartTime: ch.StartTime,
				EndTime:   ch.EndTime,
			})
			continue
		}
		if !date.Before(start) {
			resolved = append(resolved, entry)
		}
	}

	for _, a := range added {
		resolved = append(resolved, models.WeekdayEntry{
			DayOfWeek: models.WeekdayOf(a.Date.Time),
			StartTime: a.StartTime,
			EndTime:   a.EndTime,
		})
	}

	sort.SliceStable(resolved, func(i, j int) bool {
		return r.Config.ScheduleIndex(resolved[i].DayOfWeek) < r.Config.ScheduleIndex(resolved[j].DayOfWeek)
	})
	return resolved
}

// DedupeByDate collapses entries that fall on the same date of one resolved
// week. The later entry wins, so an added-day exception overrides the pattern
// hours of the day it coincides with.
func DedupeByDate(resolved []models.WeekdayEntry) []models.WeekdayEntry {
	pos := make(map[models.Weekday]int, len(resolved))
	out := make([]models.WeekdayEntry, 0, len(resolved))
	for _, e := range resolved {
		if i, seen := pos[e.DayOfWeek]; seen {
			out[i] = e
			continue
		}
		pos[e.DayOfWeek] = len(out)
		out = append(out, e)
	}
	return out
}

// DateIn returns the calendar date of weekday d in the week of anchor.
func DateIn(anchor time.Time, d models.Weekday) (time.Time, bool) {
	wd, ok := d.TimeWeekday()
	if !ok {
		return time.Time{}, false
	}
	return models.StartOfWeek(anchor).AddDate(0, 0, int(wd)), true
}
