package schedule

import (
	"reflect"
	"testing"
	"time"

	"carebook/config"
	"carebook/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestResolver() *Resolver {
	return NewResolver(config.DefaultEngineConfig())
}

var weekdayPattern = []models.WeekdayEntry{
	{DayOfWeek: models.Friday, StartTime: "9:00am", EndTime: "1:00pm"},
	{DayOfWeek: models.Monday, StartTime: "9:00am", EndTime: "5:00pm"},
	{DayOfWeek: models.Wednesday, StartTime: "8:00am", EndTime: "12:00pm"},
}

func TestResolveWeekNoExceptionsReturnsPatternInWeekdayOrder(t *testing.T) {
	r := newTestResolver()
	got := r.ResolveWeek(weekdayPattern, models.ExceptionSet{}, day(2024, 1, 10), day(2024, 1, 1), nil)

	want := []models.Weekday{models.Monday, models.Wednesday, models.Friday}
	if days := models.Days(got); !reflect.DeepEqual(days, want) {
		t.Fatalf("expected %v, got %v", want, days)
	}
	if got[0].StartTime != "9:00am" || got[0].EndTime != "5:00pm" {
		t.Fatalf("monday hours changed: %+v", got[0])
	}
}

func TestResolveWeekRespectsStartAndEndDates(t *testing.T) {
	r := newTestResolver()

	got := r.ResolveWeek(weekdayPattern, models.ExceptionSet{}, day(2024, 1, 10), day(2024, 1, 10), nil)
	if days := models.Days(got); !reflect.DeepEqual(days, []models.Weekday{models.Wednesday, models.Friday}) {
		t.Fatalf("days before start should be dropped, got %v", days)
	}

	end := models.TimestampPtr(day(2024, 1, 10))
	got = r.ResolveWeek(weekdayPattern, models.ExceptionSet{}, day(2024, 1, 10), day(2024, 1, 1), end)
	if days := models.Days(got); !reflect.DeepEqual(days, []models.Weekday{models.Monday, models.Wednesday}) {
		t.Fatalf("days after end should be dropped, got %v", days)
	}
}

func TestResolveWeekAppliesExceptionsInsideWindowOnly(t *testing.T) {
	r := newTestResolver()
	ex := models.ExceptionSet{
		RemovedDays: []models.Exception{
			{Date: models.NewTimestamp(day(2024, 1, 10)), Day: models.Wednesday, Type: models.ExceptionRemoveDate},
		},
		ChangedDays: []models.Exception{
			{Date: models.NewTimestamp(day(2024, 1, 8)), Day: models.Monday, StartTime: "10:00am", EndTime: "2:00pm", Type: models.ExceptionChangeDate},
		},
		AddedDays: []models.Exception{
			{Date: models.NewTimestamp(day(2024, 1, 13)), Day: models.Saturday, StartTime: "9:00am", EndTime: "11:00am", Type: models.ExceptionAddDate},
			// next week, must not leak into this one
			{Date: models.NewTimestamp(day(2024, 1, 14)), Day: models.Sunday, StartTime: "9:00am", EndTime: "11:00am", Type: models.ExceptionAddDate},
		},
	}

	got := r.ResolveWeek(weekdayPattern, ex, day(2024, 1, 8), day(2024, 1, 1), nil)
	want := []models.WeekdayEntry{
		{DayOfWeek: models.Monday, StartTime: "10:00am", EndTime: "2:00pm"},
		{DayOfWeek: models.Friday, StartTime: "9:00am", EndTime: "1:00pm"},
		{DayOfWeek: models.Saturday, StartTime: "9:00am", EndTime: "11:00am"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	next := r.ResolveWeek(weekdayPattern, ex, day(2024, 1, 15), day(2024, 1, 1), nil)
	if next[0].DayOfWeek != models.Sunday || next[1].StartTime != "9:00am" || next[1].EndTime != "5:00pm" {
		t.Fatalf("following week should only see its own exceptions, got %+v", next)
	}
}

func TestResolveWeekEmptyPatternReturnsAddedDays(t *testing.T) {
	r := newTestResolver()
	ex := models.ExceptionSet{AddedDays: []models.Exception{
		{Date: models.NewTimestamp(day(2024, 1, 9)), StartTime: "1:00pm", EndTime: "3:00pm", Type: models.ExceptionAddDate},
	}}
	got := r.ResolveWeek(nil, ex, day(2024, 1, 9), day(2024, 1, 1), nil)
	if len(got) != 1 || got[0].DayOfWeek != models.Tuesday {
		t.Fatalf("expected a single tuesday entry, got %+v", got)
	}
}

func TestResolveWeekKeepsDuplicateAddedDay(t *testing.T) {
	r := newTestResolver()
	ex := models.ExceptionSet{AddedDays: []models.Exception{
		{Date: models.NewTimestamp(day(2024, 1, 8)), StartTime: "6:00pm", EndTime: "9:00pm", Type: models.ExceptionAddDate},
	}}
	got := r.ResolveWeek(weekdayPattern, ex, day(2024, 1, 8), day(2024, 1, 1), nil)
	if len(got) != 4 || got[0].DayOfWeek != models.Monday || got[1].DayOfWeek != models.Monday {
		t.Fatalf("expected two monday entries, got %+v", got)
	}

	deduped := DedupeByDate(got)
	if len(deduped) != 3 {
		t.Fatalf("expected 3 entries after dedupe, got %+v", deduped)
	}
	if deduped[0].StartTime != "6:00pm" {
		t.Fatalf("added day should win over the pattern, got %+v", deduped[0])
	}
}

func TestResolveWeekIsIdempotent(t *testing.T) {
	r := newTestResolver()
	ex := models.ExceptionSet{ChangedDays: []models.Exception{
		{Date: models.NewTimestamp(day(2024, 1, 12)), StartTime: "10:00am", EndTime: "11:00am", Type: models.ExceptionChangeDate},
	}}
	a := r.ResolveWeek(weekdayPattern, ex, day(2024, 1, 12), day(2024, 1, 1), nil)
	b := r.ResolveWeek(weekdayPattern, ex, day(2024, 1, 12), day(2024, 1, 1), nil)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("resolve is not idempotent: %+v vs %+v", a, b)
	}
}
