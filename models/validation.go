package models

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator with the schedule validations registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
			return Weekday(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("clocktime", func(fl validator.FieldLevel) bool {
			_, err := ParseClock(fl.Field().String())
			return err == nil
		})
		v.RegisterStructValidation(validateExceptionSet, ExceptionSet{})
		validate = v
	})
	return validate
}

func validateExceptionSet(sl validator.StructLevel) {
	set := sl.Current().Interface().(ExceptionSet)
	check := func(list []Exception, field string, needsTimes bool) {
		for i, e := range list {
			name := fmt.Sprintf("%s[%d]", field, i)
			if e.Date.IsZero() {
				sl.ReportError(e.Date, name+".date", "Date", "required", "")
			}
			if needsTimes && (e.StartTime == "" || e.EndTime == "") {
				sl.ReportError(e.StartTime, name+".startTime", "StartTime", "required_with_times", "")
			}
		}
	}
	check(set.AddedDays, "addedDays", true)
	check(set.RemovedDays, "removedDays", false)
	check(set.ChangedDays, "changedDays", true)
}

// ValidatePattern rejects schedules with two entries for the same weekday.
func ValidatePattern(pattern []WeekdayEntry) error {
	seen := make(map[Weekday]bool, len(pattern))
	for _, e := range pattern {
		if seen[e.DayOfWeek] {
			return NewBookingError(CodeInvalidSchedule, fmt.Sprintf("duplicate weekday %q in schedule", e.DayOfWeek), nil)
		}
		seen[e.DayOfWeek] = true
	}
	return nil
}

// Validate checks the transaction metadata shape read from or written to the store.
func (m TransactionMetadata) Validate() error {
	if m.SchemaVersion != CurrentSchemaVersion {
		return NewBookingError(CodeMalformedMetadata, fmt.Sprintf("unsupported transaction schema version %d", m.SchemaVersion), nil)
	}
	if err := Validator().Struct(m); err != nil {
		return NewBookingError(CodeMalformedMetadata, "invalid transaction metadata", err)
	}
	if err := ValidatePattern(m.BookingSchedule); err != nil {
		return NewBookingError(CodeMalformedMetadata, "invalid booking schedule", err)
	}
	if m.BookingType == BookingTypeRecurring && (m.StartDate == nil || m.StartDate.IsZero()) {
		return NewBookingError(CodeMalformedMetadata, "recurring booking without start date", nil)
	}
	return nil
}

// Validate checks the listing metadata shape.
func (m ListingMetadata) Validate() error {
	if m.SchemaVersion != CurrentSchemaVersion {
		return NewBookingError(CodeMalformedMetadata, fmt.Sprintf("unsupported listing schema version %d", m.SchemaVersion), nil)
	}
	if err := Validator().Struct(m); err != nil {
		return NewBookingError(CodeMalformedMetadata, "invalid listing metadata", err)
	}
	return nil
}
