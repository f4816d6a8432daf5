package config

import (
	"fmt"
	"sort"
	"time"

	"carebook/models"

	"github.com/shopspring/decimal"
)

// EngineConfig is the immutable set of constants the scheduling and billing
// components are constructed with. The construction path and the refund path
// use different booking-fee rates.
type EngineConfig struct {
	Location *time.Location

	BookingFeeRate       decimal.Decimal
	RefundBookingFeeRate decimal.Decimal
	CardFeePercent       decimal.Decimal
	CardFeeFixed         decimal.Decimal
	BankFeePercent       decimal.Decimal
	BankFeeCap           decimal.Decimal

	FullRefundNotice      time.Duration
	BookingWindowStep     time.Duration
	BookingWindowAttempts int

	cancelTransitions  map[string]string
	nonPaidTransitions map[string]bool
	requestTransitions map[string]bool
	scheduleOrder      []models.Weekday
	listingDayOrder    []models.Weekday
}

// Transition names used by the hosting transaction process.
const (
	TransitionRequestBooking      = "transition/request-booking"
	TransitionRequestRecurring    = "transition/request-recurring-booking"
	TransitionAccept              = "transition/accept"
	TransitionAcceptRecurring     = "transition/accept-recurring"
	TransitionCharge              = "transition/charge"
	TransitionStart               = "transition/start"
	TransitionChargeNextWeek      = "transition/charge-next-week"
	TransitionStartNextWeek       = "transition/start-next-week"
	TransitionCompleteWeek        = "transition/complete-week"
	TransitionUpdateNextWeekStart = "transition/update-next-week-start"
	TransitionUpdateBookingEnd    = "transition/update-booking-end"

	TransitionCancelRequest   = "transition/cancel-request"
	TransitionAcceptedCancel  = "transition/accepted-cancel"
	TransitionChargedCancel   = "transition/charged-cancel"
	TransitionActiveCancel    = "transition/active-cancel"
	TransitionWFNWCancel      = "transition/wfnw-cancel"
	TransitionWFNWChargedCanc = "transition/wfnw-charged-cancel"
)

// NewEngineConfig builds the engine constants from the loaded application config.
func NewEngineConfig(cfg Config) (EngineConfig, error) {
	loc := time.UTC
	if cfg.TimeZone != "" {
		l, err := time.LoadLocation(cfg.TimeZone)
		if err != nil {
			return EngineConfig{}, fmt.Errorf("invalid TIME_ZONE %q: %w", cfg.TimeZone, err)
		}
		loc = l
	}

	ec := DefaultEngineConfig()
	ec.Location = loc
	if cfg.BookingFeeRate > 0 {
		ec.BookingFeeRate = decimal.NewFromFloat(cfg.BookingFeeRate)
	}
	if cfg.RefundBookingFeeRate > 0 {
		ec.RefundBookingFeeRate = decimal.NewFromFloat(cfg.RefundBookingFeeRate)
	}
	if cfg.CardFeePercent > 0 {
		ec.CardFeePercent = decimal.NewFromFloat(cfg.CardFeePercent)
	}
	if cfg.CardFeeFixed > 0 {
		ec.CardFeeFixed = decimal.NewFromFloat(cfg.CardFeeFixed)
	}
	if cfg.BankFeePercent > 0 {
		ec.BankFeePercent = decimal.NewFromFloat(cfg.BankFeePercent)
	}
	if cfg.BankFeeCap > 0 {
		ec.BankFeeCap = decimal.NewFromFloat(cfg.BankFeeCap)
	}
	if cfg.BookingWindowAttempts > 0 {
		ec.BookingWindowAttempts = cfg.BookingWindowAttempts
	}
	return ec, nil
}

// DefaultEngineConfig returns the production constants in UTC.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Location:              time.UTC,
		BookingFeeRate:        decimal.RequireFromString("0.05"),
		RefundBookingFeeRate:  decimal.RequireFromString("0.02"),
		CardFeePercent:        decimal.RequireFromString("0.029"),
		CardFeeFixed:          decimal.RequireFromString("0.30"),
		BankFeePercent:        decimal.RequireFromString("0.008"),
		BankFeeCap:            decimal.RequireFromString("5.00"),
		FullRefundNotice:      48 * time.Hour,
		BookingWindowStep:     5 * time.Minute,
		BookingWindowAttempts: 24,
		cancelTransitions: map[string]string{
			TransitionRequestBooking:      TransitionCancelRequest,
			TransitionRequestRecurring:    TransitionCancelRequest,
			TransitionAccept:              TransitionAcceptedCancel,
			TransitionAcceptRecurring:     TransitionAcceptedCancel,
			TransitionUpdateBookingEnd:    TransitionAcceptedCancel,
			TransitionCharge:              TransitionChargedCancel,
			TransitionStart:               TransitionActiveCancel,
			TransitionStartNextWeek:       TransitionActiveCancel,
			TransitionCompleteWeek:        TransitionWFNWCancel,
			TransitionUpdateNextWeekStart: TransitionWFNWCancel,
			TransitionChargeNextWeek:      TransitionWFNWChargedCanc,
		},
		nonPaidTransitions: map[string]bool{
			TransitionRequestBooking:   true,
			TransitionRequestRecurring: true,
			TransitionAccept:           true,
			TransitionAcceptRecurring:  true,
			TransitionUpdateBookingEnd: true,
		},
		requestTransitions: map[string]bool{
			TransitionRequestBooking:   true,
			TransitionRequestRecurring: true,
		},
		scheduleOrder: []models.Weekday{
			models.Sunday, models.Monday, models.Tuesday, models.Wednesday,
			models.Thursday, models.Friday, models.Saturday,
		},
		listingDayOrder: []models.Weekday{
			models.Monday, models.Tuesday, models.Wednesday, models.Thursday,
			models.Friday, models.Saturday, models.Sunday,
		},
	}
}

// CancelTransition maps the transaction's last transition to the transition
// that cancels it from that state.
func (c EngineConfig) CancelTransition(lastTransition string) (string, bool) {
	t, ok := c.cancelTransitions[lastTransition]
	return t, ok
}

// CancelTransitions lists every transition that ends a booking.
func (c EngineConfig) CancelTransitions() []string {
	seen := make(map[string]bool, len(c.cancelTransitions))
	out := make([]string, 0, len(c.cancelTransitions))
	for _, t := range c.cancelTransitions {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// IsNonPaid reports whether a booking in this state has not been charged yet.
func (c EngineConfig) IsNonPaid(lastTransition string) bool {
	return c.nonPaidTransitions[lastTransition]
}

// IsRequest reports whether the booking is still a pending request, which
// never reserved listing availability.
func (c EngineConfig) IsRequest(lastTransition string) bool {
	return c.requestTransitions[lastTransition]
}

// ScheduleIndex is the Sunday-first position used to order resolved weeks.
func (c EngineConfig) ScheduleIndex(d models.Weekday) int {
	return indexOf(c.scheduleOrder, d)
}

// ListingDayIndex is the Monday-first position used for bookedDays records.
func (c EngineConfig) ListingDayIndex(d models.Weekday) int {
	return indexOf(c.listingDayOrder, d)
}

func indexOf(order []models.Weekday, d models.Weekday) int {
	for i, w := range order {
		if w == d {
			return i
		}
	}
	return len(order)
}
