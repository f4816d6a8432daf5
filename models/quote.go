package models

import "github.com/shopspring/decimal"

// OneTimeSession is one dated session of a one-time booking.
type OneTimeSession struct {
	Date      Timestamp `json:"date"`
	StartTime string    `json:"startTime" validate:"required,clocktime"`
	EndTime   string    `json:"endTime" validate:"required,clocktime"`
}

// QuoteRequest prices a prospective booking. Recurring quotes price the week
// of WeekOf (or StartDate); one-time quotes price Sessions.
type QuoteRequest struct {
	Type              BookingType      `json:"type" validate:"required,oneof=oneTime recurring"`
	BookingRate       decimal.Decimal  `json:"bookingRate"`
	PaymentMethodType string           `json:"paymentMethodType" validate:"omitempty,oneof=card us_bank_account"`
	Schedule          []WeekdayEntry   `json:"schedule,omitempty" validate:"dive"`
	Exceptions        ExceptionSet     `json:"exceptions"`
	StartDate         *Timestamp       `json:"startDate,omitempty"`
	EndDate           *Timestamp       `json:"endDate,omitempty"`
	WeekOf            *Timestamp       `json:"weekOf,omitempty"`
	Sessions          []OneTimeSession `json:"sessions,omitempty" validate:"dive"`
}
