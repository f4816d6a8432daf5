package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const LineItemBookingCode = "line-item/booking"

// LineItem is one dated, priced care session. Line items are replaced, never
// edited in place.
type LineItem struct {
	Code       string          `json:"code" bson:"code" validate:"required,eq=line-item/booking"`
	Date       Timestamp       `json:"date" bson:"date"`
	StartTime  string          `json:"startTime" bson:"startTime" validate:"required,clocktime"`
	EndTime    string          `json:"endTime" bson:"endTime" validate:"required,clocktime"`
	Hours      float64         `json:"hours" bson:"hours" validate:"gte=0"`
	Amount     decimal.Decimal `json:"amount" bson:"amount"`
	BookingFee decimal.Decimal `json:"bookingFee" bson:"bookingFee"`
	ShortDate  string          `json:"shortDate" bson:"shortDate"`
	IsFifty    bool            `json:"isFifty,omitempty" bson:"isFifty,omitempty"`
}

// SessionStart is the absolute start of the session in loc.
func (li LineItem) SessionStart(loc *time.Location) (time.Time, error) {
	minutes, err := ParseClock(li.StartTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("line item %s: %w", li.ShortDate, err)
	}
	d := li.Date.Time
	return time.Date(d.Year(), d.Month(), d.Day(), minutes/60, minutes%60, 0, 0, loc), nil
}

// ChargedLineItemsGroup is the set of line items captured by one payment.
type ChargedLineItemsGroup struct {
	PaymentIntentID string     `json:"paymentIntentId" bson:"paymentIntentId" validate:"required"`
	LineItems       []LineItem `json:"lineItems" bson:"lineItems" validate:"dive"`
}

// LatestDate is the most recent session date in the group.
func (g ChargedLineItemsGroup) LatestDate() time.Time {
	var latest time.Time
	for _, li := range g.LineItems {
		if li.Date.After(latest) {
			latest = li.Date.Time
		}
	}
	return latest
}

func SumAmounts(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, li := range items {
		total = total.Add(li.Amount)
	}
	return total
}
