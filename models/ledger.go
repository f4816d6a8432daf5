package models

import "github.com/shopspring/decimal"

type BookingSession struct {
	Date      Timestamp `json:"date" bson:"date"`
	StartTime string    `json:"startTime" bson:"startTime"`
	EndTime   string    `json:"endTime" bson:"endTime"`
}

// LedgerEntry records one settled week. Entries are only ever appended.
type LedgerEntry struct {
	Start             Timestamp        `json:"start" bson:"start"`
	End               Timestamp        `json:"end" bson:"end"`
	BookingSessions   []BookingSession `json:"bookingSessions" bson:"bookingSessions"`
	BookingRate       decimal.Decimal  `json:"bookingRate" bson:"bookingRate"`
	PaymentMethodID   string           `json:"paymentMethodId" bson:"paymentMethodId"`
	PaymentMethodType string           `json:"paymentMethodType" bson:"paymentMethodType"`
	BookingFee        decimal.Decimal  `json:"bookingFee" bson:"bookingFee"`
	ProcessingFee     decimal.Decimal  `json:"processingFee" bson:"processingFee"`
	TotalPayment      decimal.Decimal  `json:"totalPayment" bson:"totalPayment"`
	Payout            decimal.Decimal  `json:"payout" bson:"payout"`
	RefundAmount      *decimal.Decimal `json:"refundAmount" bson:"refundAmount"`
}
