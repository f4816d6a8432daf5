package models

import "github.com/shopspring/decimal"

// Actor is the party cancelling a booking.
type Actor string

const (
	ActorEmployer  Actor = "employer"
	ActorCaregiver Actor = "caregiver"
)

func (a Actor) Valid() bool {
	return a == ActorEmployer || a == ActorCaregiver
}

// GroupRefund is the refund owed against one payment intent. Amounts are in
// minor units.
type GroupRefund struct {
	PaymentIntentID      string `json:"paymentIntentId"`
	Amount               int64  `json:"amount"`
	ApplicationFeeRefund int64  `json:"applicationFeeRefund"`
}

type RefundResult struct {
	RefundItems               []LineItem      `json:"refundItems"`
	RefundTotal               decimal.Decimal `json:"refundTotal"`
	TotalRefundAmount         int64           `json:"totalRefundAmount"`
	TotalApplicationFeeRefund int64           `json:"totalApplicationFeeRefund"`
	NewLineItems              []LineItem      `json:"newLineItems"`
	NewPayout                 decimal.Decimal `json:"newPayout"`
	Groups                    []GroupRefund   `json:"groups"`
}

// RefundRequest is the payment gateway's refund contract.
type RefundRequest struct {
	PaymentIntentID      string
	Amount               int64
	ApplicationFeeRefund int64
	IdempotencyKey       string
}

type RefundReceipt struct {
	RefundID    string
	FeeRefundID string
	Status      string
	AmountMinor int64
	FeeRefunded int64
}
