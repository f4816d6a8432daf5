package models

import "github.com/shopspring/decimal"

type BookingType string

const (
	BookingTypeOneTime   BookingType = "oneTime"
	BookingTypeRecurring BookingType = "recurring"
)

const (
	PaymentMethodCard = "card"
	PaymentMethodBank = "us_bank_account"
)

// CurrentSchemaVersion is the metadata shape this service reads and writes.
const CurrentSchemaVersion = 1

// Transaction is the hosting transaction record as held by the transaction store.
type Transaction struct {
	ID             string              `json:"id" bson:"id"`
	ListingID      string              `json:"listingId" bson:"listingId"`
	CustomerID     string              `json:"customerId" bson:"customerId"`
	ProviderID     string              `json:"providerId" bson:"providerId"`
	LastTransition string              `json:"lastTransition" bson:"lastTransition"`
	Transitions    []string            `json:"transitions,omitempty" bson:"transitions,omitempty"`
	BookingStart   Timestamp           `json:"bookingStart" bson:"bookingStart"`
	BookingEnd     Timestamp           `json:"bookingEnd" bson:"bookingEnd"`
	Metadata       TransactionMetadata `json:"metadata" bson:"metadata"`
	Version        int64               `json:"version" bson:"version"`
}

// TransactionMetadata is the booking state carried on a transaction.
type TransactionMetadata struct {
	SchemaVersion     int                     `json:"schemaVersion" bson:"schemaVersion"`
	BookingType       BookingType             `json:"bookingType" bson:"bookingType" validate:"required,oneof=oneTime recurring"`
	BookingRate       decimal.Decimal         `json:"bookingRate" bson:"bookingRate"`
	BookingSchedule   []WeekdayEntry          `json:"bookingSchedule,omitempty" bson:"bookingSchedule,omitempty" validate:"dive"`
	Exceptions        ExceptionSet            `json:"exceptions" bson:"exceptions"`
	StartDate         *Timestamp              `json:"startDate,omitempty" bson:"startDate,omitempty"`
	EndDate           *Timestamp              `json:"endDate" bson:"endDate"`
	BookingDates      []Timestamp             `json:"bookingDates,omitempty" bson:"bookingDates,omitempty"`
	LineItems         []LineItem              `json:"lineItems" bson:"lineItems" validate:"dive"`
	ChargedLineItems  []ChargedLineItemsGroup `json:"chargedLineItems" bson:"chargedLineItems" validate:"dive"`
	Ledger            []LedgerEntry           `json:"ledger" bson:"ledger"`
	PaymentMethodID   string                  `json:"paymentMethodId" bson:"paymentMethodId"`
	PaymentMethodType string                  `json:"paymentMethodType" bson:"paymentMethodType" validate:"omitempty,oneof=card us_bank_account"`
	PaymentIntentID   string                  `json:"paymentIntentId,omitempty" bson:"paymentIntentId,omitempty"`
	BookingFee        decimal.Decimal         `json:"bookingFee" bson:"bookingFee"`
	ProcessingFee     decimal.Decimal         `json:"processingFee" bson:"processingFee"`
	TotalPayment      decimal.Decimal         `json:"totalPayment" bson:"totalPayment"`
	Payout            decimal.Decimal         `json:"payout" bson:"payout"`
	RefundAmount      *decimal.Decimal        `json:"refundAmount,omitempty" bson:"refundAmount,omitempty"`
	RefundItems       []LineItem              `json:"refundItems,omitempty" bson:"refundItems,omitempty"`
}

// TransitionParams is what a state transition writes alongside its name.
type TransitionParams struct {
	BookingStart *Timestamp           `json:"bookingStart,omitempty" bson:"bookingStart,omitempty"`
	BookingEnd   *Timestamp           `json:"bookingEnd,omitempty" bson:"bookingEnd,omitempty"`
	Metadata     *TransactionMetadata `json:"metadata,omitempty" bson:"metadata,omitempty"`
}
