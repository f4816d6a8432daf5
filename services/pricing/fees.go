package pricing

import (
	"carebook/config"
	"carebook/models"

	"github.com/shopspring/decimal"
)

// Fees is the aggregate price breakdown of a set of line items.
type Fees struct {
	BookingFee    decimal.Decimal `json:"bookingFee"`
	ProcessingFee decimal.Decimal `json:"processingFee"`
	TotalPayment  decimal.Decimal `json:"totalPayment"`
	Payout        decimal.Decimal `json:"payout"`
}

// Calculator computes fees with the configured rates.
type Calculator struct {
	Config config.EngineConfig
}

func NewCalculator(cfg config.EngineConfig) *Calculator {
	return &Calculator{Config: cfg}
}

// Round2 rounds half away from zero to cents.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// MinorUnits converts a currency amount to integer cents.
func MinorUnits(d decimal.Decimal) int64 {
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FromMinorUnits converts integer cents back to a currency amount.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// ComputeFees derives booking fee, processing fee and totals. Every named
// step is rounded to cents before it feeds the next one.
func (c *Calculator) ComputeFees(items []models.LineItem, paymentMethodType string) Fees {
	payout := models.SumAmounts(items)
	bookingFee := Round2(payout.Mul(c.Config.BookingFeeRate))
	subtotal := payout.Add(bookingFee)

	var processingFee decimal.Decimal
	one := decimal.NewFromInt(1)
	if paymentMethodType == models.PaymentMethodBank {
		processingFee = Round2(subtotal.Mul(c.Config.BankFeePercent).Div(one.Sub(c.Config.BankFeePercent)))
		if processingFee.GreaterThan(c.Config.BankFeeCap) {
			processingFee = c.Config.BankFeeCap
		}
	} else {
		processingFee = Round2(subtotal.Mul(c.Config.CardFeePercent).Add(c.Config.CardFeeFixed).Div(one.Sub(c.Config.CardFeePercent)))
	}

	return Fees{
		BookingFee:    bookingFee,
		ProcessingFee: processingFee,
		TotalPayment:  bookingFee.Add(processingFee).Add(payout),
		Payout:        payout,
	}
}
