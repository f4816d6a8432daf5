package pricing

import (
	"testing"

	"carebook/config"
	"carebook/models"

	"github.com/shopspring/decimal"
)

func items(amounts ...string) []models.LineItem {
	out := make([]models.LineItem, 0, len(amounts))
	for _, a := range amounts {
		out = append(out, models.LineItem{Code: models.LineItemBookingCode, Amount: decimal.RequireFromString(a)})
	}
	return out
}

func TestComputeFees(t *testing.T) {
	calc := NewCalculator(config.DefaultEngineConfig())

	tests := []struct {
		name       string
		amounts    []string
		method     string
		bookingFee string
		processing string
		total      string
	}{
		// (168*0.029+0.30)/0.971 = 5.3265
		{"card single day", []string{"160.00"}, models.PaymentMethodCard, "8.00", "5.33", "173.33"},
		// (105*0.008)/0.992 = 0.8467
		{"bank under cap", []string{"60.00", "40.00"}, models.PaymentMethodBank, "5.00", "0.85", "105.85"},
		// (1050*0.008)/0.992 = 8.47, capped
		{"bank capped", []string{"1000.00"}, models.PaymentMethodBank, "50.00", "5.00", "1055.00"},
		{"unknown method priced as card", []string{"160.00"}, "", "8.00", "5.33", "173.33"},
		{"no items", nil, models.PaymentMethodCard, "0.00", "0.31", "0.31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fees := calc.ComputeFees(items(tt.amounts...), tt.method)
			if got := fees.BookingFee.StringFixed(2); got != tt.bookingFee {
				t.Fatalf("booking fee: expected %s, got %s", tt.bookingFee, got)
			}
			if got := fees.ProcessingFee.StringFixed(2); got != tt.processing {
				t.Fatalf("processing fee: expected %s, got %s", tt.processing, got)
			}
			if got := fees.TotalPayment.StringFixed(2); got != tt.total {
				t.Fatalf("total: expected %s, got %s", tt.total, got)
			}
		})
	}
}

func TestRound2HalfAwayFromZero(t *testing.T) {
	for in, want := range map[string]string{
		"1.005":  "1.01",
		"-1.005": "-1.01",
		"2.675":  "2.68",
		"0.004":  "0.00",
	} {
		if got := Round2(decimal.RequireFromString(in)).StringFixed(2); got != want {
			t.Fatalf("Round2(%s): expected %s, got %s", in, want, got)
		}
	}
}

func TestMinorUnits(t *testing.T) {
	if got := MinorUnits(decimal.RequireFromString("127.505")); got != 12751 {
		t.Fatalf("expected 12751, got %d", got)
	}
	if got := FromMinorUnits(12750).StringFixed(2); got != "127.50" {
		t.Fatalf("expected 127.50, got %s", got)
	}
}
