package schedule

import (
	"fmt"
	"time"

	"carebook/config"
	"carebook/models"
	"carebook/services/pricing"

	"github.com/shopspring/decimal"
)

// Materializer prices resolved sessions into line items.
type Materializer struct {
	Config config.EngineConfig
}

func NewMaterializer(cfg config.EngineConfig) *Materializer {
	return &Materializer{Config: cfg}
}

// Materialize turns a resolved week into dated line items at rate per hour.
func (m *Materializer) Materialize(resolved []models.WeekdayEntry, anchor time.Time, rate decimal.Decimal) ([]models.LineItem, error) {
	items := make([]models.LineItem, 0, len(resolved))
	for _, entry := range resolved {
		date, ok := DateIn(anchor, entry.DayOfWeek)
		if !ok {
			return nil, models.NewBookingError(models.CodeInvalidSchedule, fmt.Sprintf("unknown weekday %q", entry.DayOfWeek), nil)
		}
		li, err := m.LineItem(date, entry.StartTime, entry.EndTime, rate)
		if err != nil {
			return nil, err
		}
		items = append(items, li)
	}
	return items, nil
}

// LineItem prices one session. An end time of 12:00am means midnight at the
// end of the day.
func (m *Materializer) LineItem(date time.Time, startTime, endTime string, rate decimal.Decimal) (models.LineItem, error) {
	startMin, err := models.ParseClock(startTime)
	if err != nil {
		return models.LineItem{}, models.NewBookingError(models.CodeInvalidSchedule, "bad start time", err)
	}
	endMin, err := models.ParseEndClock(endTime)
	if err != nil {
		return models.LineItem{}, models.NewBookingError(models.CodeInvalidSchedule, "bad end time", err)
	}
	if endMin <= startMin {
		return models.LineItem{}, models.NewBookingError(models.CodeInvalidSchedule,
			fmt.Sprintf("session %s-%s ends before it starts", startTime, endTime), nil)
	}

	// Half-hour sessions bill as fractional hours.
	hours := decimal.NewFromInt(int64(endMin - startMin)).Div(decimal.NewFromInt(60))
	amount := pricing.Round2(hours.Mul(rate))
	day := models.DateOnly(date)

	return models.LineItem{
		Code:       models.LineItemBookingCode,
		Date:       models.NewTimestamp(day),
		StartTime:  startTime,
		EndTime:    endTime,
		Hours:      hours.InexactFloat64(),
		Amount:     amount,
		BookingFee: pricing.Round2(amount.Mul(m.Config.BookingFeeRate)),
		ShortDate:  day.Format("01/02"),
	}, nil
}
