package availability

import (
	"context"
	"time"

	"carebook/models"

	"go.uber.org/zap"
)

// Pruner releases a canceled booking's claim on its listing.
type Pruner struct {
	guard *Guard
}

func NewPruner(guard *Guard) *Pruner {
	return &Pruner{guard: guard}
}

// PruneBooking frees the listing days a canceled transaction no longer uses.
// One-time bookings give back their dates from today on. A recurring record
// is removed if it has not started yet and otherwise ends today.
func (p *Pruner) PruneBooking(ctx context.Context, tx models.Transaction, now time.Time) error {
	day := today(p.guard.config, now)

	err := p.guard.update(ctx, tx.ListingID, func(listing models.Listing) (models.ListingMetadata, error) {
		md := copyMetadata(listing.Metadata)
		changed := false

		if tx.Metadata.BookingType == models.BookingTypeRecurring {
			md.BookedDays, changed = pruneRecord(md.BookedDays, tx.ID, day)
		} else {
			md.BookedDates, changed = pruneDates(md.BookedDates, bookingDates(tx.Metadata), day)
		}
		if !changed {
			return md, errUnchanged
		}
		return md, nil
	})
	if err != nil {
		return err
	}
	p.guard.logger.Info("listing pruned", zap.String("listingId", tx.ListingID), zap.String("txId", tx.ID))
	return nil
}

func pruneRecord(records []models.BookedDaysRecord, txID string, day time.Time) ([]models.BookedDaysRecord, bool) {
	out := make([]models.BookedDaysRecord, 0, len(records))
	changed := false
	for _, rec := range records {
		if rec.TxID != txID {
			out = append(out, rec)
			continue
		}
		if models.DateOnly(rec.StartDate.Time).After(day) {
			changed = true
			continue
		}
		if rec.EndDate == nil || rec.EndDate.IsZero() || models.DateOnly(rec.EndDate.Time).After(day) {
			rec.EndDate = models.TimestampPtr(day)
			changed = true
		}
		out = append(out, rec)
	}
	return out, changed
}

func pruneDates(booked []models.Timestamp, release []time.Time, day time.Time) ([]models.Timestamp, bool) {
	out := make([]models.Timestamp, 0, len(booked))
	changed := false
	for _, b := range booked {
		if !models.DateOnly(b.Time).Before(day) && containsDay(release, b.Time) {
			changed = true
			continue
		}
		out = append(out, b)
	}
	return out, changed
}

// bookingDates are the one-time dates of a transaction, falling back to its
// line items when no explicit dates were stored.
func bookingDates(md models.TransactionMetadata) []time.Time {
	var dates []time.Time
	for _, d := range md.BookingDates {
		dates = append(dates, d.Time)
	}
	if len(dates) == 0 {
		for _, li := range md.LineItems {
			dates = append(dates, li.Date.Time)
		}
	}
	return dates
}

func containsDay(dates []time.Time, d time.Time) bool {
	for _, x := range dates {
		if models.SameDay(x, d) {
			return true
		}
	}
	return false
}
