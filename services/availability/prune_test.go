package availability

import (
	"context"
	"testing"
	"time"

	"carebook/models"
)

func TestPruneRecurringTruncatesStartedRecord(t *testing.T) {
	listing := recurringListing()
	listing.Metadata.BookedDays = append(listing.Metadata.BookedDays, models.BookedDaysRecord{
		TxID:      "tx-future",
		StartDate: ts(2024, 3, 4),
		Days:      []models.Weekday{models.Tuesday},
	})
	store := &fakeListings{listing: listing}
	p := NewPruner(newTestGuard(store, &countingLocker{}))
	now := time.Date(2024, 1, 17, 15, 30, 0, 0, time.UTC)

	started := models.Transaction{ID: "tx-existing", ListingID: "listing-1", Metadata: models.TransactionMetadata{BookingType: models.BookingTypeRecurring}}
	if err := p.PruneBooking(context.Background(), started, now); err != nil {
		t.Fatalf("prune started: %v", err)
	}
	rec := store.listing.Metadata.BookedDays[0]
	if rec.EndDate == nil || !rec.EndDate.Equal(day(2024, 1, 17)) {
		t.Fatalf("expected end date truncated to cancellation day, got %+v", rec.EndDate)
	}

	future := models.Transaction{ID: "tx-future", ListingID: "listing-1", Metadata: models.TransactionMetadata{BookingType: models.BookingTypeRecurring}}
	if err := p.PruneBooking(context.Background(), future, now); err != nil {
		t.Fatalf("prune future: %v", err)
	}
	if len(store.listing.Metadata.BookedDays) != 1 {
		t.Fatalf("unstarted record should be removed, got %+v", store.listing.Metadata.BookedDays)
	}
}

func TestPruneOneTimeReleasesRemainingDates(t *testing.T) {
	listing := emptyListing()
	listing.Metadata.BookedDates = []models.Timestamp{ts(2024, 1, 15), ts(2024, 1, 17), ts(2024, 1, 19), ts(2024, 1, 22)}
	store := &fakeListings{listing: listing}
	p := NewPruner(newTestGuard(store, &countingLocker{}))

	tx := models.Transaction{ID: "tx-1", ListingID: "listing-1", Metadata: models.TransactionMetadata{
		BookingType:  models.BookingTypeOneTime,
		BookingDates: []models.Timestamp{ts(2024, 1, 15), ts(2024, 1, 17), ts(2024, 1, 19)},
	}}
	if err := p.PruneBooking(context.Background(), tx, time.Date(2024, 1, 17, 8, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("prune: %v", err)
	}
	got := store.listing.Metadata.BookedDates
	if len(got) != 2 || !got[0].Equal(day(2024, 1, 15)) || !got[1].Equal(day(2024, 1, 22)) {
		t.Fatalf("expected past and foreign dates kept, got %+v", got)
	}
}

func TestPruneWithoutClaimSkipsWrite(t *testing.T) {
	store := &fakeListings{listing: emptyListing()}
	p := NewPruner(newTestGuard(store, &countingLocker{}))
	tx := models.Transaction{ID: "tx-1", ListingID: "listing-1", Metadata: models.TransactionMetadata{BookingType: models.BookingTypeRecurring}}
	if err := p.PruneBooking(context.Background(), tx, time.Now()); err != nil {
		t.Fatalf("prune: %v", err)
	}
	if store.writes != 0 {
		t.Fatalf("expected no write, got %d", store.writes)
	}
}

func TestPruneAlreadyEndedRecordSkipsWrite(t *testing.T) {
	listing := emptyListing()
	listing.Metadata.BookedDays = []models.BookedDaysRecord{{
		TxID:      "tx-1",
		StartDate: ts(2024, 1, 1),
		EndDate:   models.TimestampPtr(day(2024, 1, 12)),
		Days:      []models.Weekday{models.Monday},
	}}
	store := &fakeListings{listing: listing}
	p := NewPruner(newTestGuard(store, &countingLocker{}))
	tx := models.Transaction{ID: "tx-1", ListingID: "listing-1", Metadata: models.TransactionMetadata{BookingType: models.BookingTypeRecurring}}

	if err := p.PruneBooking(context.Background(), tx, time.Date(2024, 1, 17, 9, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("prune: %v", err)
	}
	if store.writes != 0 {
		t.Fatalf("record already ended before today, expected no write, got %d", store.writes)
	}
	if end := store.listing.Metadata.BookedDays[0].EndDate; end == nil || !end.Equal(day(2024, 1, 12)) {
		t.Fatalf("end date must not move, got %+v", end)
	}
}
