package availability

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"carebook/config"
	listingRepo "carebook/database/repository/listing"
	"carebook/models"

	"go.uber.org/zap"
)

type fakeListings struct {
	mu        sync.Mutex
	listing   models.Listing
	conflicts int // CompareAndUpdate calls that lose a race before succeeding
	writes    int
	showErr   error
}

func (f *fakeListings) Show(_ context.Context, id string) (*models.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.showErr != nil {
		return nil, f.showErr
	}
	if id != f.listing.ID {
		return nil, models.NewBookingError(models.CodeNotFound, "listing not found", nil)
	}
	l := f.listing
	l.Metadata = copyMetadata(f.listing.Metadata)
	return &l, nil
}

func (f *fakeListings) Update(_ context.Context, _ string, md models.ListingMetadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listing.Metadata = md
	f.listing.Version++
	f.writes++
	return nil
}

func (f *fakeListings) CompareAndUpdate(_ context.Context, _ string, version int64, md models.ListingMetadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conflicts > 0 {
		f.conflicts--
		f.listing.Version++
		return listingRepo.ErrVersionConflict
	}
	if version != f.listing.Version {
		return listingRepo.ErrVersionConflict
	}
	f.listing.Metadata = md
	f.listing.Version++
	f.writes++
	return nil
}

type countingLocker struct {
	acquired int
	released int
}

func (l *countingLocker) Acquire(context.Context, string) (func(), error) {
	l.acquired++
	return func() { l.released++ }, nil
}

func emptyListing() models.Listing {
	return models.Listing{ID: "listing-1", Metadata: models.ListingMetadata{SchemaVersion: models.CurrentSchemaVersion}}
}

func newTestGuard(store *fakeListings, locker *countingLocker) *Guard {
	return NewGuard(store, locker, config.DefaultEngineConfig(), zap.NewNop())
}

func recurringCandidate(start time.Time, days ...models.Weekday) models.BookingCandidate {
	return models.BookingCandidate{
		Type:      models.BookingTypeRecurring,
		Schedule:  entries(days...),
		StartDate: models.NewTimestamp(start),
	}
}

func TestReserveRecordsRecurringBooking(t *testing.T) {
	store := &fakeListings{listing: emptyListing()}
	locker := &countingLocker{}
	g := newTestGuard(store, locker)

	cand := recurringCandidate(day(2024, 1, 1), models.Sunday, models.Friday, models.Monday)
	if err := g.Reserve(context.Background(), "listing-1", "tx-1", cand); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	recs := store.listing.Metadata.BookedDays
	if len(recs) != 1 || recs[0].TxID != "tx-1" || recs[0].EndDate != nil {
		t.Fatalf("unexpected records %+v", recs)
	}
	want := []models.Weekday{models.Monday, models.Friday, models.Sunday}
	for i, d := range want {
		if recs[0].Days[i] != d {
			t.Fatalf("expected monday-first days %v, got %v", want, recs[0].Days)
		}
	}
	if locker.acquired != 1 || locker.released != 1 {
		t.Fatalf("lock not balanced: %+v", locker)
	}

	// same transaction again is a no-op
	if err := g.Reserve(context.Background(), "listing-1", "tx-1", cand); err != nil {
		t.Fatalf("second reserve: %v", err)
	}
	if store.writes != 1 {
		t.Fatalf("expected a single write, got %d", store.writes)
	}
}

func TestReserveDetectsConflict(t *testing.T) {
	store := &fakeListings{listing: emptyListing()}
	g := newTestGuard(store, &countingLocker{})
	ctx := context.Background()

	if err := g.Reserve(ctx, "listing-1", "tx-1", recurringCandidate(day(2024, 1, 8), models.Monday, models.Wednesday)); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	err := g.Reserve(ctx, "listing-1", "tx-2", recurringCandidate(day(2024, 1, 1), models.Monday, models.Tuesday))
	if !errors.Is(err, models.ErrConflictDetected) {
		t.Fatalf("expected ConflictDetected, got %v", err)
	}

	oneTime := models.BookingCandidate{Type: models.BookingTypeOneTime, Dates: []models.Timestamp{ts(2024, 1, 17)}}
	if err := g.Reserve(ctx, "listing-1", "tx-3", oneTime); !errors.Is(err, models.ErrConflictDetected) {
		t.Fatalf("expected ConflictDetected for a booked wednesday, got %v", err)
	}
	if store.writes != 1 {
		t.Fatalf("conflicting candidates must not be written, got %d writes", store.writes)
	}
}

func TestReserveRetriesOnVersionConflict(t *testing.T) {
	store := &fakeListings{listing: emptyListing(), conflicts: 2}
	g := newTestGuard(store, &countingLocker{})

	oneTime := models.BookingCandidate{Type: models.BookingTypeOneTime, Dates: []models.Timestamp{ts(2024, 1, 19), ts(2024, 1, 17)}}
	if err := g.Reserve(context.Background(), "listing-1", "tx-1", oneTime); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	dates := store.listing.Metadata.BookedDates
	if len(dates) != 2 || !dates[0].Equal(day(2024, 1, 17)) {
		t.Fatalf("expected sorted booked dates, got %+v", dates)
	}
}

func TestReserveGivesUpAfterRepeatedConflicts(t *testing.T) {
	store := &fakeListings{listing: emptyListing(), conflicts: maxWriteAttempts}
	g := newTestGuard(store, &countingLocker{})

	oneTime := models.BookingCandidate{Type: models.BookingTypeOneTime, Dates: []models.Timestamp{ts(2024, 1, 19)}}
	err := g.Reserve(context.Background(), "listing-1", "tx-1", oneTime)
	if !errors.Is(err, models.ErrExternalStoreFailure) || !errors.Is(err, listingRepo.ErrVersionConflict) {
		t.Fatalf("expected ExternalStoreFailure wrapping the version conflict, got %v", err)
	}
}

func TestCheckWrapsStoreFailure(t *testing.T) {
	store := &fakeListings{listing: emptyListing(), showErr: errors.New("connection reset")}
	g := newTestGuard(store, &countingLocker{})

	_, err := g.Check(context.Background(), "listing-1", recurringCandidate(day(2024, 1, 1), models.Monday))
	if !errors.Is(err, models.ErrExternalStoreFailure) {
		t.Fatalf("expected ExternalStoreFailure, got %v", err)
	}
}
