package availability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"carebook/config"
	listingRepo "carebook/database/repository/listing"
	"carebook/models"
	"carebook/utils"

	"go.uber.org/zap"
)

// maxWriteAttempts bounds re-reads after a listing version conflict.
const maxWriteAttempts = 3

// errUnchanged lets a mutation skip the write.
var errUnchanged = errors.New("listing unchanged")

// Guard serializes check-then-write on a listing's booking records. Each
// write holds the per-listing lock and is conditional on the version that
// was read, so a racing writer forces a fresh check instead of a double
// booking.
type Guard struct {
	listings listingRepo.ListingRepository
	locker   utils.Locker
	config   config.EngineConfig
	logger   *zap.Logger
}

func NewGuard(listings listingRepo.ListingRepository, locker utils.Locker, cfg config.EngineConfig, logger *zap.Logger) *Guard {
	if locker == nil {
		locker = utils.NoopLocker{}
	}
	return &Guard{listings: listings, locker: locker, config: cfg, logger: logger}
}

// Check runs the advisory conflict check without reserving anything.
func (g *Guard) Check(ctx context.Context, listingID string, candidate models.BookingCandidate) (bool, error) {
	listing, err := g.listings.Show(ctx, listingID)
	if err != nil {
		return false, storeError("failed to load listing", err)
	}
	return Detect(candidate, *listing)
}

// Reserve records candidate on the listing for txID, failing with
// models.ErrConflictDetected when it collides with an existing booking.
// Reserving the same recurring transaction twice is a no-op.
func (g *Guard) Reserve(ctx context.Context, listingID, txID string, candidate models.BookingCandidate) error {
	err := g.update(ctx, listingID, func(listing models.Listing) (models.ListingMetadata, error) {
		if candidate.Type == models.BookingTypeRecurring && hasRecord(listing.Metadata, txID) {
			return listing.Metadata, errUnchanged
		}
		blocked, err := Detect(candidate, listing)
		if err != nil {
			return listing.Metadata, err
		}
		if blocked {
			return listing.Metadata, models.NewBookingError(models.CodeConflictDetected,
				fmt.Sprintf("listing %s is already booked for the requested time", listingID), nil)
		}
		return claim(g.config, listing.Metadata, txID, candidate), nil
	})
	if err != nil {
		return err
	}
	g.logger.Info("listing reserved", zap.String("listingId", listingID), zap.String("txId", txID), zap.String("type", string(candidate.Type)))
	return nil
}

// update applies mutate under the listing lock with a version-checked write.
func (g *Guard) update(ctx context.Context, listingID string, mutate func(models.Listing) (models.ListingMetadata, error)) error {
	release, err := g.locker.Acquire(ctx, listingID)
	if err != nil {
		return storeError("failed to lock listing "+listingID, err)
	}
	defer release()

	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		listing, err := g.listings.Show(ctx, listingID)
		if err != nil {
			return storeError("failed to load listing", err)
		}
		md, err := mutate(*listing)
		if errors.Is(err, errUnchanged) {
			return nil
		}
		if err != nil {
			return err
		}

		err = g.listings.CompareAndUpdate(ctx, listingID, listing.Version, md)
		if err == nil {
			return nil
		}
		if !errors.Is(err, listingRepo.ErrVersionConflict) {
			return storeError("failed to write listing", err)
		}
		g.logger.Warn("listing changed during update, retrying",
			zap.String("listingId", listingID), zap.Int("attempt", attempt))
	}
	return models.NewBookingError(models.CodeExternalStoreFailure,
		fmt.Sprintf("listing %s kept changing after %d attempts", listingID, maxWriteAttempts), listingRepo.ErrVersionConflict)
}

// claim returns a copy of md with the candidate's dates or days recorded.
func claim(cfg config.EngineConfig, md models.ListingMetadata, txID string, candidate models.BookingCandidate) models.ListingMetadata {
	out := copyMetadata(md)
	out.SchemaVersion = models.CurrentSchemaVersion

	if candidate.Type == models.BookingTypeOneTime {
		for _, d := range candidate.Dates {
			out.BookedDates = append(out.BookedDates, models.NewTimestamp(models.DateOnly(d.Time)))
		}
		sort.SliceStable(out.BookedDates, func(i, j int) bool {
			return out.BookedDates[i].Before(out.BookedDates[j].Time)
		})
		return out
	}

	days := models.Days(candidate.Schedule)
	sort.SliceStable(days, func(i, j int) bool {
		return cfg.ListingDayIndex(days[i]) < cfg.ListingDayIndex(days[j])
	})
	var end *models.Timestamp
	if candidate.EndDate != nil && !candidate.EndDate.IsZero() {
		end = models.TimestampPtr(models.DateOnly(candidate.EndDate.Time))
	}
	out.BookedDays = append(out.BookedDays, models.BookedDaysRecord{
		TxID:       txID,
		StartDate:  models.NewTimestamp(models.DateOnly(candidate.StartDate.Time)),
		EndDate:    end,
		Days:       days,
		Exceptions: candidate.Exceptions,
	})
	return out
}

func hasRecord(md models.ListingMetadata, txID string) bool {
	for _, rec := range md.BookedDays {
		if rec.TxID == txID {
			return true
		}
	}
	return false
}

func copyMetadata(md models.ListingMetadata) models.ListingMetadata {
	return models.ListingMetadata{
		SchemaVersion: md.SchemaVersion,
		BookedDates:   append([]models.Timestamp(nil), md.BookedDates...),
		BookedDays:    append([]models.BookedDaysRecord(nil), md.BookedDays...),
	}
}

// storeError keeps typed errors from the store and wraps everything else as
// an external store failure.
func storeError(msg string, err error) error {
	if models.ErrorCode(err) != "" {
		return err
	}
	return models.NewBookingError(models.CodeExternalStoreFailure, msg, err)
}

func today(cfg config.EngineConfig, now time.Time) time.Time {
	return models.DateOnly(now.In(cfg.Location))
}
