package listingRepo

import (
	"context"
	"errors"

	"carebook/models"
)

// ErrVersionConflict is returned by CompareAndUpdate when the listing changed
// since it was read.
var ErrVersionConflict = errors.New("listing version conflict")

// ListingRepository is the listing store holding booked dates and days.
type ListingRepository interface {
	Show(ctx context.Context, listingID string) (*models.Listing, error)
	Update(ctx context.Context, listingID string, metadata models.ListingMetadata) error
	// CompareAndUpdate writes metadata only if the stored version still equals version.
	CompareAndUpdate(ctx context.Context, listingID string, version int64, metadata models.ListingMetadata) error
}
