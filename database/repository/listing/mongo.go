package listingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"carebook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoListingRepo implements ListingRepository using MongoDB.
type MongoListingRepo struct {
	coll *mongo.Collection
}

// NewMongoListingRepo constructs a repo over the "listings" collection.
func NewMongoListingRepo(db *mongo.Database) *MongoListingRepo {
	return &MongoListingRepo{coll: db.Collection("listings")}
}

// EnsureIndexes creates the unique id index.
func (r *MongoListingRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("unique_id"),
	})
	if err != nil {
		return fmt.Errorf("failed to create listing indexes: %w", err)
	}
	return nil
}

func (r *MongoListingRepo) Show(ctx context.Context, listingID string) (*models.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var listing models.Listing
	if err := r.coll.FindOne(ctx, bson.M{"id": listingID}).Decode(&listing); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewBookingError(models.CodeNotFound, fmt.Sprintf("listing %s not found", listingID), err)
		}
		return nil, fmt.Errorf("error fetching listing %s: %w", listingID, err)
	}
	// Listings that never took a booking carry no metadata yet.
	if listing.Metadata.SchemaVersion == 0 && len(listing.Metadata.BookedDates) == 0 && len(listing.Metadata.BookedDays) == 0 {
		listing.Metadata.SchemaVersion = models.CurrentSchemaVersion
	}
	if err := listing.Metadata.Validate(); err != nil {
		return nil, fmt.Errorf("listing %s: %w", listingID, err)
	}
	return &listing, nil
}

func (r *MongoListingRepo) Update(ctx context.Context, listingID string, metadata models.ListingMetadata) error {
	return r.write(ctx, bson.M{"id": listingID}, listingID, metadata)
}

func (r *MongoListingRepo) CompareAndUpdate(ctx context.Context, listingID string, version int64, metadata models.ListingMetadata) error {
	return r.write(ctx, bson.M{"id": listingID, "version": version}, listingID, metadata)
}

func (r *MongoListingRepo) write(ctx context.Context, filter bson.M, listingID string, metadata models.ListingMetadata) error {
	if err := metadata.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$set": bson.M{"metadata": metadata},
		"$inc": bson.M{"version": 1},
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update listing %s: %w", listingID, err)
	}
	if res.MatchedCount == 0 {
		if _, hasVersion := filter["version"]; hasVersion {
			return ErrVersionConflict
		}
		return models.NewBookingError(models.CodeNotFound, fmt.Sprintf("listing %s not found", listingID), nil)
	}
	return nil
}
