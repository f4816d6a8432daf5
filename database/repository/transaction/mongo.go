package transactionRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"carebook/config"
	"carebook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTransactionRepo implements TransactionRepository using MongoDB.
type MongoTransactionRepo struct {
	coll              *mongo.Collection
	cancelTransitions []string
}

// NewMongoTransactionRepo constructs a repo over the "transactions" collection.
func NewMongoTransactionRepo(db *mongo.Database, cfg config.EngineConfig) *MongoTransactionRepo {
	return &MongoTransactionRepo{
		coll:              db.Collection("transactions"),
		cancelTransitions: cfg.CancelTransitions(),
	}
}

// EnsureIndexes creates the lookup and window-overlap indexes.
func (r *MongoTransactionRepo) EnsureIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "listingId", Value: 1}, {Key: "bookingStart", Value: 1}, {Key: "bookingEnd", Value: 1}},
			Options: options.Index().SetName("listing_window_idx"),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create transaction indexes: %w", err)
	}
	return nil
}

func (r *MongoTransactionRepo) Show(ctx context.Context, txID string) (*models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var tx models.Transaction
	if err := r.coll.FindOne(ctx, bson.M{"id": txID}).Decode(&tx); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewBookingError(models.CodeNotFound, fmt.Sprintf("transaction %s not found", txID), err)
		}
		return nil, fmt.Errorf("error fetching transaction %s: %w", txID, err)
	}
	if err := tx.Metadata.Validate(); err != nil {
		return nil, fmt.Errorf("transaction %s: %w", txID, err)
	}
	return &tx, nil
}

func (r *MongoTransactionRepo) Transition(ctx context.Context, txID, transition string, params models.TransitionParams) (*models.Transaction, error) {
	current, err := r.Show(ctx, txID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set := bson.M{"lastTransition": transition}
	if params.Metadata != nil {
		if err := params.Metadata.Validate(); err != nil {
			return nil, err
		}
		set["metadata"] = params.Metadata
	}
	if params.BookingStart != nil && params.BookingEnd != nil {
		start, end := utcTimestamp(params.BookingStart.Time), utcTimestamp(params.BookingEnd.Time)
		taken, err := r.windowTaken(ctx, current, start, end)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, models.NewBookingError(models.CodeBookingTimeNotAvailable,
				fmt.Sprintf("booking window %s..%s is taken", params.BookingStart.Format(models.ISOLayout), params.BookingEnd.Format(models.ISOLayout)), nil)
		}
		set["bookingStart"] = start
		set["bookingEnd"] = end
	}

	filter := bson.M{"id": txID, "version": current.Version}
	update := bson.M{
		"$set":  set,
		"$push": bson.M{"transitions": transition},
		"$inc":  bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Transaction
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("transition %s on %s failed: transaction changed concurrently", transition, txID)
		}
		return nil, fmt.Errorf("failed to transition transaction %s: %w", txID, err)
	}
	return &updated, nil
}

// utcTimestamp normalises a booking window bound to UTC. Windows are stored as
// fixed-width ISO strings, which only compare chronologically in one zone.
func utcTimestamp(t time.Time) models.Timestamp {
	return models.NewTimestamp(t.UTC())
}

// windowTaken reports whether another live transaction on the listing holds
// an overlapping booking window.
func (r *MongoTransactionRepo) windowTaken(ctx context.Context, tx *models.Transaction, start, end models.Timestamp) (bool, error) {
	filter := bson.M{
		"listingId":      tx.ListingID,
		"id":             bson.M{"$ne": tx.ID},
		"lastTransition": bson.M{"$nin": r.cancelTransitions},
		"bookingStart":   bson.M{"$lt": end},
		"bookingEnd":     bson.M{"$gt": start},
	}
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("error checking booking window: %w", err)
	}
	return n > 0, nil
}

func (r *MongoTransactionRepo) UpdateMetadata(ctx context.Context, txID string, metadata models.TransactionMetadata) (*models.Transaction, error) {
	if err := metadata.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$set": bson.M{"metadata": metadata},
		"$inc": bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Transaction
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"id": txID}, update, opts).Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewBookingError(models.CodeNotFound, fmt.Sprintf("transaction %s not found", txID), err)
		}
		return nil, fmt.Errorf("failed to update metadata of %s: %w", txID, err)
	}
	return &updated, nil
}
