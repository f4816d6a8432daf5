package transactionRepo

import (
	"context"

	"carebook/models"
)

// TransactionRepository is the hosting transaction store.
type TransactionRepository interface {
	Show(ctx context.Context, txID string) (*models.Transaction, error)
	// Transition moves the transaction to a new state. It fails with
	// models.ErrBookingTimeNotAvailable when the requested booking window
	// overlaps another live transaction on the same listing.
	Transition(ctx context.Context, txID, transition string, params models.TransitionParams) (*models.Transaction, error)
	UpdateMetadata(ctx context.Context, txID string, metadata models.TransactionMetadata) (*models.Transaction, error)
}
