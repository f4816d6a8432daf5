package cancellation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"carebook/config"
	transactionRepo "carebook/database/repository/transaction"
	"carebook/models"
	"carebook/services/ledger"
	"carebook/services/refund"

	"go.uber.org/zap"
)

// pruneTimeout bounds the background listing cleanup after a cancellation.
const pruneTimeout = 30 * time.Second

// CancellationService cancels bookings on behalf of either party.
type CancellationService interface {
	Cancel(ctx context.Context, txID string, actor models.Actor) (*CancelResult, error)
}

// ListingPruner releases a canceled booking's listing claim.
type ListingPruner interface {
	PruneBooking(ctx context.Context, tx models.Transaction, now time.Time) error
}

// CancelResult describes a completed cancellation.
type CancelResult struct {
	Transaction *models.Transaction    `json:"transaction"`
	Transition  string                 `json:"transition"`
	Refund      *models.RefundResult   `json:"refund,omitempty"`
	Receipts    []models.RefundReceipt `json:"receipts,omitempty"`
	BookingEnd  time.Time              `json:"bookingEnd"`
	Attempts    int                    `json:"attempts"`
}

// DefaultCancellationService refunds, re-transitions and releases a booking.
type DefaultCancellationService struct {
	Transactions transactionRepo.TransactionRepository
	Refunds      *refund.Engine
	Pruner       ListingPruner
	Config       config.EngineConfig
	Logger       *zap.Logger
	Now          func() time.Time

	wg sync.WaitGroup
}

func NewCancellationService(
	txs transactionRepo.TransactionRepository,
	refunds *refund.Engine,
	pruner ListingPruner,
	cfg config.EngineConfig,
	logger *zap.Logger,
) *DefaultCancellationService {
	return &DefaultCancellationService{
		Transactions: txs,
		Refunds:      refunds,
		Pruner:       pruner,
		Config:       cfg,
		Logger:       logger,
		Now:          time.Now,
	}
}

// Cancel moves txID to its cancel transition.
//
// Paid bookings are refunded first and the refund is merged into the
// transition metadata. The transition is written with a 5 minute booking
// window ending at the next 5 minute boundary; when the store reports the
// window as taken it is pushed forward in 5 minute steps until
// Config.BookingWindowAttempts is reached. Once the transition lands, the
// listing is pruned in the background unless the booking was still a request.
func (s *DefaultCancellationService) Cancel(ctx context.Context, txID string, actor models.Actor) (*CancelResult, error) {
	if !actor.Valid() {
		return nil, models.NewBookingError(models.CodeNotCancelable, fmt.Sprintf("unknown actor %q", actor), nil)
	}

	tx, err := s.Transactions.Show(ctx, txID)
	if err != nil {
		return nil, storeError("failed to load transaction", err)
	}

	transition, ok := s.Config.CancelTransition(tx.LastTransition)
	if !ok {
		return nil, models.NewBookingError(models.CodeNotCancelable,
			fmt.Sprintf("transaction %s cannot be canceled after %s", txID, tx.LastTransition), nil)
	}
	paid := !s.Config.IsNonPaid(tx.LastTransition)
	if paid && tx.Metadata.PaymentIntentID == "" {
		return nil, models.NewBookingError(models.CodeNoPaymentIntent,
			fmt.Sprintf("transaction %s is in paid state %s without a payment intent", txID, tx.LastTransition), nil)
	}

	now := s.Now()
	result := &CancelResult{Transition: transition}
	md := tx.Metadata

	if paid {
		refundResult, err := s.Refunds.ComputeRefund(chargedGroups(tx.Metadata), actor, now)
		if err != nil {
			return nil, models.NewBookingError(models.CodeMalformedMetadata, "failed to classify charged sessions", err)
		}
		receipts, err := s.Refunds.Issue(ctx, txID, transition, refundResult)
		if err != nil {
			return nil, err
		}
		result.Refund = &refundResult
		result.Receipts = receipts
		md = mergeRefund(md, refundResult)
	}

	end := ceilToStep(now, s.Config.BookingWindowStep)
	updated, attempts, end, err := s.transition(ctx, tx, transition, md, paid, end)
	result.Attempts = attempts
	if err != nil {
		return result, err
	}
	result.Transaction = updated
	result.BookingEnd = end

	s.Logger.Info("booking canceled",
		zap.String("txId", txID),
		zap.String("actor", string(actor)),
		zap.String("transition", transition),
		zap.Int("attempts", attempts))

	if !s.Config.IsRequest(tx.LastTransition) {
		s.pruneAsync(*tx, now)
	}
	return result, nil
}

// transition retries the cancel transition with a moving booking window.
func (s *DefaultCancellationService) transition(
	ctx context.Context,
	tx *models.Transaction,
	transition string,
	md models.TransactionMetadata,
	paid bool,
	end time.Time,
) (*models.Transaction, int, time.Time, error) {
	step := s.Config.BookingWindowStep
	for attempt := 1; attempt <= s.Config.BookingWindowAttempts; attempt++ {
		start := end.Add(-step)

		meta := md
		if paid {
			meta = s.settlePartialWeek(md, end)
		}
		params := models.TransitionParams{
			BookingStart: models.TimestampPtr(start),
			BookingEnd:   models.TimestampPtr(end),
			Metadata:     &meta,
		}

		updated, err := s.Transactions.Transition(ctx, tx.ID, transition, params)
		if err == nil {
			return updated, attempt, end, nil
		}
		if !errors.Is(err, models.ErrBookingTimeNotAvailable) {
			s.Logger.Error("cancel transition failed",
				zap.String("txId", tx.ID), zap.String("transition", transition), zap.Error(err))
			return nil, attempt, end, storeError("cancel transition failed", err)
		}
		s.Logger.Debug("booking window taken, shifting",
			zap.String("txId", tx.ID), zap.Time("bookingEnd", end), zap.Int("attempt", attempt))
		end = end.Add(step)
	}
	return nil, s.Config.BookingWindowAttempts, end, models.NewBookingError(models.CodeBookingWindowUnavailable,
		fmt.Sprintf("no free booking window for %s after %d attempts", tx.ID, s.Config.BookingWindowAttempts), nil)
}

// settlePartialWeek folds the sessions that still pay out into the ledger of a
// recurring booking and closes the charged set: every charged session has now
// been refunded or settled.
func (s *DefaultCancellationService) settlePartialWeek(md models.TransactionMetadata, end time.Time) models.TransactionMetadata {
	if md.BookingType != models.BookingTypeRecurring {
		return md
	}
	out := md
	out.ChargedLineItems = []models.ChargedLineItemsGroup{}
	if len(md.LineItems) == 0 {
		return out
	}
	entry, err := ledger.BuildEntry(md, md.LineItems, end, s.Config.Location)
	if err != nil {
		s.Logger.Warn("skipping ledger settlement on cancel", zap.Error(err))
		return out
	}
	out.Ledger = append(append([]models.LedgerEntry(nil), md.Ledger...), entry)
	return out
}

func (s *DefaultCancellationService) pruneAsync(tx models.Transaction, now time.Time) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), pruneTimeout)
		defer cancel()
		if err := s.Pruner.PruneBooking(ctx, tx, now); err != nil {
			s.Logger.Error("listing prune failed",
				zap.String("txId", tx.ID), zap.String("listingId", tx.ListingID), zap.Error(err))
		}
	}()
}

// Wait blocks until background listing prunes have finished.
func (s *DefaultCancellationService) Wait() {
	s.wg.Wait()
}

// chargedGroups falls back to the booking's own line items for payments that
// were captured without a charged group, as one-time bookings are.
func chargedGroups(md models.TransactionMetadata) []models.ChargedLineItemsGroup {
	if len(md.ChargedLineItems) > 0 {
		return md.ChargedLineItems
	}
	if md.PaymentIntentID == "" || len(md.LineItems) == 0 {
		return nil
	}
	return []models.ChargedLineItemsGroup{{PaymentIntentID: md.PaymentIntentID, LineItems: md.LineItems}}
}

func mergeRefund(md models.TransactionMetadata, r models.RefundResult) models.TransactionMetadata {
	out := md
	refundAmount := r.RefundTotal
	out.LineItems = r.NewLineItems
	out.Payout = r.NewPayout
	out.RefundAmount = &refundAmount
	out.RefundItems = r.RefundItems
	return out
}

func ceilToStep(t time.Time, step time.Duration) time.Time {
	floor := t.Truncate(step)
	if floor.Equal(t) {
		return t
	}
	return floor.Add(step)
}

func storeError(msg string, err error) error {
	if models.ErrorCode(err) != "" {
		return err
	}
	return models.NewBookingError(models.CodeExternalStoreFailure, msg, err)
}
