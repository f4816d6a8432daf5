package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"carebook/config"
	transactionRepo "carebook/database/repository/transaction"
	"carebook/models"

	"go.uber.org/zap"
)

// LedgerService settles completed weeks of recurring bookings.
type LedgerService interface {
	SettleWeek(ctx context.Context, txID string) (*models.LedgerEntry, error)
}

// DefaultLedgerService implements LedgerService against the transaction store.
type DefaultLedgerService struct {
	Transactions transactionRepo.TransactionRepository
	Config       config.EngineConfig
	Logger       *zap.Logger
}

func NewLedgerService(txs transactionRepo.TransactionRepository, cfg config.EngineConfig, logger *zap.Logger) *DefaultLedgerService {
	return &DefaultLedgerService{Transactions: txs, Config: cfg, Logger: logger}
}

// SettleWeek folds the most recently charged week of txID into its ledger.
// A failed store write is logged and returned; it is never retried here.
func (s *DefaultLedgerService) SettleWeek(ctx context.Context, txID string) (*models.LedgerEntry, error) {
	tx, err := s.Transactions.Show(ctx, txID)
	if err != nil {
		s.Logger.Error("ledger: failed to load transaction", zap.String("txId", txID), zap.Error(err))
		return nil, wrapStore("failed to load transaction "+txID, err)
	}

	idx, ok := LatestGroup(tx.Metadata.ChargedLineItems)
	if !ok {
		return nil, models.NewBookingError(models.CodeNothingToSettle, fmt.Sprintf("transaction %s has no charged line items", txID), nil)
	}

	entry, err := BuildEntry(tx.Metadata, tx.Metadata.ChargedLineItems[idx].LineItems, tx.BookingEnd.Time, s.Config.Location)
	if err != nil {
		return nil, err
	}
	md := FoldCharged(tx.Metadata, entry)

	if _, err := s.Transactions.UpdateMetadata(ctx, txID, md); err != nil {
		s.Logger.Error("ledger: failed to write settled week, abandoning",
			zap.String("txId", txID), zap.Time("weekStart", entry.Start.Time), zap.Error(err))
		return nil, wrapStore("failed to write ledger for "+txID, err)
	}

	s.Logger.Info("ledger: week settled",
		zap.String("txId", txID),
		zap.Time("start", entry.Start.Time),
		zap.Int("sessions", len(entry.BookingSessions)),
		zap.String("payout", entry.Payout.StringFixed(2)))
	return &entry, nil
}

// LatestGroup picks the open group holding the most recently dated sessions.
// When several groups are open the one with the latest maximum date wins.
func LatestGroup(groups []models.ChargedLineItemsGroup) (int, bool) {
	best := -1
	var bestDate time.Time
	for i, g := range groups {
		if len(g.LineItems) == 0 {
			continue
		}
		if d := g.LatestDate(); best < 0 || d.After(bestDate) {
			best, bestDate = i, d
		}
	}
	return best, best >= 0
}

// BuildEntry records the settled sessions with the booking's current money
// figures. Start is the first session's absolute start; end is the booking end.
func BuildEntry(md models.TransactionMetadata, items []models.LineItem, bookingEnd time.Time, loc *time.Location) (models.LedgerEntry, error) {
	sorted := append([]models.LineItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date.Time)
	})

	entry := models.LedgerEntry{
		End:               models.NewTimestamp(bookingEnd),
		BookingSessions:   make([]models.BookingSession, 0, len(sorted)),
		BookingRate:       md.BookingRate,
		PaymentMethodID:   md.PaymentMethodID,
		PaymentMethodType: md.PaymentMethodType,
		BookingFee:        md.BookingFee,
		ProcessingFee:     md.ProcessingFee,
		TotalPayment:      md.TotalPayment,
		Payout:            md.Payout,
		RefundAmount:      md.RefundAmount,
	}
	for i, li := range sorted {
		if i == 0 {
			start, err := li.SessionStart(loc)
			if err != nil {
				return models.LedgerEntry{}, models.NewBookingError(models.CodeMalformedMetadata, "unreadable session start", err)
			}
			entry.Start = models.NewTimestamp(start)
		}
		entry.BookingSessions = append(entry.BookingSessions, models.BookingSession{
			Date:      li.Date,
			StartTime: li.StartTime,
			EndTime:   li.EndTime,
		})
	}
	return entry, nil
}

// FoldCharged appends entry to the ledger and retires the charged items it
// settled, matched by date. Groups left empty are dropped.
func FoldCharged(md models.TransactionMetadata, entry models.LedgerEntry) models.TransactionMetadata {
	out := md
	out.Ledger = append(append([]models.LedgerEntry(nil), md.Ledger...), entry)

	settled := make(map[string]bool, len(entry.BookingSessions))
	for _, s := range entry.BookingSessions {
		settled[dayKey(s.Date.Time)] = true
	}

	out.ChargedLineItems = make([]models.ChargedLineItemsGroup, 0, len(md.ChargedLineItems))
	for _, g := range md.ChargedLineItems {
		var remaining []models.LineItem
		for _, li := range g.LineItems {
			if !settled[dayKey(li.Date.Time)] {
				remaining = append(remaining, li)
			}
		}
		if len(remaining) == 0 {
			continue
		}
		out.ChargedLineItems = append(out.ChargedLineItems, models.ChargedLineItemsGroup{
			PaymentIntentID: g.PaymentIntentID,
			LineItems:       remaining,
		})
	}
	return out
}

func dayKey(t time.Time) string {
	return models.DateOnly(t).Format("2006-01-02")
}

func wrapStore(msg string, err error) error {
	if code := models.ErrorCode(err); code == models.CodeNotFound || code == models.CodeMalformedMetadata {
		return err
	}
	return models.NewBookingError(models.CodeExternalStoreFailure, msg, err)
}
