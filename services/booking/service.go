package booking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"carebook/config"
	transactionRepo "carebook/database/repository/transaction"
	"carebook/models"
	"carebook/services/availability"
	"carebook/services/pricing"
	"carebook/services/schedule"

	"go.uber.org/zap"
)

// BookingService prices bookings and manages their listing claims.
type BookingService interface {
	Quote(req models.QuoteRequest) (*Quote, error)
	CheckAvailability(ctx context.Context, listingID string, candidate models.BookingCandidate) (bool, error)
	Reserve(ctx context.Context, txID string) error
	PrepareWeek(ctx context.Context, txID string, anchor time.Time) (*models.Transaction, error)
}

// Quote is a priced set of line items.
type Quote struct {
	LineItems []models.LineItem `json:"lineItems"`
	Fees      pricing.Fees      `json:"fees"`
}

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	Transactions transactionRepo.TransactionRepository
	Guard        *availability.Guard
	Resolver     *schedule.Resolver
	Materializer *schedule.Materializer
	Calculator   *pricing.Calculator
	Config       config.EngineConfig
	Logger       *zap.Logger
}

func NewBookingService(txs transactionRepo.TransactionRepository, guard *availability.Guard, cfg config.EngineConfig, logger *zap.Logger) *DefaultBookingService {
	return &DefaultBookingService{
		Transactions: txs,
		Guard:        guard,
		Resolver:     schedule.NewResolver(cfg),
		Materializer: schedule.NewMaterializer(cfg),
		Calculator:   pricing.NewCalculator(cfg),
		Config:       cfg,
		Logger:       logger,
	}
}

func (s *DefaultBookingService) Quote(req models.QuoteRequest) (*Quote, error) {
	if err := models.Validator().Struct(req); err != nil {
		return nil, models.NewBookingError(models.CodeInvalidSchedule, "invalid quote request", err)
	}
	if !req.BookingRate.IsPositive() {
		return nil, models.NewBookingError(models.CodeInvalidSchedule, "booking rate must be positive", nil)
	}
	if req.Type == models.BookingTypeRecurring {
		return s.QuoteRecurring(req)
	}
	return s.QuoteOneTime(req)
}

// QuoteRecurring prices one week of a recurring schedule. Entries that land on
// the same date are collapsed before pricing.
func (s *DefaultBookingService) QuoteRecurring(req models.QuoteRequest) (*Quote, error) {
	if err := models.ValidatePattern(req.Schedule); err != nil {
		return nil, err
	}
	if req.StartDate == nil || req.StartDate.IsZero() {
		return nil, models.NewBookingError(models.CodeInvalidSchedule, "recurring quote without start date", nil)
	}
	anchor := req.StartDate.Time
	if req.WeekOf != nil && !req.WeekOf.IsZero() {
		anchor = req.WeekOf.Time
	}

	resolved := s.Resolver.ResolveWeek(req.Schedule, req.Exceptions, anchor, req.StartDate.Time, req.EndDate)
	items, err := s.Materializer.Materialize(schedule.DedupeByDate(resolved), anchor, req.BookingRate)
	if err != nil {
		return nil, err
	}
	return s.quote(items, req.PaymentMethodType), nil
}

// QuoteOneTime prices explicitly dated sessions in date order.
func (s *DefaultBookingService) QuoteOneTime(req models.QuoteRequest) (*Quote, error) {
	if len(req.Sessions) == 0 {
		return nil, models.NewBookingError(models.CodeInvalidSchedule, "one-time quote without sessions", nil)
	}
	sessions := append([]models.OneTimeSession(nil), req.Sessions...)
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].Date.Before(sessions[j].Date.Time)
	})

	items := make([]models.LineItem, 0, len(sessions))
	for _, sess := range sessions {
		li, err := s.Materializer.LineItem(sess.Date.Time, sess.StartTime, sess.EndTime, req.BookingRate)
		if err != nil {
			return nil, err
		}
		items = append(items, li)
	}
	return s.quote(items, req.PaymentMethodType), nil
}

func (s *DefaultBookingService) quote(items []models.LineItem, paymentMethodType string) *Quote {
	return &Quote{LineItems: items, Fees: s.fees(items, paymentMethodType)}
}

// fees is zero for a week with no sessions rather than a bare fixed card fee.
func (s *DefaultBookingService) fees(items []models.LineItem, paymentMethodType string) pricing.Fees {
	if len(items) == 0 {
		return pricing.Fees{}
	}
	return s.Calculator.ComputeFees(items, paymentMethodType)
}

func (s *DefaultBookingService) CheckAvailability(ctx context.Context, listingID string, candidate models.BookingCandidate) (bool, error) {
	return s.Guard.Check(ctx, listingID, candidate)
}

// Reserve claims the listing days of txID once it is charge-eligible.
func (s *DefaultBookingService) Reserve(ctx context.Context, txID string) error {
	tx, err := s.Transactions.Show(ctx, txID)
	if err != nil {
		return wrapStore("failed to load transaction", err)
	}
	candidate, err := CandidateFor(tx.Metadata)
	if err != nil {
		return err
	}
	return s.Guard.Reserve(ctx, tx.ListingID, tx.ID, candidate)
}

// PrepareWeek materializes the week of anchor into the transaction's line
// items and refreshes its fee figures.
func (s *DefaultBookingService) PrepareWeek(ctx context.Context, txID string, anchor time.Time) (*models.Transaction, error) {
	tx, err := s.Transactions.Show(ctx, txID)
	if err != nil {
		return nil, wrapStore("failed to load transaction", err)
	}
	md := tx.Metadata
	if md.BookingType != models.BookingTypeRecurring {
		return nil, models.NewBookingError(models.CodeInvalidSchedule, fmt.Sprintf("transaction %s is not recurring", txID), nil)
	}
	if md.StartDate == nil {
		return nil, models.NewBookingError(models.CodeMalformedMetadata, fmt.Sprintf("transaction %s has no start date", txID), nil)
	}

	resolved := s.Resolver.ResolveWeek(md.BookingSchedule, md.Exceptions, anchor, md.StartDate.Time, md.EndDate)
	items, err := s.Materializer.Materialize(schedule.DedupeByDate(resolved), anchor, md.BookingRate)
	if err != nil {
		return nil, err
	}
	fees := s.fees(items, md.PaymentMethodType)

	md.LineItems = items
	md.BookingFee = fees.BookingFee
	md.ProcessingFee = fees.ProcessingFee
	md.TotalPayment = fees.TotalPayment
	md.Payout = fees.Payout

	updated, err := s.Transactions.UpdateMetadata(ctx, txID, md)
	if err != nil {
		s.Logger.Error("failed to store next week line items", zap.String("txId", txID), zap.Error(err))
		return nil, wrapStore("failed to store line items", err)
	}
	s.Logger.Info("week prepared",
		zap.String("txId", txID),
		zap.Time("weekStart", models.StartOfWeek(anchor)),
		zap.Int("sessions", len(items)),
		zap.String("totalPayment", fees.TotalPayment.StringFixed(2)))
	return updated, nil
}

// CandidateFor derives the listing claim of a booking from its metadata.
func CandidateFor(md models.TransactionMetadata) (models.BookingCandidate, error) {
	if md.BookingType == models.BookingTypeRecurring {
		if md.StartDate == nil {
			return models.BookingCandidate{}, models.NewBookingError(models.CodeMalformedMetadata, "recurring booking without start date", nil)
		}
		return models.BookingCandidate{
			Type:       models.BookingTypeRecurring,
			Schedule:   md.BookingSchedule,
			StartDate:  *md.StartDate,
			EndDate:    md.EndDate,
			Exceptions: md.Exceptions,
		}, nil
	}

	dates := append([]models.Timestamp(nil), md.BookingDates...)
	if len(dates) == 0 {
		for _, li := range md.LineItems {
			dates = append(dates, li.Date)
		}
	}
	return models.BookingCandidate{Type: models.BookingTypeOneTime, Dates: dates}, nil
}

func wrapStore(msg string, err error) error {
	if models.ErrorCode(err) != "" {
		return err
	}
	return models.NewBookingError(models.CodeExternalStoreFailure, msg, err)
}
