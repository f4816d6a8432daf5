package refund

import (
	"context"
	"fmt"
	"time"

	"carebook/config"
	"carebook/models"
	"carebook/services/payment"
	"carebook/services/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Engine computes and issues cancellation refunds from charged line items.
type Engine struct {
	Config  config.EngineConfig
	Gateway payment.Gateway
	Logger  *zap.Logger
}

func NewEngine(cfg config.EngineConfig, gateway payment.Gateway, logger *zap.Logger) *Engine {
	return &Engine{Config: cfg, Gateway: gateway, Logger: logger}
}

type window int

const (
	windowPast window = iota
	windowNotice
	windowBeyond
)

func (e *Engine) classify(li models.LineItem, now time.Time) (window, error) {
	start, err := li.SessionStart(e.Config.Location)
	if err != nil {
		return windowPast, err
	}
	switch {
	case start.Before(now):
		return windowPast, nil
	case !start.After(now.Add(e.Config.FullRefundNotice)):
		return windowNotice, nil
	default:
		return windowBeyond, nil
	}
}

// ComputeRefund works out what is owed back when actor cancels at now.
//
// Past sessions are never refunded. Sessions inside the notice window are
// refunded at half when the employer cancels and in full when the caregiver
// does. Later sessions are refunded in full. Each refunded base carries a
// booking-fee portion at the refund rate.
func (e *Engine) ComputeRefund(groups []models.ChargedLineItemsGroup, actor models.Actor, now time.Time) (models.RefundResult, error) {
	result := models.RefundResult{
		RefundItems:  []models.LineItem{},
		RefundTotal:  decimal.Zero,
		NewLineItems: []models.LineItem{},
		NewPayout:    decimal.Zero,
	}
	var past []models.LineItem

	for _, g := range groups {
		groupBase, groupFee := int64(0), int64(0)
		for _, li := range g.LineItems {
			w, err := e.classify(li, now)
			if err != nil {
				return models.RefundResult{}, err
			}
			if w == windowPast {
				past = append(past, li)
				continue
			}

			isFifty := w == windowNotice && actor != models.ActorCaregiver
			base := li.Amount
			if isFifty {
				base = pricing.Round2(li.Amount.Div(decimal.NewFromInt(2)))
			}
			feePortion := pricing.Round2(base.Mul(e.Config.RefundBookingFeeRate))

			item := li
			item.Amount = base
			item.BookingFee = feePortion
			item.IsFifty = isFifty
			result.RefundItems = append(result.RefundItems, item)
			result.RefundTotal = result.RefundTotal.Add(base).Add(feePortion)
			groupBase += pricing.MinorUnits(base)
			groupFee += pricing.MinorUnits(base.Add(feePortion)) - pricing.MinorUnits(base)

			if isFifty {
				kept := li
				kept.Amount = base
				kept.BookingFee = pricing.Round2(li.BookingFee.Div(decimal.NewFromInt(2)))
				kept.IsFifty = true
				result.NewLineItems = append(result.NewLineItems, kept)
			}
		}

		// Group amounts are summed per item so the gateway receives exactly
		// the RefundTotal recorded on the transaction.
		if groupBase > 0 {
			result.Groups = append(result.Groups, models.GroupRefund{
				PaymentIntentID:      g.PaymentIntentID,
				Amount:               groupBase + groupFee,
				ApplicationFeeRefund: groupFee,
			})
		}
		result.TotalRefundAmount += groupBase
	}

	result.TotalApplicationFeeRefund = e.applicationFee(result.TotalRefundAmount)

	if result.TotalRefundAmount == 0 {
		result.RefundItems = []models.LineItem{}
		result.NewLineItems = append([]models.LineItem{}, past...)
		result.NewPayout = decimal.Zero
		result.Groups = nil
		return result, nil
	}

	result.NewLineItems = append(append([]models.LineItem{}, past...), result.NewLineItems...)
	result.NewPayout = models.SumAmounts(result.NewLineItems)
	return result, nil
}

// applicationFee is the platform fee refunded alongside minor units of base.
func (e *Engine) applicationFee(minor int64) int64 {
	return decimal.NewFromInt(minor).Mul(e.Config.RefundBookingFeeRate).Round(0).IntPart()
}

// Issue sends one gateway refund per group with a positive amount. The
// idempotency key depends only on the transaction, payment intent and cancel
// transition, so a retried cancellation reuses it even when the recomputed
// amount differs.
func (e *Engine) Issue(ctx context.Context, txID, transition string, result models.RefundResult) ([]models.RefundReceipt, error) {
	if result.TotalRefundAmount == 0 {
		return nil, nil
	}
	receipts := make([]models.RefundReceipt, 0, len(result.Groups))
	for _, g := range result.Groups {
		if g.Amount <= 0 {
			continue
		}
		req := models.RefundRequest{
			PaymentIntentID:      g.PaymentIntentID,
			Amount:               g.Amount,
			ApplicationFeeRefund: g.ApplicationFeeRefund,
			IdempotencyKey:       IdempotencyKey(txID, g.PaymentIntentID, transition),
		}
		receipt, err := e.Gateway.CreateRefund(ctx, req)
		if err != nil {
			e.Logger.Error("refund failed",
				zap.String("txId", txID), zap.String("paymentIntentId", g.PaymentIntentID), zap.Error(err))
			return receipts, fmt.Errorf("refund of %s: %w", g.PaymentIntentID, err)
		}
		e.Logger.Info("refund issued",
			zap.String("txId", txID),
			zap.String("paymentIntentId", g.PaymentIntentID),
			zap.Int64("amount", g.Amount),
			zap.Int64("applicationFeeRefund", g.ApplicationFeeRefund))
		receipts = append(receipts, *receipt)
	}
	return receipts, nil
}

// IdempotencyKey is the gateway key for refunding paymentIntentID when txID
// takes transition.
func IdempotencyKey(txID, paymentIntentID, transition string) string {
	name := fmt.Sprintf("refund/%s/%s/%s", txID, paymentIntentID, transition)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}
