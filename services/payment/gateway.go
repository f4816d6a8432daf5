package payment

import (
	"context"
	"fmt"

	"carebook/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/feerefund"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"
	"go.uber.org/zap"
)

// Gateway issues refunds against captured payments.
type Gateway interface {
	CreateRefund(ctx context.Context, req models.RefundRequest) (*models.RefundReceipt, error)
}

// StripeGateway refunds Stripe payment intents. stripe.Key must be set.
type StripeGateway struct {
	Logger *zap.Logger
}

func NewStripeGateway(logger *zap.Logger) *StripeGateway {
	return &StripeGateway{Logger: logger}
}

// CreateRefund refunds req.Amount to the customer and, when requested, hands
// back req.ApplicationFeeRefund of the platform's application fee.
func (g *StripeGateway) CreateRefund(ctx context.Context, req models.RefundRequest) (*models.RefundReceipt, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.PaymentIntentID),
		Amount:        stripe.Int64(req.Amount),
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey + ":refund")
	}
	params.AddMetadata("paymentIntentId", req.PaymentIntentID)

	r, err := refund.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe refund for %s failed: %w", req.PaymentIntentID, err)
	}
	receipt := &models.RefundReceipt{
		RefundID:    r.ID,
		Status:      string(r.Status),
		AmountMinor: r.Amount,
	}
	if req.ApplicationFeeRefund <= 0 {
		return receipt, nil
	}

	feeID, err := g.applicationFeeID(ctx, req.PaymentIntentID)
	if err != nil {
		return receipt, err
	}
	if feeID == "" {
		g.Logger.Warn("payment intent has no application fee, skipping fee refund",
			zap.String("paymentIntentId", req.PaymentIntentID))
		return receipt, nil
	}

	feeParams := &stripe.FeeRefundParams{
		ID:     stripe.String(feeID),
		Amount: stripe.Int64(req.ApplicationFeeRefund),
	}
	feeParams.Context = ctx
	if req.IdempotencyKey != "" {
		feeParams.SetIdempotencyKey(req.IdempotencyKey + ":fee")
	}
	fr, err := feerefund.New(feeParams)
	if err != nil {
		return receipt, fmt.Errorf("stripe application fee refund for %s failed: %w", req.PaymentIntentID, err)
	}
	receipt.FeeRefundID = fr.ID
	receipt.FeeRefunded = fr.Amount
	return receipt, nil
}

func (g *StripeGateway) applicationFeeID(ctx context.Context, paymentIntentID string) (string, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	params.AddExpand("latest_charge")

	pi, err := paymentintent.Get(paymentIntentID, params)
	if err != nil {
		return "", fmt.Errorf("failed to load payment intent %s: %w", paymentIntentID, err)
	}
	if pi.LatestCharge == nil || pi.LatestCharge.ApplicationFee == nil {
		return "", nil
	}
	return pi.LatestCharge.ApplicationFee.ID, nil
}
