package refund

import (
	"context"
	"errors"
	"testing"
	"time"

	"carebook/config"
	"carebook/models"
	"carebook/services/pricing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type fakeGateway struct {
	requests []models.RefundRequest
	failOn   string
}

func (f *fakeGateway) CreateRefund(_ context.Context, req models.RefundRequest) (*models.RefundReceipt, error) {
	if req.PaymentIntentID == f.failOn {
		return nil, errors.New("card_declined")
	}
	f.requests = append(f.requests, req)
	return &models.RefundReceipt{RefundID: "re_" + req.PaymentIntentID, Status: "succeeded", AmountMinor: req.Amount}, nil
}

// now is 2024-01-10 12:00 UTC.
var now = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func item(d int, start, amount string) models.LineItem {
	amt := decimal.RequireFromString(amount)
	return models.LineItem{
		Code:       models.LineItemBookingCode,
		Date:       models.NewTimestamp(time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)),
		StartTime:  start,
		EndTime:    "11:00pm",
		Amount:     amt,
		BookingFee: amt.Mul(decimal.RequireFromString("0.05")).Round(2),
	}
}

func scenarioGroups() []models.ChargedLineItemsGroup {
	return []models.ChargedLineItemsGroup{{
		PaymentIntentID: "pi_1",
		LineItems: []models.LineItem{
			item(9, "9:00am", "40.00"),    // past
			item(13, "12:00pm", "100.00"), // 72h out
			item(11, "12:00am", "50.00"),  // 12h out
		},
	}}
}

func newTestEngine(gw *fakeGateway) *Engine {
	return NewEngine(config.DefaultEngineConfig(), gw, zap.NewNop())
}

func TestComputeRefundEmployer(t *testing.T) {
	e := newTestEngine(&fakeGateway{})
	res, err := e.ComputeRefund(scenarioGroups(), models.ActorEmployer, now)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if got := res.RefundTotal.StringFixed(2); got != "127.50" {
		t.Fatalf("expected refund 127.50, got %s", got)
	}
	if res.TotalRefundAmount != 12500 || res.TotalApplicationFeeRefund != 250 {
		t.Fatalf("unexpected minor totals %d / %d", res.TotalRefundAmount, res.TotalApplicationFeeRefund)
	}
	if len(res.Groups) != 1 || res.Groups[0].Amount != 12750 || res.Groups[0].ApplicationFeeRefund != 250 {
		t.Fatalf("unexpected groups %+v", res.Groups)
	}
	if len(res.RefundItems) != 2 || !res.RefundItems[1].IsFifty || res.RefundItems[1].Amount.StringFixed(2) != "25.00" {
		t.Fatalf("unexpected refund items %+v", res.RefundItems)
	}

	// the past session plus the halved 12h session keep paying out
	if len(res.NewLineItems) != 2 || !res.NewLineItems[1].IsFifty {
		t.Fatalf("unexpected new line items %+v", res.NewLineItems)
	}
	if got := res.NewPayout.StringFixed(2); got != "65.00" {
		t.Fatalf("expected payout 65.00, got %s", got)
	}
}

func TestComputeRefundCaregiver(t *testing.T) {
	e := newTestEngine(&fakeGateway{})
	res, err := e.ComputeRefund(scenarioGroups(), models.ActorCaregiver, now)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if got := res.RefundTotal.StringFixed(2); got != "153.00" {
		t.Fatalf("expected refund 153.00, got %s", got)
	}
	if res.TotalRefundAmount != 15000 || res.TotalApplicationFeeRefund != 300 {
		t.Fatalf("unexpected minor totals %d / %d", res.TotalRefundAmount, res.TotalApplicationFeeRefund)
	}
	for _, ri := range res.RefundItems {
		if ri.IsFifty {
			t.Fatalf("caregiver cancellation must refund in full, got %+v", ri)
		}
	}
	if len(res.NewLineItems) != 1 || res.NewPayout.StringFixed(2) != "40.00" {
		t.Fatalf("only the past session should remain, got %+v payout %s", res.NewLineItems, res.NewPayout)
	}
}

func TestComputeRefundEmpty(t *testing.T) {
	e := newTestEngine(&fakeGateway{})
	res, err := e.ComputeRefund(nil, models.ActorEmployer, now)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if res.TotalRefundAmount != 0 || len(res.NewLineItems) != 0 || res.NewLineItems == nil {
		t.Fatalf("expected zero refund and empty line items, got %+v", res)
	}
}

func TestComputeRefundOnlyPastSessions(t *testing.T) {
	e := newTestEngine(&fakeGateway{})
	groups := []models.ChargedLineItemsGroup{{PaymentIntentID: "pi_1", LineItems: []models.LineItem{
		item(8, "9:00am", "80.00"),
		item(9, "9:00am", "40.00"),
	}}}
	res, err := e.ComputeRefund(groups, models.ActorEmployer, now)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if res.TotalRefundAmount != 0 || !res.RefundTotal.IsZero() || !res.NewPayout.IsZero() {
		t.Fatalf("expected zero refund and payout, got %+v", res)
	}
	if len(res.NewLineItems) != 2 || len(res.RefundItems) != 0 || len(res.Groups) != 0 {
		t.Fatalf("expected past sessions kept and nothing refunded, got %+v", res)
	}
}

func TestComputeRefundNoticeBoundaryIsHalf(t *testing.T) {
	e := newTestEngine(&fakeGateway{})
	// exactly 48h after now
	groups := []models.ChargedLineItemsGroup{{PaymentIntentID: "pi_1", LineItems: []models.LineItem{item(12, "12:00pm", "60.00")}}}
	res, err := e.ComputeRefund(groups, models.ActorEmployer, now)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(res.RefundItems) != 1 || !res.RefundItems[0].IsFifty || res.RefundTotal.StringFixed(2) != "30.60" {
		t.Fatalf("expected half refund at the boundary, got %+v", res)
	}
}

func TestIssueCallsGatewayPerPositiveGroup(t *testing.T) {
	gw := &fakeGateway{}
	e := newTestEngine(gw)
	groups := append(scenarioGroups(), models.ChargedLineItemsGroup{
		PaymentIntentID: "pi_old",
		LineItems:       []models.LineItem{item(2, "9:00am", "70.00")},
	}, models.ChargedLineItemsGroup{
		PaymentIntentID: "pi_2",
		LineItems:       []models.LineItem{item(20, "9:00am", "33.33")},
	})

	res, err := e.ComputeRefund(groups, models.ActorEmployer, now)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	receipts, err := e.Issue(context.Background(), "tx-1", "transition/active-cancel", res)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(receipts) != 2 || len(gw.requests) != 2 {
		t.Fatalf("expected two gateway calls, got %+v", gw.requests)
	}
	second := gw.requests[1]
	// 3333 + round(3333*0.02)=67
	if second.PaymentIntentID != "pi_2" || second.Amount != 3400 || second.ApplicationFeeRefund != 67 {
		t.Fatalf("unexpected request %+v", second)
	}
	if gw.requests[0].IdempotencyKey == "" || gw.requests[0].IdempotencyKey == second.IdempotencyKey {
		t.Fatalf("expected distinct idempotency keys, got %q and %q", gw.requests[0].IdempotencyKey, second.IdempotencyKey)
	}
}

func TestIssueSurfacesGatewayFailure(t *testing.T) {
	e := newTestEngine(&fakeGateway{failOn: "pi_1"})
	res, err := e.ComputeRefund(scenarioGroups(), models.ActorEmployer, now)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if _, err := e.Issue(context.Background(), "tx-1", "transition/active-cancel", res); err == nil {
		t.Fatalf("expected gateway failure to be returned")
	}
}

func TestIssueSkipsZeroRefund(t *testing.T) {
	gw := &fakeGateway{}
	e := newTestEngine(gw)
	if _, err := e.Issue(context.Background(), "tx-1", "transition/active-cancel", models.RefundResult{}); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(gw.requests) != 0 {
		t.Fatalf("no gateway call expected, got %+v", gw.requests)
	}
}

func TestGroupAmountsMatchRecordedTotal(t *testing.T) {
	gw := &fakeGateway{}
	e := newTestEngine(gw)
	// each fee portion is 0.005 before rounding
	groups := []models.ChargedLineItemsGroup{{
		PaymentIntentID: "pi_1",
		LineItems:       []models.LineItem{item(20, "9:00am", "0.25"), item(21, "9:00am", "0.25")},
	}}
	res, err := e.ComputeRefund(groups, models.ActorEmployer, now)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if res.RefundTotal.StringFixed(2) != "0.52" {
		t.Fatalf("expected recorded total 0.52, got %s", res.RefundTotal)
	}
	if len(res.Groups) != 1 || res.Groups[0].Amount != 52 || res.Groups[0].ApplicationFeeRefund != 2 {
		t.Fatalf("unexpected groups %+v", res.Groups)
	}

	if _, err := e.Issue(context.Background(), "tx-1", "transition/active-cancel", res); err != nil {
		t.Fatalf("issue: %v", err)
	}
	var sent int64
	for _, r := range gw.requests {
		sent += r.Amount
	}
	if sent != pricing.MinorUnits(res.RefundTotal) {
		t.Fatalf("sent %d minor units, recorded %s", sent, res.RefundTotal)
	}
}

func TestIdempotencyKeyIgnoresAmount(t *testing.T) {
	gw := &fakeGateway{}
	e := newTestEngine(gw)
	groups := []models.ChargedLineItemsGroup{{PaymentIntentID: "pi_1", LineItems: []models.LineItem{item(12, "1:00pm", "60.00")}}}

	// two hours later the session moves from beyond the notice window into it
	early, err := e.ComputeRefund(groups, models.ActorEmployer, now)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	late, err := e.ComputeRefund(groups, models.ActorEmployer, now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if early.Groups[0].Amount == late.Groups[0].Amount {
		t.Fatalf("expected the amounts to differ, both %d", early.Groups[0].Amount)
	}

	for _, res := range []models.RefundResult{early, late} {
		if _, err := e.Issue(context.Background(), "tx-1", "transition/active-cancel", res); err != nil {
			t.Fatalf("issue: %v", err)
		}
	}
	if gw.requests[0].IdempotencyKey != gw.requests[1].IdempotencyKey {
		t.Fatalf("retried cancel used a new key: %q vs %q", gw.requests[0].IdempotencyKey, gw.requests[1].IdempotencyKey)
	}
	if IdempotencyKey("tx-1", "pi_1", "transition/active-cancel") == IdempotencyKey("tx-1", "pi_2", "transition/active-cancel") {
		t.Fatalf("expected keys to differ per payment intent")
	}
}
