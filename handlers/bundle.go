package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Booking endpoints
	CheckAvailabilityHandler gin.HandlerFunc
	QuoteHandler             gin.HandlerFunc
	ReserveHandler           gin.HandlerFunc
	PrepareWeekHandler       gin.HandlerFunc

	// Cancellation endpoints
	CancelHandler gin.HandlerFunc

	// Ledger endpoints
	SettleWeekHandler gin.HandlerFunc
}

// NewHandlerBundle wires the handler structs into a bundle for the router.
func NewHandlerBundle(bh *BookingHandler, ch *CancellationHandler, lh *LedgerHandler) *HandlerBundle {
	return &HandlerBundle{
		CheckAvailabilityHandler: bh.CheckAvailabilityHandler,
		QuoteHandler:             bh.QuoteHandler,
		ReserveHandler:           bh.ReserveHandler,
		PrepareWeekHandler:       bh.PrepareWeekHandler,
		CancelHandler:            ch.CancelHandler,
		SettleWeekHandler:        lh.SettleWeekHandler,
	}
}
