package handlers

import (
	"net/http"
	"time"

	"carebook/models"
	"carebook/services/booking"
	"carebook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler serves quotes, availability checks and listing claims.
type BookingHandler struct {
	Service booking.BookingService
}

func NewBookingHandler(service booking.BookingService) *BookingHandler {
	return &BookingHandler{Service: service}
}

type availabilityRequest struct {
	ListingID string                  `json:"listingId" binding:"required"`
	Candidate models.BookingCandidate `json:"candidate"`
}

type prepareWeekRequest struct {
	WeekOf *models.Timestamp `json:"weekOf"`
}

// CheckAvailabilityHandler handles POST /api/bookings/availability.
func (h *BookingHandler) CheckAvailabilityHandler(c *gin.Context) {
	logger := getLogger(c)
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Invalid availability request", zap.Error(err))
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	blocked, err := h.Service.CheckAvailability(c.Request.Context(), req.ListingID, req.Candidate)
	if err != nil {
		utils.JSONBookingError(c, "Availability check failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listingId": req.ListingID, "available": !blocked})
}

// QuoteHandler handles POST /api/bookings/quote.
func (h *BookingHandler) QuoteHandler(c *gin.Context) {
	logger := getLogger(c)
	var req models.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Invalid quote request", zap.Error(err))
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	quote, err := h.Service.Quote(req)
	if err != nil {
		utils.JSONBookingError(c, "Quote failed", err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// ReserveHandler handles POST /api/transactions/:txID/reserve.
func (h *BookingHandler) ReserveHandler(c *gin.Context) {
	logger := getLogger(c)
	txID := c.Param("txID")
	if err := h.Service.Reserve(c.Request.Context(), txID); err != nil {
		utils.JSONBookingError(c, "Reservation failed", err)
		return
	}
	logger.Info("Listing reserved", zap.String("txId", txID))
	c.JSON(http.StatusOK, gin.H{"txId": txID, "reserved": true})
}

// PrepareWeekHandler handles POST /api/transactions/:txID/prepare-week. An
// empty body prepares the week starting now.
func (h *BookingHandler) PrepareWeekHandler(c *gin.Context) {
	logger := getLogger(c)
	txID := c.Param("txID")
	var req prepareWeekRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Error("Invalid prepare-week request", zap.Error(err))
			utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
			return
		}
	}
	anchor := time.Now()
	if req.WeekOf != nil && !req.WeekOf.IsZero() {
		anchor = req.WeekOf.Time
	}

	tx, err := h.Service.PrepareWeek(c.Request.Context(), txID, anchor)
	if err != nil {
		utils.JSONBookingError(c, "Prepare week failed", err)
		return
	}
	c.JSON(http.StatusOK, tx)
}
