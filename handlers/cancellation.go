package handlers

import (
	"net/http"

	"carebook/models"
	"carebook/services/cancellation"
	"carebook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CancellationHandler cancels bookings for the authenticated party.
type CancellationHandler struct {
	Service cancellation.CancellationService
}

func NewCancellationHandler(service cancellation.CancellationService) *CancellationHandler {
	return &CancellationHandler{Service: service}
}

// CancelHandler handles POST /api/transactions/:txID/cancel. The acting party
// comes from the bearer token, never from the body.
func (h *CancellationHandler) CancelHandler(c *gin.Context) {
	logger := getLogger(c)
	txID := c.Param("txID")

	actor, _ := c.Get("actorRole")
	role, ok := actor.(models.Actor)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "Unauthorized", "missing actor role")
		return
	}

	result, err := h.Service.Cancel(c.Request.Context(), txID, role)
	if err != nil {
		utils.JSONBookingError(c, "Cancellation failed", err)
		return
	}
	logger.Info("Booking canceled",
		zap.String("txId", txID),
		zap.String("actor", string(role)),
		zap.String("actorId", c.GetString("actorID")),
		zap.String("transition", result.Transition))
	c.JSON(http.StatusOK, result)
}
