package utils

import (
	"net/http"

	"carebook/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// HandleErrors is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				Logger := GetLogger()
				Logger.Error("Unhandled panic", zap.Any("error", err))

				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, message string, details string) {
	Logger := GetLogger()
	Logger.Warn(message, zap.String("details", details))
	c.JSON(status, ErrorResponse{Message: message, Details: details})
}

// BookingErrorStatus maps an engine error code to an HTTP status.
func BookingErrorStatus(err error) int {
	switch models.ErrorCode(err) {
	case models.CodeConflictDetected, models.CodeBookingWindowUnavailable, models.CodeBookingTimeNotAvailable:
		return http.StatusConflict
	case models.CodeNoPaymentIntent, models.CodeNotCancelable, models.CodeNothingToSettle:
		return http.StatusUnprocessableEntity
	case models.CodeMalformedMetadata, models.CodeInvalidSchedule:
		return http.StatusBadRequest
	case models.CodeNotFound:
		return http.StatusNotFound
	case models.CodeExternalStoreFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// JSONBookingError renders an engine error with its code.
func JSONBookingError(c *gin.Context, message string, err error) {
	status := BookingErrorStatus(err)
	GetLogger().Warn(message, zap.Error(err), zap.Int("status", status))
	c.JSON(status, ErrorResponse{Message: message, Code: models.ErrorCode(err), Details: err.Error()})
}
