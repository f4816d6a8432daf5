package routes

import (
	"net/http"
	"time"

	"carebook/handlers"
	"carebook/middleware"
	"carebook/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes registers quote and availability endpoints. Both are
// read-only and open to either party.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/bookings")
	{
		api.POST("/availability", hb.CheckAvailabilityHandler)
		api.POST("/quote", hb.QuoteHandler)
	}
}

// RegisterTransactionRoutes registers the endpoints that act on a hosted
// transaction.
func RegisterTransactionRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/transactions/:txID")
	{
		api.Use(middleware.ActorAuthMiddleware())
		api.POST("/reserve", hb.ReserveHandler)
		api.POST("/prepare-week", hb.PrepareWeekHandler)
		api.POST("/cancel", hb.CancelHandler)
		api.POST("/settle-week", hb.SettleWeekHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		status := utils.GetHealthStatus()
		code := http.StatusOK
		if !status.CheckedAt.IsZero() && !(status.Mongo && status.Redis) {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "message": "Hi, I'm carebook"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterBookingRoutes(r, hb)
	RegisterTransactionRoutes(r, hb)
}
