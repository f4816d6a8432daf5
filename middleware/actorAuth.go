package middleware

import (
	"net/http"
	"strings"

	"carebook/utils"

	"github.com/gin-gonic/gin"
)

// ActorAuthMiddleware resolves the acting party from the bearer token and
// stores it as actorID and actorRole.
func ActorAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{Message: "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		subject, role, err := utils.ExtractActor(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{Message: "Invalid token", Details: err.Error()})
			return
		}

		c.Set("actorID", subject)
		c.Set("actorRole", role)
		c.Next()
	}
}
