package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAdmin must run after RequireAuth. Admin status only unlocks routes
// mounted behind it; it never bypasses ownership checks on workouts.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFromContext(c)

		if !ok {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Missing identity context")
			return
		}
		if !identity.IsAdmin {
			m.observe("forbidden")
			abortWithError(c, http.StatusForbidden, "forbidden", "Action Forbidden: Admin access required")
			return
		}
		c.Next()
	}
}
