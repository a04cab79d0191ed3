package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qbank/exam-platform/internal/response"
)

// CheckActiveSession validates the JWT's JTI against the user's active login in Redis.
// A newer login or a logout invalidates every earlier token.
func CheckActiveSession(auth TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if err := auth.ValidateSession(c.Request.Context(), claims.UserID, claims.ID); err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
			return
		}

		c.Next()
	}
}
