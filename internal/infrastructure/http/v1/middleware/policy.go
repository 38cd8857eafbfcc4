package middleware

import (
	"github.com/gin-gonic/gin"

	"stockbook/internal/core/security"
)

// RequireAction checks the access policy for one action on one kind.
func RequireAction(policy *security.Policy, action, kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := policy.Allow(c.Request.Context(), action, kind); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}
