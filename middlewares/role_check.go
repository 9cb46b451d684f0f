package middlewares

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MarkoM123/cafe-gaming-platform/utils"
)

// RequireRoles rejects requests whose resolved actor role is not in the
// allowed set. Runs after AuthMiddleware.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleValue, exists := c.Get("role")
		if !exists {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
			c.Abort()
			return
		}

		role, _ := roleValue.(string)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		utils.RespondError(c, http.StatusForbidden, errors.New("insufficient role"))
		c.Abort()
	}
}
