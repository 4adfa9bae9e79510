package middleware

import (
	"net/http"

	"therapy/apperrors"
	"therapy/models"
	"therapy/utils"

	"github.com/gin-gonic/gin"
)

// RequireRole rejects callers whose token role is not one of roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{Message: "Not authenticated", Code: "unauthorized"})
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, utils.ErrorResponse{
			Message: "This action requires the " + string(roles[0]) + " role",
			Code:    string(apperrors.KindForbidden),
		})
	}
}
