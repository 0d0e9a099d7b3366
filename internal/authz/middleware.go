package authz

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campushub/internal/auth"
)

// Require aborts with 403 unless the authenticated principal's role is
// allowed to perform action on resource. The payload names the required
// and actual roles so denials are debuggable.
func Require(res Resource, act Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := auth.FromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		if !Allowed(Role(claims.Role), res, act) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":          "forbidden",
				"required_roles": AllowedRoles(res, act),
				"actual_role":    claims.Role,
			})
			return
		}
		c.Next()
	}
}
