package policy

import (
	"net/http"

	"assurdesk_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Require returns gin middleware that rejects requests whose authenticated
// identity holds none of the required roles.
func Require(required ...Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, ok := c.Get(httpkit.ContextRolesKey)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		roleList, ok := roles.([]string)
		if !ok || !IsAuthorized(roleList, required...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.Next()
	}
}
