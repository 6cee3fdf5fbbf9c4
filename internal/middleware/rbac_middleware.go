package middleware

import (
	"net/http"

	"go-leave/internal/domain"
	"go-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// RBACService is satisfied by anything with Enforce(domain.EnforceRequest).
type RBACService interface {
	Enforce(req domain.EnforceRequest) (bool, error)
}

// CapabilityKey is the gin key RBACCapability stores its result under.
func CapabilityKey(resource, action string) string {
	return resource + ":" + action
}

func RBACAuthorize(service RBACService, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing auth context", nil)
			c.Abort()
			return
		}

		allowed, err := service.Enforce(domain.EnforceRequest{
			Role:     role,
			Resource: resource,
			Action:   action,
		})
		if err != nil {
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
			c.Abort()
			return
		}

		if !allowed {
			response.Error(c, http.StatusForbidden, "FORBIDDEN",
				"You do not have permission to access this resource",
				gin.H{"required": CapabilityKey(resource, action)},
			)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RBACCapability records whether the caller holds resource:action without
// rejecting the request, for handlers whose scope depends on it.
func RBACCapability(service RBACService, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed := false
		if role := c.GetString("role"); role != "" {
			ok, err := service.Enforce(domain.EnforceRequest{Role: role, Resource: resource, Action: action})
			allowed = err == nil && ok
		}
		c.Set(CapabilityKey(resource, action), allowed)
		c.Next()
	}
}
