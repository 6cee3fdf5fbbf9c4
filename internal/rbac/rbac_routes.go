package rbac

import (
	"go-leave/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, auth gin.HandlerFunc, service Service) {
	group := r.Group("/rbac")
	group.Use(auth)
	{
		group.POST("/enforce", middleware.RBACAuthorize(service, "rbac", "manage"), handler.Enforce)
		group.GET("/permissions", middleware.RBACAuthorize(service, "rbac", "manage"), handler.ListPermissions)
		group.POST("/reload", middleware.RBACAuthorize(service, "rbac", "manage"), handler.Reload)
	}
}
