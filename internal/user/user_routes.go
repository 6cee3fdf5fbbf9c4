package user

import (
	"go-leave/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, auth gin.HandlerFunc, rbac middleware.RBACService) {
	employees := r.Group("/employees")
	employees.Use(auth, middleware.RateLimitByUser(5, 10))
	{
		employees.GET("", middleware.RBACAuthorize(rbac, "employee", "read"), handler.List)
		employees.POST("", middleware.RBACAuthorize(rbac, "employee", "manage"), handler.Create)
		employees.DELETE("/:id", middleware.RBACAuthorize(rbac, "employee", "manage"), handler.Delete)
	}
}
