package leave

import (
	"go-leave/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	auth gin.HandlerFunc,
	rbac middleware.RBACService,
	rdb *redis.Client,
) {
	requests := r.Group("/leave-requests")
	requests.Use(auth, middleware.RateLimitByUser(5, 10))
	{
		requests.GET("",
			middleware.RBACAuthorize(rbac, "leave_request", "read"),
			middleware.RBACCapability(rbac, "leave_request", "read_all"),
			handler.List,
		)
		requests.GET("/all", middleware.RBACAuthorize(rbac, "leave_request", "read_all"), handler.ListAll)
		requests.GET("/user/:user_id", middleware.RBACAuthorize(rbac, "leave_request", "read_all"), handler.ListByUser)
		requests.GET("/:id", middleware.RBACAuthorize(rbac, "leave_request", "read"), handler.GetByID)
		requests.POST("",
			middleware.RBACAuthorize(rbac, "leave_request", "create"),
			middleware.Idempotency(rdb),
			handler.Create,
		)
		requests.PUT("/:id/approve", middleware.RBACAuthorize(rbac, "leave_request", "approve"), handler.Approve)
		requests.PUT("/:id/reject", middleware.RBACAuthorize(rbac, "leave_request", "approve"), handler.Reject)
		requests.DELETE("/:id",
			middleware.RBACAuthorize(rbac, "leave_request", "delete"),
			middleware.RBACCapability(rbac, "leave_request", "delete_any"),
			handler.Delete,
		)
	}
}
