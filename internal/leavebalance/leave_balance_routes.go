package leavebalance

import (
	"go-leave/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, auth gin.HandlerFunc, rbac middleware.RBACService) {
	r.GET("/leave-balance/left",
		auth,
		middleware.RateLimitByUser(5, 10),
		middleware.RBACAuthorize(rbac, "leave_balance", "read"),
		handler.GetCurrent,
	)

	balances := r.Group("/leave-balances")
	balances.Use(auth, middleware.RateLimitByUser(5, 10))
	{
		balances.GET("/me", middleware.RBACAuthorize(rbac, "leave_balance", "read"), handler.ListMine)
		balances.GET("", middleware.RBACAuthorize(rbac, "leave_balance", "read_all"), handler.ListByYear)
		balances.GET("/users/:user_id", middleware.RBACAuthorize(rbac, "leave_balance", "read_all"), handler.ListByUser)
		balances.PUT("/users/:user_id/years/:year", middleware.RBACAuthorize(rbac, "leave_balance", "allocate"), handler.Allocate)
	}
}
