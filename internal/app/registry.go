package app

import (
	"context"

	"go-leave/internal/auth"
	"go-leave/internal/leave"
	"go-leave/internal/leavebalance"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/middleware"
	"go-leave/internal/rbac"
	"go-leave/internal/rbac/infra"
	"go-leave/internal/user"

	"github.com/gin-gonic/gin"
)

func registerModules(router *gin.Engine, in *Infra) error {
	cfg := in.Config

	// --- Repositories ---
	rbacRepo := rbac.NewRepository(in.GormDB)
	authRepo := auth.NewRepository(in.GormDB)
	balanceRepo := leavebalance.NewRepository(in.GormDB, cfg.DefaultTotalDays)
	leaveRepo := leave.NewRepository(in.GormDB)
	userRepo := user.NewRepository(in.GormDB)
	outboxRepo := kafka.NewOutboxRepository(in.SQLDB)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer()
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(rbacRepo, enforcer)
	if err := rbacService.LoadPolicy(context.Background()); err != nil {
		return err
	}

	// --- Services ---
	authService := auth.NewService(authRepo, cfg.JWTSecret, cfg.AccessTokenTTL)
	balanceService := leavebalance.NewService(in.SQLDB, balanceRepo, in.Redis,
		leavebalance.WithLocation(in.Location),
		leavebalance.WithStoreTimeout(cfg.StoreTimeout),
	)
	leaveService := leave.NewService(in.SQLDB, leaveRepo, balanceRepo,
		leave.WithOutbox(outboxRepo),
		leave.WithBalanceCache(balanceService),
		leave.WithLocation(in.Location),
		leave.WithStoreTimeout(cfg.StoreTimeout),
	)
	userService := user.NewService(in.SQLDB, userRepo, leaveRepo, balanceRepo,
		user.WithOutbox(outboxRepo),
		user.WithLocation(in.Location),
		user.WithStoreTimeout(cfg.StoreTimeout),
	)

	// --- Handlers ---
	authHandler := auth.NewHandler(authService, cfg.IsProduction())
	balanceHandler := leavebalance.NewHandler(balanceService)
	leaveHandler := leave.NewHandler(leaveService)
	userHandler := user.NewHandler(userService)
	rbacHandler := rbac.NewHandler(rbacService)

	// --- Routes Registration ---
	authMW := middleware.AuthMiddleware(cfg.JWTSecret)
	api := router.Group("/api/v1")
	{
		auth.RegisterRoutes(api, authHandler, authMW)
		leavebalance.RegisterRoutes(api, balanceHandler, authMW, rbacService)
		leave.RegisterRoutes(api, leaveHandler, authMW, rbacService, in.Redis)
		user.RegisterRoutes(api, userHandler, authMW, rbacService)
		rbac.RegisterRoutes(api, rbacHandler, authMW, rbacService)
	}

	return nil
}
