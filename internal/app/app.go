package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"go-leave/internal/config"
	"go-leave/internal/middleware"
	"go-leave/internal/schema"
	"go-leave/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Infra holds the shared connections of one process.
type Infra struct {
	Config   *config.Config
	GormDB   *gorm.DB
	SQLDB    *sql.DB
	Redis    *redis.Client
	Location *time.Location
}

func (i *Infra) Close() {
	if i.Redis != nil {
		_ = i.Redis.Close()
	}
	if i.SQLDB != nil {
		_ = i.SQLDB.Close()
	}
}

func connectInfra(cfg *config.Config, withRedis bool) (*Infra, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	gormDB, err := connection.ConnectGORMWithRetry(connection.DBConfig{
		Host:     cfg.DBHost,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
		Port:     cfg.DBPort,
		SSLMode:  cfg.DBSSLMode,
	}, cfg.DBMaxRetries)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}
	infra := &Infra{Config: cfg, GormDB: gormDB, SQLDB: sqlDB, Location: loc}

	if withRedis {
		rdb, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, cfg.DBMaxRetries)
		if err != nil {
			infra.Close()
			return nil, err
		}
		infra.Redis = rdb
	}

	return infra, nil
}

// BuildApp connects the stores and mounts every module on router. The
// returned Infra must be closed by the caller.
func BuildApp(router *gin.Engine, cfg *config.Config) (*Infra, error) {
	infra, err := connectInfra(cfg, true)
	if err != nil {
		return nil, err
	}
	zap.L().Info("database and redis connections established")

	if cfg.DBMigrate {
		if err := schema.Apply(context.Background(), infra.SQLDB, zap.L()); err != nil {
			infra.Close()
			return nil, err
		}
	}

	router.Use(
		middleware.RequestID(),
		middleware.ContextLogger(zap.L()),
		middleware.SecureHeaders(cfg.IsProduction()),
	)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if err := registerModules(router, infra); err != nil {
		infra.Close()
		return nil, err
	}

	return infra, nil
}
