package leavebalance

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	leavebalanceerrors "go-leave/internal/leavebalance/errors"
	"go-leave/internal/shared/apperror"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	CacheKeyPrefix = "leave_balance:"
	cacheTTL       = 5 * time.Minute
	minYear        = 2000
)

func CacheKey(userID int64, year int) string {
	return fmt.Sprintf("%s%d:%d", CacheKeyPrefix, userID, year)
}

//go:generate mockgen -source=leave_balance_service.go -destination=mock/leave_balance_service_mock.go -package=mock
type Service interface {
	GetCurrent(ctx context.Context, userID int64) (BalanceResponse, error)
	ListByUser(ctx context.Context, userID int64) ([]BalanceResponse, error)
	ListByYear(ctx context.Context, year int) ([]BalanceResponse, error)
	Allocate(ctx context.Context, userID int64, year, totalDays int) (BalanceResponse, error)
	Invalidate(ctx context.Context, userID int64, year int)
}

type service struct {
	db           *sql.DB
	repo         Repository
	rdb          *redis.Client
	sf           *singleflight.Group
	logger       *zap.Logger
	location     *time.Location
	storeTimeout time.Duration
	clock        func() time.Time
}

type Option func(*service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger.Named("leave_balance.service")
		}
	}
}

func WithLocation(loc *time.Location) Option {
	return func(s *service) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithStoreTimeout(d time.Duration) Option {
	return func(s *service) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(s *service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewService wires the balance read/admin paths. rdb may be nil, which disables caching.
func NewService(db *sql.DB, repo Repository, rdb *redis.Client, opts ...Option) Service {
	s := &service{
		db:           db,
		repo:         repo,
		rdb:          rdb,
		sf:           &singleflight.Group{},
		logger:       zap.L().Named("leave_balance.service"),
		location:     time.Local,
		storeTimeout: 5 * time.Second,
		clock:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) currentYear() int {
	return s.clock().In(s.location).Year()
}

func (s *service) GetCurrent(ctx context.Context, userID int64) (BalanceResponse, error) {
	if userID <= 0 {
		return BalanceResponse{}, leavebalanceerrors.ErrInvalidUserID
	}
	year := s.currentYear()
	cacheKey := CacheKey(userID, year)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var resp BalanceResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
		defer cancel()

		b, err := s.repo.Find(ctx, userID, year)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, leavebalanceerrors.ErrBalanceNotFound
			}
			s.logger.Error("get current balance failed",
				zap.Int64("user_id", userID),
				zap.Int("year", year),
				zap.Error(err),
			)
			return nil, apperror.FromStore(err)
		}

		resp := mapToResponse(*b)
		if s.rdb != nil {
			if data, err := json.Marshal(resp); err == nil {
				s.rdb.Set(ctx, cacheKey, string(data), cacheTTL)
			}
		}
		return resp, nil
	})
	if err != nil {
		return BalanceResponse{}, err
	}

	return v.(BalanceResponse), nil
}

func (s *service) ListByUser(ctx context.Context, userID int64) ([]BalanceResponse, error) {
	if userID <= 0 {
		return nil, leavebalanceerrors.ErrInvalidUserID
	}
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	balances, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		s.logger.Error("list balances by user failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil, apperror.FromStore(err)
	}
	return mapToListResponse(balances), nil
}

func (s *service) ListByYear(ctx context.Context, year int) ([]BalanceResponse, error) {
	if year < minYear {
		return nil, leavebalanceerrors.ErrInvalidYear
	}
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	balances, err := s.repo.FindByYear(ctx, year)
	if err != nil {
		s.logger.Error("list balances by year failed", zap.Int("year", year), zap.Error(err))
		return nil, apperror.FromStore(err)
	}
	return mapToListResponse(balances), nil
}

func (s *service) Allocate(ctx context.Context, userID int64, year, totalDays int) (BalanceResponse, error) {
	s.logger.Debug("allocate balance requested",
		zap.Int64("user_id", userID),
		zap.Int("year", year),
		zap.Int("total_days", totalDays),
	)
	if userID <= 0 {
		return BalanceResponse{}, leavebalanceerrors.ErrInvalidUserID
	}
	if year < minYear {
		return BalanceResponse{}, leavebalanceerrors.ErrInvalidYear
	}
	if totalDays < 0 {
		return BalanceResponse{}, leavebalanceerrors.ErrInvalidTotalDays
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("allocate balance begin tx failed", zap.Error(err))
		return BalanceResponse{}, apperror.FromStore(err)
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	affected, err := qtx.SetTotalDays(ctx, userID, year, totalDays)
	if err != nil {
		s.logger.Error("allocate balance persist failed", zap.Int64("user_id", userID), zap.Error(err))
		return BalanceResponse{}, apperror.FromStore(mapRepositoryError(err))
	}
	if affected == 0 {
		s.logger.Warn("allocate balance below used days",
			zap.Int64("user_id", userID),
			zap.Int("year", year),
			zap.Int("total_days", totalDays),
		)
		return BalanceResponse{}, leavebalanceerrors.ErrTotalBelowUsed
	}

	b, err := qtx.Find(ctx, userID, year)
	if err != nil {
		s.logger.Error("allocate balance reload failed", zap.Int64("user_id", userID), zap.Error(err))
		return BalanceResponse{}, apperror.FromStore(mapRepositoryError(err))
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("allocate balance commit failed", zap.Error(err))
		return BalanceResponse{}, apperror.FromStore(err)
	}
	s.Invalidate(ctx, userID, year)

	s.logger.Info("allocate balance success",
		zap.Int64("user_id", userID),
		zap.Int("year", year),
		zap.Int("total_days", b.TotalDays),
	)
	return mapToResponse(*b), nil
}

// Invalidate drops the cached balance. Failures are logged, never returned.
func (s *service) Invalidate(ctx context.Context, userID int64, year int) {
	if s.rdb == nil {
		return
	}
	cacheKey := CacheKey(userID, year)
	if err := s.rdb.Del(ctx, cacheKey).Err(); err != nil {
		s.logger.Error("failed to invalidate leave balance cache",
			zap.Error(err),
			zap.String("key", cacheKey),
		)
	}
}
