package carryover

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"go-leave/internal/leavebalance"
	"go-leave/internal/shared/apperror"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Result summarises one pass over the previous year's balances.
type Result struct {
	Year    int `json:"year"`
	Scanned int `json:"scanned"`
	Folded  int `json:"folded"`
	Skipped int `json:"skipped"`
	Days    int `json:"days"`
}

// BalanceCache drops cached balances for the year that received days.
type BalanceCache interface {
	Invalidate(ctx context.Context, userID int64, year int)
}

// Job folds unused days of year N-1 into year N. Every balance row is moved
// in its own transaction and a row is never folded twice, so the job can be
// fired as often as the scheduler likes.
type Job struct {
	db         *sql.DB
	balances   leavebalance.Repository
	cache      BalanceCache
	logger     *zap.Logger
	rowTimeout time.Duration
	location   *time.Location
	clock      func() time.Time
	group      singleflight.Group
}

type Option func(*Job)

func WithLogger(logger *zap.Logger) Option {
	return func(j *Job) {
		if logger != nil {
			j.logger = logger.Named("carryover.job")
		}
	}
}

func WithBalanceCache(cache BalanceCache) Option {
	return func(j *Job) { j.cache = cache }
}

func WithRowTimeout(d time.Duration) Option {
	return func(j *Job) {
		if d > 0 {
			j.rowTimeout = d
		}
	}
}

func WithLocation(loc *time.Location) Option {
	return func(j *Job) {
		if loc != nil {
			j.location = loc
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(j *Job) {
		if clock != nil {
			j.clock = clock
		}
	}
}

func NewJob(db *sql.DB, balances leavebalance.Repository, opts ...Option) *Job {
	j := &Job{
		db:         db,
		balances:   balances,
		logger:     zap.L().Named("carryover.job"),
		rowTimeout: 5 * time.Second,
		location:   time.Local,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// CurrentYear is the calendar year in the configured zone.
func (j *Job) CurrentYear() int {
	return j.clock().In(j.location).Year()
}

// Run folds every balance of currentYear-1. Concurrent calls for the same
// year share one execution and its result.
func (j *Job) Run(ctx context.Context, currentYear int) (Result, error) {
	v, err, shared := j.group.Do(strconv.Itoa(currentYear), func() (any, error) {
		return j.run(ctx, currentYear)
	})
	if shared {
		j.logger.Debug("carry over run shared", zap.Int("year", currentYear))
	}
	res, _ := v.(Result)
	return res, err
}

func (j *Job) run(ctx context.Context, currentYear int) (Result, error) {
	prevYear := currentYear - 1
	res := Result{Year: currentYear}
	start := j.clock()

	j.logger.Info("carry over started", zap.Int("from_year", prevYear), zap.Int("to_year", currentYear))

	listCtx, cancel := context.WithTimeout(ctx, j.rowTimeout)
	rows, err := j.balances.FindByYear(listCtx, prevYear)
	cancel()
	if err != nil {
		j.logger.Error("carry over list balances failed", zap.Int("year", prevYear), zap.Error(err))
		return res, apperror.FromStore(err)
	}

	for _, prev := range rows {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Scanned++

		folded, days, err := j.foldRow(ctx, prev, currentYear)
		if err != nil {
			j.logger.Error("carry over row failed",
				zap.Int64("user_id", prev.UserID),
				zap.Int("from_year", prevYear),
				zap.Error(err),
			)
			return res, apperror.FromStore(err)
		}
		if !folded {
			res.Skipped++
			continue
		}
		res.Folded++
		res.Days += days

		if j.cache != nil {
			j.cache.Invalidate(ctx, prev.UserID, currentYear)
		}
	}

	j.logger.Info("carry over finished",
		zap.Int("to_year", currentYear),
		zap.Int("scanned", res.Scanned),
		zap.Int("folded", res.Folded),
		zap.Int("skipped", res.Skipped),
		zap.Int("days", res.Days),
		zap.Duration("duration", j.clock().Sub(start)),
	)
	return res, nil
}

func (j *Job) foldRow(ctx context.Context, prev leavebalance.LeaveBalance, targetYear int) (bool, int, error) {
	ctx, cancel := context.WithTimeout(ctx, j.rowTimeout)
	defer cancel()

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, fmt.Errorf("begin carry over tx: %w", err)
	}
	defer tx.Rollback()

	folded, days, err := leavebalance.FoldCarryOver(ctx, j.balances.WithTx(tx), prev, targetYear)
	if err != nil {
		return false, 0, err
	}
	if !folded {
		return false, 0, nil
	}

	if err := tx.Commit(); err != nil {
		return false, 0, fmt.Errorf("commit carry over tx: %w", err)
	}

	j.logger.Debug("carry over row folded",
		zap.Int64("user_id", prev.UserID),
		zap.Int("from_year", prev.Year),
		zap.Int("days", days),
	)
	return true, days, nil
}
