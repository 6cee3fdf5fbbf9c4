package leavebalance

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"
)

//go:generate mockgen -source=leave_balance_repo.go -destination=mock/leave_balance_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Find(ctx context.Context, userID int64, year int) (*LeaveBalance, error)
	FindByUser(ctx context.Context, userID int64) ([]LeaveBalance, error)
	FindByYear(ctx context.Context, year int) ([]LeaveBalance, error)
	InsertDefault(ctx context.Context, userID int64, year int) error
	SetTotalDays(ctx context.Context, userID int64, year, totalDays int) (int64, error)
	Apply(ctx context.Context, cmd Command) (int64, error)
	DeleteByUser(ctx context.Context, userID int64) error
}

type repository struct {
	db               *gorm.DB
	tx               *sql.Tx
	defaultTotalDays int
}

// NewRepository builds the ledger store. defaultTotalDays overrides the
// allocation given to rows created on demand.
func NewRepository(db *gorm.DB, defaultTotalDays ...int) Repository {
	total := DefaultTotalDays
	if len(defaultTotalDays) > 0 && defaultTotalDays[0] >= 0 {
		total = defaultTotalDays[0]
	}
	return &repository{db: db, defaultTotalDays: total}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx, defaultTotalDays: r.defaultTotalDays}
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db.Statement.ConnPool = r.tx
	}
	return db
}

func (r *repository) Find(ctx context.Context, userID int64, year int) (*LeaveBalance, error) {
	var b LeaveBalance
	err := r.conn(ctx).
		Where("user_id = ? AND year = ?", userID, year).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) FindByUser(ctx context.Context, userID int64) ([]LeaveBalance, error) {
	var balances []LeaveBalance
	err := r.conn(ctx).
		Where("user_id = ?", userID).
		Order("year DESC").
		Find(&balances).Error
	return balances, err
}

func (r *repository) FindByYear(ctx context.Context, year int) ([]LeaveBalance, error) {
	var balances []LeaveBalance
	err := r.conn(ctx).
		Where("year = ?", year).
		Order("user_id ASC").
		Find(&balances).Error
	return balances, err
}

func (r *repository) InsertDefault(ctx context.Context, userID int64, year int) error {
	return r.conn(ctx).Exec(`
INSERT INTO leave_balances (user_id, year, total_days, used_days, carried_over_days, created_at, updated_at)
VALUES (?, ?, ?, 0, 0, NOW(), NOW())
ON CONFLICT (user_id, year) DO NOTHING`,
		userID, year, r.defaultTotalDays,
	).Error
}

// SetTotalDays creates the row with totalDays or updates an existing one,
// refusing any total that would leave used_days above the allowance.
func (r *repository) SetTotalDays(ctx context.Context, userID int64, year, totalDays int) (int64, error) {
	res := r.conn(ctx).Exec(`
INSERT INTO leave_balances (user_id, year, total_days, used_days, carried_over_days, created_at, updated_at)
VALUES (?, ?, ?, 0, 0, NOW(), NOW())
ON CONFLICT (user_id, year) DO UPDATE
SET total_days = EXCLUDED.total_days, updated_at = NOW()
WHERE leave_balances.used_days <= EXCLUDED.total_days + leave_balances.carried_over_days`,
		userID, year, totalDays,
	)
	return res.RowsAffected, res.Error
}

func (r *repository) Apply(ctx context.Context, cmd Command) (int64, error) {
	var res *gorm.DB
	switch cmd.Kind {
	case CommandIncrementUsed:
		res = r.conn(ctx).Exec(`
UPDATE leave_balances
SET used_days = used_days + ?, updated_at = NOW()
WHERE user_id = ? AND year = ?
	AND used_days + ? <= total_days + carried_over_days`,
			cmd.Days, cmd.UserID, cmd.Year, cmd.Days,
		)
	case CommandAddCarryOver:
		res = r.conn(ctx).Exec(`
INSERT INTO leave_balances (user_id, year, total_days, used_days, carried_over_days, created_at, updated_at)
VALUES (?, ?, ?, 0, ?, NOW(), NOW())
ON CONFLICT (user_id, year) DO UPDATE
SET carried_over_days = leave_balances.carried_over_days + EXCLUDED.carried_over_days, updated_at = NOW()`,
			cmd.UserID, cmd.Year, r.defaultTotalDays, cmd.Days,
		)
	case CommandMarkFolded:
		res = r.conn(ctx).Exec(`
INSERT INTO leave_carry_overs (user_id, from_year, to_year, days, created_at)
VALUES (?, ?, ?, ?, NOW())
ON CONFLICT (user_id, from_year) DO NOTHING`,
			cmd.UserID, cmd.FromYear, cmd.Year, cmd.Days,
		)
	default:
		return 0, fmt.Errorf("unknown ledger command %q", cmd.Kind)
	}
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteByUser(ctx context.Context, userID int64) error {
	db := r.conn(ctx)
	if err := db.Where("user_id = ?", userID).Delete(&CarryOverMarker{}).Error; err != nil {
		return err
	}
	return r.conn(ctx).Where("user_id = ?", userID).Delete(&LeaveBalance{}).Error
}
