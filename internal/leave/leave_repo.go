package leave

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, l *LeaveRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*LeaveRequest, error)
	FindAll(ctx context.Context) ([]LeaveRequest, error)
	FindByUser(ctx context.Context, userID int64) ([]LeaveRequest, error)
	HasOverlap(ctx context.Context, userID int64, dates LeaveDates) (bool, error)
	Decide(ctx context.Context, d Decision) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteByUser(ctx context.Context, userID int64) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db.Statement.ConnPool = r.tx
	}
	return db
}

func (r *repository) Create(ctx context.Context, l *LeaveRequest) error {
	return r.conn(ctx).Create(l).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*LeaveRequest, error) {
	var l LeaveRequest
	err := r.conn(ctx).First(&l, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) FindAll(ctx context.Context) ([]LeaveRequest, error) {
	var requests []LeaveRequest
	err := r.conn(ctx).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

func (r *repository) FindByUser(ctx context.Context, userID int64) ([]LeaveRequest, error) {
	var requests []LeaveRequest
	err := r.conn(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

// HasOverlap reports whether any of dates is already held by a pending or
// approved request of the same user.
func (r *repository) HasOverlap(ctx context.Context, userID int64, dates LeaveDates) (bool, error) {
	var exists bool
	err := r.conn(ctx).Raw(`
SELECT EXISTS (
	SELECT 1 FROM leave_requests
	WHERE user_id = ?
		AND status IN (?, ?)
		AND leave_dates && ?::date[]
)`,
		userID, StatusPending, StatusApproved, dates,
	).Scan(&exists).Error
	return exists, err
}

// Decide only touches a request that is still pending; zero rows affected
// means it was decided concurrently or does not exist.
func (r *repository) Decide(ctx context.Context, d Decision) (int64, error) {
	res := r.conn(ctx).Exec(`
UPDATE leave_requests
SET status = ?, reject_reason = ?, approved_dates = ?, decided_at = ?, decided_by = ?
WHERE id = ? AND status = ?`,
		d.Status, d.RejectReason, d.ApprovedDates, d.DecidedAt, d.DecidedBy,
		d.ID, StatusPending,
	)
	return res.RowsAffected, res.Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.conn(ctx).Delete(&LeaveRequest{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteByUser(ctx context.Context, userID int64) error {
	return r.conn(ctx).Where("user_id = ?", userID).Delete(&LeaveRequest{}).Error
}
