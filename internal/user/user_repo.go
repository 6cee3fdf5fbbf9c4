package user

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

//go:generate mockgen -source=user_repo.go -destination=mock/user_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id int64) (*User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	FindEmployeesWithBalance(ctx context.Context, year int) ([]EmployeeWithBalance, error)
	Delete(ctx context.Context, id int64) (int64, error)
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

func (r *repository) Create(ctx context.Context, u *User) error {
	return r.conn(ctx).Create(u).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*User, error) {
	var u User
	if err := r.conn(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

func (r *repository) FindEmployeesWithBalance(ctx context.Context, year int) ([]EmployeeWithBalance, error) {
	var rows []EmployeeWithBalance
	err := r.conn(ctx).Raw(`
SELECT u.id, u.username, u.name, u.email,
	b.total_days, b.used_days, b.carried_over_days
FROM users u
LEFT JOIN leave_balances b ON b.user_id = u.id AND b.year = ?
WHERE u.role = ?
ORDER BY u.id ASC`,
		year, RoleEmployee,
	).Scan(&rows).Error
	return rows, err
}

func (r *repository) Delete(ctx context.Context, id int64) (int64, error) {
	res := r.conn(ctx).Delete(&User{}, "id = ?", id)
	return res.RowsAffected, res.Error
}
