package leavebalance_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"go-leave/internal/leavebalance"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRepoTest(t *testing.T) (leavebalance.Repository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	assert.NoError(t, err)

	return leavebalance.NewRepository(gdb), mock, func() { _ = db.Close() }
}

var balanceColumns = []string{"user_id", "year", "total_days", "used_days", "carried_over_days", "created_at", "updated_at"}

func TestRepository_Find(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		repo, mock, done := setupRepoTest(t)
		defer done()

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "leave_balances" WHERE user_id = $1 AND year = $2`)).
			WillReturnRows(sqlmock.NewRows(balanceColumns).AddRow(int64(1), 2025, 12, 10, 0, now, now))

		b, err := repo.Find(ctx, 1, 2025)
		assert.NoError(t, err)
		assert.Equal(t, 2, b.Remaining())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock, done := setupRepoTest(t)
		defer done()

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "leave_balances"`)).
			WillReturnRows(sqlmock.NewRows(balanceColumns))

		b, err := repo.Find(ctx, 1, 2025)
		assert.Nil(t, b)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestRepository_InsertDefault(t *testing.T) {
	repo, mock, done := setupRepoTest(t)
	defer done()

	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (user_id, year) DO NOTHING`)).
		WithArgs(int64(3), 2026, leavebalance.DefaultTotalDays).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.InsertDefault(context.Background(), 3, 2026))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SetTotalDays(t *testing.T) {
	repo, mock, done := setupRepoTest(t)
	defer done()

	mock.ExpectExec(regexp.QuoteMeta(`WHERE leave_balances.used_days <= EXCLUDED.total_days + leave_balances.carried_over_days`)).
		WithArgs(int64(3), 2026, 5).
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err := repo.SetTotalDays(context.Background(), 3, 2026, 5)
	assert.NoError(t, err)
	assert.Zero(t, affected)
}

func TestRepository_Apply(t *testing.T) {
	ctx := context.Background()

	t.Run("increment used is conditional", func(t *testing.T) {
		repo, mock, done := setupRepoTest(t)
		defer done()

		mock.ExpectExec(regexp.QuoteMeta(`AND used_days + $4 <= total_days + carried_over_days`)).
			WithArgs(3, int64(1), 2025, 3).
			WillReturnResult(sqlmock.NewResult(0, 0))

		affected, err := repo.Apply(ctx, leavebalance.Command{Kind: leavebalance.CommandIncrementUsed, UserID: 1, Year: 2025, Days: 3})
		assert.NoError(t, err)
		assert.Zero(t, affected)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("add carry over upserts", func(t *testing.T) {
		repo, mock, done := setupRepoTest(t)
		defer done()

		mock.ExpectExec(regexp.QuoteMeta(`carried_over_days = leave_balances.carried_over_days + EXCLUDED.carried_over_days`)).
			WithArgs(int64(1), 2025, leavebalance.DefaultTotalDays, 2).
			WillReturnResult(sqlmock.NewResult(0, 1))

		affected, err := repo.Apply(ctx, leavebalance.Command{Kind: leavebalance.CommandAddCarryOver, UserID: 1, Year: 2025, Days: 2})
		assert.NoError(t, err)
		assert.Equal(t, int64(1), affected)
	})

	t.Run("mark folded conflict reports zero rows", func(t *testing.T) {
		repo, mock, done := setupRepoTest(t)
		defer done()

		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO leave_carry_overs`)).
			WithArgs(int64(1), 2024, 2025, 2).
			WillReturnResult(sqlmock.NewResult(0, 0))

		affected, err := repo.Apply(ctx, leavebalance.Command{Kind: leavebalance.CommandMarkFolded, UserID: 1, Year: 2025, FromYear: 2024, Days: 2})
		assert.NoError(t, err)
		assert.Zero(t, affected)
	})

	t.Run("store error", func(t *testing.T) {
		repo, mock, done := setupRepoTest(t)
		defer done()

		mock.ExpectExec(regexp.QuoteMeta(`UPDATE leave_balances`)).WillReturnError(errors.New("conn reset"))

		_, err := repo.Apply(ctx, leavebalance.Command{Kind: leavebalance.CommandIncrementUsed, UserID: 1, Year: 2025, Days: 1})
		assert.Error(t, err)
	})

	t.Run("unknown command", func(t *testing.T) {
		repo, _, done := setupRepoTest(t)
		defer done()

		_, err := repo.Apply(ctx, leavebalance.Command{Kind: "bogus"})
		assert.Error(t, err)
	})
}

func TestRepository_WithTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	assert.NoError(t, err)
	repo := leavebalance.NewRepository(gdb, 20)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO leave_balances`)).
		WithArgs(int64(9), 2025, 20).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	assert.NoError(t, err)
	assert.NoError(t, repo.WithTx(tx).InsertDefault(context.Background(), 9, 2025))
	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
