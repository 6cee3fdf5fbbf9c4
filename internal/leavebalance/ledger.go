package leavebalance

import (
	"context"
	"errors"
	"fmt"

	leavebalanceerrors "go-leave/internal/leavebalance/errors"

	"gorm.io/gorm"
)

type CommandKind string

const (
	// CommandIncrementUsed adds Days to used_days only if the row still has that many days left.
	CommandIncrementUsed CommandKind = "increment_used"
	// CommandAddCarryOver adds Days to carried_over_days of (UserID, Year), creating the row if needed.
	CommandAddCarryOver CommandKind = "add_carry_over"
	// CommandMarkFolded claims (UserID, FromYear) so a second fold is a no-op.
	CommandMarkFolded CommandKind = "mark_folded"
)

// Command is a single store mutation produced by the planners below.
type Command struct {
	Kind     CommandKind
	UserID   int64
	Year     int
	FromYear int
	Days     int
}

// PlanConsume returns the balance as it will look after days are used, and
// the command that performs it atomically in the store.
func PlanConsume(b LeaveBalance, days int) (LeaveBalance, []Command, error) {
	if days <= 0 {
		return b, nil, leavebalanceerrors.ErrInvalidDays
	}
	if days > b.Remaining() {
		return b, nil, leavebalanceerrors.ErrQuotaExceeded.WithMessage(
			fmt.Sprintf("requested %d days but only %d remaining", days, b.Remaining()),
		)
	}

	next := b
	next.UsedDays += days
	return next, []Command{{
		Kind:   CommandIncrementUsed,
		UserID: b.UserID,
		Year:   b.Year,
		Days:   days,
	}}, nil
}

// PlanCarryOver folds the unused days of prev into targetYear. Nothing is
// planned when prev has no unused days.
func PlanCarryOver(prev LeaveBalance, targetYear int) []Command {
	unused := prev.Remaining()
	if unused <= 0 || targetYear <= prev.Year {
		return nil
	}
	return []Command{
		{
			Kind:     CommandMarkFolded,
			UserID:   prev.UserID,
			Year:     targetYear,
			FromYear: prev.Year,
			Days:     unused,
		},
		{
			Kind:   CommandAddCarryOver,
			UserID: prev.UserID,
			Year:   targetYear,
			Days:   unused,
		},
	}
}

// GetOrCreate reads the (userID, year) row, inserting the default allocation
// when it is missing. A concurrent insert by another caller is not an error:
// the row is simply read back.
func GetOrCreate(ctx context.Context, repo Repository, userID int64, year int) (LeaveBalance, error) {
	b, err := repo.Find(ctx, userID, year)
	if err == nil {
		return *b, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return LeaveBalance{}, err
	}

	if err := repo.InsertDefault(ctx, userID, year); err != nil {
		return LeaveBalance{}, mapRepositoryError(err)
	}

	b, err = repo.Find(ctx, userID, year)
	if err != nil {
		return LeaveBalance{}, err
	}
	return *b, nil
}

// Consume charges days against the (userID, year) row, creating it first if needed.
func Consume(ctx context.Context, repo Repository, userID int64, year, days int) (LeaveBalance, error) {
	b, err := GetOrCreate(ctx, repo, userID, year)
	if err != nil {
		return LeaveBalance{}, err
	}

	next, cmds, err := PlanConsume(b, days)
	if err != nil {
		return b, err
	}

	for _, cmd := range cmds {
		affected, err := repo.Apply(ctx, cmd)
		if err != nil {
			return b, err
		}
		// Someone else used the days between our read and the update.
		if affected == 0 {
			return b, leavebalanceerrors.ErrQuotaExceeded
		}
	}
	return next, nil
}

// FoldCarryOver moves the unused days of prev into targetYear. It reports
// folded=false when there was nothing to move or prev was already folded.
// Callers must run it inside a transaction so a skipped fold leaves no trace.
func FoldCarryOver(ctx context.Context, repo Repository, prev LeaveBalance, targetYear int) (bool, int, error) {
	cmds := PlanCarryOver(prev, targetYear)
	if len(cmds) == 0 {
		return false, 0, nil
	}

	days := 0
	for _, cmd := range cmds {
		affected, err := repo.Apply(ctx, cmd)
		if err != nil {
			return false, 0, err
		}
		if cmd.Kind == CommandMarkFolded && affected == 0 {
			return false, 0, nil
		}
		if cmd.Kind == CommandAddCarryOver {
			days = cmd.Days
		}
	}
	return true, days, nil
}
