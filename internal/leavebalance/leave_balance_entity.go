package leavebalance

import "time"

const DefaultTotalDays = 12

type LeaveBalance struct {
	UserID          int64 `gorm:"primaryKey;autoIncrement:false"`
	Year            int   `gorm:"primaryKey;autoIncrement:false"`
	TotalDays       int   `gorm:"not null;default:12"`
	UsedDays        int   `gorm:"not null;default:0"`
	CarriedOverDays int   `gorm:"not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (LeaveBalance) TableName() string {
	return "leave_balances"
}

// Remaining may go negative only if the row was edited outside the ledger.
func (b LeaveBalance) Remaining() int {
	return b.TotalDays + b.CarriedOverDays - b.UsedDays
}

// CarryOverMarker records that a prior-year row has been folded forward.
type CarryOverMarker struct {
	UserID    int64 `gorm:"primaryKey;autoIncrement:false"`
	FromYear  int   `gorm:"primaryKey;autoIncrement:false"`
	ToYear    int   `gorm:"not null"`
	Days      int   `gorm:"not null"`
	CreatedAt time.Time
}

func (CarryOverMarker) TableName() string {
	return "leave_carry_overs"
}
