package leave

import (
	"database/sql/driver"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"

	DateLayout = "2006-01-02"
)

// LeaveDates maps a Postgres date[] column. Dates are calendar days in UTC.
type LeaveDates []time.Time

func (d LeaveDates) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	return "{" + strings.Join(d.Strings(), ",") + "}", nil
}

func (d *LeaveDates) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*d = nil
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("leave dates: unsupported scan type %T", src)
	}

	raw = strings.Trim(strings.TrimSpace(raw), "{}")
	if raw == "" {
		*d = LeaveDates{}
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make(LeaveDates, 0, len(parts))
	for _, p := range parts {
		t, err := time.Parse(DateLayout, strings.Trim(p, `" `))
		if err != nil {
			return fmt.Errorf("leave dates: %w", err)
		}
		out = append(out, t)
	}
	*d = out
	return nil
}

func (d LeaveDates) Strings() []string {
	out := make([]string, len(d))
	for i, t := range d {
		out[i] = t.Format(DateLayout)
	}
	return out
}

func (d LeaveDates) Sorted() LeaveDates {
	out := make(LeaveDates, len(d))
	copy(out, d)
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

type LeaveRequest struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID        int64      `gorm:"not null;index:idx_leave_requests_user_status"`
	Reason        string     `gorm:"type:text;not null"`
	LeaveDates    LeaveDates `gorm:"type:date[];not null"`
	// LedgerYear is the year of the first date as submitted; the balance
	// of that year is checked on create and charged on approve.
	LedgerYear    int        `gorm:"not null"`
	Status        string     `gorm:"type:varchar(20);not null;default:'pending';index:idx_leave_requests_user_status"`
	ApprovedDates LeaveDates `gorm:"type:date[]"`
	RejectReason  *string    `gorm:"type:text"`
	DecidedAt     *time.Time
	DecidedBy     *int64
	CreatedAt     time.Time
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

// Decision is the single conditional update that moves a pending request to
// a terminal state.
type Decision struct {
	ID            uuid.UUID
	Status        string
	RejectReason  *string
	ApprovedDates LeaveDates
	DecidedAt     time.Time
	DecidedBy     int64
}
