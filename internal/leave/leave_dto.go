package leave

type CreateLeaveRequest struct {
	Reason     string   `json:"reason"`
	LeaveDates []string `json:"leave_dates"`
}

// RejectLeaveRequest leaves the reason unchecked at binding so an empty
// reason surfaces as INVALID_INPUT from the service.
type RejectLeaveRequest struct {
	Reason string `json:"reason"`
}

type LeaveResponse struct {
	ID            string   `json:"id"`
	UserID        int64    `json:"user_id"`
	Reason        string   `json:"reason"`
	LeaveDates    []string `json:"leave_dates"`
	LedgerYear    int      `json:"ledger_year"`
	Status        string   `json:"status"`
	ApprovedDates []string `json:"approved_dates"`
	RejectReason  *string  `json:"reject_reason,omitempty"`
	DecidedAt     *string  `json:"decided_at,omitempty"`
	DecidedBy     *int64   `json:"decided_by,omitempty"`
	CreatedAt     string   `json:"created_at"`
}
