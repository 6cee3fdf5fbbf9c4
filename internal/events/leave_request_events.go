package events

import "time"

const LeaveRequestTopic = "leave.request.lifecycle.v1"

const (
	LeaveRequestCreated = "leave_request_created"
	LeaveRequestDecided = "leave_request_decided"
)

type LeaveRequestEvent struct {
	EventType      string    `json:"event_type"`
	RequestID      string    `json:"request_id,omitempty"`
	LeaveRequestID string    `json:"leave_request_id"`
	UserID         int64     `json:"user_id"`
	Status         string    `json:"status"`
	LeaveDates     []string  `json:"leave_dates"`
	Reason         string    `json:"reason"`
	RejectReason   string    `json:"reject_reason,omitempty"`
	DecidedBy      int64     `json:"decided_by,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
