package events

import "time"

const EmployeeCredentialsTopic = "leave.employee.credentials.v1"

const EmployeeCredentialsIssued = "employee_credentials_issued"

// EmployeeCredentialsIssuedEvent carries the one-time password so the
// notifier can mail it; it is never stored outside the outbox row.
type EmployeeCredentialsIssuedEvent struct {
	EventType         string    `json:"event_type"`
	RequestID         string    `json:"request_id,omitempty"`
	UserID            int64     `json:"user_id"`
	Username          string    `json:"username"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	TemporaryPassword string    `json:"temporary_password"`
	OccurredAt        time.Time `json:"occurred_at"`
}
