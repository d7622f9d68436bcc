package models

import "time"

// Audit event statuses.
const (
	StatusOK               = "ok"
	StatusTriggered        = "triggered"
	StatusSent             = "sent"
	StatusForbidden        = "forbidden"
	StatusBlockedNoConsent = "blocked_no_consent"
)

// AuditEvent records the outcome of a single action. Events are never
// mutated after they are appended.
type AuditEvent struct {
	Timestamp time.Time `json:"timestamp"`
	TraceID   string    `json:"trace_id"`
	Action    string    `json:"action"`
	Subject   string    `json:"subject"`
	Status    string    `json:"status"`
	Scopes    []string  `json:"scopes"`
}
