package models

import "time"

// Scope names granted to a session token.
const (
	ScopeVitalsRead    = "vitals:read"
	ScopeAlertsWrite   = "alerts:write"
	ScopeConsentManage = "consent:manage"
	ScopeLogsRead      = "logs:read"
)

// TokenInfo describes the active token of a session.
type TokenInfo struct {
	Token    string    `json:"token"`
	Scopes   []string  `json:"scopes"`
	IssuedAt time.Time `json:"issued_at"`
}
