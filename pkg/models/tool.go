package models

import "time"

// ErrorKind classifies why a tool call failed.
type ErrorKind string

const (
	KindNone            ErrorKind = ""
	KindNotFound        ErrorKind = "not_found"
	KindUnauthorized    ErrorKind = "unauthorized"
	KindConsentRequired ErrorKind = "consent_required"
	KindUnknownTool     ErrorKind = "unknown_tool"
	KindInternal        ErrorKind = "internal"
)

// ToolDescriptor is the static description of an agent tool.
type ToolDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Scope       string `json:"scope"`
}

// ToolResult is the uniform shape every tool call returns.
type ToolResult struct {
	OK      bool           `json:"ok"`
	Message string         `json:"message"`
	Payload map[string]any `json:"payload,omitempty"`
	TraceID string         `json:"trace_id,omitempty"`
	Kind    ErrorKind      `json:"error,omitempty"`
}

// DoctorAlert is a notification sent to the attending doctor.
type DoctorAlert struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patient_id"`
	PatientName string    `json:"patient_name"`
	Message     string    `json:"message"`
	TraceID     string    `json:"trace_id"`
	SentAt      time.Time `json:"sent_at"`
}
