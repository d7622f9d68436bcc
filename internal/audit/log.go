package audit

import (
	"time"

	"github.com/google/uuid"
	"github.com/org/vitalguard/pkg/models"
	"github.com/rs/zerolog/log"
)

// Log is an append-only, in-memory list of audit events. It is owned by a
// single session and not safe for concurrent use.
type Log struct {
	events []models.AuditEvent
	now    func() time.Time
}

// NewLog creates an empty Log.
func NewLog() *Log {
	return &Log{now: time.Now}
}

// NewTraceID returns a short random id used to correlate events.
func NewTraceID() string {
	return uuid.NewString()[:8]
}

// Add appends an event with a fresh trace id.
func (l *Log) Add(action, subject, status string, scopes []string) models.AuditEvent {
	return l.AddTraced(NewTraceID(), action, subject, status, scopes)
}

// AddTraced appends an event under an existing trace id.
func (l *Log) AddTraced(traceID, action, subject, status string, scopes []string) models.AuditEvent {
	e := models.AuditEvent{
		Timestamp: l.now().UTC(),
		TraceID:   traceID,
		Action:    action,
		Subject:   subject,
		Status:    status,
		Scopes:    append([]string{}, scopes...),
	}
	l.events = append(l.events, e)

	log.Info().
		Str("trace_id", traceID).
		Str("action", action).
		Str("subject", subject).
		Str("status", status).
		Strs("scopes", e.Scopes).
		Msg("audit")
	return e
}

// Events returns a copy of all events in insertion order.
func (l *Log) Events() []models.AuditEvent {
	out := make([]models.AuditEvent, len(l.events))
	for i, e := range l.events {
		e.Scopes = append([]string{}, e.Scopes...)
		out[i] = e
	}
	return out
}

// Len returns the number of recorded events.
func (l *Log) Len() int {
	return len(l.events)
}
