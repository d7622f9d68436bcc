// Package tools exposes the agent-callable operations. The set of tools is
// closed: names are parsed at the boundary and anything else is rejected
// before a handler runs.
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/org/vitalguard/internal/audit"
	"github.com/org/vitalguard/internal/auth"
	"github.com/org/vitalguard/internal/notify"
	"github.com/org/vitalguard/internal/rules"
	"github.com/org/vitalguard/internal/session"
	"github.com/org/vitalguard/internal/storage"
	"github.com/org/vitalguard/pkg/models"
	"github.com/rs/zerolog/log"
)

// Name identifies a tool.
type Name string

const (
	GetVitals       Name = "get_vitals"
	CheckThresholds Name = "check_thresholds"
	AlertDoctor     Name = "alert_doctor"
)

// DefaultAlertMessage is sent when an alert_doctor call carries no message.
const DefaultAlertMessage = "Critical condition detected"

// ConsentPurpose is recorded when consent is captured ahead of alerting.
const ConsentPurpose = "Notify doctor about current condition."

var (
	// ErrUnknownTool is returned for a name outside the registry.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrConsentRequired is returned when a sensitive tool runs before
	// consent was captured for the patient.
	ErrConsentRequired = errors.New("consent required")
)

var descriptors = []models.ToolDescriptor{
	{Name: string(GetVitals), Description: "Return current vitals for a patient", Scope: models.ScopeVitalsRead},
	{Name: string(CheckThresholds), Description: "Check current vitals against risk thresholds", Scope: models.ScopeVitalsRead},
	{Name: string(AlertDoctor), Description: "Notify doctor about an event (requires consent)", Scope: models.ScopeAlertsWrite},
}

// Descriptors lists the registered tools in display order.
func Descriptors() []models.ToolDescriptor {
	return append([]models.ToolDescriptor{}, descriptors...)
}

// ParseName maps a tool name to its identifier.
func ParseName(s string) (Name, error) {
	for _, d := range descriptors {
		if d.Name == s {
			return Name(s), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownTool, s)
}

// Call is one tool invocation.
type Call struct {
	Tool      string `json:"tool"`
	PatientID string `json:"patient_id"`
	// Prompt is the free-text agent instruction. It is logged, not interpreted.
	Prompt string `json:"prompt,omitempty"`
	// Message is the text sent by alert_doctor.
	Message string `json:"message,omitempty"`
}

type handlerFunc func(ctx context.Context, sess *session.Session, traceID string, call Call) (models.ToolResult, error)

// Registry dispatches calls to tool handlers.
type Registry struct {
	store    storage.VitalsStore
	notifier notify.Notifier
	handlers map[Name]handlerFunc
}

// NewRegistry creates a Registry over the given store and notifier.
func NewRegistry(store storage.VitalsStore, notifier notify.Notifier) *Registry {
	r := &Registry{store: store, notifier: notifier}
	r.handlers = map[Name]handlerFunc{
		GetVitals:       r.getVitals,
		CheckThresholds: r.checkThresholds,
		AlertDoctor:     r.alertDoctor,
	}
	return r
}

// Execute runs call against sess. The caller holds the session lock. The
// returned error is nil exactly when result.OK is true; result.Kind
// classifies the failure.
func (r *Registry) Execute(ctx context.Context, sess *session.Session, call Call) (models.ToolResult, error) {
	traceID := audit.NewTraceID()
	logger := log.With().Str("trace_id", traceID).Str("tool", call.Tool).Str("patient", call.PatientID).Logger()

	name, err := ParseName(call.Tool)
	if err != nil {
		logger.Warn().Msg("unknown tool")
		return failure(traceID, fmt.Sprintf("Unknown tool: %s", call.Tool), err), err
	}
	if call.Prompt != "" {
		logger.Debug().Str("prompt", call.Prompt).Msg("agent instruction")
	}

	res, err := r.handlers[name](ctx, sess, traceID, call)
	res.TraceID = traceID
	if err != nil {
		res.OK = false
		res.Kind = KindOf(err)
		if res.Message == "" {
			res.Message = err.Error()
		}
		logger.Info().Err(err).Str("kind", string(res.Kind)).Msg("tool call failed")
		return res, err
	}
	res.OK = true
	logger.Info().Msg("tool call succeeded")
	return res, nil
}

// KindOf classifies an error returned by Execute.
func KindOf(err error) models.ErrorKind {
	switch {
	case err == nil:
		return models.KindNone
	case errors.Is(err, storage.ErrNotFound):
		return models.KindNotFound
	case errors.Is(err, auth.ErrUnauthorized):
		return models.KindUnauthorized
	case errors.Is(err, ErrConsentRequired):
		return models.KindConsentRequired
	case errors.Is(err, ErrUnknownTool):
		return models.KindUnknownTool
	default:
		return models.KindInternal
	}
}

func (r *Registry) getVitals(ctx context.Context, sess *session.Session, traceID string, call Call) (models.ToolResult, error) {
	p, err := r.patient(ctx, call.PatientID)
	if err != nil {
		return models.ToolResult{}, err
	}
	return models.ToolResult{
		Message: "Vitals retrieved",
		Payload: map[string]any{"patient_id": p.ID, "name": p.Name, "vitals": p.Vitals},
	}, nil
}

func (r *Registry) checkThresholds(ctx context.Context, sess *session.Session, traceID string, call Call) (models.ToolResult, error) {
	if err := r.authorize(sess, traceID, CheckThresholds, call.PatientID, models.ScopeVitalsRead); err != nil {
		return models.ToolResult{}, err
	}
	p, err := r.patient(ctx, call.PatientID)
	if err != nil {
		return models.ToolResult{}, err
	}

	alerts := rules.Evaluate(p.Vitals)
	sess.Audit.AddTraced(traceID, string(CheckThresholds), p.ID, models.StatusOK, sess.Gateway.Scopes())
	return models.ToolResult{
		Message: "Thresholds checked",
		Payload: map[string]any{"alerts": rules.Messages(alerts)},
	}, nil
}

func (r *Registry) alertDoctor(ctx context.Context, sess *session.Session, traceID string, call Call) (models.ToolResult, error) {
	if err := r.authorize(sess, traceID, AlertDoctor, call.PatientID, models.ScopeAlertsWrite); err != nil {
		return models.ToolResult{}, err
	}
	p, err := r.patient(ctx, call.PatientID)
	if err != nil {
		return models.ToolResult{}, err
	}

	if !sess.Consent.HasConsent(p.ID) {
		sess.Audit.AddTraced(traceID, string(AlertDoctor), p.ID, models.StatusBlockedNoConsent, sess.Gateway.Scopes())
		return models.ToolResult{
			Message: fmt.Sprintf("Consent not captured for %s. Action blocked.", p.ID),
		}, fmt.Errorf("%w for patient %s", ErrConsentRequired, p.ID)
	}

	msg := strings.TrimSpace(call.Message)
	if msg == "" {
		msg = DefaultAlertMessage
	}
	sent, err := r.notifier.NotifyDoctor(ctx, models.DoctorAlert{
		PatientID:   p.ID,
		PatientName: p.DisplayName(),
		Message:     msg,
		TraceID:     traceID,
	})
	if err != nil {
		return models.ToolResult{}, fmt.Errorf("notifying doctor: %w", err)
	}

	sess.Audit.AddTraced(traceID, string(AlertDoctor), p.ID, models.StatusSent, sess.Gateway.Scopes())
	return models.ToolResult{
		Message: fmt.Sprintf("Doctor notified for %s with message: %s", p.DisplayName(), msg),
		Payload: map[string]any{"notification_id": sent.ID},
	}, nil
}

// authorize checks scope and records a forbidden event on denial.
func (r *Registry) authorize(sess *session.Session, traceID string, tool Name, subject, scope string) error {
	if err := sess.Gateway.Require(scope); err != nil {
		sess.Audit.AddTraced(traceID, string(tool), subject, models.StatusForbidden, sess.Gateway.Scopes())
		return err
	}
	return nil
}

func (r *Registry) patient(ctx context.Context, id string) (*models.Patient, error) {
	p, err := r.store.GetPatient(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("patient %s %w", id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("loading patient %s: %w", id, err)
	}
	return p, nil
}

func failure(traceID, msg string, err error) models.ToolResult {
	return models.ToolResult{Message: msg, TraceID: traceID, Kind: KindOf(err)}
}
