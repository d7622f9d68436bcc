// Package monitor implements the operator dashboard actions: browsing
// patients, refreshing simulated vitals and running threshold checks.
package monitor

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/org/vitalguard/internal/rules"
	"github.com/org/vitalguard/internal/session"
	"github.com/org/vitalguard/internal/storage"
	"github.com/org/vitalguard/internal/tools"
	"github.com/org/vitalguard/pkg/models"
	"github.com/rs/zerolog/log"
)

// Audit actions recorded by the dashboard.
const (
	ActionCheckThresholds = "check_thresholds"
	ActionAutoAlert       = "auto_threshold_alert"
)

// DefaultHistoryLimit caps the trend kept per patient.
const DefaultHistoryLimit = 60

// View is what the dashboard shows for one patient.
type View struct {
	Patient  *models.Patient `json:"patient"`
	Critical []rules.Alert   `json:"critical"`
}

// CheckResult is the outcome of a manual threshold check.
type CheckResult struct {
	PatientID string        `json:"patient_id"`
	Alerts    []rules.Alert `json:"alerts"`
	Messages  []string      `json:"messages"`
	TraceID   string        `json:"trace_id"`
}

// Service wires the store, the tool registry and the vitals simulator.
type Service struct {
	store        storage.VitalsStore
	tools        *tools.Registry
	historyLimit int

	rngMu sync.Mutex
	rng   *rand.Rand
	now   func() time.Time
}

// NewService creates a Service. historyLimit <= 0 uses DefaultHistoryLimit.
func NewService(store storage.VitalsStore, registry *tools.Registry, historyLimit int) *Service {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Service{
		store:        store,
		tools:        registry,
		historyLimit: historyLimit,
		rng:          rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
		now:          time.Now,
	}
}

// Patients returns the ids of all patients.
func (s *Service) Patients(ctx context.Context) ([]string, error) {
	ids, err := s.store.ListPatientIDs(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// View loads a patient and runs the critical tier. When anything critical
// fires, a triggered event is appended to the session's audit log.
func (s *Service) View(ctx context.Context, sess *session.Session, id string) (*View, error) {
	p, err := s.store.GetPatient(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("patient %s: %w", id, err)
	}
	critical := rules.Critical(p.Vitals)
	if len(critical) > 0 {
		sess.Audit.Add(ActionAutoAlert, p.ID, models.StatusTriggered, sess.Gateway.Scopes())
		log.Warn().Str("patient", p.ID).Strs("alerts", rules.Messages(critical)).Msg("critical vitals")
	}
	return &View{Patient: p, Critical: critical}, nil
}

// Refresh perturbs the patient's current vitals, appends the new snapshot
// to the trend and rewrites the store. The read-modify-write runs under the
// caller's session lock only; two sessions refreshing the same patient at
// once can lose one step.
func (s *Service) Refresh(ctx context.Context, id string) (*models.Patient, error) {
	p, err := s.store.GetPatient(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("patient %s: %w", id, err)
	}

	s.rngMu.Lock()
	p.Vitals = Perturb(p.Vitals, s.rng, s.now().UTC())
	s.rngMu.Unlock()
	p.Vitals.PatientID = p.ID

	p.History = append(p.History, p.Vitals)
	if over := len(p.History) - s.historyLimit; over > 0 {
		p.History = append([]models.Vitals(nil), p.History[over:]...)
	}

	if err := s.store.SavePatient(ctx, p); err != nil {
		return nil, fmt.Errorf("saving patient %s: %w", id, err)
	}
	log.Debug().Str("patient", id).Int("heart_rate", p.Vitals.HeartRate).Int("spo2", p.Vitals.SpO2).
		Float64("temperature", p.Vitals.Temperature).Msg("vitals refreshed")
	return p, nil
}

// CheckThresholds runs the check tier for the dashboard and records an ok
// event. Unlike the check_thresholds tool it needs no token.
func (s *Service) CheckThresholds(ctx context.Context, sess *session.Session, id string) (*CheckResult, error) {
	p, err := s.store.GetPatient(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("patient %s: %w", id, err)
	}
	alerts := rules.Check(p.Vitals)
	e := sess.Audit.Add(ActionCheckThresholds, p.ID, models.StatusOK, sess.Gateway.Scopes())
	return &CheckResult{
		PatientID: p.ID,
		Alerts:    alerts,
		Messages:  rules.Messages(alerts),
		TraceID:   e.TraceID,
	}, nil
}

// AlertDoctor sends the dashboard alert through the alert_doctor tool so
// the scope and consent rules are the same for operators and agents.
func (s *Service) AlertDoctor(ctx context.Context, sess *session.Session, id, message string) (models.ToolResult, error) {
	return s.tools.Execute(ctx, sess, tools.Call{Tool: string(tools.AlertDoctor), PatientID: id, Message: message})
}

// CaptureConsent records consent for an existing patient. An empty purpose
// uses the default alerting purpose.
func (s *Service) CaptureConsent(ctx context.Context, sess *session.Session, id, purpose string) (models.ConsentRecord, error) {
	if _, err := s.store.GetPatient(ctx, id); err != nil {
		return models.ConsentRecord{}, fmt.Errorf("patient %s: %w", id, err)
	}
	if purpose == "" {
		purpose = tools.ConsentPurpose
	}
	return sess.Consent.Capture(id, purpose), nil
}
