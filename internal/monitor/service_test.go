package monitor

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/org/vitalguard/internal/notify"
	"github.com/org/vitalguard/internal/session"
	"github.com/org/vitalguard/internal/storage"
	"github.com/org/vitalguard/internal/tools"
	"github.com/org/vitalguard/pkg/models"
)

type memStore struct {
	patients map[string]*models.Patient
	saves    int
}

func (m *memStore) ListPatientIDs(_ context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.patients))
	for id := range m.patients {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memStore) GetPatient(_ context.Context, id string) (*models.Patient, error) {
	if p, ok := m.patients[id]; ok {
		return p.Clone(), nil
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) SavePatient(_ context.Context, p *models.Patient) error {
	m.saves++
	m.patients[p.ID] = p.Clone()
	return nil
}

func (m *memStore) Close() {}

func newTestService(limit int) (*Service, *memStore, *notify.Outbox) {
	store := &memStore{patients: map[string]*models.Patient{
		"P002": {ID: "P002", Name: "Jane Roe", Vitals: models.Vitals{HeartRate: 135, SpO2: 89, BloodPressure: "140/90", Temperature: 39.8}},
		"P001": {ID: "P001", Name: "John Doe", Vitals: models.Vitals{HeartRate: 88, SpO2: 94, BloodPressure: "120/80", Temperature: 37.0}},
		"P003": {ID: "P003", Name: "Ann Lee", Vitals: models.Vitals{HeartRate: 72, SpO2: 98, BloodPressure: "118/76", Temperature: 36.7}},
	}}
	outbox := notify.NewOutbox(0)
	svc := NewService(store, tools.NewRegistry(store, outbox), limit)
	svc.rng = rand.New(rand.NewPCG(1, 2))
	return svc, store, outbox
}

func TestPatientsSorted(t *testing.T) {
	svc, _, _ := newTestService(0)
	ids, err := svc.Patients(context.Background())
	if err != nil {
		t.Fatalf("Patients: %v", err)
	}
	want := []string{"P001", "P002", "P003"}
	if len(ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %s, want %s", i, ids[i], want[i])
		}
	}
}

func TestViewCriticalAppendsTriggered(t *testing.T) {
	svc, _, _ := newTestService(0)
	sess := session.New()
	ctx := context.Background()

	v, err := svc.View(ctx, sess, "P002")
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if len(v.Critical) != 3 {
		t.Errorf("expected 3 critical alerts, got %d", len(v.Critical))
	}
	events := sess.Audit.Events()
	if len(events) != 1 || events[0].Action != ActionAutoAlert || events[0].Status != models.StatusTriggered {
		t.Fatalf("unexpected audit events: %+v", events)
	}

	// P001 is only in the check tier: nothing critical, nothing audited.
	v, err = svc.View(ctx, sess, "P001")
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if len(v.Critical) != 0 {
		t.Errorf("expected no critical alerts, got %v", v.Critical)
	}
	if sess.Audit.Len() != 1 {
		t.Errorf("expected audit length 1, got %d", sess.Audit.Len())
	}
}

func TestViewNotFound(t *testing.T) {
	svc, _, _ := newTestService(0)
	_, err := svc.View(context.Background(), session.New(), "P404")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRefreshStaysInBoundsAndCapsHistory(t *testing.T) {
	svc, store, _ := newTestService(5)
	ctx := context.Background()
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	for i := 0; i < 200; i++ {
		p, err := svc.Refresh(ctx, "P002")
		if err != nil {
			t.Fatalf("Refresh: %v", err)
		}
		v := p.Vitals
		if v.HeartRate < minHeartRate || v.HeartRate > maxHeartRate {
			t.Fatalf("heart rate %d out of bounds", v.HeartRate)
		}
		if v.SpO2 < minSpO2 || v.SpO2 > maxSpO2 {
			t.Fatalf("spo2 %d out of bounds", v.SpO2)
		}
		if v.Temperature < minTemperature || v.Temperature > maxTemperature {
			t.Fatalf("temperature %.1f out of bounds", v.Temperature)
		}
		if !v.Timestamp.Equal(fixed) {
			t.Fatalf("timestamp not updated: %v", v.Timestamp)
		}
	}

	stored := store.patients["P002"]
	if len(stored.History) != 5 {
		t.Errorf("expected history capped at 5, got %d", len(stored.History))
	}
	if stored.History[len(stored.History)-1] != stored.Vitals {
		t.Error("last history entry should be the current vitals")
	}
	if store.saves != 200 {
		t.Errorf("expected 200 saves, got %d", store.saves)
	}
}

func TestPerturbStepSize(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	start := models.Vitals{HeartRate: 100, SpO2: 95, Temperature: 37.5}
	for i := 0; i < 500; i++ {
		v := Perturb(start, rng, time.Time{})
		if d := v.HeartRate - start.HeartRate; d < -5 || d > 5 {
			t.Fatalf("heart rate step %d too large", d)
		}
		if d := v.SpO2 - start.SpO2; d < -2 || d > 2 {
			t.Fatalf("spo2 step %d too large", d)
		}
		if d := v.Temperature - start.Temperature; d < -0.21 || d > 0.21 {
			t.Fatalf("temperature step %.2f too large", d)
		}
	}
}

func TestCheckThresholdsUngated(t *testing.T) {
	svc, _, _ := newTestService(0)
	sess := session.New()

	res, err := svc.CheckThresholds(context.Background(), sess, "P001")
	if err != nil {
		t.Fatalf("CheckThresholds: %v", err)
	}
	if len(res.Messages) != 1 || res.Messages[0] != "Low SpO2 detected" {
		t.Errorf("unexpected messages: %v", res.Messages)
	}
	events := sess.Audit.Events()
	if len(events) != 1 || events[0].Action != ActionCheckThresholds || events[0].Status != models.StatusOK {
		t.Fatalf("unexpected audit events: %+v", events)
	}
	if events[0].TraceID != res.TraceID {
		t.Errorf("trace id mismatch: %s vs %s", events[0].TraceID, res.TraceID)
	}
}

func TestAlertDoctorNeedsConsent(t *testing.T) {
	svc, _, outbox := newTestService(0)
	sess := session.New()
	ctx := context.Background()
	sess.Gateway.Issue([]string{models.ScopeVitalsRead, models.ScopeAlertsWrite})

	res, err := svc.AlertDoctor(ctx, sess, "P002", "")
	if !errors.Is(err, tools.ErrConsentRequired) || res.OK {
		t.Fatalf("expected consent required, got %v / %+v", err, res)
	}

	if _, err := svc.CaptureConsent(ctx, sess, "P002", ""); err != nil {
		t.Fatalf("CaptureConsent: %v", err)
	}
	rec, _ := sess.Consent.Get("P002")
	if rec.Purpose != tools.ConsentPurpose {
		t.Errorf("expected default purpose, got %q", rec.Purpose)
	}

	res, err = svc.AlertDoctor(ctx, sess, "P002", "")
	if err != nil || !res.OK {
		t.Fatalf("expected success, got %v / %+v", err, res)
	}
	if len(outbox.Sent()) != 1 {
		t.Errorf("expected one notification, got %d", len(outbox.Sent()))
	}
}

func TestCaptureConsentUnknownPatient(t *testing.T) {
	svc, _, _ := newTestService(0)
	sess := session.New()
	_, err := svc.CaptureConsent(context.Background(), sess, "P404", "")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if sess.Consent.HasConsent("P404") {
		t.Error("consent should not be recorded for unknown patient")
	}
}

func TestPerturbKeepsMissingSpO2(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 3))
	v := Perturb(models.Vitals{HeartRate: 80, SpO2Missing: true, Temperature: 36.9}, rng, time.Time{})
	if !v.SpO2Missing || v.SpO2 != 0 {
		t.Errorf("expected spo2 to stay missing, got %+v", v)
	}
}
