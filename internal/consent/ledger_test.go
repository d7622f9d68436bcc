package consent

import (
	"testing"
	"time"
)

func TestCaptureAndHasConsent(t *testing.T) {
	l := NewLedger()
	if l.HasConsent("P001") {
		t.Fatal("expected no consent on a fresh ledger")
	}

	rec := l.Capture("P001", "Notify doctor about current condition.")
	if !l.HasConsent("P001") {
		t.Error("expected consent after capture")
	}
	if l.HasConsent("P002") {
		t.Error("consent must be per patient")
	}
	if rec.PatientID != "P001" || rec.Timestamp.IsZero() {
		t.Errorf("unexpected record %+v", rec)
	}
}

func TestCaptureOverwrites(t *testing.T) {
	l := NewLedger()
	clock := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }
	l.Capture("P001", "first")

	clock = clock.Add(time.Hour)
	l.Capture("P001", "second")

	rec, ok := l.Get("P001")
	if !ok {
		t.Fatal("expected record")
	}
	if rec.Purpose != "second" || !rec.Timestamp.Equal(clock) {
		t.Errorf("expected latest capture to win, got %+v", rec)
	}
	if n := len(l.List()); n != 1 {
		t.Errorf("expected one record, got %d", n)
	}
}

func TestEmptyPurposeStillCounts(t *testing.T) {
	l := NewLedger()
	l.Capture("P003", "")
	if !l.HasConsent("P003") {
		t.Error("purpose text must not be interpreted")
	}
}

func TestListOrder(t *testing.T) {
	l := NewLedger()
	for _, id := range []string{"P003", "P001", "P002"} {
		l.Capture(id, "x")
	}
	got := l.List()
	for i, want := range []string{"P001", "P002", "P003"} {
		if got[i].PatientID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, got[i].PatientID)
		}
	}
}
