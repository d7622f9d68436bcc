package notify

import (
	"context"
	"testing"

	"github.com/org/vitalguard/pkg/models"
)

func TestOutboxRecords(t *testing.T) {
	o := NewOutbox(0)
	got, err := o.NotifyDoctor(context.Background(), models.DoctorAlert{PatientID: "P001", Message: "check on patient"})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if got.ID == "" || got.SentAt.IsZero() {
		t.Errorf("expected id and send time, got %+v", got)
	}
	if sent := o.Sent(); len(sent) != 1 || sent[0].ID != got.ID {
		t.Errorf("unexpected outbox %+v", sent)
	}
}

func TestOutboxLimit(t *testing.T) {
	o := NewOutbox(2)
	for _, msg := range []string{"a", "b", "c"} {
		if _, err := o.NotifyDoctor(context.Background(), models.DoctorAlert{PatientID: "P001", Message: msg}); err != nil {
			t.Fatal(err)
		}
	}
	sent := o.Sent()
	if len(sent) != 2 || sent[0].Message != "b" || sent[1].Message != "c" {
		t.Errorf("expected the two newest alerts, got %+v", sent)
	}
}

func TestOutboxRejectsMissingPatient(t *testing.T) {
	o := NewOutbox(0)
	if _, err := o.NotifyDoctor(context.Background(), models.DoctorAlert{Message: "x"}); err == nil {
		t.Error("expected error")
	}
}

func TestOutboxHonoursCancelledContext(t *testing.T) {
	o := NewOutbox(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := o.NotifyDoctor(ctx, models.DoctorAlert{PatientID: "P001"}); err == nil {
		t.Error("expected context error")
	}
	if len(o.Sent()) != 0 {
		t.Error("nothing should be recorded")
	}
}
