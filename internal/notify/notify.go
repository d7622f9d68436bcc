// Package notify delivers doctor alerts. The only channel is an in-memory
// outbox; there is no real messaging integration.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/org/vitalguard/pkg/models"
	"github.com/rs/zerolog/log"
)

// Notifier sends an alert to the attending doctor.
type Notifier interface {
	NotifyDoctor(ctx context.Context, alert models.DoctorAlert) (models.DoctorAlert, error)
}

// Outbox is a Notifier that keeps every sent alert in memory.
type Outbox struct {
	mu    sync.RWMutex
	sent  []models.DoctorAlert
	limit int
	now   func() time.Time
}

// NewOutbox creates an Outbox retaining at most limit alerts (0 = unbounded).
func NewOutbox(limit int) *Outbox {
	return &Outbox{limit: limit, now: time.Now}
}

// NotifyDoctor assigns an id and send time, records the alert and logs it.
func (o *Outbox) NotifyDoctor(ctx context.Context, alert models.DoctorAlert) (models.DoctorAlert, error) {
	if err := ctx.Err(); err != nil {
		return models.DoctorAlert{}, err
	}
	if alert.PatientID == "" {
		return models.DoctorAlert{}, errors.New("alert has no patient")
	}
	alert.ID = uuid.NewString()
	alert.SentAt = o.now().UTC()

	o.mu.Lock()
	o.sent = append(o.sent, alert)
	if o.limit > 0 && len(o.sent) > o.limit {
		o.sent = append([]models.DoctorAlert(nil), o.sent[len(o.sent)-o.limit:]...)
	}
	o.mu.Unlock()

	log.Info().
		Str("notification_id", alert.ID).
		Str("patient", alert.PatientID).
		Str("trace_id", alert.TraceID).
		Str("message", alert.Message).
		Msg("doctor notified")
	return alert, nil
}

// Sent returns recorded alerts, oldest first.
func (o *Outbox) Sent() []models.DoctorAlert {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]models.DoctorAlert{}, o.sent...)
}
