// Package consent records per-patient consent captured before sensitive
// actions.
package consent

import (
	"sort"
	"time"

	"github.com/org/vitalguard/pkg/models"
)

// Ledger maps a patient to its single consent record. Capturing again
// replaces the previous record; no history is kept and nothing expires.
type Ledger struct {
	records map[string]models.ConsentRecord
	now     func() time.Time
}

// NewLedger creates an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{records: map[string]models.ConsentRecord{}, now: time.Now}
}

// Capture stores consent for patientID, overwriting any earlier record.
func (l *Ledger) Capture(patientID, purpose string) models.ConsentRecord {
	rec := models.ConsentRecord{
		PatientID: patientID,
		Purpose:   purpose,
		Timestamp: l.now().UTC(),
	}
	l.records[patientID] = rec
	return rec
}

// HasConsent reports whether any consent was captured for patientID.
func (l *Ledger) HasConsent(patientID string) bool {
	_, ok := l.records[patientID]
	return ok
}

// Get returns the consent record for patientID.
func (l *Ledger) Get(patientID string) (models.ConsentRecord, bool) {
	rec, ok := l.records[patientID]
	return rec, ok
}

// List returns all records ordered by patient id.
func (l *Ledger) List() []models.ConsentRecord {
	out := make([]models.ConsentRecord, 0, len(l.records))
	for _, rec := range l.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PatientID < out[j].PatientID })
	return out
}
