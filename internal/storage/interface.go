package storage

import (
	"context"
	"errors"

	"github.com/org/vitalguard/pkg/models"
)

// ErrNotFound is returned when a requested patient does not exist.
var ErrNotFound = errors.New("not found")

// ErrMalformed is returned when persisted vitals data cannot be decoded.
var ErrMalformed = errors.New("malformed vitals data")

// VitalsStore defines the persistence interface for patient vitals.
type VitalsStore interface {
	// ListPatientIDs returns all patient ids in ascending order.
	ListPatientIDs(ctx context.Context) ([]string, error)
	// GetPatient returns a copy of the stored patient record.
	GetPatient(ctx context.Context, id string) (*models.Patient, error)
	// SavePatient replaces the stored record for p.ID, creating it if needed.
	SavePatient(ctx context.Context, p *models.Patient) error

	// Lifecycle
	Close()
}
