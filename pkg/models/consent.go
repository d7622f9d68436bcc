package models

import "time"

// ConsentRecord is evidence that a patient's consent was captured for a
// stated purpose. It never expires.
type ConsentRecord struct {
	PatientID string    `json:"patient_id"`
	Purpose   string    `json:"purpose"`
	Timestamp time.Time `json:"timestamp"`
}
