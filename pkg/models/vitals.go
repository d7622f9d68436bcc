package models

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrNoReadings is returned when a patient entry holds an empty list of
// snapshots. Loaders skip such entries instead of rejecting the document.
var ErrNoReadings = errors.New("no vitals readings")

// Vitals is one snapshot of a patient's vital signs.
type Vitals struct {
	PatientID     string    `json:"patient_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	HeartRate     int       `json:"heart_rate"`
	SpO2          int       `json:"spo2"`
	BloodPressure string    `json:"blood_pressure"`
	Temperature   float64   `json:"temperature"`

	// SpO2Missing is set when the reading carried no spo2 field at all. A
	// reported 0 is a real value; a missing one is not.
	SpO2Missing bool `json:"-"`
}

// MarshalJSON omits spo2 when it was never reported, so a missing reading
// survives a save and reload.
func (v Vitals) MarshalJSON() ([]byte, error) {
	type plain Vitals
	out := struct {
		plain
		SpO2 *int `json:"spo2,omitempty"`
	}{plain: plain(v)}
	if !v.SpO2Missing {
		spo2 := v.SpO2
		out.SpO2 = &spo2
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the short field names older data files use
// (ts, temp, bp) alongside the canonical ones.
func (v *Vitals) UnmarshalJSON(data []byte) error {
	var raw struct {
		PatientID     string          `json:"patient_id"`
		Timestamp     json.RawMessage `json:"timestamp"`
		TS            json.RawMessage `json:"ts"`
		HeartRate     *float64        `json:"heart_rate"`
		SpO2          *float64        `json:"spo2"`
		BloodPressure *string         `json:"blood_pressure"`
		BP            *string         `json:"bp"`
		Temperature   *float64        `json:"temperature"`
		Temp          *float64        `json:"temp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := Vitals{PatientID: raw.PatientID}
	ts := raw.Timestamp
	if len(ts) == 0 {
		ts = raw.TS
	}
	if len(ts) > 0 {
		t, err := parseTimestamp(ts)
		if err != nil {
			return err
		}
		out.Timestamp = t
	}
	if raw.HeartRate != nil {
		out.HeartRate = int(*raw.HeartRate)
	}
	if raw.SpO2 != nil {
		out.SpO2 = int(*raw.SpO2)
	} else {
		out.SpO2Missing = true
	}
	switch {
	case raw.BloodPressure != nil:
		out.BloodPressure = *raw.BloodPressure
	case raw.BP != nil:
		out.BloodPressure = *raw.BP
	}
	switch {
	case raw.Temperature != nil:
		out.Temperature = *raw.Temperature
	case raw.Temp != nil:
		out.Temperature = *raw.Temp
	}
	*v = out
	return nil
}

// parseTimestamp reads either an RFC 3339 string, a "2006-01-02 15:04:05"
// string, or unix seconds.
func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, errors.New("unrecognised timestamp " + s)
	}
	var secs float64
	if err := json.Unmarshal(raw, &secs); err != nil {
		return time.Time{}, err
	}
	return time.Unix(int64(secs), 0).UTC(), nil
}

// Patient is the stored record for one monitored patient.
type Patient struct {
	ID      string   `json:"-"`
	Name    string   `json:"name,omitempty"`
	Vitals  Vitals   `json:"vitals"`
	History []Vitals `json:"history,omitempty"`
}

// UnmarshalJSON accepts both layouts seen in vitals files: a bare array of
// snapshots (last one current) or a {name, vitals, history} object.
func (p *Patient) UnmarshalJSON(data []byte) error {
	var snapshots []Vitals
	if err := json.Unmarshal(data, &snapshots); err == nil {
		if len(snapshots) == 0 {
			return ErrNoReadings
		}
		*p = Patient{
			Vitals:  snapshots[len(snapshots)-1],
			History: snapshots,
		}
		return nil
	}

	type nested Patient
	var n nested
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*p = Patient(n)
	return nil
}

// DisplayName returns the patient's name, falling back to the id.
func (p *Patient) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// Clone returns a deep copy safe to hand out of a store.
func (p *Patient) Clone() *Patient {
	c := *p
	if p.History != nil {
		c.History = make([]Vitals, len(p.History))
		copy(c.History, p.History)
	}
	return &c
}
