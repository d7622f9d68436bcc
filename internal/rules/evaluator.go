// Package rules evaluates vital-sign snapshots against fixed thresholds.
//
// Two tiers exist with different cutoffs for the same signals: the check
// tier runs when an operator or agent asks for a threshold check, the
// critical tier runs automatically whenever a patient is viewed. The tiers
// are kept separate; neither is derived from the other.
package rules

import "github.com/org/vitalguard/pkg/models"

// Level is the severity class of an alert.
type Level string

const (
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
)

// Signal names the vital sign an alert was raised for.
type Signal string

const (
	SignalSpO2        Signal = "spo2"
	SignalHeartRate   Signal = "heart_rate"
	SignalTemperature Signal = "temperature"
)

// Check tier cutoffs.
const (
	LowSpO2       = 95
	HighHeartRate = 120
	HighFever     = 38.0
)

// Critical tier cutoffs.
const (
	CriticalSpO2        = 90
	CriticalHeartRate   = 130
	CriticalTemperature = 39.5
)

// Alert is one triggered rule.
type Alert struct {
	Level   Level  `json:"level"`
	Signal  Signal `json:"signal"`
	Message string `json:"message"`
}

// Check runs the check tier.
func Check(v models.Vitals) []Alert {
	var alerts []Alert
	if reported(v) && v.SpO2 < LowSpO2 {
		alerts = append(alerts, Alert{LevelWarning, SignalSpO2, "Low SpO2 detected"})
	}
	if v.HeartRate > HighHeartRate {
		alerts = append(alerts, Alert{LevelWarning, SignalHeartRate, "High heart rate detected"})
	}
	if v.Temperature > HighFever {
		alerts = append(alerts, Alert{LevelWarning, SignalTemperature, "High fever detected"})
	}
	return alerts
}

// Critical runs the critical tier.
func Critical(v models.Vitals) []Alert {
	var alerts []Alert
	if reported(v) && v.SpO2 < CriticalSpO2 {
		alerts = append(alerts, Alert{LevelCritical, SignalSpO2, "CRITICAL: SpO2 dangerously low!"})
	}
	if v.HeartRate > CriticalHeartRate {
		alerts = append(alerts, Alert{LevelCritical, SignalHeartRate, "CRITICAL: Severe tachycardia!"})
	}
	if v.Temperature > CriticalTemperature {
		alerts = append(alerts, Alert{LevelCritical, SignalTemperature, "CRITICAL: High-grade fever!"})
	}
	return alerts
}

// Evaluate returns the check tier followed by the critical tier.
func Evaluate(v models.Vitals) []Alert {
	return append(Check(v), Critical(v)...)
}

// Messages flattens alerts to their messages, preserving order. It never
// returns nil so callers can serialise an empty list.
func Messages(alerts []Alert) []string {
	out := make([]string, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.Message)
	}
	return out
}

// reported is false when the reading had no spo2 field. A reported 0 is
// evaluated like any other value.
func reported(v models.Vitals) bool {
	return !v.SpO2Missing
}
