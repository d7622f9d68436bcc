package rules

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/org/vitalguard/pkg/models"
)

func normal() models.Vitals {
	return models.Vitals{HeartRate: 80, SpO2: 98, BloodPressure: "120/80", Temperature: 36.8}
}

func TestEvaluateWithinLimits(t *testing.T) {
	cases := []models.Vitals{
		normal(),
		{HeartRate: 120, SpO2: 95, Temperature: 38.0},
		{HeartRate: 40, SpO2: 100, Temperature: 35.0},
	}
	for _, v := range cases {
		if got := Evaluate(v); len(got) != 0 {
			t.Errorf("vitals %+v: expected no alerts, got %v", v, got)
		}
	}
}

func TestSpO2Tiers(t *testing.T) {
	v := normal()
	v.SpO2 = 94
	if got, want := Messages(Evaluate(v)), []string{"Low SpO2 detected"}; !reflect.DeepEqual(got, want) {
		t.Errorf("spo2=94: got %v, want %v", got, want)
	}

	v.SpO2 = 89
	got := Evaluate(v)
	want := []string{"Low SpO2 detected", "CRITICAL: SpO2 dangerously low!"}
	if !reflect.DeepEqual(Messages(got), want) {
		t.Fatalf("spo2=89: got %v, want %v", Messages(got), want)
	}
	if got[1].Level != LevelCritical || got[1].Signal != SignalSpO2 {
		t.Errorf("expected critical spo2 alert, got %+v", got[1])
	}
}

func TestTierBoundaries(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(*models.Vitals)
		check    int
		critical int
	}{
		{"hr 121", func(v *models.Vitals) { v.HeartRate = 121 }, 1, 0},
		{"hr 130", func(v *models.Vitals) { v.HeartRate = 130 }, 1, 0},
		{"hr 131", func(v *models.Vitals) { v.HeartRate = 131 }, 1, 1},
		{"temp 38.1", func(v *models.Vitals) { v.Temperature = 38.1 }, 1, 0},
		{"temp 39.5", func(v *models.Vitals) { v.Temperature = 39.5 }, 1, 0},
		{"temp 39.6", func(v *models.Vitals) { v.Temperature = 39.6 }, 1, 1},
		{"spo2 90", func(v *models.Vitals) { v.SpO2 = 90 }, 1, 0},
		{"spo2 reported as 0", func(v *models.Vitals) { v.SpO2 = 0 }, 1, 1},
		{"spo2 missing", func(v *models.Vitals) { v.SpO2, v.SpO2Missing = 0, true }, 0, 0},
	}
	for _, tc := range cases {
		v := normal()
		tc.mutate(&v)
		if got := len(Check(v)); got != tc.check {
			t.Errorf("%s: expected %d check alerts, got %d", tc.name, tc.check, got)
		}
		if got := len(Critical(v)); got != tc.critical {
			t.Errorf("%s: expected %d critical alerts, got %d", tc.name, tc.critical, got)
		}
	}
}

func TestEvaluateOrder(t *testing.T) {
	v := models.Vitals{HeartRate: 140, SpO2: 85, Temperature: 40}
	want := []string{
		"Low SpO2 detected",
		"High heart rate detected",
		"High fever detected",
		"CRITICAL: SpO2 dangerously low!",
		"CRITICAL: Severe tachycardia!",
		"CRITICAL: High-grade fever!",
	}
	if got := Messages(Evaluate(v)); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestMessagesNeverNil(t *testing.T) {
	if Messages(nil) == nil {
		t.Error("expected empty, non-nil slice")
	}
}

func TestDecodedSpO2Presence(t *testing.T) {
	cases := []struct {
		name     string
		doc      string
		check    int
		critical int
	}{
		{"explicit zero", `{"heart_rate": 80, "spo2": 0, "temperature": 36.8}`, 1, 1},
		{"absent", `{"heart_rate": 80, "temperature": 36.8}`, 0, 0},
		{"normal", `{"heart_rate": 80, "spo2": 98, "temperature": 36.8}`, 0, 0},
	}
	for _, tc := range cases {
		var v models.Vitals
		if err := json.Unmarshal([]byte(tc.doc), &v); err != nil {
			t.Fatalf("%s: decoding: %v", tc.name, err)
		}
		if got := len(Check(v)); got != tc.check {
			t.Errorf("%s: expected %d check alerts, got %d", tc.name, tc.check, got)
		}
		if got := len(Critical(v)); got != tc.critical {
			t.Errorf("%s: expected %d critical alerts, got %d", tc.name, tc.critical, got)
		}
	}
}
