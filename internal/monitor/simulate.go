package monitor

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/org/vitalguard/pkg/models"
)

// Simulator bounds.
const (
	minHeartRate   = 60
	maxHeartRate   = 140
	minSpO2        = 85
	maxSpO2        = 100
	minTemperature = 35.5
	maxTemperature = 40.0
)

// Perturb returns v after one random-walk step: heart rate moves by up to
// 5 bpm, SpO2 by up to 2 points and temperature by up to 0.2 °C, each
// clipped to a plausible range. A missing SpO2 stays missing.
func Perturb(v models.Vitals, rng *rand.Rand, at time.Time) models.Vitals {
	v.HeartRate = clampInt(v.HeartRate+rng.IntN(11)-5, minHeartRate, maxHeartRate)
	if !v.SpO2Missing {
		v.SpO2 = clampInt(v.SpO2+rng.IntN(5)-2, minSpO2, maxSpO2)
	}
	t := v.Temperature + (rng.Float64()*0.4 - 0.2)
	v.Temperature = math.Round(math.Min(math.Max(t, minTemperature), maxTemperature)*10) / 10
	v.Timestamp = at
	return v
}

func clampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
