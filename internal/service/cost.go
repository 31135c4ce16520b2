package service

import (
	"math"
	"time"
)

// CalculateCost prices the interval [parkedAt, leftAt] at hourlyRate per
// hour, rounded to two decimals. Fractional hours are kept until the final
// rounding, and a negative interval costs nothing.
func CalculateCost(parkedAt, leftAt time.Time, hourlyRate float64) float64 {
	hours := leftAt.Sub(parkedAt).Hours()
	if hours <= 0 || hourlyRate <= 0 {
		return 0
	}
	return math.Round(hours*hourlyRate*100) / 100
}
