// Package stats holds the numeric helpers shared by the report builders.
// Empty input yields 0 rather than NaN so aggregated output never carries NaN.
package stats

import (
	"math"

	"github.com/montanaflynn/stats"
)

// Mean returns the arithmetic mean of values, or 0 for an empty set
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m, err := stats.Mean(stats.Float64Data(values))
	if err != nil || math.IsNaN(m) {
		return 0
	}
	return m
}

// PopulationStdDev returns sqrt(mean((x-mean)^2)) with divisor N, or 0 for an empty set
func PopulationStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sd, err := stats.StandardDeviationPopulation(stats.Float64Data(values))
	if err != nil || math.IsNaN(sd) {
		return 0
	}
	return sd
}

// Max returns the largest value, or 0 for an empty set
func Max(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m, err := stats.Max(stats.Float64Data(values))
	if err != nil {
		return 0
	}
	return m
}

// Ratio divides part by whole, returning 0 when whole is not positive
func Ratio(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole
}
