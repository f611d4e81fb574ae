package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	t.Parallel()

	t.Run("should return zero for an empty set", func(t *testing.T) {
		t.Parallel()

		// when
		m := Mean(nil)

		// then
		assert.Equal(t, 0.0, m)
		assert.False(t, math.IsNaN(m))
	})

	t.Run("should average the values", func(t *testing.T) {
		t.Parallel()

		// when
		m := Mean([]float64{0.2, 0.4, 0.9})

		// then
		assert.InDelta(t, 0.5, m, 1e-9)
	})
}

func TestPopulationStdDev(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{name: "should be zero for an empty set", values: nil, expected: 0},
		{name: "should be zero for a single value", values: []float64{0.8}, expected: 0},
		{name: "should be zero for identical values", values: []float64{0.5, 0.5, 0.5}, expected: 0},
		{name: "should divide by N not N-1", values: []float64{2, 4, 4, 4, 5, 5, 7, 9}, expected: 2},
		{name: "should handle two values", values: []float64{0.2, 0.6}, expected: 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// when
			sd := PopulationStdDev(tt.values)

			// then
			assert.InDelta(t, tt.expected, sd, 1e-9)
			assert.GreaterOrEqual(t, sd, 0.0)
		})
	}
}

func TestRatio(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, Ratio(3, 0))
	assert.InDelta(t, 0.75, Ratio(3, 4), 1e-9)
}
