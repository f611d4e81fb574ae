package plagiarism

import (
	"testing"

	"github.com/RishiKendai/clonescope/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	t.Run("should report a clean empty comparison", func(t *testing.T) {
		// when
		summary := Summarize(nil)

		// then
		assert.Equal(t, ComparisonSummary{Risk: RiskClean}, summary)
	})

	t.Run("should average similarities and rate the top ones", func(t *testing.T) {
		// given
		pairs := []*models.Pair{
			{Similarity: 0.9}, {Similarity: 0.9}, {Similarity: 0.9}, {Similarity: 0.1},
		}

		// when
		summary := Summarize(pairs)

		// then
		assert.InDelta(t, 0.7, summary.Similarity, 1e-9)
		assert.InDelta(t, 0.9, summary.MaxSimilarity, 1e-9)
		assert.Equal(t, 4, summary.PairCount)
		assert.Equal(t, RiskNearCopy, summary.Risk)
	})
}

func TestRiskLevel(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0, RiskClean},
		{0.29, RiskClean},
		{0.3, RiskSuspicious},
		{0.6, RiskHighlySuspicious},
		{0.85, RiskNearCopy},
		{1, RiskNearCopy},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RiskLevel(tt.score), "score %v", tt.score)
	}
}
