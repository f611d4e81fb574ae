package plagiarism

import (
	"sort"

	"github.com/RishiKendai/clonescope/internal/models"
	"github.com/RishiKendai/clonescope/internal/stats"
)

const topK = 3

// Risk labels of a comparison
const (
	RiskClean            = "clean"
	RiskSuspicious       = "suspicious"
	RiskHighlySuspicious = "highly suspicious"
	RiskNearCopy         = "near copy"
)

// ComparisonSummary condenses the pairs of one comparison
type ComparisonSummary struct {
	Similarity    float64
	MaxSimilarity float64
	PairCount     int
	Risk          string
}

// Summarize computes the mean and max pair similarity. The risk label is taken
// from the average of the top K pair similarities, so a few near-identical
// files flag a comparison even when most files differ.
func Summarize(pairs []*models.Pair) ComparisonSummary {
	if len(pairs) == 0 {
		return ComparisonSummary{Risk: RiskClean}
	}

	similarities := make([]float64, len(pairs))
	for i, p := range pairs {
		similarities[i] = p.Similarity
	}

	return ComparisonSummary{
		Similarity:    stats.Mean(similarities),
		MaxSimilarity: stats.Max(similarities),
		PairCount:     len(pairs),
		Risk:          RiskLevel(TopKScore(similarities, topK)),
	}
}

// TopKScore averages the k highest scores
func TopKScore(scores []float64, k int) float64 {
	if len(scores) == 0 || k <= 0 {
		return 0
	}
	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	if len(sorted) < k {
		k = len(sorted)
	}
	return stats.Mean(sorted[:k])
}

// RiskLevel returns risk level based on a similarity score
func RiskLevel(score float64) string {
	if score < 0.3 {
		return RiskClean
	} else if score < 0.6 {
		return RiskSuspicious
	} else if score < 0.85 {
		return RiskHighlySuspicious
	}
	return RiskNearCopy
}
