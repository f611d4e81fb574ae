package models

import (
	"time"
)

type SweepState string

const (
	SweepIdle      SweepState = "idle"
	SweepInitiated SweepState = "initiated"
	SweepFetching  SweepState = "fetching"
	SweepComparing SweepState = "comparing"
	SweepCompleted SweepState = "completed"
	SweepPartial   SweepState = "partial"
	SweepCancelled SweepState = "cancelled"
)

// Terminal reports whether no more comparisons will be attempted
func (s SweepState) Terminal() bool {
	switch s {
	case SweepCompleted, SweepPartial, SweepCancelled:
		return true
	default:
		return false
	}
}

// Progress is the queryable completion state of a group sweep
type Progress struct {
	State     SweepState `bson:"state" json:"state"`
	Expected  int        `bson:"expected" json:"expected"`
	Completed int        `bson:"completed" json:"completed"`
	Failed    int        `bson:"failed" json:"failed"`
}

// Pending is the number of comparisons that have neither completed nor failed
func (p Progress) Pending() int {
	n := p.Expected - p.Completed - p.Failed
	if n < 0 {
		return 0
	}
	return n
}

// Group is a named comparison campaign over a set of repositories
type Group struct {
	Sha            string    `bson:"sha" json:"sha"`
	NumberOfRepos  int       `bson:"numberOfRepos" json:"numberOfRepos"`
	RepositoryShas []string  `bson:"repositoryShas" json:"repositoryShas"`
	ComparisonShas []string  `bson:"comparisonShas" json:"comparisonShas"`
	Progress       Progress  `bson:"progress" json:"progress"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt" json:"updatedAt"`
}

// HasComparison reports whether the comparison is linked to the group
func (g *Group) HasComparison(comparisonSha string) bool {
	for _, sha := range g.ComparisonShas {
		if sha == comparisonSha {
			return true
		}
	}
	return false
}
