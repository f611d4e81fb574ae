// Package engine computes token-level similarity between source files.
//
// Engines receive the union of the files of the repositories under comparison
// and return candidate matches; deciding which matches are kept is the
// caller's job.
package engine

import (
	"context"

	"github.com/RishiKendai/clonescope/internal/models"
)

// File is one tokenizable input of an analysis
type File struct {
	ID       string          `json:"id"`
	Path     string          `json:"path"`
	Content  string          `json:"content"`
	Source   string          `json:"sourceRepoId"`
	Category models.Category `json:"category"`
}

// Match is a candidate similarity between two input files
type Match struct {
	LeftID          string            `json:"leftFile"`
	RightID         string            `json:"rightFile"`
	Similarity      float64           `json:"similarity"`
	Overlap         int               `json:"overlap"`
	LongestFragment int               `json:"longestFragment"`
	Fragments       []models.Fragment `json:"fragments"`
}

// Engine analyzes a set of files and returns all candidate matches
type Engine interface {
	Analyze(ctx context.Context, files []File) ([]Match, error)
}
