package repository

import (
	"context"
	"errors"

	"github.com/RishiKendai/clonescope/internal/models"
)

var (
	// ErrNotFound is returned when a lookup by identity matches nothing
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a create collides with an existing identity
	ErrDuplicate = errors.New("duplicate identity")
)

// Store is the persistence contract of the comparison engine. Repositories and
// files are upserted by identity; comparisons, pairs and groups are created once
// and only grow afterwards.
type Store interface {
	UpsertRepository(ctx context.Context, repo *models.Repository) (*models.Repository, error)
	GetRepository(ctx context.Context, sha string) (*models.Repository, error)
	ListRepositories(ctx context.Context, shas []string) ([]*models.Repository, error)

	GetComparison(ctx context.Context, sha string) (*models.Comparison, error)
	ListComparisons(ctx context.Context, shas []string) ([]*models.Comparison, error)
	AllComparisons(ctx context.Context) ([]*models.Comparison, error)
	// CreateComparison atomically inserts the comparison, links it to its
	// repositories, creates missing files and inserts the pairs. A comparison
	// with the same sha yields ErrDuplicate and nothing is written.
	CreateComparison(ctx context.Context, comparison *models.Comparison, files []*models.File, pairs []*models.Pair) error
	// ReplaceComparison atomically swaps the summary and pairs of an existing
	// comparison, or creates it when absent.
	ReplaceComparison(ctx context.Context, comparison *models.Comparison, files []*models.File, pairs []*models.Pair) error

	GetPair(ctx context.Context, id string) (*models.Pair, error)
	ListPairs(ctx context.Context, comparisonShas []string) ([]*models.Pair, error)
	AllPairs(ctx context.Context) ([]*models.Pair, error)

	GetFile(ctx context.Context, repositorySha, sha string) (*models.File, error)
	ListFiles(ctx context.Context, repositoryShas []string) ([]*models.File, error)

	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, sha string) (*models.Group, error)
	ListGroups(ctx context.Context) ([]*models.Group, error)
	UpdateGroupMembers(ctx context.Context, sha string, repositoryShas []string, numberOfRepos int) error
	LinkComparison(ctx context.Context, groupSha, comparisonSha string) error
	UpdateGroupProgress(ctx context.Context, sha string, progress models.Progress) error
}
