// Package report turns the persisted pairs of a group into read projections:
// the category report, the folder graph and the pair listings.
//
// Every projection tolerates groups whose sweep is still running; a group
// with no linked comparisons yields empty collections, never an error.
package report

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/RishiKendai/clonescope/internal/models"
	"github.com/RishiKendai/clonescope/internal/repository"
)

var (
	ErrGroupNotFound = errors.New("group not found")
	ErrPairNotFound  = errors.New("pair not found")
	ErrFileNotFound  = errors.New("file not found")
)

type Builder struct {
	store repository.Store
}

func NewBuilder(store repository.Store) *Builder {
	return &Builder{store: store}
}

// groupData is everything a projection needs about one group
type groupData struct {
	group        *models.Group
	comparisons  []*models.Comparison
	repositories []*models.Repository
	repoBySha    map[string]*models.Repository
	pairs        []*models.Pair
	files        []*models.File
	pairsByFile  map[string][]*models.Pair
}

func (b *Builder) loadGroup(ctx context.Context, sha string) (*models.Group, error) {
	group, err := b.store.GetGroup(ctx, sha)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load group: %w", err)
	}
	return group, nil
}

func (b *Builder) load(ctx context.Context, sha string) (*groupData, error) {
	group, err := b.loadGroup(ctx, sha)
	if err != nil {
		return nil, err
	}

	comparisons, err := b.store.ListComparisons(ctx, group.ComparisonShas)
	if err != nil {
		return nil, fmt.Errorf("failed to load comparisons: %w", err)
	}

	// a repository may appear in several comparisons of the group
	repoShas := make([]string, 0, len(comparisons)*2)
	seen := make(map[string]bool)
	for _, c := range comparisons {
		for _, repoSha := range c.RepositoryShas {
			if !seen[repoSha] {
				seen[repoSha] = true
				repoShas = append(repoShas, repoSha)
			}
		}
	}

	repositories, err := b.store.ListRepositories(ctx, repoShas)
	if err != nil {
		return nil, fmt.Errorf("failed to load repositories: %w", err)
	}
	pairs, err := b.store.ListPairs(ctx, group.ComparisonShas)
	if err != nil {
		return nil, fmt.Errorf("failed to load pairs: %w", err)
	}
	files, err := b.store.ListFiles(ctx, repoShas)
	if err != nil {
		return nil, fmt.Errorf("failed to load files: %w", err)
	}

	data := &groupData{
		group:        group,
		comparisons:  comparisons,
		repositories: repositories,
		repoBySha:    make(map[string]*models.Repository, len(repositories)),
		pairs:        pairs,
		files:        files,
		pairsByFile:  make(map[string][]*models.Pair),
	}
	for _, r := range repositories {
		data.repoBySha[r.Sha] = r
	}
	for _, p := range pairs {
		data.pairsByFile[p.Left.FileKey()] = append(data.pairsByFile[p.Left.FileKey()], p)
		data.pairsByFile[p.Right.FileKey()] = append(data.pairsByFile[p.Right.FileKey()], p)
	}
	return data, nil
}

func (d *groupData) filesOf(repositorySha string) []*models.File {
	out := make([]*models.File, 0)
	for _, f := range d.files {
		if f.RepositorySha == repositorySha {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filepath < out[j].Filepath })
	return out
}

func (d *groupData) repository(sha string) models.Repository {
	if r, ok := d.repoBySha[sha]; ok {
		return *r
	}
	return models.Repository{Sha: sha}
}

// rankPairs orders pairs by similarity, then overlap, then id. The first
// element is the top pair of a file.
func rankPairs(pairs []*models.Pair) []*models.Pair {
	ranked := append([]*models.Pair(nil), pairs...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Similarity != ranked[j].Similarity {
			return ranked[i].Similarity > ranked[j].Similarity
		}
		if ranked[i].TotalOverlap != ranked[j].TotalOverlap {
			return ranked[i].TotalOverlap > ranked[j].TotalOverlap
		}
		return ranked[i].ID < ranked[j].ID
	})
	return ranked
}

func maxOverlap(pairs []*models.Pair) int {
	m := 0
	for _, p := range pairs {
		if p.TotalOverlap > m {
			m = p.TotalOverlap
		}
	}
	return m
}
