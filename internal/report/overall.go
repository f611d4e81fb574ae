package report

import (
	"context"
	"fmt"

	"github.com/RishiKendai/clonescope/internal/models"
)

// Summary reports how many comparisons of the group finished
func (b *Builder) Summary(ctx context.Context, sha string) (*models.GroupSummary, error) {
	group, err := b.loadGroup(ctx, sha)
	if err != nil {
		return nil, err
	}
	return &models.GroupSummary{
		Sha:                  group.Sha,
		Date:                 group.CreatedAt,
		NumberOfRepos:        group.NumberOfRepos,
		ComparisonsCompleted: len(group.ComparisonShas),
		Progress:             group.Progress,
	}, nil
}

// Overall lists the group's repositories with their sizes and every pair score
func (b *Builder) Overall(ctx context.Context, sha string) (*models.GroupOverall, error) {
	data, err := b.load(ctx, sha)
	if err != nil {
		return nil, err
	}

	out := &models.GroupOverall{
		Sha:           data.group.Sha,
		Date:          data.group.CreatedAt,
		NumberOfRepos: data.group.NumberOfRepos,
		Repositories:  make([]models.OverallRepository, 0, len(data.repositories)),
		Pairs:         pairScores(data.pairs),
	}
	for _, repo := range data.repositories {
		or := models.OverallRepository{Sha: repo.Sha, Name: repo.Name, Owner: repo.Owner}
		for _, f := range data.filesOf(repo.Sha) {
			or.NumberOfFiles++
			or.RepositoryLines += f.LineCount
		}
		out.NumberOfFiles += or.NumberOfFiles
		out.GroupLines += or.RepositoryLines
		out.Repositories = append(out.Repositories, or)
	}
	return out, nil
}

// Groups lists every group with its comparisons
func (b *Builder) Groups(ctx context.Context) ([]models.GroupListing, error) {
	groups, err := b.store.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	out := make([]models.GroupListing, 0, len(groups))
	for _, g := range groups {
		comparisons, err := b.comparisonListings(ctx, g.ComparisonShas)
		if err != nil {
			return nil, err
		}
		out = append(out, models.GroupListing{
			Sha:           g.Sha,
			Date:          g.CreatedAt,
			NumberOfRepos: g.NumberOfRepos,
			Progress:      g.Progress,
			Comparisons:   comparisons,
		})
	}
	return out, nil
}

// Comparisons lists every stored comparison with its repositories and pair scores
func (b *Builder) Comparisons(ctx context.Context) ([]models.ComparisonListing, error) {
	all, err := b.store.AllComparisons(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list comparisons: %w", err)
	}
	shas := make([]string, len(all))
	for i, c := range all {
		shas[i] = c.Sha
	}
	return b.comparisonListings(ctx, shas)
}

func (b *Builder) comparisonListings(ctx context.Context, shas []string) ([]models.ComparisonListing, error) {
	comparisons, err := b.store.ListComparisons(ctx, shas)
	if err != nil {
		return nil, fmt.Errorf("failed to load comparisons: %w", err)
	}
	pairs, err := b.store.ListPairs(ctx, shas)
	if err != nil {
		return nil, fmt.Errorf("failed to load pairs: %w", err)
	}
	byComparison := make(map[string][]*models.Pair)
	for _, p := range pairs {
		byComparison[p.ComparisonSha] = append(byComparison[p.ComparisonSha], p)
	}

	out := make([]models.ComparisonListing, 0, len(comparisons))
	for _, c := range comparisons {
		repos, err := b.store.ListRepositories(ctx, c.RepositoryShas)
		if err != nil {
			return nil, fmt.Errorf("failed to load repositories: %w", err)
		}
		listing := models.ComparisonListing{
			Sha:          c.Sha,
			Similarity:   c.Similarity,
			Repositories: make([]models.Repository, 0, len(repos)),
			Pairs:        pairScores(byComparison[c.Sha]),
		}
		for _, r := range repos {
			listing.Repositories = append(listing.Repositories, *r)
		}
		out = append(out, listing)
	}
	return out, nil
}

// Files returns every file that appears in a pair of the group
func (b *Builder) Files(ctx context.Context, sha string) ([]*models.File, error) {
	data, err := b.load(ctx, sha)
	if err != nil {
		return nil, err
	}
	out := make([]*models.File, 0)
	for _, f := range data.files {
		if len(data.pairsByFile[f.Key()]) > 0 {
			out = append(out, f)
		}
	}
	return out, nil
}

// PairSimilarities returns the pairs of the group whose files share one
// structural category
func (b *Builder) PairSimilarities(ctx context.Context, sha string) ([]models.PairSimilarity, error) {
	data, err := b.load(ctx, sha)
	if err != nil {
		return nil, err
	}

	out := make([]models.PairSimilarity, 0, len(data.pairs))
	for _, p := range data.pairs {
		if p.Left.Category != p.Right.Category || !p.Left.Category.Structural() {
			continue
		}
		ps := models.PairSimilarity{
			ID:         p.ID,
			Similarity: p.Similarity,
			Category:   p.Left.Category,
			Files:      make([]models.PairedFile, 0, 2),
		}
		for _, side := range []models.PairSide{p.Left, p.Right} {
			repo := data.repository(side.RepositorySha)
			ps.Files = append(ps.Files, models.PairedFile{
				Sha:             side.FileSha,
				Filepath:        side.Filepath,
				Category:        side.Category,
				RepositorySha:   side.RepositorySha,
				RepositoryName:  repo.Name,
				RepositoryOwner: repo.Owner,
			})
		}
		out = append(out, ps)
	}
	return out, nil
}

func pairScores(pairs []*models.Pair) []models.PairScore {
	out := make([]models.PairScore, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, models.PairScore{
			ID:              p.ID,
			Similarity:      p.Similarity,
			TotalOverlap:    p.TotalOverlap,
			LongestFragment: p.LongestFragment,
		})
	}
	return out
}
