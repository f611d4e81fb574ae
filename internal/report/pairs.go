package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/RishiKendai/clonescope/internal/models"
	"github.com/RishiKendai/clonescope/internal/repository"
	"github.com/RishiKendai/clonescope/internal/stats"
)

// PairByID returns a pair with the matched row ranges of both files. File1
// is the pair's left file.
func (b *Builder) PairByID(ctx context.Context, id string) (*models.PairDetail, error) {
	p, err := b.store.GetPair(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPairNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pair: %w", err)
	}

	repos, err := b.repositoriesBySha(ctx, p.Left.RepositorySha, p.Right.RepositorySha)
	if err != nil {
		return nil, err
	}

	leftRanges, rightRanges := lineRanges(p.Fragments)
	return &models.PairDetail{
		ID:              p.ID,
		ComparisonSha:   p.ComparisonSha,
		Similarity:      p.Similarity,
		TotalOverlap:    p.TotalOverlap,
		LongestFragment: p.LongestFragment,
		File1:           fileView(p.Left, repos[p.Left.RepositorySha], leftRanges),
		File2:           fileView(p.Right, repos[p.Right.RepositorySha], rightRanges),
	}, nil
}

// PairsByGroupAndFile lists the pairs of one file inside a group, oriented
// with that file on the left and bucketed by the opposing repository.
func (b *Builder) PairsByGroupAndFile(ctx context.Context, groupSha, repositorySha, fileSha string) (*models.FilePairs, error) {
	data, err := b.load(ctx, groupSha)
	if err != nil {
		return nil, err
	}
	file, err := b.store.GetFile(ctx, repositorySha, fileSha)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load file: %w", err)
	}

	key := file.Key()
	pairs := make([]*models.Pair, 0)
	for _, p := range data.pairsByFile[key] {
		if other, ok := p.Other(key); ok && other.Category == file.Category {
			pairs = append(pairs, p)
		}
	}
	pairs = rankPairs(pairs)
	peak := float64(maxOverlap(pairs))

	out := &models.FilePairs{
		File: models.FilePairsFile{
			Sha:           file.Sha,
			RepositorySha: file.RepositorySha,
			Filepath:      file.Filepath,
			Category:      file.Category,
			LineCount:     file.LineCount,
		},
		Repositories: make([]models.FilePairsRepository, 0),
	}

	bucketIndex := make(map[string]int)
	similarities := make([]float64, 0, len(pairs))
	for _, p := range pairs {
		oriented := p.Oriented(key)
		repo := data.repository(oriented.Right.RepositorySha)
		sideRanges, otherRanges := lineRanges(oriented.Fragments)

		view := models.FilePairView{
			ID:               p.ID,
			Similarity:       p.Similarity,
			TotalOverlap:     p.TotalOverlap,
			LongestFragment:  p.LongestFragment,
			NormalizedImpact: stats.Ratio(float64(p.TotalOverlap), peak),
			SideFragments:    sideRanges,
			File:             fileView(oriented.Right, repo, otherRanges),
		}

		i, ok := bucketIndex[repo.Sha]
		if !ok {
			i = len(out.Repositories)
			bucketIndex[repo.Sha] = i
			out.Repositories = append(out.Repositories, models.FilePairsRepository{
				Sha:   repo.Sha,
				Name:  repo.Name,
				Owner: repo.Owner,
				Pairs: []models.FilePairView{},
			})
		}
		out.Repositories[i].Pairs = append(out.Repositories[i].Pairs, view)
		similarities = append(similarities, p.Similarity)
	}
	out.File.AverageSimilarity = stats.Mean(similarities)
	return out, nil
}

// AllPairs returns every stored pair
func (b *Builder) AllPairs(ctx context.Context) ([]*models.Pair, error) {
	pairs, err := b.store.AllPairs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pairs: %w", err)
	}
	return pairs, nil
}

func (b *Builder) repositoriesBySha(ctx context.Context, shas ...string) (map[string]models.Repository, error) {
	repos, err := b.store.ListRepositories(ctx, shas)
	if err != nil {
		return nil, fmt.Errorf("failed to load repositories: %w", err)
	}
	out := make(map[string]models.Repository, len(shas))
	for _, sha := range shas {
		out[sha] = models.Repository{Sha: sha}
	}
	for _, r := range repos {
		out[r.Sha] = *r
	}
	return out, nil
}

func lineRanges(fragments []models.Fragment) (left, right []models.LineRange) {
	left = make([]models.LineRange, 0, len(fragments))
	right = make([]models.LineRange, 0, len(fragments))
	for _, f := range fragments {
		left = append(left, models.LineRange{Start: f.LeftStartRow, End: f.LeftEndRow})
		right = append(right, models.LineRange{Start: f.RightStartRow, End: f.RightEndRow})
	}
	return left, right
}

func fileView(side models.PairSide, repo models.Repository, ranges []models.LineRange) models.PairFileView {
	return models.PairFileView{
		Sha:             side.FileSha,
		RepositorySha:   side.RepositorySha,
		RepositoryName:  repo.Name,
		RepositoryOwner: repo.Owner,
		Filepath:        side.Filepath,
		Category:        side.Category,
		LineCount:       side.LineCount,
		CharCount:       side.CharCount,
		Fragments:       ranges,
	}
}
