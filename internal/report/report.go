package report

import (
	"context"

	"github.com/RishiKendai/clonescope/internal/models"
	"github.com/RishiKendai/clonescope/internal/stats"
)

// Report builds the repository → category → file rollup of a group.
// Files without pairs in the group are listed with HasMatches false and do
// not contribute to the category average or deviation.
func (b *Builder) Report(ctx context.Context, sha string) (*models.GroupReport, error) {
	data, err := b.load(ctx, sha)
	if err != nil {
		return nil, err
	}

	out := &models.GroupReport{
		Sha:                  data.group.Sha,
		Date:                 data.group.CreatedAt,
		NumberOfRepos:        data.group.NumberOfRepos,
		ComparisonsCompleted: len(data.group.ComparisonShas),
		Repositories:         make([]models.ReportRepository, 0, len(data.repositories)),
	}

	for _, repo := range data.repositories {
		rr := buildRepositoryReport(data, repo)
		out.NumberOfFiles += rr.NumberOfFiles
		out.GroupLines += rr.RepositoryLines
		out.Repositories = append(out.Repositories, rr)
	}
	return out, nil
}

func buildRepositoryReport(data *groupData, repo *models.Repository) models.ReportRepository {
	files := data.filesOf(repo.Sha)
	buckets := make(map[models.Category]*models.CategoryReport)

	rr := models.ReportRepository{
		Sha:           repo.Sha,
		Name:          repo.Name,
		Owner:         repo.Owner,
		NumberOfFiles: len(files),
	}

	for _, f := range files {
		bucket, ok := buckets[f.Category]
		if !ok {
			bucket = &models.CategoryReport{Category: f.Category, Files: []models.FileReport{}}
			buckets[f.Category] = bucket
		}
		bucket.Files = append(bucket.Files, buildFileReport(data, f))
		rr.RepositoryLines += f.LineCount
	}

	rr.Categories = make([]models.CategoryReport, 0, len(buckets))
	for _, category := range models.Categories {
		bucket, ok := buckets[category]
		if !ok {
			continue
		}
		summarizeCategory(bucket)
		rr.Categories = append(rr.Categories, *bucket)
	}
	return rr
}

func summarizeCategory(bucket *models.CategoryReport) {
	matches := make([]float64, 0, len(bucket.Files))
	for _, f := range bucket.Files {
		bucket.CategoryLines += f.LineCount
		if f.HasMatches {
			matches = append(matches, f.CategoryMatch)
		}
	}
	bucket.NumberOfFiles = len(bucket.Files)
	bucket.AverageMatch = stats.Mean(matches)
	bucket.StandardDeviation = stats.PopulationStdDev(matches)
}

func buildFileReport(data *groupData, f *models.File) models.FileReport {
	pairs := rankPairs(data.pairsByFile[f.Key()])

	fr := models.FileReport{
		Sha:           f.Sha,
		RepositorySha: f.RepositorySha,
		Filepath:      f.Filepath,
		Category:      f.Category,
		LineCount:     f.LineCount,
		HasMatches:    len(pairs) > 0,
		Pairs:         make([]models.FilePair, 0, len(pairs)),
	}
	if len(pairs) == 0 {
		return fr
	}

	peak := float64(maxOverlap(pairs))
	similarities := make([]float64, 0, len(pairs))
	for _, p := range pairs {
		similarities = append(similarities, p.Similarity)
		fr.Pairs = append(fr.Pairs, filePair(data, f.Key(), p, peak))
	}
	fr.CategoryMatch = stats.Mean(similarities)
	top := fr.Pairs[0]
	fr.Top = &top
	return fr
}

// filePair describes p from the point of view of the file with key fileKey
func filePair(data *groupData, fileKey string, p *models.Pair, peak float64) models.FilePair {
	other, _ := p.Other(fileKey)
	repo := data.repository(other.RepositorySha)
	return models.FilePair{
		ID:               p.ID,
		Similarity:       p.Similarity,
		TotalOverlap:     p.TotalOverlap,
		NormalizedImpact: stats.Ratio(float64(p.TotalOverlap), peak),
		LongestFragment:  p.LongestFragment,
		Sha:              other.FileSha,
		Filepath:         other.Filepath,
		LineCount:        other.LineCount,
		RepositorySha:    other.RepositorySha,
		RepositoryName:   repo.Name,
		RepositoryOwner:  repo.Owner,
	}
}
