package report

import (
	"context"
	"testing"
	"time"

	"github.com/RishiKendai/clonescope/internal/models"
	"github.com/RishiKendai/clonescope/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	shaA = "sha-a"
	shaB = "sha-b"
	shaC = "sha-c"
)

func file(repoSha, sha, filepath string, category models.Category, lines int) *models.File {
	return &models.File{Sha: sha, RepositorySha: repoSha, Filepath: filepath, Category: category, LineCount: lines, Language: "java"}
}

func side(f *models.File) models.PairSide {
	return models.PairSide{
		FileSha:       f.Sha,
		RepositorySha: f.RepositorySha,
		Filepath:      f.Filepath,
		LineCount:     f.LineCount,
		Category:      f.Category,
	}
}

func pair(id, comparisonSha string, left, right *models.File, similarity float64, overlap int) *models.Pair {
	return &models.Pair{
		ID:              id,
		ComparisonSha:   comparisonSha,
		Similarity:      similarity,
		TotalOverlap:    overlap,
		LongestFragment: overlap / 2,
		Left:            side(left),
		Right:           side(right),
		Fragments: []models.Fragment{{
			LeftStartRow: 1, LeftEndRow: 5, RightStartRow: 3, RightEndRow: 7,
		}},
	}
}

type fixture struct {
	store   *repository.MemoryStore
	builder *Builder
	files   map[string]*models.File
}

// seedGroup stores a group over three repositories where the comparison of
// beta and gamma never completed.
func seedGroup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()

	for _, r := range []*models.Repository{
		{Sha: shaA, Owner: "acme", Name: "alpha"},
		{Sha: shaB, Owner: "acme", Name: "beta"},
		{Sha: shaC, Owner: "acme", Name: "gamma"},
	} {
		_, err := store.UpsertRepository(ctx, r)
		require.NoError(t, err)
	}

	files := map[string]*models.File{
		"fa1": file(shaA, "fa1", "src/ctrl/UserController.java", models.CategoryController, 10),
		"fa2": file(shaA, "fa2", "src/svc/UserService.java", models.CategoryService, 20),
		"fa3": file(shaA, "fa3", "src/model/User.java", models.CategoryEntity, 5),
		"fa4": file(shaA, "fa4", "src/other/Lonely.java", models.CategoryController, 7),
		"fb1": file(shaB, "fb1", "src/ctrl/UserController.java", models.CategoryController, 12),
		"fb2": file(shaB, "fb2", "src/svc/UserService.java", models.CategoryService, 18),
		"fc1": file(shaC, "fc1", "src/web/ApiController.java", models.CategoryController, 9),
		"fc3": file(shaC, "fc3", "src/model/User.java", models.CategoryEntity, 5),
	}

	ab := &models.Comparison{Sha: "cmp-ab", RepositoryShas: []string{shaA, shaB}}
	require.NoError(t, store.CreateComparison(ctx, ab,
		[]*models.File{files["fa1"], files["fa2"], files["fa4"], files["fb1"], files["fb2"]},
		[]*models.Pair{
			pair("p1", "cmp-ab", files["fa1"], files["fb1"], 0.8, 40),
			pair("p2", "cmp-ab", files["fa2"], files["fb2"], 0.6, 30),
		}))

	ac := &models.Comparison{Sha: "cmp-ac", RepositoryShas: []string{shaA, shaC}}
	require.NoError(t, store.CreateComparison(ctx, ac,
		[]*models.File{files["fa1"], files["fa3"], files["fc1"], files["fc3"]},
		[]*models.Pair{
			pair("p3", "cmp-ac", files["fa1"], files["fc1"], 0.4, 10),
			pair("p4", "cmp-ac", files["fa3"], files["fc3"], 0.9, 8),
		}))

	require.NoError(t, store.CreateGroup(ctx, &models.Group{
		Sha:            "group-1",
		NumberOfRepos:  3,
		RepositoryShas: []string{shaA, shaB, shaC},
		ComparisonShas: []string{"cmp-ab", "cmp-ac"},
		Progress:       models.Progress{State: models.SweepPartial, Expected: 3, Completed: 2, Failed: 1},
		CreatedAt:      time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}))

	return &fixture{store: store, builder: NewBuilder(store), files: files}
}

func findCategory(t *testing.T, repo models.ReportRepository, c models.Category) models.CategoryReport {
	t.Helper()
	for _, bucket := range repo.Categories {
		if bucket.Category == c {
			return bucket
		}
	}
	t.Fatalf("category %s not found in %s", c, repo.Name)
	return models.CategoryReport{}
}

func TestBuilder_Report(t *testing.T) {
	t.Run("should deduplicate repositories across comparisons", func(t *testing.T) {
		// given
		f := seedGroup(t)

		// when
		report, err := f.builder.Report(context.Background(), "group-1")

		// then
		require.NoError(t, err)
		require.Len(t, report.Repositories, 3)
		assert.Equal(t, []string{shaA, shaB, shaC}, []string{
			report.Repositories[0].Sha, report.Repositories[1].Sha, report.Repositories[2].Sha,
		})
		assert.Equal(t, 3, report.NumberOfRepos)
		assert.Equal(t, 2, report.ComparisonsCompleted)
		assert.Equal(t, 8, report.NumberOfFiles)
		assert.Equal(t, 86, report.GroupLines)
	})

	t.Run("should bucket files by category in precedence order", func(t *testing.T) {
		// given
		f := seedGroup(t)

		// when
		report, err := f.builder.Report(context.Background(), "group-1")

		// then
		require.NoError(t, err)
		alpha := report.Repositories[0]
		categories := make([]models.Category, 0)
		for _, c := range alpha.Categories {
			categories = append(categories, c.Category)
		}
		assert.Equal(t, []models.Category{models.CategoryController, models.CategoryService, models.CategoryEntity}, categories)
		assert.Equal(t, 42, alpha.RepositoryLines)
		assert.Equal(t, 4, alpha.NumberOfFiles)
	})

	t.Run("should compute per file match, top pair and normalized impact", func(t *testing.T) {
		// given
		f := seedGroup(t)

		// when
		report, err := f.builder.Report(context.Background(), "group-1")

		// then
		require.NoError(t, err)
		controllers := findCategory(t, report.Repositories[0], models.CategoryController)
		require.Len(t, controllers.Files, 2)
		matched := controllers.Files[0]
		assert.Equal(t, "src/ctrl/UserController.java", matched.Filepath)
		assert.True(t, matched.HasMatches)
		assert.InDelta(t, 0.6, matched.CategoryMatch, 1e-9)
		require.NotNil(t, matched.Top)
		assert.Equal(t, "p1", matched.Top.ID)
		assert.Equal(t, "beta", matched.Top.RepositoryName)
		assert.Equal(t, "fb1", matched.Top.Sha)
		require.Len(t, matched.Pairs, 2)
		assert.InDelta(t, 1.0, matched.Pairs[0].NormalizedImpact, 1e-9)
		assert.InDelta(t, 0.25, matched.Pairs[1].NormalizedImpact, 1e-9)
		for _, p := range matched.Pairs {
			assert.Greater(t, p.NormalizedImpact, 0.0)
			assert.LessOrEqual(t, p.NormalizedImpact, 1.0)
		}
	})

	t.Run("should flag files without pairs and keep them out of the statistics", func(t *testing.T) {
		// given
		f := seedGroup(t)

		// when
		report, err := f.builder.Report(context.Background(), "group-1")

		// then
		require.NoError(t, err)
		controllers := findCategory(t, report.Repositories[0], models.CategoryController)
		lonely := controllers.Files[1]
		assert.False(t, lonely.HasMatches)
		assert.Nil(t, lonely.Top)
		assert.Empty(t, lonely.Pairs)
		assert.Equal(t, 0.0, lonely.CategoryMatch)
		assert.Equal(t, 2, controllers.NumberOfFiles)
		assert.Equal(t, 17, controllers.CategoryLines)
		assert.InDelta(t, 0.6, controllers.AverageMatch, 1e-9)
		assert.Equal(t, 0.0, controllers.StandardDeviation)
	})

	t.Run("should break similarity ties by overlap", func(t *testing.T) {
		// given
		f := seedGroup(t)
		ctx := context.Background()
		fc4 := file(shaC, "fc4", "src/web/OtherController.java", models.CategoryController, 3)
		require.NoError(t, f.store.ReplaceComparison(ctx,
			&models.Comparison{Sha: "cmp-ac", RepositoryShas: []string{shaA, shaC}},
			[]*models.File{fc4},
			[]*models.Pair{
				pair("p3", "cmp-ac", f.files["fa1"], f.files["fc1"], 0.8, 10),
				pair("p5", "cmp-ac", f.files["fa1"], fc4, 0.8, 60),
			}))

		// when
		report, err := f.builder.Report(ctx, "group-1")

		// then
		require.NoError(t, err)
		controllers := findCategory(t, report.Repositories[0], models.CategoryController)
		assert.Equal(t, "p5", controllers.Files[0].Top.ID)
		assert.InDelta(t, 1.0, controllers.Files[0].Top.NormalizedImpact, 1e-9)
	})

	t.Run("should return an empty report for a group without comparisons", func(t *testing.T) {
		// given
		store := repository.NewMemoryStore()
		require.NoError(t, store.CreateGroup(context.Background(), &models.Group{Sha: "fresh", NumberOfRepos: 2}))

		// when
		report, err := NewBuilder(store).Report(context.Background(), "fresh")

		// then
		require.NoError(t, err)
		assert.Empty(t, report.Repositories)
		assert.Equal(t, 0, report.NumberOfFiles)
	})

	t.Run("should report unknown groups", func(t *testing.T) {
		_, err := NewBuilder(repository.NewMemoryStore()).Report(context.Background(), "missing")

		assert.ErrorIs(t, err, ErrGroupNotFound)
	})
}

func TestBuilder_Summary(t *testing.T) {
	t.Run("should count linked comparisons", func(t *testing.T) {
		// given
		f := seedGroup(t)

		// when
		summary, err := f.builder.Summary(context.Background(), "group-1")

		// then
		require.NoError(t, err)
		assert.Equal(t, 2, summary.ComparisonsCompleted)
		assert.Equal(t, 3, summary.NumberOfRepos)
		assert.Equal(t, models.SweepPartial, summary.Progress.State)
	})
}

func TestBuilder_Overall(t *testing.T) {
	t.Run("should list repositories and every pair", func(t *testing.T) {
		// given
		f := seedGroup(t)

		// when
		overall, err := f.builder.Overall(context.Background(), "group-1")

		// then
		require.NoError(t, err)
		assert.Len(t, overall.Repositories, 3)
		assert.Len(t, overall.Pairs, 4)
		assert.Equal(t, 86, overall.GroupLines)
	})
}

func TestBuilder_FilesAndSimilarities(t *testing.T) {
	t.Run("should list only files that were paired", func(t *testing.T) {
		// given
		f := seedGroup(t)

		// when
		files, err := f.builder.Files(context.Background(), "group-1")

		// then
		require.NoError(t, err)
		assert.Len(t, files, 7)
		for _, file := range files {
			assert.NotEqual(t, "fa4", file.Sha)
		}
	})

	t.Run("should keep only structural pair similarities", func(t *testing.T) {
		// given
		f := seedGroup(t)

		// when
		similarities, err := f.builder.PairSimilarities(context.Background(), "group-1")

		// then
		require.NoError(t, err)
		ids := make([]string, 0)
		for _, s := range similarities {
			ids = append(ids, s.ID)
			assert.Len(t, s.Files, 2)
		}
		assert.ElementsMatch(t, []string{"p1", "p2", "p3"}, ids)
	})
}

func TestBuilder_Groups(t *testing.T) {
	t.Run("should list groups with their comparisons", func(t *testing.T) {
		// given
		f := seedGroup(t)

		// when
		groups, err := f.builder.Groups(context.Background())

		// then
		require.NoError(t, err)
		require.Len(t, groups, 1)
		require.Len(t, groups[0].Comparisons, 2)
		assert.Len(t, groups[0].Comparisons[0].Repositories, 2)
		assert.Len(t, groups[0].Comparisons[0].Pairs, 2)
	})
}
