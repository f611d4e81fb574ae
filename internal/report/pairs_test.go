package report

import (
	"context"
	"testing"

	"github.com/RishiKendai/clonescope/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_PairByID(t *testing.T) {
	t.Run("should return the left file as file1 with both row ranges", func(t *testing.T) {
		// given
		f := seedGroup(t)

		// when
		detail, err := f.builder.PairByID(context.Background(), "p1")

		// then
		require.NoError(t, err)
		assert.Equal(t, "cmp-ab", detail.ComparisonSha)
		assert.Equal(t, "fa1", detail.File1.Sha)
		assert.Equal(t, "alpha", detail.File1.RepositoryName)
		assert.Equal(t, []models.LineRange{{Start: 1, End: 5}}, detail.File1.Fragments)
		assert.Equal(t, "fb1", detail.File2.Sha)
		assert.Equal(t, "beta", detail.File2.RepositoryName)
		assert.Equal(t, []models.LineRange{{Start: 3, End: 7}}, detail.File2.Fragments)
	})

	t.Run("should report unknown pairs", func(t *testing.T) {
		f := seedGroup(t)

		_, err := f.builder.PairByID(context.Background(), "missing")

		assert.ErrorIs(t, err, ErrPairNotFound)
	})
}

func TestBuilder_PairsByGroupAndFile(t *testing.T) {
	t.Run("should bucket pairs by the opposing repository", func(t *testing.T) {
		// given
		f := seedGroup(t)

		// when
		out, err := f.builder.PairsByGroupAndFile(context.Background(), "group-1", shaA, "fa1")

		// then
		require.NoError(t, err)
		assert.Equal(t, "src/ctrl/UserController.java", out.File.Filepath)
		assert.InDelta(t, 0.6, out.File.AverageSimilarity, 1e-9)
		require.Len(t, out.Repositories, 2)
		assert.Equal(t, "beta", out.Repositories[0].Name)
		assert.Equal(t, "gamma", out.Repositories[1].Name)

		top := out.Repositories[0].Pairs[0]
		assert.Equal(t, "p1", top.ID)
		assert.InDelta(t, 1.0, top.NormalizedImpact, 1e-9)
		assert.Equal(t, []models.LineRange{{Start: 1, End: 5}}, top.SideFragments)
		assert.Equal(t, "fb1", top.File.Sha)
		assert.Equal(t, []models.LineRange{{Start: 3, End: 7}}, top.File.Fragments)
		assert.InDelta(t, 0.25, out.Repositories[1].Pairs[0].NormalizedImpact, 1e-9)
	})

	t.Run("should orient pairs where the file is on the right", func(t *testing.T) {
		// given
		f := seedGroup(t)

		// when
		out, err := f.builder.PairsByGroupAndFile(context.Background(), "group-1", shaB, "fb1")

		// then
		require.NoError(t, err)
		require.Len(t, out.Repositories, 1)
		view := out.Repositories[0].Pairs[0]
		assert.Equal(t, "alpha", out.Repositories[0].Name)
		assert.Equal(t, []models.LineRange{{Start: 3, End: 7}}, view.SideFragments)
		assert.Equal(t, "fa1", view.File.Sha)
		assert.Equal(t, []models.LineRange{{Start: 1, End: 5}}, view.File.Fragments)
	})

	t.Run("should skip pairs with a file of another category", func(t *testing.T) {
		// given
		service := file(shaA, "fa-svc", "src/svc/AccountService.java", models.CategoryService, 10)
		otherService := file(shaB, "fb-svc", "src/svc/AccountService.java", models.CategoryService, 10)
		otherController := file(shaB, "fb-ctl", "src/ctl/AccountController.java", models.CategoryController, 10)
		builder := seedPairs(t,
			[]*models.File{service, otherService, otherController},
			pair("same", "cmp-ab", service, otherService, 0.7, 20),
			pair("cross", "cmp-ab", service, otherController, 0.9, 20),
		)

		// when
		out, err := builder.PairsByGroupAndFile(context.Background(), "group-2", shaA, "fa-svc")

		// then
		require.NoError(t, err)
		require.Len(t, out.Repositories, 1)
		require.Len(t, out.Repositories[0].Pairs, 1)
		assert.Equal(t, "same", out.Repositories[0].Pairs[0].ID)
		assert.InDelta(t, 0.7, out.File.AverageSimilarity, 1e-9)
	})

	t.Run("should report unknown files and groups", func(t *testing.T) {
		f := seedGroup(t)

		_, fileErr := f.builder.PairsByGroupAndFile(context.Background(), "group-1", shaA, "nope")
		_, groupErr := f.builder.PairsByGroupAndFile(context.Background(), "nope", shaA, "fa1")

		assert.ErrorIs(t, fileErr, ErrFileNotFound)
		assert.ErrorIs(t, groupErr, ErrGroupNotFound)
	})
}
