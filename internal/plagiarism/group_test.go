package plagiarism

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/RishiKendai/clonescope/internal/engine"
	"github.com/RishiKendai/clonescope/internal/models"
	"github.com/RishiKendai/clonescope/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type groupFixture struct {
	store     *repository.MemoryStore
	engine    *engineStub
	publisher *publisherSpy
	service   *GroupService
}

func newGroupFixture(t *testing.T, l *loaderStub, eng *engineStub, opts ...GroupServiceOption) *groupFixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewWorkerPool(ctx, 2)
	t.Cleanup(func() {
		pool.Close()
		cancel()
	})

	store := repository.NewMemoryStore()
	publisher := &publisherSpy{}
	comparer := NewComparer(store, eng, time.Minute)
	opts = append([]GroupServiceOption{WithStatusPublisher(publisher)}, opts...)
	return &groupFixture{
		store:     store,
		engine:    eng,
		publisher: publisher,
		service:   NewGroupService(ctx, l, store, comparer, pool, opts...),
	}
}

func refs(names ...string) []models.RepositoryRef {
	out := make([]models.RepositoryRef, len(names))
	for i, n := range names {
		out[i] = models.RepositoryRef{Owner: "acme", Name: n}
	}
	return out
}

func waitFor(t *testing.T, s *GroupService, sha string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx, sha))
}

func threeRepositories() *loaderStub {
	return &loaderStub{contents: map[string]*models.RepositoryContent{
		"acme/alpha": repoContent("sha-a", "alpha", rawFile("A.java", "fa", controllerSource)),
		"acme/beta":  repoContent("sha-b", "beta", rawFile("B.java", "fb", controllerSource)),
		"acme/gamma": repoContent("sha-c", "gamma", rawFile("C.java", "fc", controllerSource)),
		"acme/empty": repoContent("sha-e", "empty"),
	}}
}

func TestGroupService_CreateGroup(t *testing.T) {
	t.Run("should create the group and link every comparison", func(t *testing.T) {
		// given
		f := newGroupFixture(t, threeRepositories(), &engineStub{})

		// when
		group, err := f.service.CreateGroup(context.Background(), "alice", refs("alpha", "beta"))
		require.NoError(t, err)
		waitFor(t, f.service, group.Sha)

		// then
		assert.Equal(t, 2, group.NumberOfRepos)
		stored, err := f.store.GetGroup(context.Background(), group.Sha)
		require.NoError(t, err)
		assert.Equal(t, []string{ComparisonKey("sha-a", "sha-b")}, stored.ComparisonShas)
		assert.Equal(t, models.Progress{State: models.SweepCompleted, Expected: 1, Completed: 1}, stored.Progress)
		assert.Equal(t, models.SweepCompleted, f.publisher.States()[len(f.publisher.States())-1])
	})

	t.Run("should keep sibling comparisons when one fails", func(t *testing.T) {
		// given
		eng := &engineStub{analyze: func(ctx context.Context, files []engine.File) ([]engine.Match, error) {
			sources := map[string]bool{}
			for _, file := range files {
				sources[file.Source] = true
			}
			if sources["sha-b"] && sources["sha-c"] {
				return nil, errors.New("engine crashed")
			}
			return matchAcrossSources(files, 0.8), nil
		}}
		f := newGroupFixture(t, threeRepositories(), eng)

		// when
		group, err := f.service.CreateGroup(context.Background(), "alice", refs("alpha", "beta", "gamma"))
		require.NoError(t, err)
		waitFor(t, f.service, group.Sha)

		// then
		stored, err := f.store.GetGroup(context.Background(), group.Sha)
		require.NoError(t, err)
		assert.Len(t, stored.ComparisonShas, 2)
		assert.Equal(t, models.SweepPartial, stored.Progress.State)
		assert.Equal(t, 2, stored.Progress.Completed)
		assert.Equal(t, 1, stored.Progress.Failed)
	})

	t.Run("should count only repositories with content", func(t *testing.T) {
		// given
		f := newGroupFixture(t, threeRepositories(), &engineStub{})

		// when
		group, err := f.service.CreateGroup(context.Background(), "alice", refs("alpha", "beta", "empty"))
		require.NoError(t, err)
		waitFor(t, f.service, group.Sha)

		// then
		assert.Equal(t, 2, group.NumberOfRepos)
		assert.Len(t, group.RepositoryShas, 3)
		assert.Equal(t, 1, group.Progress.Expected)
	})

	t.Run("should return the existing group for the same repositories", func(t *testing.T) {
		// given
		f := newGroupFixture(t, threeRepositories(), &engineStub{})
		first, err := f.service.CreateGroup(context.Background(), "alice", refs("alpha", "beta"))
		require.NoError(t, err)
		waitFor(t, f.service, first.Sha)

		// when
		second, err := f.service.CreateGroup(context.Background(), "bob", refs("beta", "alpha"))

		// then
		require.NoError(t, err)
		assert.Equal(t, first.Sha, second.Sha)
		groups, _ := f.store.ListGroups(context.Background())
		assert.Len(t, groups, 1)
		assert.Equal(t, 1, f.engine.Calls())
	})

	t.Run("should create distinct groups when keys are salted", func(t *testing.T) {
		// given
		f := newGroupFixture(t, threeRepositories(), &engineStub{}, WithSaltedKeys(true))
		tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		f.service.now = func() time.Time {
			tick = tick.Add(time.Second)
			return tick
		}

		// when
		first, err := f.service.CreateGroup(context.Background(), "alice", refs("alpha", "beta"))
		require.NoError(t, err)
		second, err := f.service.CreateGroup(context.Background(), "alice", refs("alpha", "beta"))
		require.NoError(t, err)
		waitFor(t, f.service, first.Sha)
		waitFor(t, f.service, second.Sha)

		// then
		assert.NotEqual(t, first.Sha, second.Sha)
	})

	t.Run("should reject fewer than two repositories", func(t *testing.T) {
		f := newGroupFixture(t, threeRepositories(), &engineStub{})

		_, err := f.service.CreateGroup(context.Background(), "alice", refs("alpha"))
		_, dupErr := f.service.CreateGroup(context.Background(), "alice", refs("alpha", "alpha"))

		assert.ErrorIs(t, err, ErrTooFewRepositories)
		assert.ErrorIs(t, dupErr, ErrTooFewRepositories)
	})

	t.Run("should surface loader failures", func(t *testing.T) {
		// given
		l := threeRepositories()
		l.failures = map[string]error{"acme/beta": errors.New("rate limited")}
		f := newGroupFixture(t, l, &engineStub{})

		// when
		_, err := f.service.CreateGroup(context.Background(), "alice", refs("alpha", "beta"))

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rate limited")
		groups, _ := f.store.ListGroups(context.Background())
		assert.Empty(t, groups)
	})
}

func TestGroupService_UpdateGroup(t *testing.T) {
	t.Run("should reuse existing comparisons", func(t *testing.T) {
		// given
		f := newGroupFixture(t, threeRepositories(), &engineStub{})
		group, err := f.service.CreateGroup(context.Background(), "alice", refs("alpha", "beta"))
		require.NoError(t, err)
		waitFor(t, f.service, group.Sha)

		// when
		updated, err := f.service.UpdateGroupReusing(context.Background(), group.Sha, "alice", refs("alpha", "beta", "gamma"))
		require.NoError(t, err)
		waitFor(t, f.service, group.Sha)

		// then
		assert.Equal(t, 3, updated.NumberOfRepos)
		stored, _ := f.store.GetGroup(context.Background(), group.Sha)
		assert.Len(t, stored.ComparisonShas, 3)
		assert.Equal(t, 3, f.engine.Calls())
		assert.Contains(t, f.publisher.States(), models.SweepFetching)
	})

	t.Run("should recompute every pair", func(t *testing.T) {
		// given
		f := newGroupFixture(t, threeRepositories(), &engineStub{})
		group, err := f.service.CreateGroup(context.Background(), "alice", refs("alpha", "beta"))
		require.NoError(t, err)
		waitFor(t, f.service, group.Sha)

		// when
		_, err = f.service.UpdateGroupRecomputing(context.Background(), group.Sha, "alice", refs("alpha", "beta"))
		require.NoError(t, err)
		waitFor(t, f.service, group.Sha)

		// then
		assert.Equal(t, 2, f.engine.Calls())
		stored, _ := f.store.GetGroup(context.Background(), group.Sha)
		assert.Equal(t, models.SweepCompleted, stored.Progress.State)
		assert.Len(t, stored.ComparisonShas, 1)
	})

	t.Run("should report unknown groups", func(t *testing.T) {
		f := newGroupFixture(t, threeRepositories(), &engineStub{})

		_, err := f.service.UpdateGroupReusing(context.Background(), "missing", "alice", refs("alpha", "beta"))

		assert.ErrorIs(t, err, ErrGroupNotFound)
	})
}

func TestGroupService_CancelSweep(t *testing.T) {
	t.Run("should stop a running sweep", func(t *testing.T) {
		// given
		started := make(chan struct{}, 1)
		eng := &engineStub{analyze: func(ctx context.Context, files []engine.File) ([]engine.Match, error) {
			started <- struct{}{}
			<-ctx.Done()
			return nil, ctx.Err()
		}}
		f := newGroupFixture(t, threeRepositories(), eng)
		group, err := f.service.CreateGroup(context.Background(), "alice", refs("alpha", "beta"))
		require.NoError(t, err)
		<-started

		// when
		cancelled := f.service.CancelSweep(group.Sha)
		waitFor(t, f.service, group.Sha)

		// then
		assert.True(t, cancelled)
		progress, err := f.service.Progress(context.Background(), group.Sha)
		require.NoError(t, err)
		assert.Equal(t, models.SweepCancelled, progress.State)
		assert.False(t, f.service.CancelSweep(group.Sha))
	})

	t.Run("should read published progress of a sweep running elsewhere", func(t *testing.T) {
		// given
		reader := &statusReaderStub{progress: models.Progress{State: models.SweepComparing, Expected: 3, Completed: 2}}
		f := newGroupFixture(t, threeRepositories(), &engineStub{}, WithStatusPublisher(reader))
		require.NoError(t, f.store.CreateGroup(context.Background(), &models.Group{
			Sha:      "remote-group",
			Progress: models.Progress{State: models.SweepInitiated, Expected: 3},
		}))

		// when
		progress, err := f.service.Progress(context.Background(), "remote-group")

		// then
		require.NoError(t, err)
		assert.Equal(t, 2, progress.Completed)
		assert.Equal(t, models.SweepComparing, progress.State)
	})

	t.Run("should prefer the stored progress of a finished sweep", func(t *testing.T) {
		// given
		reader := &statusReaderStub{progress: models.Progress{State: models.SweepComparing}}
		f := newGroupFixture(t, threeRepositories(), &engineStub{}, WithStatusPublisher(reader))
		require.NoError(t, f.store.CreateGroup(context.Background(), &models.Group{
			Sha:      "done-group",
			Progress: models.Progress{State: models.SweepCompleted, Expected: 1, Completed: 1},
		}))

		// when
		progress, err := f.service.Progress(context.Background(), "done-group")

		// then
		require.NoError(t, err)
		assert.Equal(t, models.SweepCompleted, progress.State)
	})

	t.Run("should report progress of unknown groups as not found", func(t *testing.T) {
		f := newGroupFixture(t, threeRepositories(), &engineStub{})

		_, err := f.service.Progress(context.Background(), "missing")

		assert.ErrorIs(t, err, ErrGroupNotFound)
	})
}
