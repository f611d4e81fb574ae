package plagiarism

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/RishiKendai/clonescope/internal/loader"
	"github.com/RishiKendai/clonescope/internal/models"
	"github.com/RishiKendai/clonescope/internal/repository"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const fetchConcurrency = 4

// GroupService creates groups and runs their pairwise comparison sweeps in
// the background. Group records are visible before their sweep finishes.
type GroupService struct {
	ctx      context.Context
	loader   loader.ContentLoader
	store    repository.Store
	comparer *Comparer
	pool     *WorkerPool
	status   StatusPublisher
	salted   bool
	now      func() time.Time

	mu     sync.Mutex
	sweeps map[string]*sweep
}

type GroupServiceOption func(*GroupService)

// WithStatusPublisher mirrors sweep progress to an external channel
func WithStatusPublisher(p StatusPublisher) GroupServiceOption {
	return func(s *GroupService) {
		if p != nil {
			s.status = p
		}
	}
}

// WithSaltedKeys makes every group creation produce a fresh group key
func WithSaltedKeys(salted bool) GroupServiceOption {
	return func(s *GroupService) {
		s.salted = salted
	}
}

// NewGroupService returns a service whose sweeps live until ctx is cancelled.
func NewGroupService(ctx context.Context, l loader.ContentLoader, store repository.Store, comparer *Comparer, pool *WorkerPool, opts ...GroupServiceOption) *GroupService {
	s := &GroupService{
		ctx:      ctx,
		loader:   l,
		store:    store,
		comparer: comparer,
		pool:     pool,
		status:   noopPublisher{},
		now:      time.Now,
		sweeps:   make(map[string]*sweep),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateGroup fetches the repositories, stores the group and starts its
// sweep. Creating a group that already exists returns the stored record.
func (s *GroupService) CreateGroup(ctx context.Context, actor string, refs []models.RepositoryRef) (*models.Group, error) {
	if len(refs) < 2 {
		return nil, ErrTooFewRepositories
	}

	contents, err := s.fetchAll(ctx, actor, refs)
	if err != nil {
		return nil, err
	}
	if len(contents) < 2 {
		return nil, ErrTooFewRepositories
	}

	now := s.now()
	shas := contentShas(contents)
	members := nonEmpty(contents)
	group := &models.Group{
		Sha:            GroupKey(shas, now, s.salted),
		NumberOfRepos:  len(members),
		RepositoryShas: shas,
		ComparisonShas: []string{},
		Progress: models.Progress{
			State:    models.SweepInitiated,
			Expected: pairCount(len(members)),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.store.CreateGroup(ctx, group)
	if errors.Is(err, repository.ErrDuplicate) {
		existing, err := s.store.GetGroup(ctx, group.Sha)
		if err != nil {
			return nil, fmt.Errorf("failed to load existing group: %w", err)
		}
		// a sweep interrupted by a restart is resumed; finished ones are left alone
		if !existing.Progress.State.Terminal() && !s.active(existing.Sha) {
			s.startSweep(existing.Sha, members, false)
		}
		log.Info().Str("groupSha", existing.Sha).Msg("Group already exists")
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	log.Info().
		Str("groupSha", group.Sha).
		Str("actor", actor).
		Int("repositories", group.NumberOfRepos).
		Msg("Group created")

	s.startSweep(group.Sha, members, false)
	return group, nil
}

// UpdateGroupReusing adds repositories to a group and compares every pair,
// reusing comparisons that already exist.
func (s *GroupService) UpdateGroupReusing(ctx context.Context, sha, actor string, refs []models.RepositoryRef) (*models.Group, error) {
	return s.updateGroup(ctx, sha, actor, refs, false)
}

// UpdateGroupRecomputing re-runs the analysis of every pair of the group.
func (s *GroupService) UpdateGroupRecomputing(ctx context.Context, sha, actor string, refs []models.RepositoryRef) (*models.Group, error) {
	return s.updateGroup(ctx, sha, actor, refs, true)
}

func (s *GroupService) updateGroup(ctx context.Context, sha, actor string, refs []models.RepositoryRef, recompute bool) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, sha)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load group: %w", err)
	}
	if len(refs) < 2 {
		return nil, ErrTooFewRepositories
	}

	fetching := group.Progress
	fetching.State = models.SweepFetching
	if err := s.store.UpdateGroupProgress(ctx, sha, fetching); err != nil {
		return nil, fmt.Errorf("failed to update group progress: %w", err)
	}
	_ = s.status.Publish(ctx, sha, fetching)

	contents, err := s.fetchAll(ctx, actor, refs)
	if err != nil {
		_ = s.store.UpdateGroupProgress(context.WithoutCancel(ctx), sha, group.Progress)
		return nil, err
	}

	members := nonEmpty(contents)
	if err := s.store.UpdateGroupMembers(ctx, sha, contentShas(contents), len(members)); err != nil {
		return nil, fmt.Errorf("failed to update group members: %w", err)
	}

	log.Info().
		Str("groupSha", sha).
		Str("actor", actor).
		Bool("recompute", recompute).
		Int("repositories", len(members)).
		Msg("Group updated")

	s.startSweep(sha, members, recompute)
	return s.store.GetGroup(ctx, sha)
}

// CancelSweep stops the running sweep of the group. It reports false when
// no sweep is running.
func (s *GroupService) CancelSweep(sha string) bool {
	s.mu.Lock()
	sw, ok := s.sweeps[sha]
	s.mu.Unlock()
	if !ok {
		return false
	}
	sw.cancel()
	log.Info().Str("groupSha", sha).Msg("Group sweep cancellation requested")
	return true
}

// Progress returns the live progress of a running sweep, or the stored one.
func (s *GroupService) Progress(ctx context.Context, sha string) (models.Progress, error) {
	s.mu.Lock()
	sw, ok := s.sweeps[sha]
	s.mu.Unlock()
	if ok {
		return sw.snapshot(), nil
	}

	group, err := s.store.GetGroup(ctx, sha)
	if errors.Is(err, repository.ErrNotFound) {
		return models.Progress{}, ErrGroupNotFound
	}
	if err != nil {
		return models.Progress{}, fmt.Errorf("failed to load group: %w", err)
	}
	if group.Progress.State.Terminal() {
		return group.Progress, nil
	}

	// the sweep may be running on another instance
	if reader, ok := s.status.(StatusReader); ok {
		live, found, err := reader.Status(ctx, sha)
		if err != nil {
			log.Warn().Err(err).Str("groupSha", sha).Msg("Failed to read published progress")
		} else if found {
			return live, nil
		}
	}
	return group.Progress, nil
}

// Wait blocks until the group has no running sweep or ctx is done.
func (s *GroupService) Wait(ctx context.Context, sha string) error {
	for {
		s.mu.Lock()
		sw, ok := s.sweeps[sha]
		s.mu.Unlock()
		if !ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sw.done:
		}
	}
}

func (s *GroupService) active(sha string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sweeps[sha]
	return ok
}

// startSweep replaces any running sweep of the group. The new sweep waits
// for the cancelled one to finish so progress writes never interleave.
func (s *GroupService) startSweep(sha string, contents []*models.RepositoryContent, recompute bool) {
	s.mu.Lock()
	previous := s.sweeps[sha]
	if previous != nil {
		previous.cancel()
	}
	sw := newSweep(s.ctx, sha, pairCount(len(contents)), previous)
	s.sweeps[sha] = sw
	s.mu.Unlock()

	go s.run(sw, contents, recompute)
}

// fetchAll loads every repository concurrently; any failure aborts the call.
// Repositories resolving to the same content are kept once.
func (s *GroupService) fetchAll(ctx context.Context, actor string, refs []models.RepositoryRef) ([]*models.RepositoryContent, error) {
	contents := make([]*models.RepositoryContent, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, ref := range refs {
		g.Go(func() error {
			content, err := s.loader.Fetch(gctx, actor, ref)
			if err != nil {
				return fmt.Errorf("failed to fetch %s: %w", ref.FullName(), err)
			}
			contents[i] = content
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(contents))
	unique := make([]*models.RepositoryContent, 0, len(contents))
	for _, c := range contents {
		if c == nil || seen[c.Sha] {
			continue
		}
		seen[c.Sha] = true
		unique = append(unique, c)
	}
	return unique, nil
}

func contentShas(contents []*models.RepositoryContent) []string {
	shas := make([]string, len(contents))
	for i, c := range contents {
		shas[i] = c.Sha
	}
	return shas
}

func nonEmpty(contents []*models.RepositoryContent) []*models.RepositoryContent {
	out := make([]*models.RepositoryContent, 0, len(contents))
	for _, c := range contents {
		if !c.Empty() {
			out = append(out, c)
		}
	}
	return out
}

func pairCount(n int) int {
	return n * (n - 1) / 2
}
