package plagiarism

import (
	"context"
	"sync"
	"time"

	"github.com/RishiKendai/clonescope/internal/models"
	"github.com/RishiKendai/clonescope/internal/observability"
	"github.com/rs/zerolog/log"
)

const persistTimeout = 10 * time.Second

// sweep is one background run over the repository pairs of a group
type sweep struct {
	groupSha string
	ctx      context.Context
	cancel   context.CancelFunc
	previous *sweep
	done     chan struct{}
	jobs     sync.WaitGroup

	mu       sync.Mutex
	progress models.Progress
}

func newSweep(parent context.Context, groupSha string, expected int, previous *sweep) *sweep {
	ctx, cancel := context.WithCancel(parent)
	return &sweep{
		groupSha: groupSha,
		ctx:      ctx,
		cancel:   cancel,
		previous: previous,
		done:     make(chan struct{}),
		progress: models.Progress{State: models.SweepInitiated, Expected: expected},
	}
}

func (sw *sweep) snapshot() models.Progress {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.progress
}

// ComparisonJob compares one repository pair of a group sweep
type ComparisonJob struct {
	service   *GroupService
	sweep     *sweep
	left      *models.RepositoryContent
	right     *models.RepositoryContent
	recompute bool
}

// Execute runs the comparison under the sweep context, which is also
// cancelled when the pool shuts down.
func (j *ComparisonJob) Execute(poolCtx context.Context) error {
	defer j.sweep.jobs.Done()

	ctx, cancel := context.WithCancel(j.sweep.ctx)
	defer cancel()
	stop := context.AfterFunc(poolCtx, cancel)
	defer stop()

	if err := ctx.Err(); err != nil {
		j.service.record(j.sweep, err)
		return err
	}

	var (
		comparison *models.Comparison
		err        error
	)
	if j.recompute {
		comparison, err = j.service.comparer.Recompare(ctx, j.left, j.right)
	} else {
		comparison, err = j.service.comparer.Compare(ctx, j.left, j.right)
	}
	if err != nil {
		log.Error().Err(err).
			Str("groupSha", j.sweep.groupSha).
			Str("left", j.left.Ref().FullName()).
			Str("right", j.right.Ref().FullName()).
			Msg("Pairwise comparison failed")
		j.service.record(j.sweep, err)
		return err
	}

	if err := j.service.store.LinkComparison(ctx, j.sweep.groupSha, comparison.Sha); err != nil {
		log.Error().Err(err).
			Str("groupSha", j.sweep.groupSha).
			Str("comparisonSha", comparison.Sha).
			Msg("Failed to link comparison to group")
		j.service.record(j.sweep, err)
		return err
	}

	j.service.record(j.sweep, nil)
	return nil
}

// run submits one job per unordered repository pair and waits for all of them
func (s *GroupService) run(sw *sweep, contents []*models.RepositoryContent, recompute bool) {
	if sw.previous != nil {
		<-sw.previous.done
	}

	sw.mu.Lock()
	sw.progress.State = models.SweepComparing
	s.persist(sw, sw.progress)
	sw.mu.Unlock()

	log.Info().
		Str("groupSha", sw.groupSha).
		Int("repositories", len(contents)).
		Int("comparisons", sw.progress.Expected).
		Bool("recompute", recompute).
		Int("workers", s.pool.Size()).
		Msg("Group sweep started")

	for i := 0; i < len(contents); i++ {
		for j := i + 1; j < len(contents); j++ {
			job := &ComparisonJob{
				service:   s,
				sweep:     sw,
				left:      contents[i],
				right:     contents[j],
				recompute: recompute,
			}
			sw.jobs.Add(1)
			if err := s.pool.Submit(job); err != nil {
				log.Error().Err(err).Str("groupSha", sw.groupSha).Msg("Failed to submit comparison job")
				s.record(sw, err)
				sw.jobs.Done()
			}
		}
	}

	sw.jobs.Wait()
	s.finish(sw)
}

// record counts the outcome of one job and persists the new progress. Holding
// the sweep lock while persisting keeps stored progress monotonic.
func (s *GroupService) record(sw *sweep, err error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if err != nil {
		sw.progress.Failed++
	} else {
		sw.progress.Completed++
	}
	s.persist(sw, sw.progress)
}

func (s *GroupService) finish(sw *sweep) {
	sw.mu.Lock()
	switch {
	case sw.ctx.Err() != nil:
		sw.progress.State = models.SweepCancelled
	case sw.progress.Failed > 0:
		sw.progress.State = models.SweepPartial
	default:
		sw.progress.State = models.SweepCompleted
	}
	final := sw.progress
	s.persist(sw, final)
	sw.mu.Unlock()

	s.mu.Lock()
	if s.sweeps[sw.groupSha] == sw {
		delete(s.sweeps, sw.groupSha)
	}
	s.mu.Unlock()

	sw.cancel()
	close(sw.done)

	observability.SweepCount.WithLabelValues(string(final.State)).Inc()
	log.Info().
		Str("groupSha", sw.groupSha).
		Str("state", string(final.State)).
		Int("completed", final.Completed).
		Int("failed", final.Failed).
		Int("expected", final.Expected).
		Msg("Group sweep finished")
}

// persist writes progress to the group document and the status channel.
// Failures are logged; progress is advisory and the next write supersedes it.
func (s *GroupService) persist(sw *sweep, progress models.Progress) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(sw.ctx), persistTimeout)
	defer cancel()

	if err := s.store.UpdateGroupProgress(ctx, sw.groupSha, progress); err != nil {
		log.Warn().Err(err).Str("groupSha", sw.groupSha).Msg("Failed to persist group progress")
	}
	if err := s.status.Publish(ctx, sw.groupSha, progress); err != nil {
		log.Warn().Err(err).Str("groupSha", sw.groupSha).Msg("Failed to publish group progress")
	}
}
