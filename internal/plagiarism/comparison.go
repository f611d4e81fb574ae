package plagiarism

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/RishiKendai/clonescope/internal/engine"
	"github.com/RishiKendai/clonescope/internal/models"
	"github.com/RishiKendai/clonescope/internal/observability"
	"github.com/RishiKendai/clonescope/internal/repository"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Comparer drives one repository pair comparison from classification to
// persistence. It is safe for concurrent use.
type Comparer struct {
	store   repository.Store
	engine  engine.Engine
	timeout time.Duration
	now     func() time.Time

	flights  singleflight.Group
	mu       sync.Mutex
	inflight map[string]*flight
}

// flight is a shared comparison run and the number of callers waiting on it
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

func NewComparer(store repository.Store, eng engine.Engine, timeout time.Duration) *Comparer {
	return &Comparer{
		store:    store,
		engine:   eng,
		timeout:  timeout,
		now:      time.Now,
		inflight: make(map[string]*flight),
	}
}

// classifiedFile is a loaded file that survived classification
type classifiedFile struct {
	raw           models.RawFile
	repositorySha string
	category      models.Category
	lineCount     int
	charCount     int
}

func (f *classifiedFile) key() string {
	return models.FileKey(f.repositorySha, f.raw.Sha)
}

func (f *classifiedFile) side() models.PairSide {
	return models.PairSide{
		FileSha:       f.raw.Sha,
		RepositorySha: f.repositorySha,
		Filepath:      f.raw.Path,
		CharCount:     f.charCount,
		LineCount:     f.lineCount,
		Category:      f.category,
	}
}

func (f *classifiedFile) record() *models.File {
	return &models.File{
		Sha:           f.raw.Sha,
		RepositorySha: f.repositorySha,
		Filepath:      f.raw.Path,
		CharCount:     f.charCount,
		LineCount:     f.lineCount,
		Language:      DetectLanguage(f.raw.Path),
		Category:      f.category,
	}
}

// Compare returns the comparison of the two repositories, running the analysis
// only when no comparison with the same identity exists. Argument order does
// not matter.
func (c *Comparer) Compare(ctx context.Context, left, right *models.RepositoryContent) (*models.Comparison, error) {
	key, err := c.key(left, right)
	if err != nil {
		return nil, err
	}

	return c.share(ctx, key, func(ctx context.Context) (*models.Comparison, error) {
		existing, err := c.store.GetComparison(ctx, key)
		if err == nil {
			log.Debug().Str("comparisonSha", key).Msg("Comparison already exists, reusing")
			observability.ComparisonCount.WithLabelValues("reused").Inc()
			return existing, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up comparison: %w", err)
		}
		return c.run(ctx, key, left, right, false)
	})
}

// Recompare always re-runs the analysis and replaces the stored pairs of the
// comparison.
func (c *Comparer) Recompare(ctx context.Context, left, right *models.RepositoryContent) (*models.Comparison, error) {
	key, err := c.key(left, right)
	if err != nil {
		return nil, err
	}

	return c.share(ctx, "recompare:"+key, func(ctx context.Context) (*models.Comparison, error) {
		return c.run(ctx, key, left, right, true)
	})
}

// share runs fn once per key across concurrent callers. The run is detached
// from any single caller: it stops only when every waiting caller has gone or
// the comparer timeout in run expires.
func (c *Comparer) share(ctx context.Context, key string, fn func(ctx context.Context) (*models.Comparison, error)) (*models.Comparison, error) {
	f := c.join(ctx, key)
	ch := c.flights.DoChan(key, func() (interface{}, error) {
		defer c.land(key, f)
		return fn(f.ctx)
	})

	select {
	case <-ctx.Done():
		c.leave(key, f, true)
		return nil, ctx.Err()
	case res := <-ch:
		c.leave(key, f, false)
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			log.Trace().Str("comparisonSha", key).Msg("Comparison shared with a concurrent caller")
		}
		return res.Val.(*models.Comparison), nil
	}
}

func (c *Comparer) join(ctx context.Context, key string) *flight {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.inflight[key]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		c.inflight[key] = f
	}
	f.waiters++
	return f
}

// leave drops a waiter. The last waiter to give up cancels the run and lets
// later callers start a fresh one.
func (c *Comparer) leave(key string, f *flight, abandoned bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f.waiters--
	if !abandoned || f.waiters > 0 {
		return
	}
	f.cancel()
	if c.inflight[key] == f {
		delete(c.inflight, key)
		c.flights.Forget(key)
	}
}

// land forgets a finished run so the next caller reads the stored result
func (c *Comparer) land(key string, f *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight[key] == f {
		delete(c.inflight, key)
	}
}

func (c *Comparer) key(left, right *models.RepositoryContent) (string, error) {
	if left == nil || right == nil || left.Sha == "" || right.Sha == "" {
		return "", ErrMissingContent
	}
	if left.Sha == right.Sha {
		return "", ErrSameRepository
	}
	return ComparisonKey(left.Sha, right.Sha), nil
}

func (c *Comparer) run(ctx context.Context, key string, left, right *models.RepositoryContent, replace bool) (*models.Comparison, error) {
	start := time.Now()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	leftFiles := classifyContent(left)
	rightFiles := classifyContent(right)

	byKey := make(map[string]*classifiedFile, len(leftFiles)+len(rightFiles))
	inputs := make([]engine.File, 0, len(leftFiles)+len(rightFiles))
	for _, f := range append(leftFiles, rightFiles...) {
		if _, dup := byKey[f.key()]; dup {
			continue
		}
		byKey[f.key()] = f
		inputs = append(inputs, engine.File{
			ID:       f.key(),
			Path:     f.raw.Path,
			Content:  f.raw.Content,
			Source:   f.repositorySha,
			Category: f.category,
		})
	}

	log.Debug().
		Str("comparisonSha", key).
		Str("left", left.Ref().FullName()).
		Str("right", right.Ref().FullName()).
		Int("files", len(inputs)).
		Msg("Starting comparison")

	var matches []engine.Match
	if len(leftFiles) > 0 && len(rightFiles) > 0 {
		var err error
		matches, err = c.engine.Analyze(ctx, inputs)
		if err != nil {
			observability.ComparisonCount.WithLabelValues("failed").Inc()
			log.Error().Err(err).Str("comparisonSha", key).Msg("Fingerprint analysis failed")
			return nil, fmt.Errorf("fingerprint analysis failed: %w", err)
		}
	}

	pairs, files := retainPairs(key, left.Sha, matches, byKey)
	summary := Summarize(pairs)

	repoShas := []string{left.Sha, right.Sha}
	sort.Strings(repoShas)
	comparison := &models.Comparison{
		Sha:            key,
		RepositoryShas: repoShas,
		Similarity:     summary.Similarity,
		MaxSimilarity:  summary.MaxSimilarity,
		Risk:           summary.Risk,
		PairCount:      summary.PairCount,
		CreatedAt:      c.now(),
	}

	// repositories must exist before the comparison that links them
	if err := c.upsertRepository(ctx, left, leftFiles); err != nil {
		observability.ComparisonCount.WithLabelValues("failed").Inc()
		return nil, err
	}
	if err := c.upsertRepository(ctx, right, rightFiles); err != nil {
		observability.ComparisonCount.WithLabelValues("failed").Inc()
		return nil, err
	}

	if replace {
		if err := c.store.ReplaceComparison(ctx, comparison, files, pairs); err != nil {
			observability.ComparisonCount.WithLabelValues("failed").Inc()
			return nil, err
		}
	} else {
		err := c.store.CreateComparison(ctx, comparison, files, pairs)
		if errors.Is(err, repository.ErrDuplicate) {
			// another process created it first
			observability.ComparisonCount.WithLabelValues("reused").Inc()
			return c.store.GetComparison(ctx, key)
		}
		if err != nil {
			observability.ComparisonCount.WithLabelValues("failed").Inc()
			return nil, err
		}
	}

	observability.ComparisonCount.WithLabelValues("completed").Inc()
	observability.ComparisonDuration.Observe(time.Since(start).Seconds())
	log.Info().
		Str("comparisonSha", key).
		Int("pairs", comparison.PairCount).
		Float64("similarity", comparison.Similarity).
		Str("risk", comparison.Risk).
		Dur("took", time.Since(start)).
		Msg("Comparison completed")

	return comparison, nil
}

func (c *Comparer) upsertRepository(ctx context.Context, content *models.RepositoryContent, files []*classifiedFile) error {
	total := 0
	for _, f := range files {
		total += f.lineCount
	}
	_, err := c.store.UpsertRepository(ctx, &models.Repository{
		Sha:        content.Sha,
		Owner:      content.Owner,
		Name:       content.Name,
		TotalLines: total,
		CreatedAt:  c.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert repository %s: %w", content.Ref().FullName(), err)
	}
	return nil
}

// classifyContent drops files the classifier cannot place in a layer
func classifyContent(content *models.RepositoryContent) []*classifiedFile {
	out := make([]*classifiedFile, 0, len(content.Files))
	for _, raw := range content.Files {
		category := Classify(raw.Content)
		if category == models.CategoryUnknown {
			continue
		}
		out = append(out, &classifiedFile{
			raw:           raw,
			repositorySha: content.Sha,
			category:      category,
			lineCount:     countLines(raw.Content),
			charCount:     utf8.RuneCountInString(raw.Content),
		})
	}
	return out
}

// retainPairs keeps matches across the two repositories whose files share a
// category. Pairs are oriented with the left repository's file on the left.
func retainPairs(comparisonSha, leftRepoSha string, matches []engine.Match, byKey map[string]*classifiedFile) ([]*models.Pair, []*models.File) {
	pairs := make([]*models.Pair, 0, len(matches))
	files := make([]*models.File, 0)
	seenPairs := make(map[string]bool)
	seenFiles := make(map[string]bool)

	for _, m := range matches {
		l, lok := byKey[m.LeftID]
		r, rok := byKey[m.RightID]
		if !lok || !rok {
			continue
		}
		if l.repositorySha == r.repositorySha {
			continue
		}
		if l.category != r.category || !l.category.Comparable() {
			continue
		}

		fragments := append([]models.Fragment(nil), m.Fragments...)
		if l.repositorySha != leftRepoSha {
			l, r = r, l
			for i, f := range fragments {
				fragments[i] = f.Swapped()
			}
		}

		id := PairKey(comparisonSha, l.key(), r.key())
		if seenPairs[id] {
			continue
		}
		seenPairs[id] = true

		pairs = append(pairs, &models.Pair{
			ID:              id,
			ComparisonSha:   comparisonSha,
			Similarity:      m.Similarity,
			TotalOverlap:    m.Overlap,
			LongestFragment: m.LongestFragment,
			Left:            l.side(),
			Right:           r.side(),
			Fragments:       fragments,
		})

		for _, f := range []*classifiedFile{l, r} {
			if !seenFiles[f.key()] {
				seenFiles[f.key()] = true
				files = append(files, f.record())
			}
		}
	}
	return pairs, files
}

func countLines(content string) int {
	if content == "" {
		return 0
	}
	n := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		n++
	}
	return n
}
