package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/RishiKendai/clonescope/internal/models"
)

// MemoryStore is a process-local Store. Every read returns copies so callers
// never share state with the store.
type MemoryStore struct {
	mu           sync.RWMutex
	repositories map[string]*models.Repository
	files        map[string]*models.File
	comparisons  map[string]*models.Comparison
	pairs        map[string]*models.Pair
	pairOrder    []string
	groups       map[string]*models.Group
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		repositories: make(map[string]*models.Repository),
		files:        make(map[string]*models.File),
		comparisons:  make(map[string]*models.Comparison),
		pairs:        make(map[string]*models.Pair),
		groups:       make(map[string]*models.Group),
	}
}

func (s *MemoryStore) UpsertRepository(ctx context.Context, repo *models.Repository) (*models.Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.repositories[repo.Sha]; ok {
		return copyRepository(existing), nil
	}
	stored := copyRepository(repo)
	if stored.ComparisonShas == nil {
		stored.ComparisonShas = []string{}
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	s.repositories[repo.Sha] = stored
	return copyRepository(stored), nil
}

func (s *MemoryStore) GetRepository(ctx context.Context, sha string) (*models.Repository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	repo, ok := s.repositories[sha]
	if !ok {
		return nil, ErrNotFound
	}
	return copyRepository(repo), nil
}

func (s *MemoryStore) ListRepositories(ctx context.Context, shas []string) ([]*models.Repository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Repository, 0, len(shas))
	for _, sha := range uniqueStrings(shas) {
		if repo, ok := s.repositories[sha]; ok {
			out = append(out, copyRepository(repo))
		}
	}
	return out, nil
}

func (s *MemoryStore) GetComparison(ctx context.Context, sha string) (*models.Comparison, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comparisons[sha]
	if !ok {
		return nil, ErrNotFound
	}
	return copyComparison(c), nil
}

func (s *MemoryStore) ListComparisons(ctx context.Context, shas []string) ([]*models.Comparison, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Comparison, 0, len(shas))
	for _, sha := range uniqueStrings(shas) {
		if c, ok := s.comparisons[sha]; ok {
			out = append(out, copyComparison(c))
		}
	}
	return out, nil
}

func (s *MemoryStore) AllComparisons(ctx context.Context) ([]*models.Comparison, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Comparison, 0, len(s.comparisons))
	for _, c := range s.comparisons {
		out = append(out, copyComparison(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) CreateComparison(ctx context.Context, comparison *models.Comparison, files []*models.File, pairs []*models.Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comparisons[comparison.Sha]; ok {
		return ErrDuplicate
	}
	s.writeComparison(comparison, files, pairs)
	return nil
}

func (s *MemoryStore) ReplaceComparison(ctx context.Context, comparison *models.Comparison, files []*models.File, pairs []*models.Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.pairOrder[:0]
	for _, id := range s.pairOrder {
		if s.pairs[id].ComparisonSha == comparison.Sha {
			delete(s.pairs, id)
			continue
		}
		kept = append(kept, id)
	}
	s.pairOrder = kept

	s.writeComparison(comparison, files, pairs)
	return nil
}

// writeComparison must be called with the write lock held
func (s *MemoryStore) writeComparison(comparison *models.Comparison, files []*models.File, pairs []*models.Pair) {
	s.comparisons[comparison.Sha] = copyComparison(comparison)

	for _, repoSha := range comparison.RepositoryShas {
		if repo, ok := s.repositories[repoSha]; ok {
			repo.ComparisonShas = appendUnique(repo.ComparisonShas, comparison.Sha)
		}
	}
	for _, f := range files {
		if _, ok := s.files[f.Key()]; !ok {
			fc := *f
			s.files[f.Key()] = &fc
		}
	}
	for _, p := range pairs {
		if _, ok := s.pairs[p.ID]; !ok {
			s.pairOrder = append(s.pairOrder, p.ID)
		}
		s.pairs[p.ID] = copyPair(p)
	}
}

func (s *MemoryStore) GetPair(ctx context.Context, id string) (*models.Pair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pairs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyPair(p), nil
}

func (s *MemoryStore) ListPairs(ctx context.Context, comparisonShas []string) ([]*models.Pair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(comparisonShas))
	for _, sha := range comparisonShas {
		wanted[sha] = true
	}
	out := make([]*models.Pair, 0)
	for _, id := range s.pairOrder {
		p := s.pairs[id]
		if wanted[p.ComparisonSha] {
			out = append(out, copyPair(p))
		}
	}
	return out, nil
}

func (s *MemoryStore) AllPairs(ctx context.Context) ([]*models.Pair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Pair, 0, len(s.pairOrder))
	for _, id := range s.pairOrder {
		out = append(out, copyPair(s.pairs[id]))
	}
	return out, nil
}

func (s *MemoryStore) GetFile(ctx context.Context, repositorySha, sha string) (*models.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[models.FileKey(repositorySha, sha)]
	if !ok {
		return nil, ErrNotFound
	}
	fc := *f
	return &fc, nil
}

func (s *MemoryStore) ListFiles(ctx context.Context, repositoryShas []string) ([]*models.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(repositoryShas))
	for _, sha := range repositoryShas {
		wanted[sha] = true
	}
	out := make([]*models.File, 0)
	for _, f := range s.files {
		if wanted[f.RepositorySha] {
			fc := *f
			out = append(out, &fc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RepositorySha != out[j].RepositorySha {
			return out[i].RepositorySha < out[j].RepositorySha
		}
		return out[i].Filepath < out[j].Filepath
	})
	return out, nil
}

func (s *MemoryStore) CreateGroup(ctx context.Context, group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[group.Sha]; ok {
		return ErrDuplicate
	}
	stored := copyGroup(group)
	if stored.ComparisonShas == nil {
		stored.ComparisonShas = []string{}
	}
	s.groups[group.Sha] = stored
	return nil
}

func (s *MemoryStore) GetGroup(ctx context.Context, sha string) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[sha]
	if !ok {
		return nil, ErrNotFound
	}
	return copyGroup(g), nil
}

func (s *MemoryStore) ListGroups(ctx context.Context) ([]*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Group, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, copyGroup(g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) UpdateGroupMembers(ctx context.Context, sha string, repositoryShas []string, numberOfRepos int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[sha]
	if !ok {
		return ErrNotFound
	}
	for _, repoSha := range repositoryShas {
		g.RepositoryShas = appendUnique(g.RepositoryShas, repoSha)
	}
	g.NumberOfRepos = numberOfRepos
	g.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) LinkComparison(ctx context.Context, groupSha, comparisonSha string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupSha]
	if !ok {
		return ErrNotFound
	}
	g.ComparisonShas = appendUnique(g.ComparisonShas, comparisonSha)
	g.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) UpdateGroupProgress(ctx context.Context, sha string, progress models.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[sha]
	if !ok {
		return ErrNotFound
	}
	g.Progress = progress
	g.UpdatedAt = time.Now()
	return nil
}

func copyRepository(r *models.Repository) *models.Repository {
	out := *r
	out.ComparisonShas = append([]string{}, r.ComparisonShas...)
	return &out
}

func copyComparison(c *models.Comparison) *models.Comparison {
	out := *c
	out.RepositoryShas = append([]string{}, c.RepositoryShas...)
	return &out
}

func copyPair(p *models.Pair) *models.Pair {
	out := *p
	out.Fragments = append([]models.Fragment(nil), p.Fragments...)
	return &out
}

func copyGroup(g *models.Group) *models.Group {
	out := *g
	out.RepositoryShas = append([]string{}, g.RepositoryShas...)
	out.ComparisonShas = append([]string{}, g.ComparisonShas...)
	return &out
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
