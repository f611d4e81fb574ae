package plagiarism

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/RishiKendai/clonescope/internal/engine"
	"github.com/RishiKendai/clonescope/internal/models"
)

const (
	controllerSource = "@RestController\npublic class UserController {\n  @GetMapping(\"/u\")\n  public User get() { return null; }\n}\n"
	serviceSource    = "@Service\npublic class UserService {\n}\n"
	plainSource      = "public class Util {\n}\n"
)

type engineStub struct {
	mu      sync.Mutex
	calls   int
	analyze func(ctx context.Context, files []engine.File) ([]engine.Match, error)
}

func (e *engineStub) Analyze(ctx context.Context, files []engine.File) ([]engine.Match, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.analyze != nil {
		return e.analyze(ctx, files)
	}
	return matchAcrossSources(files, 0.8), nil
}

func (e *engineStub) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// matchAcrossSources matches every pair of files from different sources
// without looking at categories, leaving filtering to the caller.
func matchAcrossSources(files []engine.File, similarity float64) []engine.Match {
	var out []engine.Match
	for i := 0; i < len(files); i++ {
		for j := i + 1; j < len(files); j++ {
			if files[i].Source == files[j].Source {
				continue
			}
			out = append(out, engine.Match{
				LeftID:          files[i].ID,
				RightID:         files[j].ID,
				Similarity:      similarity,
				Overlap:         40,
				LongestFragment: 20,
				Fragments: []models.Fragment{{
					LeftStartRow: 1, LeftEndRow: 3, RightStartRow: 2, RightEndRow: 4,
				}},
			})
		}
	}
	return out
}

type loaderStub struct {
	contents map[string]*models.RepositoryContent
	failures map[string]error
}

func (l *loaderStub) Fetch(ctx context.Context, actor string, ref models.RepositoryRef) (*models.RepositoryContent, error) {
	if err, ok := l.failures[ref.FullName()]; ok {
		return nil, err
	}
	content, ok := l.contents[ref.FullName()]
	if !ok {
		return nil, fmt.Errorf("repository %s: %w", ref.FullName(), errors.New("not found"))
	}
	return content, nil
}

type publisherSpy struct {
	mu        sync.Mutex
	published []models.Progress
}

func (p *publisherSpy) Publish(ctx context.Context, groupSha string, progress models.Progress) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, progress)
	return nil
}

func (p *publisherSpy) States() []models.SweepState {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.SweepState, len(p.published))
	for i, pr := range p.published {
		out[i] = pr.State
	}
	return out
}

type statusReaderStub struct {
	progress models.Progress
}

func (r *statusReaderStub) Publish(context.Context, string, models.Progress) error { return nil }

func (r *statusReaderStub) Status(context.Context, string) (models.Progress, bool, error) {
	return r.progress, true, nil
}

func repoContent(sha, name string, files ...models.RawFile) *models.RepositoryContent {
	return &models.RepositoryContent{Sha: sha, Owner: "acme", Name: name, Files: files}
}

func rawFile(path, sha, content string) models.RawFile {
	return models.RawFile{Path: path, Sha: sha, Content: content}
}
