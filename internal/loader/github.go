package loader

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/RishiKendai/clonescope/internal/models"
	"github.com/RishiKendai/clonescope/internal/observability"
	gh "github.com/google/go-github/v66/github"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	blobType           = "blob"
	maxBlobSize        = 1 << 20
	defaultConcurrency = 8
)

type Options struct {
	PathPrefix  string
	Extension   string
	Branch      string // empty reads the default branch
	Concurrency int
	BaseURL     string // empty uses api.github.com
}

// GitHubLoader reads repositories through the GitHub REST API. A client is
// built for every call from the actor's own token.
type GitHubLoader struct {
	tokens *TokenSource
	cache  BlobCache
	opts   Options
}

func NewGitHubLoader(tokens *TokenSource, cache BlobCache, opts Options) *GitHubLoader {
	if cache == nil {
		cache = noopCache{}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	return &GitHubLoader{tokens: tokens, cache: cache, opts: opts}
}

func (l *GitHubLoader) client(token string) (*gh.Client, error) {
	client := gh.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	if l.opts.BaseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(l.opts.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub base URL: %w", err)
		}
		client.BaseURL = base
	}
	return client, nil
}

// Fetch reads the filtered files of the repository at the head of the
// configured branch. Blobs that cannot be read are skipped; failing to read
// the repository or its tree fails the call.
func (l *GitHubLoader) Fetch(ctx context.Context, actor string, ref models.RepositoryRef) (*models.RepositoryContent, error) {
	client, err := l.client(l.tokens.Token(ctx, actor))
	if err != nil {
		return nil, err
	}

	branch := l.opts.Branch
	if branch == "" {
		repo, _, err := client.Repositories.Get(ctx, ref.Owner, ref.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrRepositoryUnavailable, ref.FullName(), err)
		}
		branch = repo.GetDefaultBranch()
	}

	tree, _, err := client.Git.GetTree(ctx, ref.Owner, ref.Name, branch, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %s tree %s: %w", ErrRepositoryUnavailable, ref.FullName(), branch, err)
	}
	if tree.GetTruncated() {
		log.Warn().Str("repository", ref.FullName()).Msg("Repository tree truncated, some files will be missing")
	}

	entries := make([]*gh.TreeEntry, 0, len(tree.Entries))
	for _, entry := range tree.Entries {
		if l.wanted(entry) {
			entries = append(entries, entry)
		}
	}

	files, err := l.readBlobs(ctx, client, ref, entries)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("repository", ref.FullName()).
		Str("treeSha", tree.GetSHA()).
		Int("candidates", len(entries)).
		Int("files", len(files)).
		Msg("Repository content loaded")

	return &models.RepositoryContent{
		Sha:   tree.GetSHA(),
		Owner: ref.Owner,
		Name:  ref.Name,
		Files: files,
	}, nil
}

func (l *GitHubLoader) wanted(entry *gh.TreeEntry) bool {
	if entry.GetType() != blobType || entry.GetSize() > maxBlobSize {
		return false
	}
	path := entry.GetPath()
	if l.opts.PathPrefix != "" && !strings.HasPrefix(path, l.opts.PathPrefix) {
		return false
	}
	if l.opts.Extension != "" && !strings.HasSuffix(path, l.opts.Extension) {
		return false
	}
	return true
}

// readBlobs reads every entry concurrently and keeps tree order
func (l *GitHubLoader) readBlobs(ctx context.Context, client *gh.Client, ref models.RepositoryRef, entries []*gh.TreeEntry) ([]models.RawFile, error) {
	contents := make([]*models.RawFile, len(entries))
	var mu sync.Mutex
	skipped := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Concurrency)
	for i, entry := range entries {
		g.Go(func() error {
			content, err := l.blob(gctx, client, ref, entry.GetSHA())
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warn().Err(err).
					Str("repository", ref.FullName()).
					Str("path", entry.GetPath()).
					Msg("Failed to read blob, skipping file")
				mu.Lock()
				skipped++
				mu.Unlock()
				return nil
			}
			contents[i] = &models.RawFile{Path: entry.GetPath(), Sha: entry.GetSHA(), Content: content}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	files := make([]models.RawFile, 0, len(entries)-skipped)
	for _, f := range contents {
		if f != nil {
			files = append(files, *f)
		}
	}
	return files, nil
}

func (l *GitHubLoader) blob(ctx context.Context, client *gh.Client, ref models.RepositoryRef, sha string) (string, error) {
	key := blobKey(ref.Owner, ref.Name, sha)
	content, ok, err := l.cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Blob cache unavailable")
	}
	if ok {
		observability.BlobCacheLookups.WithLabelValues("hit").Inc()
		return content, nil
	}
	observability.BlobCacheLookups.WithLabelValues("miss").Inc()

	raw, _, err := client.Git.GetBlobRaw(ctx, ref.Owner, ref.Name, sha)
	if err != nil {
		return "", fmt.Errorf("failed to read blob %s: %w", sha, err)
	}
	content = string(raw)
	if err := l.cache.Set(ctx, key, content); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to cache blob")
	}
	return content, nil
}
