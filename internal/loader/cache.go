package loader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	blobKeyPrefix = "clonescope:blob:"
	blobTTL       = time.Hour
)

// BlobCache keeps blob contents between fetches. Blob shas are content
// addressed, so an entry never goes stale; the TTL only bounds memory.
type BlobCache interface {
	Get(ctx context.Context, key string) (content string, ok bool, err error)
	Set(ctx context.Context, key, content string) error
}

func blobKey(owner, name, sha string) string {
	return blobKeyPrefix + owner + "/" + name + ":" + sha
}

type RedisBlobCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisBlobCache(client *redis.Client) *RedisBlobCache {
	return &RedisBlobCache{client: client, ttl: blobTTL}
}

func (c *RedisBlobCache) Get(ctx context.Context, key string) (string, bool, error) {
	content, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read blob cache: %w", err)
	}
	return content, true, nil
}

func (c *RedisBlobCache) Set(ctx context.Context, key, content string) error {
	if err := c.client.Set(ctx, key, content, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write blob cache: %w", err)
	}
	return nil
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (noopCache) Set(context.Context, string, string) error         { return nil }
