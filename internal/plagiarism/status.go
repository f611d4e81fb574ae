package plagiarism

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/RishiKendai/clonescope/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	statusKeyPrefix = "clonescope:group_status:"
	statusTTL       = 12 * time.Hour
)

// StatusPublisher exposes sweep progress to pollers outside the store
type StatusPublisher interface {
	Publish(ctx context.Context, groupSha string, progress models.Progress) error
}

// StatusReader reads back progress published by any instance
type StatusReader interface {
	Status(ctx context.Context, groupSha string) (models.Progress, bool, error)
}

type RedisStatusPublisher struct {
	client *redis.Client
}

func NewRedisStatusPublisher(client *redis.Client) *RedisStatusPublisher {
	return &RedisStatusPublisher{client: client}
}

func statusKey(groupSha string) string {
	return statusKeyPrefix + groupSha
}

func (p *RedisStatusPublisher) Publish(ctx context.Context, groupSha string, progress models.Progress) error {
	validStates := map[models.SweepState]bool{
		models.SweepIdle:      true,
		models.SweepInitiated: true,
		models.SweepFetching:  true,
		models.SweepComparing: true,
		models.SweepCompleted: true,
		models.SweepPartial:   true,
		models.SweepCancelled: true,
	}
	if !validStates[progress.State] {
		return fmt.Errorf("unknown sweep state: %s", progress.State)
	}

	payload, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("failed to encode progress: %w", err)
	}

	rkey := statusKey(groupSha)
	if err := p.client.Set(ctx, rkey, payload, statusTTL).Err(); err != nil {
		log.Error().Err(err).
			Str("state", string(progress.State)).
			Str("groupSha", groupSha).
			Str("redisKey", rkey).
			Msg("Failed to update status in Redis")
		return fmt.Errorf("failed to update status in Redis: %w", err)
	}

	log.Trace().
		Str("state", string(progress.State)).
		Int("completed", progress.Completed).
		Int("expected", progress.Expected).
		Msg("Status updated in Redis")

	return nil
}

// Status reads the last published progress. ok is false when nothing was
// published in the last statusTTL.
func (p *RedisStatusPublisher) Status(ctx context.Context, groupSha string) (progress models.Progress, ok bool, err error) {
	raw, err := p.client.Get(ctx, statusKey(groupSha)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Progress{}, false, nil
	}
	if err != nil {
		return models.Progress{}, false, fmt.Errorf("failed to read status from Redis: %w", err)
	}
	if err := json.Unmarshal(raw, &progress); err != nil {
		return models.Progress{}, false, fmt.Errorf("failed to decode progress: %w", err)
	}
	return progress, true, nil
}

// noopPublisher is used when no status channel is configured
type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, models.Progress) error { return nil }
