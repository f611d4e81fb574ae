package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RishiKendai/clonescope/internal/models"
	"github.com/RishiKendai/clonescope/internal/observability"
	"github.com/RishiKendai/clonescope/internal/plagiarism"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Groups is the part of the group service driven by stream requests
type Groups interface {
	CreateGroup(ctx context.Context, actor string, refs []models.RepositoryRef) (*models.Group, error)
	UpdateGroupReusing(ctx context.Context, sha, actor string, refs []models.RepositoryRef) (*models.Group, error)
	UpdateGroupRecomputing(ctx context.Context, sha, actor string, refs []models.RepositoryRef) (*models.Group, error)
}

const (
	readBatch    = 10
	readBlock    = time.Second
	reclaimIdle  = time.Minute
	reclaimBatch = 100
	reclaimEvery = 30 * time.Second
	trimEvery    = time.Hour
)

// Consumer turns group request stream entries into group service calls
type Consumer struct {
	client        *redis.Client
	streamKey     string
	consumerGroup string
	consumerName  string
	groups        Groups
	retry         *RetryHandler
	retention     time.Duration
}

func NewConsumer(
	client *redis.Client,
	streamKey string,
	consumerGroup string,
	consumerName string,
	groups Groups,
	retryHandler *RetryHandler,
	retentionDuration time.Duration,
) *Consumer {
	return &Consumer{
		client:        client,
		streamKey:     streamKey,
		consumerGroup: consumerGroup,
		consumerName:  consumerName,
		groups:        groups,
		retry:         retryHandler,
		retention:     retentionDuration,
	}
}

// Start reads requests until ctx ends. Entries another consumer left pending
// for longer than reclaimIdle are claimed and handled here.
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		return err
	}
	go c.trimPeriodically(ctx)

	reclaim := time.NewTicker(reclaimEvery)
	defer reclaim.Stop()
	c.reclaim(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-reclaim.C:
			c.reclaim(ctx)
		default:
		}

		if err := c.read(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error().Err(err).Str("stream", c.streamKey).Msg("Error reading group requests")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
		}
	}
}

// ensureGroup creates the stream and its consumer group. The group starts at
// the beginning of the stream so requests queued before the first start are
// still served.
func (c *Consumer) ensureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.streamKey, c.consumerGroup, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	log.Info().
		Str("group", c.consumerGroup).
		Str("stream", c.streamKey).
		Str("consumer", c.consumerName).
		Msg("Consuming group requests")
	return nil
}

func (c *Consumer) read(ctx context.Context) error {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.consumerGroup,
		Consumer: c.consumerName,
		Streams:  []string{c.streamKey, ">"},
		Count:    readBatch,
		Block:    readBlock,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, stream := range streams {
		for _, msg := range stream.Messages {
			c.process(ctx, msg)
		}
	}
	return nil
}

func (c *Consumer) reclaim(ctx context.Context) {
	start := "0-0"
	for {
		msgs, next, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   c.streamKey,
			Group:    c.consumerGroup,
			Consumer: c.consumerName,
			MinIdle:  reclaimIdle,
			Start:    start,
			Count:    reclaimBatch,
		}).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				log.Warn().Err(err).Msg("Failed to reclaim pending group requests")
			}
			return
		}
		if len(msgs) == 0 {
			return
		}

		log.Info().Int("claimed", len(msgs)).Msg("Reclaimed pending group requests")
		for _, msg := range msgs {
			c.process(ctx, msg)
		}
		if next == "0-0" {
			return
		}
		start = next
	}
}

// process handles one entry and acknowledges it once it needs no more work
func (c *Consumer) process(ctx context.Context, msg redis.XMessage) {
	if !c.handle(ctx, msg) {
		return
	}
	if err := c.client.XAck(ctx, c.streamKey, c.consumerGroup, msg.ID).Err(); err != nil {
		log.Error().Err(err).Str("message_id", msg.ID).Msg("Failed to acknowledge message")
	}
}

// handle runs one request and reports whether the entry is settled. Requests
// cut short by shutdown stay pending so a later start reclaims them.
func (c *Consumer) handle(ctx context.Context, msg redis.XMessage) bool {
	fields := make(map[string]string, len(msg.Values))
	for key, val := range msg.Values {
		if value, ok := val.(string); ok {
			fields[key] = value
		}
	}

	req, err := ParseGroupRequest(&StreamMessage{ID: msg.ID, Fields: fields})
	if err != nil {
		log.Error().Err(err).Str("message_id", msg.ID).Msg("Dropping invalid group request")
		observability.StreamMessages.WithLabelValues("invalid").Inc()
		return true
	}

	err = c.retry.RetryWithBackoff(ctx, func() error {
		return c.dispatch(ctx, req)
	}, msg.ID, msg.Values)
	switch {
	case err == nil:
		observability.StreamMessages.WithLabelValues("processed").Inc()
		return true
	case ctx.Err() != nil:
		log.Info().Str("message_id", msg.ID).Msg("Group request interrupted, leaving it pending")
		return false
	default:
		observability.StreamMessages.WithLabelValues("dead_lettered").Inc()
		return true
	}
}

// dispatch runs the request against the group service. Requests that can
// never succeed are marked permanent so they skip the retries.
func (c *Consumer) dispatch(ctx context.Context, req *GroupRequest) error {
	var (
		group *models.Group
		err   error
	)
	switch req.Mode {
	case ModeReuse:
		group, err = c.groups.UpdateGroupReusing(ctx, req.GroupSha, req.Actor, req.Repositories)
	case ModeRecompute:
		group, err = c.groups.UpdateGroupRecomputing(ctx, req.GroupSha, req.Actor, req.Repositories)
	default:
		group, err = c.groups.CreateGroup(ctx, req.Actor, req.Repositories)
	}

	if errors.Is(err, plagiarism.ErrGroupNotFound) || errors.Is(err, plagiarism.ErrTooFewRepositories) {
		return Permanent(err)
	}
	if err != nil {
		return err
	}

	log.Info().
		Str("groupSha", group.Sha).
		Str("mode", string(req.Mode)).
		Int("repositories", len(req.Repositories)).
		Msg("Group request accepted")
	return nil
}

// trimPeriodically drops entries older than the retention window
func (c *Consumer) trimPeriodically(ctx context.Context) {
	ticker := time.NewTicker(trimEvery)
	defer ticker.Stop()

	for {
		minID := fmt.Sprintf("%d-0", time.Now().Add(-c.retention).UnixMilli())
		trimmed, err := c.client.XTrimMinID(ctx, c.streamKey, minID).Result()
		switch {
		case err != nil && ctx.Err() == nil:
			log.Error().Err(err).Str("stream", c.streamKey).Msg("Failed to trim group request stream")
		case trimmed > 0:
			log.Debug().Int64("trimmed", trimmed).Dur("retention", c.retention).Msg("Trimmed group request stream")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
