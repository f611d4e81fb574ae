package stream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks an error that retrying cannot fix
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func isPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

type RetryHandler struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	deadLetter func(ctx context.Context, values map[string]interface{}) error
}

func NewRetryHandler(client *redis.Client, deadLetterKey string, maxRetries int, baseDelay time.Duration) *RetryHandler {
	return &RetryHandler{
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   30 * time.Second,
		deadLetter: func(ctx context.Context, values map[string]interface{}) error {
			return client.XAdd(ctx, &redis.XAddArgs{
				Stream: deadLetterKey,
				Values: values,
			}).Err()
		},
	}
}

// backoff returns the delay before retry attempt n (0 based)
func (h *RetryHandler) backoff(n int) time.Duration {
	d := h.baseDelay << n
	if d <= 0 || d > h.maxDelay {
		return h.maxDelay
	}
	return d
}

// RetryWithBackoff runs fn until it succeeds, fails permanently or runs out
// of retries. Messages that never succeed are moved to the dead letter stream,
// unless ctx ended first.
func (h *RetryHandler) RetryWithBackoff(ctx context.Context, fn func() error, messageID string, fields map[string]interface{}) error {
	var err error
	attempts := 0
	for attempt := 0; attempt <= h.maxRetries; attempt++ {
		attempts++
		if err = fn(); err == nil {
			return nil
		}
		if isPermanent(err) || attempt == h.maxRetries {
			break
		}

		delay := h.backoff(attempt)
		log.Warn().
			Err(err).
			Str("message_id", messageID).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("Processing failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	h.sendToDeadLetter(ctx, messageID, fields, attempts, err)
	return err
}

func (h *RetryHandler) sendToDeadLetter(ctx context.Context, messageID string, fields map[string]interface{}, attempts int, cause error) {
	values := make(map[string]interface{}, len(fields)+4)
	for k, v := range fields {
		values[k] = v
	}
	values["original_id"] = messageID
	values["error"] = cause.Error()
	values["attempts"] = fmt.Sprint(attempts)
	values["failed_at"] = time.Now().UTC().Format(time.RFC3339)

	if err := h.deadLetter(ctx, values); err != nil {
		log.Error().Err(err).Str("message_id", messageID).Msg("Failed to move message to dead letter stream")
		return
	}
	log.Warn().
		Err(cause).
		Str("message_id", messageID).
		Int("attempts", attempts).
		Msg("Message moved to dead letter stream")
}
