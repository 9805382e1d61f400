package billing

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventDeduper remembers webhook delivery IDs so retried deliveries are
// acknowledged without reprocessing. Checking and marking are separate
// steps: an event is marked only after it was applied, so a failed apply
// leaves the ID unmarked and the provider's retry goes through.
type EventDeduper interface {
	// Seen reports whether the event ID was already marked. Read-only.
	Seen(ctx context.Context, eventID string) (bool, error)

	// Mark records the event ID as processed.
	Mark(ctx context.Context, eventID string) error
}

const dedupTTL = 72 * time.Hour

type redisDeduper struct {
	client *redis.Client
}

// NewRedisDeduper builds an EventDeduper on Redis with a TTL that
// comfortably outlives provider retry schedules.
func NewRedisDeduper(client *redis.Client) EventDeduper {
	if client == nil {
		panic("billing: redis client is required")
	}
	return &redisDeduper{client: client}
}

func dedupKey(eventID string) string {
	return "billing:webhook:" + eventID
}

func (d *redisDeduper) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := d.client.Exists(ctx, dedupKey(eventID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *redisDeduper) Mark(ctx context.Context, eventID string) error {
	return d.client.SetNX(ctx, dedupKey(eventID), 1, dedupTTL).Err()
}
