package events

import (
	"context"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stake-plus/govcomms-suggestions/src/suggestions"
)

const (
	// StreamStatus receives one entry per persisted status change.
	StreamStatus = "suggestions.status"

	streamMaxLen = 10000
)

var _ suggestions.Publisher = (*RedisPublisher)(nil)

// RedisPublisher appends status-changed events to a Redis stream.
type RedisPublisher struct {
	rdb    *redis.Client
	stream string
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, stream: StreamStatus}
}

func (p *RedisPublisher) PublishStatusChanged(ctx context.Context, ev suggestions.StatusChanged) error {
	_, err := p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"event_id":      uuid.NewString(),
			"suggestion_id": strconv.FormatUint(ev.SuggestionID, 10),
			"status":        ev.Status.String(),
			"reason":        ev.Reason,
			"actor_id":      ev.ActorID,
			"occurred_at":   ev.OccurredAt.UTC().Format(time.RFC3339Nano),
		},
	}).Result()
	if err != nil {
		return errors.Wrap(err, "events: xadd")
	}
	return nil
}
