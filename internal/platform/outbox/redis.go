package outbox

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultStream is the Redis stream domain events are published to.
const DefaultStream = "odonto:events"

// RedisPublisher appends records to a Redis stream, one entry per record.
type RedisPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewRedisPublisher(client *redis.Client, stream string) *RedisPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisPublisher{client: client, stream: stream, maxLen: 100000}
}

// Publish sends all records in one pipeline. Either every XADD succeeds or
// the batch is reported as failed and redelivered on the next drain.
func (p *RedisPublisher) Publish(ctx context.Context, records []Record) error {
	pipe := p.client.Pipeline()
	for _, rec := range records {
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: p.stream,
			MaxLen: p.maxLen,
			Approx: true,
			Values: map[string]interface{}{
				"outbox_id":    strconv.FormatInt(rec.ID, 10),
				"tenant":       rec.Tenant,
				"type":         rec.EventType,
				"aggregate_id": rec.AggregateID.String(),
				"payload":      string(rec.Payload),
				"created_at":   rec.CreatedAt.UTC().Format(time.RFC3339Nano),
			},
		})
	}
	_, err := pipe.Exec(ctx)
	return err
}
