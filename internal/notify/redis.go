package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/monsterwatch/scvfeed/internal/models"
)

// RedisStream publishes alerts to a Redis stream so other consumers (bots,
// dashboards) can tail the feed without touching Telegram.
type RedisStream struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisStream creates a Redis stream sink.
func NewRedisStream(addr, password string, db int, stream string, maxLen int64) *RedisStream {
	if maxLen <= 0 {
		maxLen = 1000
	}
	return &RedisStream{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		stream: stream,
		maxLen: maxLen,
	}
}

func (r *RedisStream) Name() string { return "redis" }

// Send appends the alert as JSON to the stream, trimming to maxLen.
func (r *RedisStream) Send(ctx context.Context, alert models.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}
	err = r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		MaxLen: r.maxLen,
		Approx: true,
		Values: map[string]any{"alert": payload},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish alert to stream %s: %w", r.stream, err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (r *RedisStream) Close() error {
	return r.client.Close()
}
