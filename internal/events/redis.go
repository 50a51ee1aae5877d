package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher fans events out over a Redis pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	log     *slog.Logger
}

func NewRedisPublisher(client *redis.Client, channel string, log *slog.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel, log: log}
}

func (p *RedisPublisher) Publish(ctx context.Context, events ...Event) error {
	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
			p.log.Error("failed to publish event", "type", ev.Type, "err", err)
			return err
		}
	}
	return nil
}

// Close is a no-op; the client belongs to the cache layer.
func (p *RedisPublisher) Close() error { return nil }
