package events

import (
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/leomatch/internal/config"
)

// New picks the publisher named by cfg.Events.Sink.
func New(cfg *config.Config, rdb *redis.Client, log *slog.Logger) (Publisher, error) {
	switch cfg.Events.Sink {
	case "", "none":
		return Nop{}, nil
	case "redis":
		return NewRedisPublisher(rdb, cfg.Events.Channel, log), nil
	case "kafka":
		return NewKafkaPublisher(KafkaConfig{
			Brokers: cfg.Events.Brokers,
			Topic:   cfg.Events.Topic,
		}, log), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownSink, cfg.Events.Sink)
	}
}
