package broker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/syntaxarena/arena/internal/arena"
)

// RedisGateway is the subset of *redis.Client used for publishing.
type RedisGateway interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Redis mirrors every message onto the channel <prefix><topic> so that
// gateways outside this process can relay it.
type Redis struct {
	client  RedisGateway
	prefix  string
	timeout time.Duration
	logger  *slog.Logger
}

func NewRedis(client RedisGateway, prefix string, logger *slog.Logger) *Redis {
	return &Redis{client: client, prefix: prefix, timeout: 2 * time.Second, logger: logger}
}

func (r *Redis) Channel(topic string) string {
	return r.prefix + topic
}

func (r *Redis) Publish(topic string, msg arena.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		r.logger.Error("encoding message for redis", "topic", topic, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.client.Publish(ctx, r.Channel(topic), data).Err(); err != nil {
		r.logger.Warn("redis publish failed", "channel", r.Channel(topic), "type", msg.Type, "error", err)
	}
}
