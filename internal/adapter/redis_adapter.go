package adapter

import (
	"LykkeLoopAPI/internal/config"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisAdapter struct {
	client *redis.Client
}

// NewRedisAdapter returns nil without error when Redis is disabled; callers
// fall back to in-process rate limiting and delivery.
func NewRedisAdapter(cfg *config.AppConfig) (*RedisAdapter, error) {
	if !cfg.RedisEnabled {
		slog.Info("Redis disabled, using in-process fallbacks")
		return nil, nil
	}

	addr := fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		slog.Error("Failed to connect to Redis", "error", err, "addr", addr)
		return nil, err
	}

	slog.Info("Connected to Redis", "addr", addr)

	return &RedisAdapter{
		client: client,
	}, nil
}

func (r *RedisAdapter) Publish(ctx context.Context, channel string, payload []byte) error {
	return r.client.Publish(ctx, channel, payload).Err()
}

func (r *RedisAdapter) PSubscribe(ctx context.Context, patterns ...string) *redis.PubSub {
	return r.client.PSubscribe(ctx, patterns...)
}

func (r *RedisAdapter) Client() *redis.Client {
	return r.client
}

func (r *RedisAdapter) Close() error {
	return r.client.Close()
}

func (r *RedisAdapter) PingContext(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
