package websocket

import (
	"LykkeLoopAPI/internal/adapter"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
)

const redisChannelPrefix = "push:"

// RedisBroker fans events out across API instances: Publish goes to Redis,
// and Run relays everything published by any instance into the local Hub.
type RedisBroker struct {
	redis *adapter.RedisAdapter
	hub   *Hub
}

func NewRedisBroker(redis *adapter.RedisAdapter, hub *Hub) *RedisBroker {
	return &RedisBroker{
		redis: redis,
		hub:   hub,
	}
}

func (b *RedisBroker) Publish(ctx context.Context, channel, event string, payload any) error {
	env, err := NewEnvelope(channel, event, payload)
	if err != nil {
		return err
	}

	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return b.redis.Publish(ctx, redisChannelPrefix+channel, data)
}

// Run blocks until ctx is cancelled.
func (b *RedisBroker) Run(ctx context.Context) {
	pubsub := b.redis.PSubscribe(ctx, redisChannelPrefix+"*")
	defer pubsub.Close()

	slog.Info("Push relay subscribed", "pattern", redisChannelPrefix+"*")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				slog.Warn("Dropping malformed push envelope", "error", err, "channel", msg.Channel)
				continue
			}
			env.Channel = strings.TrimPrefix(msg.Channel, redisChannelPrefix)
			b.hub.Broadcast(env)
		}
	}
}
