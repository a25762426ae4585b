package websocket

import (
	"LykkeLoopAPI/internal/adapter"
	"LykkeLoopAPI/internal/config"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs only against a real Redis, addressed by TEST_REDIS_ADDR (host:port).
func TestRedisBrokerRelaysAcrossHubs(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	host, port, _ := strings.Cut(addr, ":")

	redisAdapter, err := adapter.NewRedisAdapter(&config.AppConfig{
		RedisEnabled: true,
		RedisHost:    host,
		RedisPort:    port,
	})
	require.NoError(t, err)
	t.Cleanup(func() { redisAdapter.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	receiving := startHub(t)
	go NewRedisBroker(redisAdapter, receiving).Run(ctx)

	userID := uuid.New()
	conn := dial(t, receiving, &userID, false)
	send(t, conn, ActionSubscribe, UserChannel(userID))
	readEnvelope(t, conn)

	publishing := NewRedisBroker(redisAdapter, startHub(t))

	require.Eventually(t, func() bool {
		n, err := redisAdapter.Client().PubSubNumPat(ctx).Result()
		return err == nil && n > 0
	}, 3*time.Second, 20*time.Millisecond)

	require.NoError(t, publishing.Publish(ctx, UserChannel(userID), EventNewMessage, map[string]string{"content": "Hello!"}))

	env := readEnvelope(t, conn)
	assert.Equal(t, EventNewMessage, env.Event)
	assert.Equal(t, UserChannel(userID), env.Channel)
}
