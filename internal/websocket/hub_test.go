package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = ws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub()
	go hub.Run(ctx)
	return hub
}

// dial connects a client acting as the given principal.
func dial(t *testing.T, hub *Hub, userID *uuid.UUID, isAdmin bool) *ws.Conn {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewClient(hub, conn, userID, isAdmin).Start()
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *ws.Conn, action, channel string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(ClientFrame{Action: action, Channel: channel}))
}

func readEnvelope(t *testing.T, conn *ws.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestAdminReceivesPublishedMessage(t *testing.T) {
	hub := startHub(t)
	conn := dial(t, hub, nil, true)

	send(t, conn, ActionSubscribe, AdminChannel)
	ack := readEnvelope(t, conn)
	assert.Equal(t, EventSubscribed, ack.Event)
	assert.Equal(t, AdminChannel, ack.Channel)

	payload := map[string]string{"content": "Hi"}
	require.NoError(t, hub.Publish(context.Background(), AdminChannel, EventNewMessage, payload))

	env := readEnvelope(t, conn)
	assert.Equal(t, EventNewMessage, env.Event)
	assert.Equal(t, AdminChannel, env.Channel)

	var got map[string]string
	require.NoError(t, json.Unmarshal(env.Payload, &got))
	assert.Equal(t, "Hi", got["content"])
}

func TestUserChannelAuthorization(t *testing.T) {
	hub := startHub(t)
	userID := uuid.New()
	conn := dial(t, hub, &userID, false)

	send(t, conn, ActionSubscribe, AdminChannel)
	env := readEnvelope(t, conn)
	assert.Equal(t, EventError, env.Event)

	send(t, conn, ActionSubscribe, UserChannel(uuid.New()))
	env = readEnvelope(t, conn)
	assert.Equal(t, EventError, env.Event)

	send(t, conn, ActionSubscribe, UserChannel(userID))
	env = readEnvelope(t, conn)
	assert.Equal(t, EventSubscribed, env.Event)
	assert.Equal(t, 1, hub.Subscribers(UserChannel(userID)))
	assert.Equal(t, 0, hub.Subscribers(AdminChannel))
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	hub := startHub(t)
	userID := uuid.New()
	channel := UserChannel(userID)
	conn := dial(t, hub, &userID, false)

	send(t, conn, ActionSubscribe, channel)
	readEnvelope(t, conn)

	send(t, conn, ActionUnsubscribe, channel)
	env := readEnvelope(t, conn)
	assert.Equal(t, EventUnsubscribed, env.Event)
	assert.Equal(t, 0, hub.Subscribers(channel))

	require.NoError(t, hub.Publish(context.Background(), channel, EventNewMessage, nil))

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestInvalidFrameGetsError(t *testing.T) {
	hub := startHub(t)
	conn := dial(t, hub, nil, true)

	require.NoError(t, conn.WriteMessage(ws.TextMessage, []byte("not json")))
	env := readEnvelope(t, conn)
	assert.Equal(t, EventError, env.Event)

	send(t, conn, "shout", AdminChannel)
	env = readEnvelope(t, conn)
	assert.Equal(t, EventError, env.Event)
}

func TestDisconnectRemovesSubscriptions(t *testing.T) {
	hub := startHub(t)
	conn := dial(t, hub, nil, true)

	send(t, conn, ActionSubscribe, AdminChannel)
	readEnvelope(t, conn)
	require.Equal(t, 1, hub.Subscribers(AdminChannel))

	conn.Close()
	assert.Eventually(t, func() bool {
		return hub.Subscribers(AdminChannel) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCanSubscribe(t *testing.T) {
	id := uuid.New()
	assert.True(t, CanSubscribe(true, nil, AdminChannel))
	assert.False(t, CanSubscribe(false, &id, AdminChannel))
	assert.True(t, CanSubscribe(false, &id, UserChannel(id)))
	assert.False(t, CanSubscribe(true, nil, UserChannel(id)))
	assert.Equal(t, "user-"+id.String()+"-messages", UserChannel(id))
}
