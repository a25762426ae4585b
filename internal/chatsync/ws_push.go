package chatsync

import (
	"LykkeLoopAPI/internal/websocket"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	ws "github.com/gorilla/websocket"
)

const wsWriteWait = 10 * time.Second

// PushSource delivers server events for one channel until ctx is cancelled,
// after which the returned channel is closed.
type PushSource interface {
	Subscribe(ctx context.Context, channel string) (<-chan websocket.Envelope, error)
}

// WSPush subscribes through the API's /ws endpoint.
type WSPush struct {
	url    string
	dialer *ws.Dialer
}

// NewWSPush derives the websocket URL from the API base URL.
func NewWSPush(baseURL, token string) *WSPush {
	wsURL := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(wsURL, "https://"):
		wsURL = "wss://" + strings.TrimPrefix(wsURL, "https://")
	case strings.HasPrefix(wsURL, "http://"):
		wsURL = "ws://" + strings.TrimPrefix(wsURL, "http://")
	}

	return &WSPush{
		url: wsURL + "/ws?token=" + url.QueryEscape(token),
		dialer: &ws.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

func (p *WSPush) Subscribe(ctx context.Context, channel string) (<-chan websocket.Envelope, error) {
	conn, _, err := p.dialer.DialContext(ctx, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial push endpoint: %w", err)
	}

	if err := writeFrame(conn, websocket.ActionSubscribe, channel); err != nil {
		conn.Close()
		return nil, err
	}

	var ack websocket.Envelope
	conn.SetReadDeadline(time.Now().Add(wsWriteWait))
	if err := conn.ReadJSON(&ack); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to read subscribe ack: %w", err)
	}
	conn.SetReadDeadline(time.Time{})

	if ack.Event != websocket.EventSubscribed {
		conn.Close()
		var payload websocket.ErrorPayload
		json.Unmarshal(ack.Payload, &payload)
		return nil, fmt.Errorf("subscribe to %s rejected: %s", channel, payload.Message)
	}

	out := make(chan websocket.Envelope, 16)
	done := make(chan struct{})

	go func() {
		defer close(out)
		defer close(done)

		for {
			var env websocket.Envelope
			if err := conn.ReadJSON(&env); err != nil {
				if ctx.Err() == nil && !errors.Is(err, ws.ErrCloseSent) {
					slog.Warn("Push connection lost", "channel", channel, "error", err)
				}
				return
			}
			if env.Channel != channel {
				continue
			}

			select {
			case out <- env:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		select {
		case <-ctx.Done():
			writeFrame(conn, websocket.ActionUnsubscribe, channel)
			conn.WriteControl(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseNormalClosure, ""), time.Now().Add(wsWriteWait))
		case <-done:
		}
		conn.Close()
	}()

	return out, nil
}

func writeFrame(conn *ws.Conn, action, channel string) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(websocket.ClientFrame{Action: action, Channel: channel}); err != nil {
		return fmt.Errorf("failed to send %s frame: %w", action, err)
	}
	return nil
}
