package websocket

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

type Client struct {
	Hub  *Hub
	Conn *ws.Conn
	Send chan []byte

	UserID  *uuid.UUID
	IsAdmin bool
}

func NewClient(hub *Hub, conn *ws.Conn, userID *uuid.UUID, isAdmin bool) *Client {
	return &Client{
		Hub:     hub,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		UserID:  userID,
		IsAdmin: isAdmin,
	}
}

// Start registers the client and launches its pumps.
func (c *Client) Start() {
	c.Hub.register(c)
	go c.WritePump()
	go c.ReadPump()
}

func (c *Client) ReadPump() {
	defer func() {
		c.Hub.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if ws.IsUnexpectedCloseError(err, ws.CloseGoingAway, ws.CloseNormalClosure) {
				slog.Warn("Websocket closed unexpectedly", "error", err)
			}
			return
		}

		var frame ClientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.replyError("", "invalid frame")
			continue
		}
		c.handle(frame)
	}
}

func (c *Client) handle(frame ClientFrame) {
	switch frame.Action {
	case ActionSubscribe:
		if !CanSubscribe(c.IsAdmin, c.UserID, frame.Channel) {
			c.replyError(frame.Channel, "forbidden channel")
			return
		}
		if c.Hub.Subscribe(c, frame.Channel) {
			c.Hub.sendTo(c, Envelope{Channel: frame.Channel, Event: EventSubscribed})
		}
	case ActionUnsubscribe:
		c.Hub.Unsubscribe(c, frame.Channel)
		c.Hub.sendTo(c, Envelope{Channel: frame.Channel, Event: EventUnsubscribed})
	default:
		c.replyError(frame.Channel, "unknown action")
	}
}

func (c *Client) replyError(channel, message string) {
	env, err := NewEnvelope(channel, EventError, ErrorPayload{Message: message})
	if err != nil {
		return
	}
	c.Hub.sendTo(c, env)
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(ws.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(ws.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(ws.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
