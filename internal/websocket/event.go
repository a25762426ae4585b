package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

const (
	// AdminChannel is the shared inbox every admin session listens on.
	AdminChannel = "admin-messages"

	EventNewMessage   = "new-message"
	EventMessagesRead = "messages-read"

	// Control events sent to a single client.
	EventSubscribed   = "subscribed"
	EventUnsubscribed = "unsubscribed"
	EventError        = "error"
)

const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
)

// UserChannel is the private channel of one customer.
func UserChannel(userID uuid.UUID) string {
	return fmt.Sprintf("user-%s-messages", userID)
}

// Envelope is the server frame, and the unit relayed between instances.
type Envelope struct {
	Channel string          `json:"channel"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ClientFrame is what a connected client may send.
type ClientFrame struct {
	Action  string `json:"action"`
	Channel string `json:"channel"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// Publisher delivers an event to every subscriber of a channel. Delivery is
// at-most-once.
type Publisher interface {
	Publish(ctx context.Context, channel, event string, payload any) error
}

// CanSubscribe reports whether a principal may listen on channel.
func CanSubscribe(isAdmin bool, userID *uuid.UUID, channel string) bool {
	if channel == AdminChannel {
		return isAdmin
	}
	return userID != nil && channel == UserChannel(*userID)
}

func NewEnvelope(channel, event string, payload any) (Envelope, error) {
	env := Envelope{Channel: channel, Event: event}
	if payload == nil {
		return env, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return env, err
	}
	env.Payload = data
	return env, nil
}
