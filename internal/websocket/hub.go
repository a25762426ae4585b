package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

type Hub struct {
	clients    map[*Client]bool
	channels   map[string]map[*Client]bool
	Unregister chan *Client

	closed bool
	done   chan struct{}
	mu     sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		channels:   make(map[string]map[*Client]bool),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case client := <-h.Unregister:
			h.remove(client)

		case <-ctx.Done():
			h.mu.Lock()
			h.closed = true
			for client := range h.clients {
				delete(h.clients, client)
				close(client.Send)
			}
			h.channels = make(map[string]map[*Client]bool)
			h.mu.Unlock()
			return
		}
	}
}

// register is synchronous so that subscribe frames read right after the
// upgrade always find the client.
func (h *Hub) register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(client.Send)
		return
	}
	h.clients[client] = true
}

func (h *Hub) unregister(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	for channel, members := range h.channels {
		delete(members, client)
		if len(members) == 0 {
			delete(h.channels, channel)
		}
	}
	close(client.Send)
}

func (h *Hub) Subscribe(client *Client, channel string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return false
	}
	members, ok := h.channels[channel]
	if !ok {
		members = make(map[*Client]bool)
		h.channels[channel] = members
	}
	members[client] = true
	return true
}

func (h *Hub) Unsubscribe(client *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.channels[channel]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.channels, channel)
		}
	}
}

// Subscribers returns how many local clients listen on channel.
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

// Broadcast writes env to every local subscriber of its channel. Clients whose
// send buffer is full are dropped.
func (h *Hub) Broadcast(env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		slog.Error("Failed to marshal event", "error", err, "channel", env.Channel)
		return
	}

	var slow []*Client

	h.mu.RLock()
	for client := range h.channels[env.Channel] {
		select {
		case client.Send <- data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		slog.Warn("Dropping slow websocket client", "channel", env.Channel)
		h.remove(client)
	}
}

// Publish implements Publisher for single-instance deployments.
func (h *Hub) Publish(_ context.Context, channel, event string, payload any) error {
	env, err := NewEnvelope(channel, event, payload)
	if err != nil {
		return err
	}
	h.Broadcast(env)
	return nil
}

// sendTo queues a frame for one client if it is still connected.
func (h *Hub) sendTo(client *Client, env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	select {
	case client.Send <- data:
	default:
	}
}
