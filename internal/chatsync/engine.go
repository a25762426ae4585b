package chatsync

import (
	"LykkeLoopAPI/internal/entity"
	"LykkeLoopAPI/internal/helper"
	"LykkeLoopAPI/internal/model"
	"LykkeLoopAPI/internal/websocket"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	ConversationPollInterval = 5 * time.Second
	BadgePollInterval        = 10 * time.Second
	DefaultReconnectDelay    = time.Second

	reconnectRetries = 5

	toastTextLength = 80
	requestTimeout  = 10 * time.Second
)

var ErrClosed = errors.New("sync engine closed")

// Notification is a toast for a message outside the open conversation.
type Notification struct {
	ConversationID uuid.UUID
	MessageID      uuid.UUID
	Title          string
	Text           string
}

type Options struct {
	// Viewer role and, for a user, its id. Decides the push channel.
	Role   entity.SenderRole
	UserID *uuid.UUID

	// ConversationID is the open view. Nil means badge-only mode.
	ConversationID *uuid.UUID

	// PollInterval overrides the default refetch period.
	PollInterval time.Duration

	// ReconnectDelay is the first wait before re-subscribing after the push
	// stream drops. It doubles on each failed attempt.
	ReconnectDelay time.Duration

	OnScroll               func(inserted []model.MessageResponse)
	OnNotify               func(n Notification)
	OnConversationsChanged func()
	OnUnread               func(count int)
	OnRead                 func(p model.MessagesReadPayload)
}

// update is one unit of work for the consumer goroutine. Push, poll and local
// sends all arrive as updates so the timeline has a single writer.
type update struct {
	conversationID uuid.UUID
	messages       []model.MessageResponse
	senderName     string
	unread         *int
	read           *model.MessagesReadPayload
	done           chan []model.MessageResponse
}

// Engine keeps one conversation view in sync with the server by merging the
// push stream and a periodic refetch.
type Engine struct {
	api      API
	push     PushSource
	opts     Options
	timeline *Timeline

	updates chan update
	seen    map[uuid.UUID]struct{}
	unread  int

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewEngine(api API, push PushSource, opts Options) *Engine {
	if opts.PollInterval <= 0 {
		opts.PollInterval = BadgePollInterval
		if opts.ConversationID != nil {
			opts.PollInterval = ConversationPollInterval
		}
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}

	return &Engine{
		api:      api,
		push:     push,
		opts:     opts,
		timeline: NewTimeline(),
		updates:  make(chan update, 64),
		seen:     make(map[uuid.UUID]struct{}),
	}
}

func (e *Engine) Timeline() *Timeline {
	return e.timeline
}

// Channel is the push channel the viewer listens on.
func (e *Engine) Channel() string {
	if e.opts.Role == entity.RoleAdmin || e.opts.UserID == nil {
		return websocket.AdminChannel
	}
	return websocket.UserChannel(*e.opts.UserID)
}

// Start loads the open conversation, marks it read and starts both sources.
func (e *Engine) Start(ctx context.Context) error {
	e.ctx, e.cancel = context.WithCancel(ctx)

	if e.opts.ConversationID != nil {
		detail, err := e.api.GetConversation(e.ctx, *e.opts.ConversationID)
		if err != nil {
			e.cancel()
			return err
		}
		if inserted := e.timeline.Merge(detail.Messages...); len(inserted) > 0 {
			e.remember(inserted)
			e.scroll(inserted)
		}
		e.markRead()
	}

	if e.push != nil {
		events, err := e.push.Subscribe(e.ctx, e.Channel())
		if err != nil {
			slog.Warn("Push unavailable, polling until it reconnects", "channel", e.Channel(), "error", err)
		}
		e.wg.Add(1)
		go e.pushLoop(events)
	}

	e.wg.Add(2)
	go e.pollLoop()
	go e.consume()

	return nil
}

// Close stops polling and unsubscribes. Safe to call more than once.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		if e.cancel != nil {
			e.cancel()
		}
		e.wg.Wait()
	})
}

// Send posts content to the open conversation and merges the stored message.
// The caller keeps its input when an error is returned.
func (e *Engine) Send(ctx context.Context, content string) (*model.MessageResponse, error) {
	if e.opts.ConversationID == nil {
		return nil, errors.New("no conversation open")
	}
	if e.ctx == nil || e.ctx.Err() != nil {
		return nil, ErrClosed
	}

	msg, err := e.api.SendMessage(ctx, model.SendMessageRequest{
		ConversationID: e.opts.ConversationID.String(),
		Content:        content,
	})
	if err != nil {
		return nil, err
	}

	done := make(chan []model.MessageResponse, 1)
	if !e.enqueue(update{conversationID: msg.ConversationID, messages: []model.MessageResponse{*msg}, done: done}) {
		return msg, nil
	}

	select {
	case <-done:
	case <-ctx.Done():
	case <-e.ctx.Done():
	}
	return msg, nil
}

func (e *Engine) enqueue(u update) bool {
	select {
	case e.updates <- u:
		return true
	case <-e.ctx.Done():
		return false
	}
}

func (e *Engine) consume() {
	defer e.wg.Done()

	for {
		select {
		case <-e.ctx.Done():
			return
		case u := <-e.updates:
			inserted := e.apply(u)
			if u.done != nil {
				u.done <- inserted
			}
		}
	}
}

func (e *Engine) apply(u update) []model.MessageResponse {
	switch {
	case u.unread != nil:
		if *u.unread != e.unread {
			e.unread = *u.unread
			if e.opts.OnUnread != nil {
				e.opts.OnUnread(e.unread)
			}
		}
		return nil

	case u.read != nil:
		if e.isActive(u.read.ConversationID) {
			e.timeline.MarkRead(e.opts.Role.String(), u.read.ReadAt)
		}
		if e.opts.OnRead != nil {
			e.opts.OnRead(*u.read)
		}
		return nil

	case e.isActive(u.conversationID):
		inserted := e.timeline.Merge(u.messages...)
		if len(inserted) == 0 {
			return nil
		}
		e.remember(inserted)
		e.scroll(inserted)

		for _, m := range inserted {
			if m.SenderRole != e.opts.Role.String() {
				e.markRead()
				break
			}
		}
		return inserted

	default:
		e.notify(u)
		return nil
	}
}

func (e *Engine) isActive(conversationID uuid.UUID) bool {
	return e.opts.ConversationID != nil && *e.opts.ConversationID == conversationID
}

func (e *Engine) notify(u update) {
	changed := false
	for _, m := range u.messages {
		if _, ok := e.seen[m.ID]; ok {
			continue
		}
		e.seen[m.ID] = struct{}{}
		changed = true

		if m.SenderRole == e.opts.Role.String() {
			continue
		}
		if e.opts.OnNotify != nil {
			e.opts.OnNotify(Notification{
				ConversationID: u.conversationID,
				MessageID:      m.ID,
				Title:          toastTitle(m.SenderRole, u.senderName),
				Text:           helper.Truncate(m.Content, toastTextLength),
			})
		}
	}

	if changed && e.opts.OnConversationsChanged != nil {
		e.opts.OnConversationsChanged()
	}
}

func toastTitle(senderRole, senderName string) string {
	if senderRole == entity.RoleAdmin.String() {
		return "New message from LykkeLoop"
	}
	if senderName == "" {
		senderName = "User"
	}
	return "New message from " + senderName
}

func (e *Engine) remember(msgs []model.MessageResponse) {
	for _, m := range msgs {
		e.seen[m.ID] = struct{}{}
	}
}

func (e *Engine) scroll(inserted []model.MessageResponse) {
	if e.opts.OnScroll != nil {
		e.opts.OnScroll(inserted)
	}
}

func (e *Engine) markRead() {
	ctx, cancel := context.WithTimeout(e.ctx, requestTimeout)
	defer cancel()

	if _, err := e.api.MarkRead(ctx, *e.opts.ConversationID); err != nil && ctx.Err() == nil {
		slog.Warn("Failed to mark conversation read", "conversationID", *e.opts.ConversationID, "error", err)
	}
}

// pushLoop drains the push stream and re-subscribes whenever it ends while
// the engine is still open.
func (e *Engine) pushLoop(events <-chan websocket.Envelope) {
	defer e.wg.Done()

	for {
		if events != nil {
			e.drain(events)
		}
		if e.ctx.Err() != nil {
			return
		}

		events = e.resubscribe()
		if events == nil {
			return
		}

		// Pick up whatever was published while disconnected.
		if e.opts.ConversationID != nil {
			e.pollConversation()
		} else {
			e.pollBadge()
		}
	}
}

// resubscribe keeps trying until a subscription succeeds or the engine is
// closed, in which case it returns nil.
func (e *Engine) resubscribe() <-chan websocket.Envelope {
	channel := e.Channel()

	for {
		select {
		case <-e.ctx.Done():
			return nil
		case <-time.After(e.opts.ReconnectDelay):
		}

		events, err := helper.RetryWithBackoff[<-chan websocket.Envelope](e.ctx, func() (<-chan websocket.Envelope, bool, error) {
			events, err := e.push.Subscribe(e.ctx, channel)
			return events, true, err
		}, reconnectRetries, e.opts.ReconnectDelay)
		if err == nil {
			slog.Info("Push stream reconnected", "channel", channel)
			return events
		}
		if e.ctx.Err() != nil {
			return nil
		}
		slog.Warn("Push reconnect failed, retrying", "channel", channel, "error", err)
	}
}

func (e *Engine) drain(events <-chan websocket.Envelope) {
	for env := range events {
		switch env.Event {
		case websocket.EventNewMessage:
			var payload model.NewMessagePayload
			if err := json.Unmarshal(env.Payload, &payload); err != nil || payload.Message.ID == uuid.Nil {
				slog.Warn("Ignoring malformed push event", "event", env.Event, "error", err)
				continue
			}
			e.enqueue(update{
				conversationID: payload.ConversationID,
				messages:       []model.MessageResponse{payload.Message},
				senderName:     payload.SenderName,
			})
			if e.opts.ConversationID == nil {
				e.pollBadge()
			}

		case websocket.EventMessagesRead:
			var payload model.MessagesReadPayload
			if err := json.Unmarshal(env.Payload, &payload); err != nil {
				slog.Warn("Ignoring malformed push event", "event", env.Event, "error", err)
				continue
			}
			e.enqueue(update{read: &payload})
		}
	}
}

func (e *Engine) pollLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.opts.PollInterval)
	defer ticker.Stop()

	if e.opts.ConversationID == nil {
		e.pollBadge()
	}

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			if e.opts.ConversationID != nil {
				e.pollConversation()
			} else {
				e.pollBadge()
			}
		}
	}
}

func (e *Engine) pollConversation() {
	ctx, cancel := context.WithTimeout(e.ctx, requestTimeout)
	defer cancel()

	detail, err := e.api.GetConversation(ctx, *e.opts.ConversationID)
	if err != nil {
		if e.ctx.Err() == nil {
			slog.Warn("Failed to refetch conversation", "conversationID", *e.opts.ConversationID, "error", err)
		}
		return
	}
	e.enqueue(update{conversationID: detail.ID, messages: detail.Messages})
}

// pollBadge refreshes the unread count and, when something is unread, pulls
// the latest message of every conversation with unread items so it can be
// surfaced as a toast.
func (e *Engine) pollBadge() {
	ctx, cancel := context.WithTimeout(e.ctx, requestTimeout)
	defer cancel()

	count, err := e.api.UnreadCount(ctx)
	if err != nil {
		if e.ctx.Err() == nil {
			slog.Warn("Failed to fetch unread count", "error", err)
		}
		return
	}
	total := count.UnreadCount
	e.enqueue(update{unread: &total})
	if total == 0 {
		return
	}

	conversations, err := e.api.ListConversations(ctx)
	if err != nil {
		if e.ctx.Err() == nil {
			slog.Warn("Failed to list conversations", "error", err)
		}
		return
	}

	for _, c := range conversations {
		if unreadFor(c, e.opts.Role) == 0 {
			continue
		}
		detail, err := e.api.GetConversation(ctx, c.ID)
		if err != nil {
			slog.Warn("Failed to fetch conversation", "conversationID", c.ID, "error", err)
			continue
		}
		latest, ok := latestFrom(detail.Messages, e.opts.Role.Opposite().String())
		if !ok {
			continue
		}

		name := ""
		if c.User != nil {
			name = c.User.Name
		}
		e.enqueue(update{conversationID: c.ID, messages: []model.MessageResponse{latest}, senderName: name})
	}
}

func unreadFor(c model.ConversationResponse, role entity.SenderRole) int {
	if role == entity.RoleAdmin {
		return c.AdminUnreadCount
	}
	return c.UserUnreadCount
}

func latestFrom(msgs []model.MessageResponse, senderRole string) (model.MessageResponse, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].SenderRole == senderRole {
			return msgs[i], true
		}
	}
	return model.MessageResponse{}, false
}
