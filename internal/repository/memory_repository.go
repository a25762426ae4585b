package repository

import (
	"LykkeLoopAPI/internal/entity"
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps users, conversations and messages in process. It backs
// DB_DRIVER=memory and the package tests of the layers above.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[uuid.UUID]entity.User
	conversations map[uuid.UUID]*entity.Conversation
	byUser        map[uuid.UUID]uuid.UUID
	messages      map[uuid.UUID][]*entity.Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[uuid.UUID]entity.User),
		conversations: make(map[uuid.UUID]*entity.Conversation),
		byUser:        make(map[uuid.UUID]uuid.UUID),
		messages:      make(map[uuid.UUID][]*entity.Message),
	}
}

// PutUser registers a customer account. Accounts are owned by the storefront,
// so this is the only write path for them.
func (s *MemoryStore) PutUser(u entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *MemoryStore) Conversations() ConversationRepository {
	return &memoryConversationRepository{s: s}
}

func (s *MemoryStore) Messages() MessageRepository {
	return &memoryMessageRepository{s: s}
}

func (s *MemoryStore) Users() UserRepository {
	return &memoryUserRepository{s: s}
}

type memoryConversationRepository struct {
	s *MemoryStore
}

func (r *memoryConversationRepository) GetOrCreateByUser(_ context.Context, userID uuid.UUID, now time.Time) (*entity.Conversation, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byUser[userID]; ok {
		c := *s.conversations[id]
		return &c, nil
	}

	c := &entity.Conversation{
		ID:            entity.NewID(),
		UserID:        userID,
		LastMessageAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.conversations[c.ID] = c
	s.byUser[userID] = c.ID

	out := *c
	return &out, nil
}

func (r *memoryConversationRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Conversation, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *c
	return &out, nil
}

func (r *memoryConversationRepository) List(_ context.Context, filter ListConversationsFilter) ([]entity.Conversation, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []entity.Conversation
	for _, c := range s.conversations {
		if filter.UserID != nil && c.UserID != *filter.UserID {
			continue
		}
		conv := *c
		u := s.users[c.UserID]
		conv.User = &entity.User{ID: c.UserID, Name: u.Name, Email: u.Email}
		out = append(out, conv)
	}

	slices.SortFunc(out, func(a, b entity.Conversation) int {
		if n := b.LastMessageAt.Compare(a.LastMessageAt); n != 0 {
			return n
		}
		return cmp.Compare(b.ID.String(), a.ID.String())
	})
	return out, nil
}

func (r *memoryConversationRepository) ResetUnread(_ context.Context, id uuid.UUID, reader entity.SenderRole) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[id]
	if !ok {
		return ErrNotFound
	}
	if reader == entity.RoleAdmin {
		c.AdminUnreadCount = 0
	} else {
		c.UserUnreadCount = 0
	}
	return nil
}

func (r *memoryConversationRepository) SumUnread(_ context.Context, reader entity.SenderRole, userID *uuid.UUID) (int, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, c := range s.conversations {
		if userID != nil && c.UserID != *userID {
			continue
		}
		total += c.UnreadFor(reader)
	}
	return total, nil
}

func (r *memoryConversationRepository) ReconcileUnread(_ context.Context) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var drifted int64
	for id, c := range s.conversations {
		admin, user := 0, 0
		for _, m := range s.messages[id] {
			if m.ReadAt != nil {
				continue
			}
			if m.SenderRole == entity.RoleUser {
				admin++
			} else {
				user++
			}
		}
		if c.AdminUnreadCount != admin || c.UserUnreadCount != user {
			c.AdminUnreadCount = admin
			c.UserUnreadCount = user
			drifted++
		}
	}
	return drifted, nil
}

type memoryMessageRepository struct {
	s *MemoryStore
}

func (r *memoryMessageRepository) Create(_ context.Context, msg *entity.Message, snippet string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[msg.ConversationID]
	if !ok {
		return ErrNotFound
	}

	stored := *msg
	s.messages[c.ID] = append(s.messages[c.ID], &stored)

	c.LastMessageSnippet = snippet
	c.LastMessageAt = msg.CreatedAt
	c.UpdatedAt = msg.CreatedAt
	if msg.SenderRole == entity.RoleUser {
		c.AdminUnreadCount++
	} else {
		c.UserUnreadCount++
	}
	return nil
}

func (r *memoryMessageRepository) ListRecent(_ context.Context, conversationID uuid.UUID, limit int) ([]entity.Message, error) {
	if limit <= 0 {
		limit = RecentMessagesLimit
	}

	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]entity.Message, 0, len(s.messages[conversationID]))
	for _, m := range s.messages[conversationID] {
		all = append(all, *m)
	}
	slices.SortStableFunc(all, func(a, b entity.Message) int {
		if n := a.CreatedAt.Compare(b.CreatedAt); n != 0 {
			return n
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})

	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (r *memoryMessageRepository) MarkRead(_ context.Context, conversationID uuid.UUID, reader entity.SenderRole, at time.Time) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, m := range s.messages[conversationID] {
		if m.SenderRole == reader.Opposite() && m.ReadAt == nil {
			readAt := at
			m.ReadAt = &readAt
			n++
		}
	}
	return n, nil
}

func (r *memoryMessageRepository) CountUnread(_ context.Context, conversationID uuid.UUID, reader entity.SenderRole) (int, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, m := range s.messages[conversationID] {
		if m.SenderRole == reader.Opposite() && m.ReadAt == nil {
			n++
		}
	}
	return n, nil
}

type memoryUserRepository struct {
	s *MemoryStore
}

func (r *memoryUserRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

// WindowLimiter is the in-process counterpart of RateLimitRepository.
type WindowLimiter struct {
	mu      sync.Mutex
	now     func() time.Time
	windows map[string]*window
}

type window struct {
	count   int
	resetAt time.Time
}

func NewWindowLimiter(now func() time.Time) *WindowLimiter {
	if now == nil {
		now = time.Now
	}
	return &WindowLimiter{
		now:     now,
		windows: make(map[string]*window),
	}
}

func (l *WindowLimiter) Allow(_ context.Context, key string, limit int, d time.Duration) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(d)}
		l.windows[key] = w
	}

	w.count++
	ttl := w.resetAt.Sub(now)
	return w.count <= limit, ttl, nil
}

// Sweep drops windows that have already expired.
func (l *WindowLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, key)
		}
	}
}

// Run sweeps expired windows every interval until ctx is done.
func (l *WindowLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}
