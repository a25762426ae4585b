package repository

import (
	"LykkeLoopAPI/internal/adapter"

	entsql "entgo.io/ent/dialect/sql"
)

type Repository struct {
	Conversation ConversationRepository
	Message      MessageRepository
	User         UserRepository
	RateLimit    RateLimiter
}

// NewRepository wires the Postgres repositories. The send limiter lives in
// Redis when it is available so every API replica shares one window.
func NewRepository(drv *entsql.Driver, redisAdapter *adapter.RedisAdapter) *Repository {
	return &Repository{
		Conversation: NewConversationRepository(drv),
		Message:      NewMessageRepository(drv),
		User:         NewUserRepository(drv),
		RateLimit:    newRateLimiter(redisAdapter),
	}
}

func NewMemoryRepository(store *MemoryStore, redisAdapter *adapter.RedisAdapter) *Repository {
	return &Repository{
		Conversation: store.Conversations(),
		Message:      store.Messages(),
		User:         store.Users(),
		RateLimit:    newRateLimiter(redisAdapter),
	}
}

func newRateLimiter(redisAdapter *adapter.RedisAdapter) RateLimiter {
	if redisAdapter == nil {
		return NewWindowLimiter(nil)
	}
	return NewRateLimitRepository(redisAdapter)
}
