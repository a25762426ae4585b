package entity

import (
	"time"

	"github.com/google/uuid"
)

const SnippetMaxLength = 100

type Conversation struct {
	ID                 uuid.UUID
	UserID             uuid.UUID
	AdminID            *uuid.UUID
	LastMessageSnippet string
	LastMessageAt      time.Time
	UserUnreadCount    int
	AdminUnreadCount   int
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// User is populated by admin listings only.
	User *User
}

// UnreadFor returns the counter the given reader sees as its badge.
func (c *Conversation) UnreadFor(reader SenderRole) int {
	if reader == RoleAdmin {
		return c.AdminUnreadCount
	}
	return c.UserUnreadCount
}

// OwnedBy reports whether userID is the customer party of the conversation.
func (c *Conversation) OwnedBy(userID uuid.UUID) bool {
	return c.UserID == userID
}

type User struct {
	ID    uuid.UUID
	Name  string
	Email string
}
