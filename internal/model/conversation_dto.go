package model

import (
	"time"

	"github.com/google/uuid"
)

type ConversationResponse struct {
	ID                 uuid.UUID  `json:"id"`
	UserID             uuid.UUID  `json:"user_id"`
	AdminID            *uuid.UUID `json:"admin_id"`
	LastMessageSnippet string     `json:"last_message_snippet"`
	LastMessageAt      time.Time  `json:"last_message_at"`
	UserUnreadCount    int        `json:"user_unread_count"`
	AdminUnreadCount   int        `json:"admin_unread_count"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	// Owning customer, included in admin listings only.
	User *ConversationUserDTO `json:"user,omitempty"`
}

type ConversationUserDTO struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type ConversationDetailResponse struct {
	ConversationResponse

	// Up to 50 most recent messages, oldest first.
	Messages []MessageResponse `json:"messages"`
}
