package model

import (
	"time"

	"github.com/google/uuid"
)

type SendMessageRequest struct {
	ConversationID string  `json:"conversation_id" validate:"required,uuid"`
	Content        string  `json:"content"`
	MediaType      *string `json:"media_type"`
	MediaURL       *string `json:"media_url"`
}

type MarkReadRequest struct {
	ConversationID string `json:"conversation_id" validate:"required,uuid"`
}

type MessageResponse struct {
	ID             uuid.UUID  `json:"id"`
	ConversationID uuid.UUID  `json:"conversation_id"`
	SenderID       *uuid.UUID `json:"sender_id"`
	SenderRole     string     `json:"sender_role"`
	Content        string     `json:"content"`
	MediaType      *string    `json:"media_type"`
	MediaURL       *string    `json:"media_url"`
	CreatedAt      time.Time  `json:"created_at"`
	ReadAt         *time.Time `json:"read_at"`
}

type MarkReadResponse struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	MarkedCount    int64     `json:"marked_count"`
}
