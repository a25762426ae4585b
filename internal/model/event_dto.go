package model

import (
	"time"

	"github.com/google/uuid"
)

// NewMessagePayload is published on a recipient channel for every stored message.
type NewMessagePayload struct {
	ConversationID uuid.UUID       `json:"conversation_id"`
	Message        MessageResponse `json:"message"`
	SenderName     string          `json:"sender_name"`
	SenderRole     string          `json:"sender_role"`
}

// MessagesReadPayload tells the other party that its messages were read.
type MessagesReadPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	ReaderRole     string    `json:"reader_role"`
	ReadAt         time.Time `json:"read_at"`
}
