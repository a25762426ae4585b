package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const ContentMaxLength = 5000

type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	SenderID       *uuid.UUID
	SenderRole     SenderRole
	Content        string
	MediaType      *MediaType
	MediaURL       *string
	CreatedAt      time.Time
	ReadAt         *time.Time
}

func (m *Message) IsRead() bool {
	return m.ReadAt != nil
}

// DisplayText is the trimmed content, or the media placeholder when the
// message has no text.
func (m *Message) DisplayText() string {
	text := strings.TrimSpace(m.Content)
	if text == "" && m.MediaType != nil {
		return m.MediaType.Placeholder()
	}
	return text
}

// NewID returns a time-ordered identifier for new rows.
func NewID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		panic(err)
	}
	return id
}
