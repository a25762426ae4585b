package entity

// SenderRole identifies which party authored a message. The admin is a single
// logical party, not a per-account sender.
type SenderRole string

const (
	RoleUser  SenderRole = "user"
	RoleAdmin SenderRole = "admin"
)

func (r SenderRole) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Opposite returns the other party of a conversation.
func (r SenderRole) Opposite() SenderRole {
	if r == RoleAdmin {
		return RoleUser
	}
	return RoleAdmin
}

func (r SenderRole) String() string {
	return string(r)
}

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

func (m MediaType) Valid() bool {
	return m == MediaImage || m == MediaVideo
}

// Placeholder is the display text used when a message carries media only.
func (m MediaType) Placeholder() string {
	switch m {
	case MediaImage:
		return "📷 Photo"
	case MediaVideo:
		return "🎥 Video"
	default:
		return ""
	}
}
