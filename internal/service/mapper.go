package service

import (
	"LykkeLoopAPI/internal/entity"
	"LykkeLoopAPI/internal/model"
)

func toMessageResponse(m *entity.Message) model.MessageResponse {
	resp := model.MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		SenderRole:     m.SenderRole.String(),
		Content:        m.Content,
		MediaURL:       m.MediaURL,
		CreatedAt:      m.CreatedAt,
		ReadAt:         m.ReadAt,
	}
	if m.MediaType != nil {
		mt := string(*m.MediaType)
		resp.MediaType = &mt
	}
	return resp
}

func toConversationResponse(c *entity.Conversation, withUser bool) model.ConversationResponse {
	resp := model.ConversationResponse{
		ID:                 c.ID,
		UserID:             c.UserID,
		AdminID:            c.AdminID,
		LastMessageSnippet: c.LastMessageSnippet,
		LastMessageAt:      c.LastMessageAt,
		UserUnreadCount:    c.UserUnreadCount,
		AdminUnreadCount:   c.AdminUnreadCount,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
	if withUser && c.User != nil {
		resp.User = &model.ConversationUserDTO{
			ID:    c.User.ID,
			Name:  c.User.Name,
			Email: c.User.Email,
		}
	}
	return resp
}
