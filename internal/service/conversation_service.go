package service

import (
	"LykkeLoopAPI/internal/helper"
	"LykkeLoopAPI/internal/model"
	"LykkeLoopAPI/internal/repository"
	"context"
	"log/slog"
	"time"
)

type ConversationService struct {
	repo *repository.Repository
	now  func() time.Time
}

func NewConversationService(repo *repository.Repository) *ConversationService {
	return &ConversationService{
		repo: repo,
		now:  time.Now,
	}
}

// GetOrCreate returns the caller's conversation, opening it on first contact.
func (s *ConversationService) GetOrCreate(ctx context.Context, authUser *model.AuthUser) (*model.ConversationResponse, error) {
	if authUser.IsAdmin {
		return nil, helper.NewForbiddenError("Admins cannot open customer conversations")
	}
	if authUser.UserID == nil {
		return nil, helper.NewUnauthorizedError("")
	}

	conv, err := s.repo.Conversation.GetOrCreateByUser(ctx, *authUser.UserID, s.now().UTC())
	if err != nil {
		slog.Error("Failed to get or create conversation", "error", err, "userID", *authUser.UserID)
		return nil, helper.NewInternalServerError("")
	}

	resp := toConversationResponse(conv, false)
	return &resp, nil
}

func (s *ConversationService) List(ctx context.Context, authUser *model.AuthUser) ([]model.ConversationResponse, error) {
	var filter repository.ListConversationsFilter
	if !authUser.IsAdmin {
		if authUser.UserID == nil {
			return nil, helper.NewUnauthorizedError("")
		}
		filter.UserID = authUser.UserID
	}

	convs, err := s.repo.Conversation.List(ctx, filter)
	if err != nil {
		slog.Error("Failed to list conversations", "error", err)
		return nil, helper.NewInternalServerError("")
	}

	resp := make([]model.ConversationResponse, 0, len(convs))
	for i := range convs {
		resp = append(resp, toConversationResponse(&convs[i], authUser.IsAdmin))
	}
	return resp, nil
}

func (s *ConversationService) Get(ctx context.Context, authUser *model.AuthUser, rawID string) (*model.ConversationDetailResponse, error) {
	id, err := parseConversationID(rawID)
	if err != nil {
		return nil, err
	}

	conv, err := loadAuthorized(ctx, s.repo.Conversation, authUser, id)
	if err != nil {
		return nil, err
	}

	messages, err := s.repo.Message.ListRecent(ctx, conv.ID, repository.RecentMessagesLimit)
	if err != nil {
		slog.Error("Failed to list messages", "error", err, "conversationID", conv.ID)
		return nil, helper.NewInternalServerError("")
	}

	resp := &model.ConversationDetailResponse{
		ConversationResponse: toConversationResponse(conv, false),
		Messages:             make([]model.MessageResponse, 0, len(messages)),
	}
	for i := range messages {
		resp.Messages = append(resp.Messages, toMessageResponse(&messages[i]))
	}
	return resp, nil
}
