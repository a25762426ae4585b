package service

import (
	"LykkeLoopAPI/internal/helper"
	"LykkeLoopAPI/internal/model"
	"LykkeLoopAPI/internal/repository"
	"context"
	"log/slog"
)

type NotificationService struct {
	repo *repository.Repository
}

func NewNotificationService(repo *repository.Repository) *NotificationService {
	return &NotificationService{
		repo: repo,
	}
}

// UnreadCount sums the caller's badge: every conversation for the admin, the
// caller's own conversation for a user.
func (s *NotificationService) UnreadCount(ctx context.Context, authUser *model.AuthUser) (*model.UnreadCountResponse, error) {
	role := authUser.Role()
	if !authUser.IsAdmin && authUser.UserID == nil {
		return nil, helper.NewUnauthorizedError("")
	}

	userID := authUser.UserID
	if authUser.IsAdmin {
		userID = nil
	}

	total, err := s.repo.Conversation.SumUnread(ctx, role, userID)
	if err != nil {
		slog.Error("Failed to sum unread counters", "error", err)
		return nil, helper.NewInternalServerError("")
	}

	return &model.UnreadCountResponse{
		UnreadCount: total,
		Role:        role.String(),
	}, nil
}
