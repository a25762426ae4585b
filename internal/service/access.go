package service

import (
	"LykkeLoopAPI/internal/entity"
	"LykkeLoopAPI/internal/helper"
	"LykkeLoopAPI/internal/model"
	"LykkeLoopAPI/internal/repository"
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
)

func parseConversationID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, helper.NewBadRequestError("Invalid conversation ID")
	}
	return id, nil
}

// loadAuthorized fetches a conversation the caller may act on. Admins see
// every conversation, users only their own.
func loadAuthorized(ctx context.Context, conversations repository.ConversationRepository, authUser *model.AuthUser, id uuid.UUID) (*entity.Conversation, error) {
	conv, err := conversations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, helper.NewNotFoundError("Conversation not found")
		}
		slog.Error("Failed to load conversation", "error", err, "conversationID", id)
		return nil, helper.NewInternalServerError("")
	}

	if authUser.IsAdmin {
		return conv, nil
	}
	if authUser.UserID == nil || !conv.OwnedBy(*authUser.UserID) {
		return nil, helper.NewForbiddenError("")
	}
	return conv, nil
}
