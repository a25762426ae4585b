package service

import (
	"LykkeLoopAPI/internal/config"
	"LykkeLoopAPI/internal/entity"
	"LykkeLoopAPI/internal/helper"
	"LykkeLoopAPI/internal/model"
	"LykkeLoopAPI/internal/repository"
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const rateLimitMessage = "Rate limit exceeded. Please wait before sending more messages."

type MessageService struct {
	repo      *repository.Repository
	cfg       *config.AppConfig
	validator *validator.Validate
	delivery  *DeliveryService
	now       func() time.Time
}

func NewMessageService(repo *repository.Repository, cfg *config.AppConfig, validator *validator.Validate, delivery *DeliveryService) *MessageService {
	return &MessageService{
		repo:      repo,
		cfg:       cfg,
		validator: validator,
		delivery:  delivery,
		now:       time.Now,
	}
}

// validateSend applies the request rules in a fixed order so that the first
// failing rule decides the error message.
func (s *MessageService) validateSend(req *model.SendMessageRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return helper.NewBadRequestError("A valid conversation_id is required")
	}

	content := strings.TrimSpace(req.Content)
	hasMedia := req.MediaURL != nil && strings.TrimSpace(*req.MediaURL) != ""

	if content == "" && !hasMedia {
		return helper.NewBadRequestError("Message content or media is required")
	}
	if utf8.RuneCountInString(content) > entity.ContentMaxLength {
		return helper.NewBadRequestError("Message is too long (max 5000 characters)")
	}
	if hasMedia && req.MediaType == nil {
		return helper.NewBadRequestError("media_type is required when media_url is set")
	}
	if req.MediaType != nil {
		if err := s.validator.Var(*req.MediaType, "media_type"); err != nil {
			return helper.NewBadRequestError("media_type must be image or video")
		}
	}
	return nil
}

func (s *MessageService) Send(ctx context.Context, authUser *model.AuthUser, req model.SendMessageRequest) (*model.MessageResponse, error) {
	if err := s.validateSend(&req); err != nil {
		slog.Warn("Validation failed", "error", err)
		return nil, err
	}

	conversationID, err := parseConversationID(req.ConversationID)
	if err != nil {
		return nil, err
	}

	conv, err := loadAuthorized(ctx, s.repo.Conversation, authUser, conversationID)
	if err != nil {
		return nil, err
	}

	role := authUser.Role()
	senderID := authUser.UserID
	if role == entity.RoleAdmin {
		senderID = nil
	}

	if role == entity.RoleUser {
		if err := s.checkRateLimit(ctx, *senderID); err != nil {
			return nil, err
		}
	}

	msg := &entity.Message{
		ID:             entity.NewID(),
		ConversationID: conv.ID,
		SenderID:       senderID,
		SenderRole:     role,
		Content:        strings.TrimSpace(req.Content),
		CreatedAt:      s.now().UTC(),
	}

	if req.MediaURL != nil && strings.TrimSpace(*req.MediaURL) != "" {
		mediaType := entity.MediaType(*req.MediaType)
		mediaURL := strings.TrimSpace(*req.MediaURL)
		msg.MediaType = &mediaType
		msg.MediaURL = &mediaURL
	}
	if msg.Content == "" {
		msg.Content = msg.DisplayText()
	}

	snippet := helper.Truncate(msg.DisplayText(), entity.SnippetMaxLength)

	if err := s.repo.Message.Create(ctx, msg, snippet); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, helper.NewNotFoundError("Conversation not found")
		}
		slog.Error("Failed to create message", "error", err, "conversationID", conv.ID)
		return nil, helper.NewInternalServerError("")
	}

	if s.delivery != nil {
		s.delivery.MessageCreated(ctx, conv, msg)
	}

	resp := toMessageResponse(msg)
	return &resp, nil
}

func (s *MessageService) checkRateLimit(ctx context.Context, userID uuid.UUID) error {
	window := time.Duration(s.cfg.MessageRateWindowSeconds) * time.Second
	key := "message:" + userID.String()

	allowed, retryAfter, err := s.repo.RateLimit.Allow(ctx, key, s.cfg.MessageRateLimit, window)
	if err != nil {
		slog.Error("Rate limiter unavailable", "error", err)
		return helper.NewServiceUnavailableError("")
	}
	if !allowed {
		return helper.NewTooManyRequestsError(rateLimitMessage, retryAfter)
	}
	return nil
}

func (s *MessageService) MarkRead(ctx context.Context, authUser *model.AuthUser, req model.MarkReadRequest) (*model.MarkReadResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		slog.Warn("Validation failed", "error", err)
		return nil, helper.NewBadRequestError("A valid conversation_id is required")
	}

	conversationID, err := parseConversationID(req.ConversationID)
	if err != nil {
		return nil, err
	}

	conv, err := loadAuthorized(ctx, s.repo.Conversation, authUser, conversationID)
	if err != nil {
		return nil, err
	}

	reader := authUser.Role()
	at := s.now().UTC()

	marked, err := s.repo.Message.MarkRead(ctx, conv.ID, reader, at)
	if err != nil {
		slog.Error("Failed to mark messages read", "error", err, "conversationID", conv.ID)
		return nil, helper.NewInternalServerError("")
	}

	if err := s.repo.Conversation.ResetUnread(ctx, conv.ID, reader); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, helper.NewNotFoundError("Conversation not found")
		}
		slog.Error("Failed to reset unread counter", "error", err, "conversationID", conv.ID)
		return nil, helper.NewInternalServerError("")
	}

	if marked > 0 && s.delivery != nil {
		s.delivery.MessagesRead(ctx, conv, reader, at)
	}

	return &model.MarkReadResponse{
		ConversationID: conv.ID,
		MarkedCount:    marked,
	}, nil
}
