package service

import (
	"LykkeLoopAPI/internal/config"
	"LykkeLoopAPI/internal/entity"
	"LykkeLoopAPI/internal/helper"
	"LykkeLoopAPI/internal/model"
	"LykkeLoopAPI/internal/repository"
	"LykkeLoopAPI/internal/websocket"
	"context"
	"embed"
	"fmt"
	"log/slog"
	"net/url"
	"time"
)

//go:embed template
var templateFS embed.FS

const (
	emailSnippetLength = 120
	adminDisplayName   = "Admin"
	userFallbackName   = "User"
	emailSendTimeout   = 30 * time.Second
)

type Mailer interface {
	Enabled() bool
	Send(ctx context.Context, to []string, subject, htmlBody, textBody string) error
}

// DeliveryService tells the other party about new activity: a push event on
// the recipient's channel and a notification email. Nothing here fails the
// caller's request; problems are logged as warnings.
type DeliveryService struct {
	publisher websocket.Publisher
	mailer    Mailer
	users     repository.UserRepository
	cfg       *config.AppConfig
}

func NewDeliveryService(publisher websocket.Publisher, mailer Mailer, users repository.UserRepository, cfg *config.AppConfig) *DeliveryService {
	return &DeliveryService{
		publisher: publisher,
		mailer:    mailer,
		users:     users,
		cfg:       cfg,
	}
}

func recipientChannel(conv *entity.Conversation, sender entity.SenderRole) string {
	switch sender {
	case entity.RoleUser:
		return websocket.AdminChannel
	default:
		return websocket.UserChannel(conv.UserID)
	}
}

func (s *DeliveryService) MessageCreated(ctx context.Context, conv *entity.Conversation, msg *entity.Message) {
	senderName := s.senderName(ctx, msg)

	payload := model.NewMessagePayload{
		ConversationID: conv.ID,
		Message:        toMessageResponse(msg),
		SenderName:     senderName,
		SenderRole:     msg.SenderRole.String(),
	}

	channel := recipientChannel(conv, msg.SenderRole)
	if err := s.publisher.Publish(ctx, channel, websocket.EventNewMessage, payload); err != nil {
		slog.Warn("Failed to publish new message event", "error", err, "channel", channel, "messageID", msg.ID)
	}

	s.notifyByEmail(ctx, conv, msg, senderName)
}

func (s *DeliveryService) MessagesRead(ctx context.Context, conv *entity.Conversation, reader entity.SenderRole, at time.Time) {
	payload := model.MessagesReadPayload{
		ConversationID: conv.ID,
		ReaderRole:     reader.String(),
		ReadAt:         at,
	}

	// The reader's counterpart is the party whose messages were read.
	channel := recipientChannel(conv, reader)
	if err := s.publisher.Publish(ctx, channel, websocket.EventMessagesRead, payload); err != nil {
		slog.Warn("Failed to publish messages read event", "error", err, "channel", channel, "conversationID", conv.ID)
	}
}

func (s *DeliveryService) senderName(ctx context.Context, msg *entity.Message) string {
	if msg.SenderRole == entity.RoleAdmin {
		return adminDisplayName
	}
	if msg.SenderID == nil {
		return userFallbackName
	}

	u, err := s.users.FindByID(ctx, *msg.SenderID)
	if err != nil || u.Name == "" {
		return userFallbackName
	}
	return u.Name
}

type emailTemplateData struct {
	Greeting string
	Snippet  string
	Link     string
	Year     int
}

type notificationEmail struct {
	to      string
	subject string
	data    emailTemplateData
}

func (s *DeliveryService) buildEmail(ctx context.Context, conv *entity.Conversation, msg *entity.Message, senderName string) (*notificationEmail, bool) {
	snippet := helper.TruncateWithEllipsis(msg.DisplayText(), emailSnippetLength)
	year := msg.CreatedAt.Year()

	if msg.SenderRole == entity.RoleUser {
		if s.cfg.AdminNotifyEmail == "" {
			return nil, false
		}
		return &notificationEmail{
			to:      s.cfg.AdminNotifyEmail,
			subject: fmt.Sprintf("New message from %s — LykkeLoop", senderName),
			data: emailTemplateData{
				Greeting: "Hello Admin,",
				Snippet:  snippet,
				Link:     fmt.Sprintf("%s/admin/messages?conversation=%s", s.cfg.AppURL, url.QueryEscape(conv.ID.String())),
				Year:     year,
			},
		}, true
	}

	u, err := s.users.FindByID(ctx, conv.UserID)
	if err != nil || u.Email == "" {
		return nil, false
	}

	greeting := "Hello,"
	if u.Name != "" {
		greeting = fmt.Sprintf("Hello %s,", u.Name)
	}
	return &notificationEmail{
		to:      u.Email,
		subject: "New reply from LykkeLoop",
		data: emailTemplateData{
			Greeting: greeting,
			Snippet:  snippet,
			Link:     s.cfg.AppURL + "/?openChat=true",
			Year:     year,
		},
	}, true
}

func (s *DeliveryService) notifyByEmail(ctx context.Context, conv *entity.Conversation, msg *entity.Message, senderName string) {
	if s.mailer == nil || !s.mailer.Enabled() {
		return
	}

	email, ok := s.buildEmail(ctx, conv, msg, senderName)
	if !ok {
		return
	}

	sendEmail := func(ctx context.Context) {
		body, err := helper.GenerateEmailBody(templateFS, "template/message_notification.html", email.data)
		if err != nil {
			slog.Error("Failed to generate email body", "error", err)
			return
		}

		text := fmt.Sprintf("%s\n\nYou have received a new message:\n\n%s\n\nView conversation: %s\n",
			email.data.Greeting, email.data.Snippet, email.data.Link)

		if err := s.mailer.Send(ctx, []string{email.to}, email.subject, body, text); err != nil {
			slog.Warn("Failed to send message notification email", "error", err, "conversationID", conv.ID)
		}
	}

	if s.cfg.SMTPAsync {
		go func() {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), emailSendTimeout)
			defer cancel()
			sendEmail(ctx)
		}()
	} else {
		sendEmail(ctx)
	}
}
