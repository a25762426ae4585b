package test

import (
	"LykkeLoopAPI/internal/model"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sendMessage(t *testing.T, token string, conversationID uuid.UUID, content string) model.MessageResponse {
	t.Helper()

	rr := apiRequest(t, http.MethodPost, "/api/messages", token, map[string]any{
		"conversation_id": conversationID.String(),
		"content":         content,
	})
	if !assert.Equal(t, http.StatusCreated, rr.Code) {
		printBody(t, rr)
	}

	var msg model.MessageResponse
	decodeData(t, rr, &msg)
	return msg
}

func getConversation(t *testing.T, token string, id uuid.UUID) model.ConversationDetailResponse {
	t.Helper()

	rr := apiRequest(t, http.MethodGet, "/api/conversations/"+id.String(), token, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var detail model.ConversationDetailResponse
	decodeData(t, rr, &detail)
	return detail
}

func TestSendMessage(t *testing.T) {
	u := createTestUser(t, "send")
	conv := openConversation(t, u)

	t.Run("Success - user to admin", func(t *testing.T) {
		msg := sendMessage(t, u.Token, conv.ID, "Hi")
		assert.Equal(t, "user", msg.SenderRole)
		require.NotNil(t, msg.SenderID)
		assert.Equal(t, u.ID, *msg.SenderID)
		assert.Nil(t, msg.ReadAt)

		detail := getConversation(t, u.Token, conv.ID)
		assert.Equal(t, 1, detail.AdminUnreadCount)
		assert.Equal(t, 0, detail.UserUnreadCount)
		assert.Equal(t, "Hi", detail.LastMessageSnippet)
	})

	t.Run("Success - admin replies", func(t *testing.T) {
		msg := sendMessage(t, adminToken(t), conv.ID, "Hello")
		assert.Equal(t, "admin", msg.SenderRole)
		assert.Nil(t, msg.SenderID)

		detail := getConversation(t, u.Token, conv.ID)
		assert.Equal(t, 1, detail.AdminUnreadCount)
		assert.Equal(t, 1, detail.UserUnreadCount)
		assert.Equal(t, "Hello", detail.LastMessageSnippet)
	})

	t.Run("Success - media only message gets placeholder", func(t *testing.T) {
		rr := apiRequest(t, http.MethodPost, "/api/messages", u.Token, map[string]any{
			"conversation_id": conv.ID.String(),
			"media_type":      "image",
			"media_url":       "https://cdn.example.com/a.jpg",
		})
		require.Equal(t, http.StatusCreated, rr.Code)

		var msg model.MessageResponse
		decodeData(t, rr, &msg)
		assert.Equal(t, "📷 Photo", msg.Content)
		require.NotNil(t, msg.MediaType)
		assert.Equal(t, "image", *msg.MediaType)
	})

	t.Run("Fail - empty message", func(t *testing.T) {
		rr := apiRequest(t, http.MethodPost, "/api/messages", u.Token, map[string]any{
			"conversation_id": conv.ID.String(),
			"content":         "   ",
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Message content or media is required", decodeError(t, rr))
	})

	t.Run("Fail - too long", func(t *testing.T) {
		rr := apiRequest(t, http.MethodPost, "/api/messages", u.Token, map[string]any{
			"conversation_id": conv.ID.String(),
			"content":         strings.Repeat("x", 5001),
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Message is too long (max 5000 characters)", decodeError(t, rr))
	})

	t.Run("Fail - invalid media type", func(t *testing.T) {
		rr := apiRequest(t, http.MethodPost, "/api/messages", u.Token, map[string]any{
			"conversation_id": conv.ID.String(),
			"media_type":      "audio",
			"media_url":       "https://cdn.example.com/a.mp3",
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "media_type must be image or video", decodeError(t, rr))
	})

	t.Run("Fail - invalid conversation id", func(t *testing.T) {
		rr := apiRequest(t, http.MethodPost, "/api/messages", u.Token, map[string]any{
			"conversation_id": "not-a-uuid",
			"content":         "Hi",
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Fail - unknown conversation", func(t *testing.T) {
		rr := apiRequest(t, http.MethodPost, "/api/messages", u.Token, map[string]any{
			"conversation_id": uuid.NewString(),
			"content":         "Hi",
		})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("Fail - foreign conversation", func(t *testing.T) {
		stranger := createTestUser(t, "stranger")
		rr := apiRequest(t, http.MethodPost, "/api/messages", stranger.Token, map[string]any{
			"conversation_id": conv.ID.String(),
			"content":         "Hi",
		})
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("Fail - invalid JSON", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/api/messages", strings.NewReader("{"))
		req.Header.Set("Authorization", "Bearer "+u.Token)
		rr := executeRequest(req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestSendMessageRateLimit(t *testing.T) {
	u := createTestUser(t, "flood")
	conv := openConversation(t, u)

	for i := 0; i < testConfig.MessageRateLimit; i++ {
		sendMessage(t, u.Token, conv.ID, "spam")
	}

	rr := apiRequest(t, http.MethodPost, "/api/messages", u.Token, map[string]any{
		"conversation_id": conv.ID.String(),
		"content":         "one too many",
	})
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	detail := getConversation(t, u.Token, conv.ID)
	assert.Equal(t, testConfig.MessageRateLimit, detail.AdminUnreadCount)

	t.Run("Admin is not limited", func(t *testing.T) {
		for i := 0; i < testConfig.MessageRateLimit+1; i++ {
			sendMessage(t, adminToken(t), conv.ID, "reply")
		}
	})
}

func TestMarkRead(t *testing.T) {
	u := createTestUser(t, "read")
	conv := openConversation(t, u)

	sendMessage(t, u.Token, conv.ID, "one")
	sendMessage(t, u.Token, conv.ID, "two")
	sendMessage(t, adminToken(t), conv.ID, "reply")

	t.Run("Success - admin reads user messages only", func(t *testing.T) {
		rr := apiRequest(t, http.MethodPatch, "/api/messages/read", adminToken(t), map[string]any{
			"conversation_id": conv.ID.String(),
		})
		require.Equal(t, http.StatusOK, rr.Code)

		var resp model.MarkReadResponse
		decodeData(t, rr, &resp)
		assert.Equal(t, int64(2), resp.MarkedCount)

		detail := getConversation(t, u.Token, conv.ID)
		assert.Equal(t, 0, detail.AdminUnreadCount)
		assert.Equal(t, 1, detail.UserUnreadCount)
		for _, m := range detail.Messages {
			if m.SenderRole == "user" {
				assert.NotNil(t, m.ReadAt)
			} else {
				assert.Nil(t, m.ReadAt)
			}
		}
	})

	t.Run("Success - second call marks nothing", func(t *testing.T) {
		rr := apiRequest(t, http.MethodPatch, "/api/messages/read", adminToken(t), map[string]any{
			"conversation_id": conv.ID.String(),
		})
		require.Equal(t, http.StatusOK, rr.Code)

		var resp model.MarkReadResponse
		decodeData(t, rr, &resp)
		assert.Zero(t, resp.MarkedCount)
	})

	t.Run("Fail - missing conversation id", func(t *testing.T) {
		rr := apiRequest(t, http.MethodPatch, "/api/messages/read", u.Token, map[string]any{})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Fail - foreign conversation", func(t *testing.T) {
		stranger := createTestUser(t, "stranger")
		rr := apiRequest(t, http.MethodPatch, "/api/messages/read", stranger.Token, map[string]any{
			"conversation_id": conv.ID.String(),
		})
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}
