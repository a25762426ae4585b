package chatsync

import (
	"LykkeLoopAPI/internal/helper"
	"LykkeLoopAPI/internal/model"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// API is the subset of the HTTP surface the sync engine depends on.
type API interface {
	OpenConversation(ctx context.Context) (*model.ConversationResponse, error)
	ListConversations(ctx context.Context) ([]model.ConversationResponse, error)
	GetConversation(ctx context.Context, id uuid.UUID) (*model.ConversationDetailResponse, error)
	SendMessage(ctx context.Context, req model.SendMessageRequest) (*model.MessageResponse, error)
	MarkRead(ctx context.Context, conversationID uuid.UUID) (*model.MarkReadResponse, error)
	UnreadCount(ctx context.Context) (*model.UnreadCountResponse, error)
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
}

type APIClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewAPIClient(baseURL, token string, httpClient *http.Client) *APIClient {
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

func (c *APIClient) OpenConversation(ctx context.Context) (*model.ConversationResponse, error) {
	var out model.ConversationResponse
	if err := c.do(ctx, http.MethodPost, "/api/conversations", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) ListConversations(ctx context.Context) ([]model.ConversationResponse, error) {
	var out []model.ConversationResponse
	if err := c.do(ctx, http.MethodGet, "/api/conversations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *APIClient) GetConversation(ctx context.Context, id uuid.UUID) (*model.ConversationDetailResponse, error) {
	var out model.ConversationDetailResponse
	if err := c.do(ctx, http.MethodGet, "/api/conversations/"+id.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) SendMessage(ctx context.Context, req model.SendMessageRequest) (*model.MessageResponse, error) {
	var out model.MessageResponse
	if err := c.do(ctx, http.MethodPost, "/api/messages", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) MarkRead(ctx context.Context, conversationID uuid.UUID) (*model.MarkReadResponse, error) {
	var out model.MarkReadResponse
	req := model.MarkReadRequest{ConversationID: conversationID.String()}
	if err := c.do(ctx, http.MethodPatch, "/api/messages/read", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) UnreadCount(ctx context.Context) (*model.UnreadCountResponse, error) {
	var out model.UnreadCountResponse
	if err := c.do(ctx, http.MethodGet, "/api/notifications/unread-count", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp helper.ResponseError
		if json.Unmarshal(data, &errResp) == nil {
			apiErr.Message = errResp.Error
		}
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			apiErr.RetryAfter = time.Duration(secs) * time.Second
		}
		return apiErr
	}

	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response data: %w", err)
	}
	return nil
}
