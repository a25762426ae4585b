package test

import (
	"LykkeLoopAPI/internal/chatsync"
	"LykkeLoopAPI/internal/config"
	"LykkeLoopAPI/internal/entity"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatSyncEndToEnd(t *testing.T) {
	server := httptest.NewServer(testRouter)
	defer server.Close()

	ctx := context.Background()
	u := createTestUser(t, "sync")
	admin := adminToken(t)

	userAPI := chatsync.NewAPIClient(server.URL, u.Token, config.NewHTTPClient())
	adminAPI := chatsync.NewAPIClient(server.URL, admin, config.NewHTTPClient())

	conv, err := userAPI.OpenConversation(ctx)
	require.NoError(t, err)

	// Long poll intervals so that delivery below can only come from push.
	userEngine := chatsync.NewEngine(userAPI, chatsync.NewWSPush(server.URL, u.Token), chatsync.Options{
		Role:           entity.RoleUser,
		UserID:         &u.ID,
		ConversationID: &conv.ID,
		PollInterval:   time.Minute,
	})
	require.NoError(t, userEngine.Start(ctx))
	defer userEngine.Close()

	adminEngine := chatsync.NewEngine(adminAPI, chatsync.NewWSPush(server.URL, admin), chatsync.Options{
		Role:           entity.RoleAdmin,
		ConversationID: &conv.ID,
		PollInterval:   time.Minute,
	})
	require.NoError(t, adminEngine.Start(ctx))
	defer adminEngine.Close()

	hi, err := userEngine.Send(ctx, "Hi")
	require.NoError(t, err)
	assert.True(t, userEngine.Timeline().Has(hi.ID))

	require.Eventually(t, func() bool { return adminEngine.Timeline().Has(hi.ID) }, 3*time.Second, 10*time.Millisecond)

	// The admin view marks the conversation read, which the user sees as a receipt.
	require.Eventually(t, func() bool {
		msgs := userEngine.Timeline().Messages()
		return len(msgs) == 1 && msgs[0].ReadAt != nil
	}, 3*time.Second, 10*time.Millisecond)

	hello, err := adminEngine.Send(ctx, "Hello!")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return userEngine.Timeline().Has(hello.ID) }, 3*time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{"Hi", "Hello!"}, contentsOf(userEngine.Timeline()))
	assert.Equal(t, []string{"Hi", "Hello!"}, contentsOf(adminEngine.Timeline()))

	count, err := adminAPI.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin", count.Role)
}

func TestChatSyncAPIErrors(t *testing.T) {
	server := httptest.NewServer(testRouter)
	defer server.Close()

	api := chatsync.NewAPIClient(server.URL, adminToken(t), config.NewHTTPClient())

	_, err := api.OpenConversation(context.Background())
	var apiErr *chatsync.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.StatusCode)
}

func contentsOf(tl *chatsync.Timeline) []string {
	var out []string
	for _, m := range tl.Messages() {
		out = append(out, m.Content)
	}
	return out
}
