package repository

import (
	"LykkeLoopAPI/internal/entity"
	"LykkeLoopAPI/internal/schema"
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to TEST_DATABASE_URL; the Postgres tests are skipped
// when it is not set.
func openTestDB(t *testing.T) *entsql.Driver {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	drv, err := entsql.Open(dialect.Postgres, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { drv.Close() })

	ctx := context.Background()
	require.NoError(t, schema.Create(ctx, drv))

	for _, table := range []string{schema.MessagesTableName, schema.ConversationsTableName, schema.UsersTableName} {
		_, err := drv.DB().ExecContext(ctx, fmt.Sprintf("DELETE FROM %q", table))
		require.NoError(t, err)
	}
	return drv
}

func insertUser(t *testing.T, drv *entsql.Driver, name string) entity.User {
	t.Helper()

	u := entity.User{ID: uuid.New(), Name: name, Email: fmt.Sprintf("%s%d@test.com", name, time.Now().UnixNano())}
	query, args := entsql.Dialect(dialect.Postgres).Insert(schema.UsersTableName).
		Columns("id", "name", "email", "created_at").
		Values(u.ID, u.Name, u.Email, time.Now()).
		Query()
	_, err := drv.DB().ExecContext(context.Background(), query, args...)
	require.NoError(t, err)
	return u
}

func TestPostgresConversationIsUniquePerUser(t *testing.T) {
	drv := openTestDB(t)
	repo := NewRepository(drv, nil)
	ctx := context.Background()
	u := insertUser(t, drv, "alice")

	var wg sync.WaitGroup
	ids := make(chan uuid.UUID, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := repo.Conversation.GetOrCreateByUser(ctx, u.ID, time.Now())
			if assert.NoError(t, err) {
				ids <- c.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	var first uuid.UUID
	for id := range ids {
		if first == uuid.Nil {
			first = id
		}
		assert.Equal(t, first, id)
	}

	list, err := repo.Conversation.List(ctx, ListConversationsFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "alice", list[0].User.Name)
}

func TestPostgresMessageLifecycle(t *testing.T) {
	drv := openTestDB(t)
	repo := NewRepository(drv, nil)
	ctx := context.Background()
	u := insertUser(t, drv, "bob")

	base := time.Now().UTC().Truncate(time.Microsecond)
	c, err := repo.Conversation.GetOrCreateByUser(ctx, u.ID, base)
	require.NoError(t, err)

	image := entity.MediaImage
	url := "https://cdn.example.com/a.jpg"
	hi := newMessage(c.ID, entity.RoleUser, "Hi", base.Add(time.Second))
	hi.SenderID = &u.ID
	photo := newMessage(c.ID, entity.RoleUser, "", base.Add(2*time.Second))
	photo.MediaType = &image
	photo.MediaURL = &url
	reply := newMessage(c.ID, entity.RoleAdmin, "Hello!", base.Add(3*time.Second))

	require.NoError(t, repo.Message.Create(ctx, hi, "Hi"))
	require.NoError(t, repo.Message.Create(ctx, photo, "📷 Photo"))
	require.NoError(t, repo.Message.Create(ctx, reply, "Hello!"))

	got, err := repo.Conversation.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.AdminUnreadCount)
	assert.Equal(t, 1, got.UserUnreadCount)
	assert.Equal(t, "Hello!", got.LastMessageSnippet)

	list, err := repo.Message.ListRecent(ctx, c.ID, RecentMessagesLimit)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, hi.ID, list[0].ID)
	assert.Equal(t, u.ID, *list[0].SenderID)
	assert.Equal(t, entity.MediaImage, *list[1].MediaType)
	assert.Equal(t, url, *list[1].MediaURL)
	assert.Nil(t, list[2].SenderID)

	n, err := repo.Message.MarkRead(ctx, c.ID, entity.RoleAdmin, base.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, repo.Conversation.ResetUnread(ctx, c.ID, entity.RoleAdmin))

	unread, err := repo.Message.CountUnread(ctx, c.ID, entity.RoleAdmin)
	require.NoError(t, err)
	assert.Zero(t, unread)

	total, err := repo.Conversation.SumUnread(ctx, entity.RoleUser, &u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	drifted, err := repo.Conversation.ReconcileUnread(ctx)
	require.NoError(t, err)
	assert.Zero(t, drifted)

	err = repo.Message.Create(ctx, newMessage(uuid.New(), entity.RoleUser, "x", base), "x")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.User.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
