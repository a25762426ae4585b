package repository

import (
	"LykkeLoopAPI/internal/entity"
	"LykkeLoopAPI/internal/schema"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

type ListConversationsFilter struct {
	// UserID restricts the listing to one customer; nil lists every conversation.
	UserID *uuid.UUID
}

type ConversationRepository interface {
	GetOrCreateByUser(ctx context.Context, userID uuid.UUID, now time.Time) (*entity.Conversation, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Conversation, error)
	List(ctx context.Context, filter ListConversationsFilter) ([]entity.Conversation, error)
	ResetUnread(ctx context.Context, id uuid.UUID, reader entity.SenderRole) error
	SumUnread(ctx context.Context, reader entity.SenderRole, userID *uuid.UUID) (int, error)
	ReconcileUnread(ctx context.Context) (int64, error)
}

var conversationColumns = []string{
	"id",
	"user_id",
	"admin_id",
	"last_message_snippet",
	"last_message_at",
	"user_unread_count",
	"admin_unread_count",
	"created_at",
	"updated_at",
}

type conversationRepository struct {
	db      *sql.DB
	builder *entsql.DialectBuilder
}

func NewConversationRepository(drv *entsql.Driver) ConversationRepository {
	return &conversationRepository{
		db:      drv.DB(),
		builder: entsql.Dialect(dialect.Postgres),
	}
}

func (r *conversationRepository) GetOrCreateByUser(ctx context.Context, userID uuid.UUID, now time.Time) (*entity.Conversation, error) {
	c, err := r.findOldestByUser(ctx, userID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	query, args := r.builder.Insert(schema.ConversationsTableName).
		Columns("id", "user_id", "last_message_snippet", "last_message_at", "user_unread_count", "admin_unread_count", "created_at", "updated_at").
		Values(entity.NewID(), userID, "", now, 0, 0, now, now).
		OnConflict(entsql.ConflictColumns("user_id"), entsql.DoNothing()).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}

	// A concurrent first contact may have won the insert; either way the
	// surviving row is the one to return.
	return r.findOldestByUser(ctx, userID)
}

func (r *conversationRepository) findOldestByUser(ctx context.Context, userID uuid.UUID) (*entity.Conversation, error) {
	t := r.builder.Table(schema.ConversationsTableName)
	query, args := r.builder.Select(t.Columns(conversationColumns...)...).
		From(t).
		Where(entsql.EQ(t.C("user_id"), userID)).
		OrderBy(entsql.Asc(t.C("created_at"))).
		Limit(1).
		Query()

	return r.queryOne(ctx, query, args)
}

func (r *conversationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Conversation, error) {
	t := r.builder.Table(schema.ConversationsTableName)
	query, args := r.builder.Select(t.Columns(conversationColumns...)...).
		From(t).
		Where(entsql.EQ(t.C("id"), id)).
		Query()

	return r.queryOne(ctx, query, args)
}

func (r *conversationRepository) queryOne(ctx context.Context, query string, args []any) (*entity.Conversation, error) {
	c, err := scanConversation(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query conversation: %w", err)
	}
	return c, nil
}

func (r *conversationRepository) List(ctx context.Context, filter ListConversationsFilter) ([]entity.Conversation, error) {
	c := r.builder.Table(schema.ConversationsTableName)
	u := r.builder.Table(schema.UsersTableName)

	columns := append(c.Columns(conversationColumns...), u.C("name"), u.C("email"))
	selector := r.builder.Select(columns...).
		From(c).
		LeftJoin(u).On(c.C("user_id"), u.C("id")).
		OrderBy(entsql.Desc(c.C("last_message_at")), entsql.Desc(c.C("id")))

	if filter.UserID != nil {
		selector = selector.Where(entsql.EQ(c.C("user_id"), *filter.UserID))
	}

	query, args := selector.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var out []entity.Conversation
	for rows.Next() {
		var (
			conv    entity.Conversation
			adminID uuid.NullUUID
			name    sql.NullString
			email   sql.NullString
		)
		if err := rows.Scan(
			&conv.ID,
			&conv.UserID,
			&adminID,
			&conv.LastMessageSnippet,
			&conv.LastMessageAt,
			&conv.UserUnreadCount,
			&conv.AdminUnreadCount,
			&conv.CreatedAt,
			&conv.UpdatedAt,
			&name,
			&email,
		); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		conv.AdminID = uuidPtr(adminID)
		conv.User = &entity.User{ID: conv.UserID, Name: name.String, Email: email.String}
		out = append(out, conv)
	}

	return out, rows.Err()
}

func (r *conversationRepository) ResetUnread(ctx context.Context, id uuid.UUID, reader entity.SenderRole) error {
	query, args := r.builder.Update(schema.ConversationsTableName).
		Set(unreadColumn(reader), 0).
		Where(entsql.EQ("id", id)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("reset unread counter: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *conversationRepository) SumUnread(ctx context.Context, reader entity.SenderRole, userID *uuid.UUID) (int, error) {
	t := r.builder.Table(schema.ConversationsTableName)
	selector := r.builder.Select(fmt.Sprintf("COALESCE(SUM(%s), 0)", t.C(unreadColumn(reader)))).From(t)
	if userID != nil {
		selector = selector.Where(entsql.EQ(t.C("user_id"), *userID))
	}

	query, args := selector.Query()

	var total int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum unread counters: %w", err)
	}
	return total, nil
}

const reconcileUnreadQuery = `
UPDATE conversations AS c
SET admin_unread_count = u.admin_unread,
    user_unread_count = u.user_unread
FROM (
    SELECT conv.id AS conversation_id,
           COUNT(m.id) FILTER (WHERE m.sender_role = 'user' AND m.read_at IS NULL) AS admin_unread,
           COUNT(m.id) FILTER (WHERE m.sender_role = 'admin' AND m.read_at IS NULL) AS user_unread
    FROM conversations AS conv
    LEFT JOIN messages AS m ON m.conversation_id = conv.id
    GROUP BY conv.id
) AS u
WHERE c.id = u.conversation_id
  AND (c.admin_unread_count <> u.admin_unread OR c.user_unread_count <> u.user_unread)`

// ReconcileUnread recomputes both counters from the message rows and returns
// how many conversations had drifted.
func (r *conversationRepository) ReconcileUnread(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, reconcileUnreadQuery)
	if err != nil {
		return 0, fmt.Errorf("reconcile unread counters: %w", err)
	}
	return res.RowsAffected()
}

func scanConversation(row rowScanner) (*entity.Conversation, error) {
	var (
		c       entity.Conversation
		adminID uuid.NullUUID
	)
	if err := row.Scan(
		&c.ID,
		&c.UserID,
		&adminID,
		&c.LastMessageSnippet,
		&c.LastMessageAt,
		&c.UserUnreadCount,
		&c.AdminUnreadCount,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.AdminID = uuidPtr(adminID)
	return &c, nil
}
