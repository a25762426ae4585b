package repository

import (
	"LykkeLoopAPI/internal/entity"
	"LykkeLoopAPI/internal/schema"
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

// RecentMessagesLimit bounds the history returned with a conversation.
const RecentMessagesLimit = 50

type MessageRepository interface {
	// Create persists msg and, atomically with it, updates the parent
	// conversation's snippet, ordering key and the recipient's unread counter.
	Create(ctx context.Context, msg *entity.Message, snippet string) error
	ListRecent(ctx context.Context, conversationID uuid.UUID, limit int) ([]entity.Message, error)
	MarkRead(ctx context.Context, conversationID uuid.UUID, reader entity.SenderRole, at time.Time) (int64, error)
	CountUnread(ctx context.Context, conversationID uuid.UUID, reader entity.SenderRole) (int, error)
}

var messageColumns = []string{
	"id",
	"conversation_id",
	"sender_id",
	"sender_role",
	"content",
	"media_type",
	"media_url",
	"created_at",
	"read_at",
}

type messageRepository struct {
	db      *sql.DB
	builder *entsql.DialectBuilder
}

func NewMessageRepository(drv *entsql.Driver) MessageRepository {
	return &messageRepository{
		db:      drv.DB(),
		builder: entsql.Dialect(dialect.Postgres),
	}
}

func (r *messageRepository) Create(ctx context.Context, msg *entity.Message, snippet string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query, args := r.builder.Update(schema.ConversationsTableName).
		Set("last_message_snippet", snippet).
		Set("last_message_at", msg.CreatedAt).
		Set("updated_at", msg.CreatedAt).
		Add(unreadColumn(msg.SenderRole.Opposite()), 1).
		Where(entsql.EQ("id", msg.ConversationID)).
		Query()

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	var mediaType sql.NullString
	if msg.MediaType != nil {
		mediaType = sql.NullString{String: string(*msg.MediaType), Valid: true}
	}

	query, args = r.builder.Insert(schema.MessagesTableName).
		Columns(messageColumns...).
		Values(
			msg.ID,
			msg.ConversationID,
			nullUUID(msg.SenderID),
			string(msg.SenderRole),
			msg.Content,
			mediaType,
			msg.MediaURL,
			msg.CreatedAt,
			msg.ReadAt,
		).
		Query()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	return tx.Commit()
}

func (r *messageRepository) ListRecent(ctx context.Context, conversationID uuid.UUID, limit int) ([]entity.Message, error) {
	if limit <= 0 {
		limit = RecentMessagesLimit
	}

	t := r.builder.Table(schema.MessagesTableName)
	query, args := r.builder.Select(t.Columns(messageColumns...)...).
		From(t).
		Where(entsql.EQ(t.C("conversation_id"), conversationID)).
		OrderBy(entsql.Desc(t.C("created_at")), entsql.Desc(t.C("id"))).
		Limit(limit).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []entity.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Newest N were selected; callers want them oldest first.
	slices.Reverse(out)
	return out, nil
}

func (r *messageRepository) MarkRead(ctx context.Context, conversationID uuid.UUID, reader entity.SenderRole, at time.Time) (int64, error) {
	query, args := r.builder.Update(schema.MessagesTableName).
		Set("read_at", at).
		Where(entsql.And(
			entsql.EQ("conversation_id", conversationID),
			entsql.EQ("sender_role", string(reader.Opposite())),
			entsql.IsNull("read_at"),
		)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}
	return res.RowsAffected()
}

func (r *messageRepository) CountUnread(ctx context.Context, conversationID uuid.UUID, reader entity.SenderRole) (int, error) {
	t := r.builder.Table(schema.MessagesTableName)
	query, args := r.builder.Select(entsql.Count("*")).
		From(t).
		Where(entsql.And(
			entsql.EQ(t.C("conversation_id"), conversationID),
			entsql.EQ(t.C("sender_role"), string(reader.Opposite())),
			entsql.IsNull(t.C("read_at")),
		)).
		Query()

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count unread messages: %w", err)
	}
	return n, nil
}

func scanMessage(row rowScanner) (*entity.Message, error) {
	var (
		m         entity.Message
		senderID  uuid.NullUUID
		role      string
		mediaType sql.NullString
		mediaURL  sql.NullString
		readAt    sql.NullTime
	)
	if err := row.Scan(
		&m.ID,
		&m.ConversationID,
		&senderID,
		&role,
		&m.Content,
		&mediaType,
		&mediaURL,
		&m.CreatedAt,
		&readAt,
	); err != nil {
		return nil, err
	}

	m.SenderID = uuidPtr(senderID)
	m.SenderRole = entity.SenderRole(role)
	if mediaType.Valid {
		mt := entity.MediaType(mediaType.String)
		m.MediaType = &mt
	}
	m.MediaURL = stringPtr(mediaURL)
	m.ReadAt = timePtr(readAt)
	return &m, nil
}
