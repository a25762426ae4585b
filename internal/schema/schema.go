// Package schema describes the relational layout of the messaging tables and
// migrates it with ent's schema engine.
package schema

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	entschema "entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	UsersTableName         = "users"
	ConversationsTableName = "conversations"
	MessagesTableName      = "messages"
)

var (
	// UsersColumns is owned by the storefront; only the fields read by the
	// messaging core are declared here.
	UsersColumns = []*entschema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "name", Type: field.TypeString, Size: 100},
		{Name: "email", Type: field.TypeString, Size: 255, Unique: true},
		{Name: "created_at", Type: field.TypeTime, Default: "CURRENT_TIMESTAMP"},
	}
	UsersTable = &entschema.Table{
		Name:       UsersTableName,
		Columns:    UsersColumns,
		PrimaryKey: []*entschema.Column{UsersColumns[0]},
	}

	ConversationsColumns = []*entschema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "user_id", Type: field.TypeUUID, Unique: true},
		{Name: "admin_id", Type: field.TypeUUID, Nullable: true},
		{Name: "last_message_snippet", Type: field.TypeString, Size: 400, Default: ""},
		{Name: "last_message_at", Type: field.TypeTime},
		{Name: "user_unread_count", Type: field.TypeInt, Default: 0},
		{Name: "admin_unread_count", Type: field.TypeInt, Default: 0},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	ConversationsTable = &entschema.Table{
		Name:       ConversationsTableName,
		Columns:    ConversationsColumns,
		PrimaryKey: []*entschema.Column{ConversationsColumns[0]},
		Indexes: []*entschema.Index{
			{
				Name:    "conversation_last_message_at",
				Unique:  false,
				Columns: []*entschema.Column{ConversationsColumns[4]},
			},
		},
	}

	MessagesColumns = []*entschema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "conversation_id", Type: field.TypeUUID},
		{Name: "sender_id", Type: field.TypeUUID, Nullable: true},
		{Name: "sender_role", Type: field.TypeEnum, Enums: []string{"user", "admin"}},
		{Name: "content", Type: field.TypeString, SchemaType: map[string]string{dialect.Postgres: "text"}},
		{Name: "media_type", Type: field.TypeEnum, Nullable: true, Enums: []string{"image", "video"}},
		{Name: "media_url", Type: field.TypeString, Nullable: true, SchemaType: map[string]string{dialect.Postgres: "text"}},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "read_at", Type: field.TypeTime, Nullable: true},
	}
	MessagesTable = &entschema.Table{
		Name:       MessagesTableName,
		Columns:    MessagesColumns,
		PrimaryKey: []*entschema.Column{MessagesColumns[0]},
		ForeignKeys: []*entschema.ForeignKey{
			{
				Symbol:     "messages_conversations_messages",
				Columns:    []*entschema.Column{MessagesColumns[1]},
				RefColumns: []*entschema.Column{ConversationsColumns[0]},
				OnDelete:   entschema.Cascade,
			},
		},
		Indexes: []*entschema.Index{
			{
				Name:    "message_conversation_id_created_at",
				Unique:  false,
				Columns: []*entschema.Column{MessagesColumns[1], MessagesColumns[7]},
			},
			{
				Name:    "message_conversation_id_sender_role_read_at",
				Unique:  false,
				Columns: []*entschema.Column{MessagesColumns[1], MessagesColumns[3], MessagesColumns[8]},
			},
		},
	}

	Tables = []*entschema.Table{
		UsersTable,
		ConversationsTable,
		MessagesTable,
	}
)

func init() {
	MessagesTable.ForeignKeys[0].RefTable = ConversationsTable
}

// Create applies the table definitions to the database behind drv.
func Create(ctx context.Context, drv dialect.Driver, opts ...entschema.MigrateOption) error {
	migrate, err := entschema.NewMigrate(drv, opts...)
	if err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return migrate.Create(ctx, Tables...)
}
