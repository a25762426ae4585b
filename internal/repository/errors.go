package repository

import (
	"LykkeLoopAPI/internal/entity"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("repository: record not found")

type rowScanner interface {
	Scan(dest ...any) error
}

// unreadColumn is the counter that holds the reader's badge.
func unreadColumn(reader entity.SenderRole) string {
	if reader == entity.RoleAdmin {
		return "admin_unread_count"
	}
	return "user_unread_count"
}

func uuidPtr(v uuid.NullUUID) *uuid.UUID {
	if !v.Valid {
		return nil
	}
	id := v.UUID
	return &id
}

func nullUUID(v *uuid.UUID) uuid.NullUUID {
	if v == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *v, Valid: true}
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
