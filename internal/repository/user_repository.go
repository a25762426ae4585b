package repository

import (
	"LykkeLoopAPI/internal/entity"
	"LykkeLoopAPI/internal/schema"
	"context"
	"database/sql"
	"errors"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

type userRepository struct {
	db      *sql.DB
	builder *entsql.DialectBuilder
}

func NewUserRepository(drv *entsql.Driver) UserRepository {
	return &userRepository{
		db:      drv.DB(),
		builder: entsql.Dialect(dialect.Postgres),
	}
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	t := r.builder.Table(schema.UsersTableName)
	query, args := r.builder.Select(t.C("id"), t.C("name"), t.C("email")).
		From(t).
		Where(entsql.EQ(t.C("id"), id)).
		Query()

	var u entity.User
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&u.ID, &u.Name, &u.Email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}
