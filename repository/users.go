package repository

import (
	"commerce_server/database"
	"commerce_server/lib"
	"commerce_server/structs/tables"
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type userRepository struct {
	db bun.IDB
}

func (r *userRepository) Create(ctx context.Context, user *tables.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	_, err := database.Query[tables.User](r.db).Insert(ctx, user)
	return lib.MapPgError(err)
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*tables.User, error) {
	return first(database.Query[tables.User](r.db).Where("u.id", id).First(ctx))
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*tables.User, error) {
	return first(database.Query[tables.User](r.db).
		Where("u.email", strings.ToLower(strings.TrimSpace(email))).
		First(ctx))
}

func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return database.Query[tables.User](r.db).
		Where("u.email", strings.ToLower(strings.TrimSpace(email))).
		Exists(ctx)
}

type tokenRepository struct {
	db bun.IDB
}

func (r *tokenRepository) Create(ctx context.Context, token *tables.AccessToken) error {
	_, err := database.Query[tables.AccessToken](r.db).Insert(ctx, token)
	return lib.MapPgError(err)
}

func (r *tokenRepository) FindByID(ctx context.Context, id uuid.UUID) (*tables.AccessToken, error) {
	return first(database.Query[tables.AccessToken](r.db).Where("at.id", id).First(ctx))
}

func (r *tokenRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	_, err := r.db.NewDelete().
		Model((*tables.AccessToken)(nil)).
		Where("user_id = ?", userID).
		Returning("id").
		Exec(ctx, &ids)
	if err != nil {
		return nil, lib.MapPgError(err)
	}
	return ids, nil
}

// first turns the (nil, nil) of QueryBuilder.First into lib.ErrNotFound
func first[T any](row *T, err error) (*T, error) {
	if err != nil {
		return nil, lib.MapPgError(err)
	}
	if row == nil {
		return nil, lib.ErrNotFound
	}
	return row, nil
}
