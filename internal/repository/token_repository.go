package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/recipe-app-api/internal/database"
	"github.com/iliyamo/recipe-app-api/internal/model"
)

// TokenRepo persists opaque auth tokens (one row per user).
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// GetByUser returns the token owned by userID.
func (r *TokenRepo) GetByUser(ctx context.Context, userID uint64) (*model.AuthToken, error) {
	var t model.AuthToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT token_key,user_id,created_at FROM auth_tokens WHERE user_id=? LIMIT 1",
		userID).Scan(&t.Key, &t.UserID, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Create stores t.  ErrTokenExists means the user already has a token, which
// happens when two logins race.
func (r *TokenRepo) Create(ctx context.Context, t *model.AuthToken) error {
	if _, err := r.DB.ExecContext(ctx,
		"INSERT INTO auth_tokens (token_key,user_id) VALUES (?,?)", t.Key, t.UserID); err != nil {
		if database.IsDuplicateKey(err) {
			return ErrTokenExists
		}
		return err
	}
	return nil
}

// GetUserByKey resolves a token key to its owner.
func (r *TokenRepo) GetUserByKey(ctx context.Context, key string) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		`SELECT u.id,u.email,u.name,u.password_hash,u.is_active,u.is_staff,u.is_superuser,u.created_at,u.updated_at
		 FROM auth_tokens t JOIN users u ON u.id = t.user_id
		 WHERE t.token_key=? LIMIT 1`, key))
}

// DeleteByUser removes the user's token so the next login issues a new one.
func (r *TokenRepo) DeleteByUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM auth_tokens WHERE user_id=?", userID)
	return err
}
