package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/souvik017/livefeed/internal/domain"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) GetByUID(ctx context.Context, uid string) (*domain.User, error) {
	var user domain.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, uid, name, email, avatar, created_at, updated_at
		FROM users
		WHERE uid = $1
	`, uid).Scan(&user.ID, &user.UID, &user.Name, &user.Email, &user.Avatar, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by uid: %w", err)
	}
	return &user, nil
}

// Upsert creates the user on first sight of an identity token and refreshes
// profile fields from the verified claims afterwards. Empty claim fields
// never overwrite existing values, mirroring how identity providers omit
// optional profile data.
func (r *UserRepo) Upsert(ctx context.Context, claims domain.IdentityClaims) (*domain.User, error) {
	var user domain.User
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (uid, name, email, avatar, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (uid) DO UPDATE SET
			name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE users.name END,
			email = CASE WHEN EXCLUDED.email <> '' THEN EXCLUDED.email ELSE users.email END,
			avatar = CASE WHEN EXCLUDED.avatar <> '' THEN EXCLUDED.avatar ELSE users.avatar END,
			updated_at = NOW()
		RETURNING id, uid, name, email, avatar, created_at, updated_at
	`, claims.UID, claims.Name, claims.Email, claims.Avatar).Scan(
		&user.ID, &user.UID, &user.Name, &user.Email, &user.Avatar, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return &user, nil
}
