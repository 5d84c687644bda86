package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackform/backend/internal/models"
)

// Repository handles user persistence for Telegram-based auth.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID returns a user by ID, or nil if absent.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const q = `SELECT id, telegram_id, telegram_username, name, avatar_url, created_at, updated_at
		FROM users WHERE id = $1`
	var u models.User
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&u.ID, &u.TelegramID, &u.TelegramUsername, &u.Name, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByTelegramID returns a user by their Telegram account ID, or nil if absent.
func (r *Repository) GetByTelegramID(ctx context.Context, tgID int64) (*models.User, error) {
	const q = `SELECT id, telegram_id, telegram_username, name, avatar_url, created_at, updated_at
		FROM users WHERE telegram_id = $1`
	var u models.User
	err := r.pool.QueryRow(ctx, q, tgID).
		Scan(&u.ID, &u.TelegramID, &u.TelegramUsername, &u.Name, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertByTelegram creates the user on first login (plus an empty profile)
// or refreshes name/avatar on subsequent logins. Returns the stored user.
func (r *Repository) UpsertByTelegram(ctx context.Context, tgID int64, username, name, avatarURL string) (*models.User, error) {
	const q = `INSERT INTO users (telegram_id, telegram_username, name, avatar_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (telegram_id) DO UPDATE
			SET telegram_username = EXCLUDED.telegram_username,
			    name = EXCLUDED.name,
			    avatar_url = EXCLUDED.avatar_url,
			    updated_at = NOW()
		RETURNING id, telegram_id, telegram_username, name, avatar_url, created_at, updated_at`
	var u models.User
	err := r.pool.QueryRow(ctx, q, tgID, username, name, avatarURL).
		Scan(&u.ID, &u.TelegramID, &u.TelegramUsername, &u.Name, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}

	const profileQ = `INSERT INTO profiles (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`
	if _, err := r.pool.Exec(ctx, profileQ, u.ID); err != nil {
		return nil, err
	}
	return &u, nil
}
