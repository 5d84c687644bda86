package organizers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackform/backend/internal/models"
)

// ErrLoginTaken means an organizer with the login already exists.
var ErrLoginTaken = errors.New("login already taken")

// Repository handles organizer data access.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an organizer repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new organizer with a pre-hashed password.
func (r *Repository) Create(ctx context.Context, login, passwordHash string) (*models.Organizer, error) {
	const q = `INSERT INTO organizers (login, password_hash)
		VALUES ($1, $2)
		ON CONFLICT (login) DO NOTHING
		RETURNING id, login, password_hash, created_at`
	var o models.Organizer
	err := r.pool.QueryRow(ctx, q, login, passwordHash).
		Scan(&o.ID, &o.Login, &o.PasswordHash, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLoginTaken
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetByLogin returns the organizer with the login, or nil.
func (r *Repository) GetByLogin(ctx context.Context, login string) (*models.Organizer, error) {
	const q = `SELECT id, login, password_hash, created_at FROM organizers WHERE login = $1`
	var o models.Organizer
	err := r.pool.QueryRow(ctx, q, login).Scan(&o.ID, &o.Login, &o.PasswordHash, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetByID returns the organizer with the ID, or nil.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organizer, error) {
	const q = `SELECT id, login, password_hash, created_at FROM organizers WHERE id = $1`
	var o models.Organizer
	err := r.pool.QueryRow(ctx, q, id).Scan(&o.ID, &o.Login, &o.PasswordHash, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}
