package profiles

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackform/backend/internal/models"
)

// Repository handles profile and skill data access.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a profile repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByUserID returns the user's profile with skills attached, or nil.
func (r *Repository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	const q = `SELECT id, user_id, role, about, created_at, updated_at
		FROM profiles WHERE user_id = $1`
	var p models.Profile
	err := r.pool.QueryRow(ctx, q, userID).
		Scan(&p.ID, &p.UserID, &p.Role, &p.About, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	skills, err := r.skillsForProfile(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Skills = skills
	return &p, nil
}

// Update applies the given fields to the user's profile. A nil field is left
// unchanged; skillIDs, when non-nil, replaces the profile's skill set.
func (r *Repository) Update(ctx context.Context, userID uuid.UUID, about *string, role *models.Role, skillIDs []uuid.UUID) (*models.Profile, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const q = `UPDATE profiles
		SET about = COALESCE($2, about),
		    role = COALESCE($3, role),
		    updated_at = NOW()
		WHERE user_id = $1
		RETURNING id`
	var profileID uuid.UUID
	if err := tx.QueryRow(ctx, q, userID, about, role).Scan(&profileID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("profile for user %s not found", userID)
		}
		return nil, err
	}

	if skillIDs != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM profile_skills WHERE profile_id = $1`, profileID); err != nil {
			return nil, fmt.Errorf("clear skills: %w", err)
		}
		for _, skillID := range skillIDs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO profile_skills (profile_id, skill_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				profileID, skillID); err != nil {
				return nil, fmt.Errorf("add skill %s: %w", skillID, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetByUserID(ctx, userID)
}

// ListSkills returns the skill catalog ordered by type then name.
func (r *Repository) ListSkills(ctx context.Context) ([]models.Skill, error) {
	const q = `SELECT id, name, type FROM skills ORDER BY type, name`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var skills []models.Skill
	for rows.Next() {
		var s models.Skill
		if err := rows.Scan(&s.ID, &s.Name, &s.Type); err != nil {
			return nil, err
		}
		skills = append(skills, s)
	}
	return skills, rows.Err()
}

func (r *Repository) skillsForProfile(ctx context.Context, profileID uuid.UUID) ([]models.Skill, error) {
	const q = `SELECT s.id, s.name, s.type
		FROM profile_skills ps
		JOIN skills s ON s.id = ps.skill_id
		WHERE ps.profile_id = $1
		ORDER BY s.type, s.name`
	rows, err := r.pool.Query(ctx, q, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var skills []models.Skill
	for rows.Next() {
		var s models.Skill
		if err := rows.Scan(&s.ID, &s.Name, &s.Type); err != nil {
			return nil, err
		}
		skills = append(skills, s)
	}
	return skills, rows.Err()
}
