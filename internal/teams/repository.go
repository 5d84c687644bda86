package teams

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackform/backend/internal/models"
)

var (
	// ErrAlreadyInTeam means the user already occupies a slot in the hackathon.
	ErrAlreadyInTeam = errors.New("user already belongs to a team in this hackathon")
	// ErrNoProfileRole means the user has not picked a role yet and so cannot
	// occupy a slot.
	ErrNoProfileRole = errors.New("profile role must be set before joining a team")
)

// Member is an occupied or open slot with the occupant attached.
type Member struct {
	SlotID   uuid.UUID    `json:"slot_id"`
	Role     models.Role  `json:"role"`
	Approved bool         `json:"approved"`
	User     *models.User `json:"user,omitempty"`
}

// Detail is a team with its full roster.
type Detail struct {
	models.Team
	Members []Member `json:"members"`
}

// Repository handles team data access.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a team repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create makes a team in one transaction: the creator immediately occupies a
// slot for their own role, and one open slot is added per sought role. The
// creator must not already hold a slot anywhere in the hackathon.
func (r *Repository) Create(ctx context.Context, hackathonID, creatorUserID uuid.UUID, name, about string, findRoles []models.Role) (*Detail, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var creatorRole *models.Role
	err = tx.QueryRow(ctx, `SELECT role FROM profiles WHERE user_id = $1`, creatorUserID).Scan(&creatorRole)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && creatorRole == nil) {
		return nil, ErrNoProfileRole
	}
	if err != nil {
		return nil, fmt.Errorf("load creator role: %w", err)
	}

	// Same serialization as the invite-accept path: an advisory lock keyed
	// on (hackathon, user) before checking occupancy.
	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1 || ':' || $2, 0))`,
		hackathonID.String(), creatorUserID.String()); err != nil {
		return nil, fmt.Errorf("lock occupancy: %w", err)
	}
	var occupied int
	err = tx.QueryRow(ctx, `SELECT COUNT(*)
		FROM team_slots ts
		JOIN teams tm ON tm.id = ts.team_id
		WHERE tm.hackathon_id = $1 AND ts.user_id = $2`,
		hackathonID, creatorUserID).Scan(&occupied)
	if err != nil {
		return nil, fmt.Errorf("count occupied slots: %w", err)
	}
	if occupied > 0 {
		return nil, ErrAlreadyInTeam
	}

	var team models.Team
	err = tx.QueryRow(ctx, `INSERT INTO teams (hackathon_id, name, about)
		VALUES ($1, $2, $3)
		RETURNING id, hackathon_id, name, about, is_completed, created_at, updated_at`,
		hackathonID, name, about).
		Scan(&team.ID, &team.HackathonID, &team.Name, &team.About, &team.IsCompleted, &team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert team: %w", err)
	}

	// The creator's slot is inserted first so its created_at makes them
	// the captain.
	if _, err := tx.Exec(ctx,
		`INSERT INTO team_slots (team_id, role, user_id) VALUES ($1, $2, $3)`,
		team.ID, *creatorRole, creatorUserID); err != nil {
		return nil, fmt.Errorf("insert creator slot: %w", err)
	}
	for _, role := range findRoles {
		if _, err := tx.Exec(ctx,
			`INSERT INTO team_slots (team_id, role) VALUES ($1, $2)`,
			team.ID, role); err != nil {
			return nil, fmt.Errorf("insert %s slot: %w", role, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.Detail(ctx, team.ID)
}

// Detail returns the team with its roster, or nil if absent.
func (r *Repository) Detail(ctx context.Context, teamID uuid.UUID) (*Detail, error) {
	const q = `SELECT id, hackathon_id, name, about, is_completed, created_at, updated_at
		FROM teams WHERE id = $1`
	var d Detail
	err := r.pool.QueryRow(ctx, q, teamID).
		Scan(&d.ID, &d.HackathonID, &d.Name, &d.About, &d.IsCompleted, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	members, err := r.members(ctx, teamID)
	if err != nil {
		return nil, err
	}
	d.Members = members
	return &d, nil
}

// MyTeam returns the detail of the team whose slot the user occupies in the
// hackathon, or nil if they are teamless.
func (r *Repository) MyTeam(ctx context.Context, hackathonID, userID uuid.UUID) (*Detail, error) {
	const q = `SELECT ts.team_id
		FROM team_slots ts
		JOIN teams tm ON tm.id = ts.team_id
		WHERE tm.hackathon_id = $1 AND ts.user_id = $2
		LIMIT 1`
	var teamID uuid.UUID
	err := r.pool.QueryRow(ctx, q, hackathonID, userID).Scan(&teamID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.Detail(ctx, teamID)
}

// ListByHackathon returns the hackathon's teams with rosters.
func (r *Repository) ListByHackathon(ctx context.Context, hackathonID uuid.UUID) ([]Detail, error) {
	const q = `SELECT id FROM teams WHERE hackathon_id = $1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, q, hackathonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var result []Detail
	for _, id := range ids {
		d, err := r.Detail(ctx, id)
		if err != nil {
			return nil, err
		}
		if d != nil {
			result = append(result, *d)
		}
	}
	return result, nil
}

func (r *Repository) members(ctx context.Context, teamID uuid.UUID) ([]Member, error) {
	const q = `SELECT ts.id, ts.role, ts.approved,
			u.id, u.telegram_id, u.telegram_username, u.name, u.avatar_url, u.created_at, u.updated_at
		FROM team_slots ts
		LEFT JOIN users u ON u.id = ts.user_id
		WHERE ts.team_id = $1
		ORDER BY ts.created_at, ts.id`
	rows, err := r.pool.Query(ctx, q, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var (
			m         Member
			userID    *uuid.UUID
			tgID      *int64
			username  *string
			name      *string
			avatarURL *string
			createdAt *time.Time
			updatedAt *time.Time
		)
		if err := rows.Scan(&m.SlotID, &m.Role, &m.Approved,
			&userID, &tgID, &username, &name, &avatarURL, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if userID != nil {
			m.User = &models.User{ID: *userID}
			if tgID != nil {
				m.User.TelegramID = *tgID
			}
			if username != nil {
				m.User.TelegramUsername = *username
			}
			if name != nil {
				m.User.Name = *name
			}
			if avatarURL != nil {
				m.User.AvatarURL = *avatarURL
			}
			if createdAt != nil {
				m.User.CreatedAt = *createdAt
			}
			if updatedAt != nil {
				m.User.UpdatedAt = *updatedAt
			}
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
