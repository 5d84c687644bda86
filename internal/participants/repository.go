package participants

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackform/backend/internal/models"
)

// ErrAlreadyRegistered means the profile is already a participant of the hackathon.
var ErrAlreadyRegistered = errors.New("already registered for this hackathon")

// Team status filters for listing.
const (
	TeamStatusAny    = ""
	TeamStatusInTeam = "in_team"
	TeamStatusFree   = "free"
)

// ParticipantView is a participant joined with their profile, user and skills.
type ParticipantView struct {
	models.Participant
	User   models.User `json:"user"`
	InTeam bool        `json:"in_team"`
}

// Repository handles hackathon participant data access.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a participant repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Register adds the user's profile to the hackathon's participants.
func (r *Repository) Register(ctx context.Context, hackathonID, userID uuid.UUID) (*models.Participant, error) {
	const q = `INSERT INTO participants (hackathon_id, profile_id)
		SELECT $1, p.id FROM profiles p WHERE p.user_id = $2
		ON CONFLICT (hackathon_id, profile_id) DO NOTHING
		RETURNING id, hackathon_id, profile_id, created_at`
	var p models.Participant
	err := r.pool.QueryRow(ctx, q, hackathonID, userID).
		Scan(&p.ID, &p.HackathonID, &p.ProfileID, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the conflict fired or the user has no profile; the former
		// is overwhelmingly the case since profiles are created at login.
		return nil, ErrAlreadyRegistered
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ByHackathonAndUser resolves the user's participant row in the hackathon,
// or nil if they are not registered. Satisfies roster.ParticipantResolver.
func (r *Repository) ByHackathonAndUser(ctx context.Context, hackathonID, userID uuid.UUID) (*models.Participant, error) {
	const q = `SELECT pa.id, pa.hackathon_id, pa.profile_id, pa.created_at,
			pr.id, pr.user_id, pr.role, pr.about, pr.created_at, pr.updated_at
		FROM participants pa
		JOIN profiles pr ON pr.id = pa.profile_id
		WHERE pa.hackathon_id = $1 AND pr.user_id = $2`
	var (
		p       models.Participant
		profile models.Profile
	)
	err := r.pool.QueryRow(ctx, q, hackathonID, userID).Scan(
		&p.ID, &p.HackathonID, &p.ProfileID, &p.CreatedAt,
		&profile.ID, &profile.UserID, &profile.Role, &profile.About, &profile.CreatedAt, &profile.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Profile = &profile
	return &p, nil
}

// ListByHackathon returns the hackathon's participants, optionally filtered
// by whether they already occupy a team slot.
func (r *Repository) ListByHackathon(ctx context.Context, hackathonID uuid.UUID, teamStatus string) ([]ParticipantView, error) {
	const q = `SELECT pa.id, pa.hackathon_id, pa.profile_id, pa.created_at,
			pr.id, pr.user_id, pr.role, pr.about, pr.created_at, pr.updated_at,
			u.id, u.telegram_id, u.telegram_username, u.name, u.avatar_url, u.created_at, u.updated_at,
			EXISTS (
				SELECT 1 FROM team_slots ts
				JOIN teams tm ON tm.id = ts.team_id
				WHERE tm.hackathon_id = pa.hackathon_id AND ts.user_id = u.id
			) AS in_team
		FROM participants pa
		JOIN profiles pr ON pr.id = pa.profile_id
		JOIN users u ON u.id = pr.user_id
		WHERE pa.hackathon_id = $1
		ORDER BY pa.created_at`
	rows, err := r.pool.Query(ctx, q, hackathonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ParticipantView
	for rows.Next() {
		var (
			v       ParticipantView
			profile models.Profile
		)
		if err := rows.Scan(
			&v.ID, &v.HackathonID, &v.ProfileID, &v.CreatedAt,
			&profile.ID, &profile.UserID, &profile.Role, &profile.About, &profile.CreatedAt, &profile.UpdatedAt,
			&v.User.ID, &v.User.TelegramID, &v.User.TelegramUsername, &v.User.Name, &v.User.AvatarURL,
			&v.User.CreatedAt, &v.User.UpdatedAt,
			&v.InTeam,
		); err != nil {
			return nil, err
		}
		v.Profile = &profile
		switch teamStatus {
		case TeamStatusInTeam:
			if !v.InTeam {
				continue
			}
		case TeamStatusFree:
			if v.InTeam {
				continue
			}
		}
		result = append(result, v)
	}
	return result, rows.Err()
}
