package hackathons

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

// ErrNotOwner means the organizer does not own the hackathon.
var ErrNotOwner = errors.New("hackathon belongs to another organizer")

const hackathonColumns = `id, organizer_id, name, description, photo_key,
	start_date, end_date, tags, max_teams, min_team_size, max_team_size,
	created_at, updated_at`

// Analytics summarizes a hackathon's formation progress.
type Analytics struct {
	TeamsTotal          int            `json:"teams_total"`
	TeamsCompleted      int            `json:"teams_completed"`
	CompletionRate      float64        `json:"completion_rate"`
	ParticipantsTotal   int            `json:"participants_total"`
	ParticipantsInTeams int            `json:"participants_in_teams"`
	AvgTeamSize         float64        `json:"avg_team_size"`
	RoleDistribution    map[string]int `json:"role_distribution"`
}

// ExportRow is one CSV line of the participant export.
type ExportRow struct {
	Name             string
	TelegramUsername string
	Role             string
	TeamName         string
}

// Repository handles hackathon data access.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a hackathon repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanHackathon(row pgx.Row) (*models.Hackathon, error) {
	var h models.Hackathon
	err := row.Scan(&h.ID, &h.OrganizerID, &h.Name, &h.Description, &h.PhotoKey,
		&h.StartDate, &h.EndDate, &h.Tags, &h.MaxTeams, &h.MinTeamSize, &h.MaxTeamSize,
		&h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// List returns a page of hackathons ordered by start date, plus the total count.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]models.Hackathon, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM hackathons`).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + hackathonColumns + ` FROM hackathons
		ORDER BY start_date DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []models.Hackathon
	for rows.Next() {
		var h models.Hackathon
		if err := rows.Scan(&h.ID, &h.OrganizerID, &h.Name, &h.Description, &h.PhotoKey,
			&h.StartDate, &h.EndDate, &h.Tags, &h.MaxTeams, &h.MinTeamSize, &h.MaxTeamSize,
			&h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, h)
	}
	return list, total, rows.Err()
}

// Upcoming returns hackathons whose start date is in the future, soonest first.
func (r *Repository) Upcoming(ctx context.Context) ([]models.Hackathon, error) {
	q := `SELECT ` + hackathonColumns + ` FROM hackathons
		WHERE start_date > NOW()
		ORDER BY start_date ASC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Hackathon
	for rows.Next() {
		var h models.Hackathon
		if err := rows.Scan(&h.ID, &h.OrganizerID, &h.Name, &h.Description, &h.PhotoKey,
			&h.StartDate, &h.EndDate, &h.Tags, &h.MaxTeams, &h.MinTeamSize, &h.MaxTeamSize,
			&h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, h)
	}
	return list, rows.Err()
}

// GetByID returns the hackathon, or nil.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Hackathon, error) {
	q := `SELECT ` + hackathonColumns + ` FROM hackathons WHERE id = $1`
	return scanHackathon(r.pool.QueryRow(ctx, q, id))
}

// CreateParams are the organizer-supplied hackathon fields.
type CreateParams struct {
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Tags        string
	MaxTeams    int
	MinTeamSize int
	MaxTeamSize int
}

// Create inserts a hackathon owned by the organizer.
func (r *Repository) Create(ctx context.Context, organizerID uuid.UUID, p CreateParams) (*models.Hackathon, error) {
	q := `INSERT INTO hackathons
		(organizer_id, name, description, start_date, end_date, tags, max_teams, min_team_size, max_team_size)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + hackathonColumns
	return scanHackathon(r.pool.QueryRow(ctx, q,
		organizerID, p.Name, p.Description, p.StartDate, p.EndDate, p.Tags,
		p.MaxTeams, p.MinTeamSize, p.MaxTeamSize))
}

// Update rewrites the hackathon's fields. Fails with ErrNotOwner unless the
// organizer owns it.
func (r *Repository) Update(ctx context.Context, id, organizerID uuid.UUID, p CreateParams) (*models.Hackathon, error) {
	if err := r.checkOwner(ctx, id, organizerID); err != nil {
		return nil, err
	}
	q := `UPDATE hackathons
		SET name = $2, description = $3, start_date = $4, end_date = $5,
		    tags = $6, max_teams = $7, min_team_size = $8, max_team_size = $9,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + hackathonColumns
	return scanHackathon(r.pool.QueryRow(ctx, q,
		id, p.Name, p.Description, p.StartDate, p.EndDate, p.Tags,
		p.MaxTeams, p.MinTeamSize, p.MaxTeamSize))
}

// Delete removes the hackathon and everything cascading from it.
func (r *Repository) Delete(ctx context.Context, id, organizerID uuid.UUID) error {
	if err := r.checkOwner(ctx, id, organizerID); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM hackathons WHERE id = $1`, id)
	return err
}

// SetPhotoKey records the S3 object key of the hackathon's photo and returns
// the previous key, so the caller can delete the replaced object.
func (r *Repository) SetPhotoKey(ctx context.Context, id, organizerID uuid.UUID, key string) (string, error) {
	if err := r.checkOwner(ctx, id, organizerID); err != nil {
		return "", err
	}
	var previous string
	err := r.pool.QueryRow(ctx,
		`UPDATE hackathons h SET photo_key = $2, updated_at = NOW()
		FROM (SELECT photo_key FROM hackathons WHERE id = $1) old
		WHERE h.id = $1
		RETURNING old.photo_key`, id, key).Scan(&previous)
	if err != nil {
		return "", err
	}
	return previous, nil
}

// Analytics computes team and participant statistics for the hackathon.
func (r *Repository) Analytics(ctx context.Context, id uuid.UUID) (*Analytics, error) {
	a := &Analytics{RoleDistribution: make(map[string]int)}

	err := r.pool.QueryRow(ctx, `SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_completed)
		FROM teams WHERE hackathon_id = $1`, id).
		Scan(&a.TeamsTotal, &a.TeamsCompleted)
	if err != nil {
		return nil, fmt.Errorf("team counts: %w", err)
	}
	if a.TeamsTotal > 0 {
		a.CompletionRate = float64(a.TeamsCompleted) / float64(a.TeamsTotal)
	}

	err = r.pool.QueryRow(ctx, `SELECT
			(SELECT COUNT(*) FROM participants WHERE hackathon_id = $1),
			(SELECT COUNT(*) FROM team_slots ts
				JOIN teams tm ON tm.id = ts.team_id
				WHERE tm.hackathon_id = $1 AND ts.user_id IS NOT NULL)`, id).
		Scan(&a.ParticipantsTotal, &a.ParticipantsInTeams)
	if err != nil {
		return nil, fmt.Errorf("participant counts: %w", err)
	}
	if a.TeamsTotal > 0 {
		a.AvgTeamSize = float64(a.ParticipantsInTeams) / float64(a.TeamsTotal)
	}

	rows, err := r.pool.Query(ctx, `SELECT pr.role, COUNT(*)
		FROM participants pa
		JOIN profiles pr ON pr.id = pa.profile_id
		WHERE pa.hackathon_id = $1 AND pr.role IS NOT NULL
		GROUP BY pr.role`, id)
	if err != nil {
		return nil, fmt.Errorf("role distribution: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			role  string
			count int
		)
		if err := rows.Scan(&role, &count); err != nil {
			return nil, err
		}
		a.RoleDistribution[role] = count
	}
	return a, rows.Err()
}

// ExportRows returns the participant export: one row per participant with
// their team, if any.
func (r *Repository) ExportRows(ctx context.Context, id uuid.UUID) ([]ExportRow, error) {
	const q = `SELECT u.name, u.telegram_username, COALESCE(pr.role::text, ''), COALESCE(tm.name, '')
		FROM participants pa
		JOIN profiles pr ON pr.id = pa.profile_id
		JOIN users u ON u.id = pr.user_id
		LEFT JOIN team_slots ts ON ts.user_id = u.id
			AND ts.team_id IN (SELECT id FROM teams WHERE hackathon_id = $1)
		LEFT JOIN teams tm ON tm.id = ts.team_id
		WHERE pa.hackathon_id = $1
		ORDER BY pa.created_at`
	rows, err := r.pool.Query(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ExportRow
	for rows.Next() {
		var row ExportRow
		if err := rows.Scan(&row.Name, &row.TelegramUsername, &row.Role, &row.TeamName); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// ApproveTeam marks the team completed and its occupied slots approved.
func (r *Repository) ApproveTeam(ctx context.Context, hackathonID, organizerID, teamID uuid.UUID) error {
	if err := r.checkOwner(ctx, hackathonID, organizerID); err != nil {
		return err
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE teams SET is_completed = TRUE, updated_at = NOW()
		WHERE id = $1 AND hackathon_id = $2`, teamID, hackathonID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	if _, err := tx.Exec(ctx,
		`UPDATE team_slots SET approved = TRUE WHERE team_id = $1 AND user_id IS NOT NULL`,
		teamID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) checkOwner(ctx context.Context, hackathonID, organizerID uuid.UUID) error {
	var owner uuid.UUID
	err := r.pool.QueryRow(ctx,
		`SELECT organizer_id FROM hackathons WHERE id = $1`, hackathonID).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return pgx.ErrNoRows
	}
	if err != nil {
		return err
	}
	if owner != organizerID {
		return ErrNotOwner
	}
	return nil
}
