package roster

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackform/backend/internal/models"
)

// PostgresStore is the pgx-backed roster store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a roster store over a pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// InTx runs fn inside a transaction.
func (s *PostgresStore) InTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// TeamsWithOpenSlots returns teams of the hackathon that still have
// unfilled slots, grouped with the roles they are seeking.
func (s *PostgresStore) TeamsWithOpenSlots(ctx context.Context, hackathonID uuid.UUID) ([]TeamOpenSlots, error) {
	const q = `SELECT t.id, t.hackathon_id, t.name, t.about, t.is_completed, t.created_at, t.updated_at, ts.role
		FROM teams t
		JOIN team_slots ts ON ts.team_id = t.id
		WHERE t.hackathon_id = $1 AND ts.user_id IS NULL
		ORDER BY t.created_at, t.id, ts.created_at`
	rows, err := s.pool.Query(ctx, q, hackathonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		result []TeamOpenSlots
		index  = make(map[uuid.UUID]int)
	)
	for rows.Next() {
		var (
			team models.Team
			role models.Role
		)
		if err := rows.Scan(&team.ID, &team.HackathonID, &team.Name, &team.About, &team.IsCompleted,
			&team.CreatedAt, &team.UpdatedAt, &role); err != nil {
			return nil, err
		}
		i, ok := index[team.ID]
		if !ok {
			i = len(result)
			index[team.ID] = i
			result = append(result, TeamOpenSlots{Team: team})
		}
		result[i].OpenRoles = append(result[i].OpenRoles, role)
	}
	return result, rows.Err()
}

// pgTx implements Tx over a pgx transaction.
type pgTx struct {
	tx pgx.Tx
}

const inviteColumns = `id, team_id, participant_id, direction, status, created_at, decided_at`

func scanInvite(row pgx.Row) (*models.Invite, error) {
	var inv models.Invite
	err := row.Scan(&inv.ID, &inv.TeamID, &inv.ParticipantID, &inv.Direction, &inv.Status, &inv.CreatedAt, &inv.DecidedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (t *pgTx) PendingInvite(ctx context.Context, teamID, participantID uuid.UUID, direction models.InviteDirection) (*models.Invite, error) {
	const q = `SELECT ` + inviteColumns + ` FROM invites
		WHERE team_id = $1 AND participant_id = $2 AND direction = $3 AND status = 'PENDING'`
	return scanInvite(t.tx.QueryRow(ctx, q, teamID, participantID, direction))
}

func (t *pgTx) CreateInvite(ctx context.Context, teamID, participantID uuid.UUID, direction models.InviteDirection) (*models.Invite, error) {
	const q = `INSERT INTO invites (team_id, participant_id, direction)
		VALUES ($1, $2, $3)
		RETURNING ` + inviteColumns
	return scanInvite(t.tx.QueryRow(ctx, q, teamID, participantID, direction))
}

func (t *pgTx) InviteForUpdate(ctx context.Context, id uuid.UUID) (*models.Invite, error) {
	const q = `SELECT ` + inviteColumns + ` FROM invites WHERE id = $1 FOR UPDATE`
	return scanInvite(t.tx.QueryRow(ctx, q, id))
}

func (t *pgTx) SetInviteStatus(ctx context.Context, id uuid.UUID, status models.InviteStatus) error {
	const q = `UPDATE invites SET status = $2, decided_at = NOW() WHERE id = $1`
	_, err := t.tx.Exec(ctx, q, id, status)
	return err
}

func (t *pgTx) TeamByID(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	const q = `SELECT id, hackathon_id, name, about, is_completed, created_at, updated_at
		FROM teams WHERE id = $1`
	var team models.Team
	err := t.tx.QueryRow(ctx, q, id).
		Scan(&team.ID, &team.HackathonID, &team.Name, &team.About, &team.IsCompleted, &team.CreatedAt, &team.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (t *pgTx) ParticipantByID(ctx context.Context, id uuid.UUID) (*models.Participant, error) {
	const q = `SELECT pa.id, pa.hackathon_id, pa.profile_id, pa.created_at,
			pr.id, pr.user_id, pr.role, pr.about, pr.created_at, pr.updated_at
		FROM participants pa
		JOIN profiles pr ON pr.id = pa.profile_id
		WHERE pa.id = $1`
	var (
		p       models.Participant
		profile models.Profile
	)
	err := t.tx.QueryRow(ctx, q, id).Scan(
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

func (t *pgTx) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const q = `SELECT id, telegram_id, telegram_username, name, avatar_url, created_at, updated_at
		FROM users WHERE id = $1`
	var u models.User
	err := t.tx.QueryRow(ctx, q, id).
		Scan(&u.ID, &u.TelegramID, &u.TelegramUsername, &u.Name, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (t *pgTx) TeamCaptain(ctx context.Context, teamID uuid.UUID) (*models.User, error) {
	const q = `SELECT u.id, u.telegram_id, u.telegram_username, u.name, u.avatar_url, u.created_at, u.updated_at
		FROM team_slots ts
		JOIN users u ON u.id = ts.user_id
		WHERE ts.team_id = $1 AND ts.user_id IS NOT NULL
		ORDER BY ts.created_at, ts.id
		LIMIT 1`
	var u models.User
	err := t.tx.QueryRow(ctx, q, teamID).
		Scan(&u.ID, &u.TelegramID, &u.TelegramUsername, &u.Name, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// LockUserOccupancy takes a transaction-scoped advisory lock keyed on the
// (hackathon, user) pair. Row locks alone cannot serialize two accepts for
// a user who occupies nothing yet, since each would lock an empty row set.
func (t *pgTx) LockUserOccupancy(ctx context.Context, hackathonID, userID uuid.UUID) error {
	const q = `SELECT pg_advisory_xact_lock(hashtextextended($1 || ':' || $2, 0))`
	_, err := t.tx.Exec(ctx, q, hackathonID.String(), userID.String())
	return err
}

func (t *pgTx) OccupiedSlotCount(ctx context.Context, hackathonID, userID uuid.UUID) (int, error) {
	const q = `SELECT COUNT(*)
		FROM team_slots ts
		JOIN teams tm ON tm.id = ts.team_id
		WHERE tm.hackathon_id = $1 AND ts.user_id = $2`
	var count int
	err := t.tx.QueryRow(ctx, q, hackathonID, userID).Scan(&count)
	return count, err
}

func (t *pgTx) OpenSlotForUpdate(ctx context.Context, teamID uuid.UUID, role models.Role) (*models.Slot, error) {
	const q = `SELECT id, team_id, role, user_id, approved, created_at
		FROM team_slots
		WHERE team_id = $1 AND role = $2 AND user_id IS NULL
		ORDER BY created_at, id
		LIMIT 1
		FOR UPDATE`
	var slot models.Slot
	err := t.tx.QueryRow(ctx, q, teamID, role).
		Scan(&slot.ID, &slot.TeamID, &slot.Role, &slot.UserID, &slot.Approved, &slot.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (t *pgTx) BindSlot(ctx context.Context, slotID, userID uuid.UUID) error {
	const q = `UPDATE team_slots SET user_id = $2 WHERE id = $1 AND user_id IS NULL`
	tag, err := t.tx.Exec(ctx, q, slotID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRoleSlotUnavailable
	}
	return nil
}
