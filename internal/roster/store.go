package roster

import (
	"context"

	"github.com/google/uuid"

	"github.com/hackform/backend/internal/models"
)

// Tx is the set of store operations the core runs inside one transaction.
// All reads that feed a write use row locks (or an advisory lock for the
// hackathon-wide occupancy check) so concurrent accepts serialize.
type Tx interface {
	// PendingInvite returns the PENDING invite for (team, participant, direction), or nil.
	PendingInvite(ctx context.Context, teamID, participantID uuid.UUID, direction models.InviteDirection) (*models.Invite, error)
	// CreateInvite inserts a new PENDING invite.
	CreateInvite(ctx context.Context, teamID, participantID uuid.UUID, direction models.InviteDirection) (*models.Invite, error)
	// InviteForUpdate loads an invite by ID with a row lock, or nil if absent.
	InviteForUpdate(ctx context.Context, id uuid.UUID) (*models.Invite, error)
	// SetInviteStatus transitions an invite to a terminal status.
	SetInviteStatus(ctx context.Context, id uuid.UUID, status models.InviteStatus) error

	// TeamByID returns a team, or nil if absent.
	TeamByID(ctx context.Context, id uuid.UUID) (*models.Team, error)
	// ParticipantByID returns a participant with profile attached, or nil if absent.
	ParticipantByID(ctx context.Context, id uuid.UUID) (*models.Participant, error)
	// UserByID returns a user, or nil if absent.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// TeamCaptain returns the occupant of the team's earliest-created
	// occupied slot, or nil for a team with no occupied slots.
	TeamCaptain(ctx context.Context, teamID uuid.UUID) (*models.User, error)

	// LockUserOccupancy serializes concurrent accepts for the same
	// (hackathon, user) pair for the remainder of the transaction.
	LockUserOccupancy(ctx context.Context, hackathonID, userID uuid.UUID) error
	// OccupiedSlotCount counts slots across the hackathon's teams occupied by the user.
	OccupiedSlotCount(ctx context.Context, hackathonID, userID uuid.UUID) (int, error)
	// OpenSlotForUpdate locks and returns the team's earliest open slot
	// requiring the given role, or nil if none.
	OpenSlotForUpdate(ctx context.Context, teamID uuid.UUID, role models.Role) (*models.Slot, error)
	// BindSlot sets the slot's occupant.
	BindSlot(ctx context.Context, slotID, userID uuid.UUID) error
}

// Store gives the core transactional access plus read-only projections.
type Store interface {
	// InTx runs fn inside a transaction, committing on nil and rolling back on error.
	InTx(ctx context.Context, fn func(Tx) error) error
	// TeamsWithOpenSlots returns every team in the hackathon with at least
	// one unfilled slot, together with the unfilled roles. Pure read.
	TeamsWithOpenSlots(ctx context.Context, hackathonID uuid.UUID) ([]TeamOpenSlots, error)
}

// TeamOpenSlots pairs a team with the roles it is still seeking.
type TeamOpenSlots struct {
	Team      models.Team   `json:"team"`
	OpenRoles []models.Role `json:"open_roles"`
}

// Notifier delivers a message about a proposed invite to a user.
// Delivery failure is non-fatal to the proposing operation.
type Notifier interface {
	NotifyInvite(ctx context.Context, telegramChatID int64, text string, inviteID uuid.UUID) error
}
