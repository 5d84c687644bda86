// Package roster owns the invite lifecycle and slot occupancy for hackathon
// teams: proposing invites and join requests, deciding them, and binding
// accepted participants into role slots without double-booking a user or a
// slot.
package roster

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackform/backend/internal/models"
)

// Decision is the verdict on a pending invite.
type Decision string

const (
	DecisionAccept Decision = "ACCEPT"
	DecisionReject Decision = "REJECT"
)

// Service is the roster reconciliation core.
type Service struct {
	store    Store
	notifier Notifier
	logger   *zap.Logger
}

// NewService creates the roster service.
func NewService(store Store, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, notifier: notifier, logger: logger}
}

// Propose creates a PENDING invite of the given direction and notifies the
// counterparty: the participant's user for a team-initiated INVITE, the team
// captain for a participant-initiated REQUEST. A second proposal of the same
// direction while one is pending fails with ErrDuplicateProposal and leaves
// the store untouched. The invite row is the source of truth; notification
// delivery failure is logged and never rolls it back.
func (s *Service) Propose(ctx context.Context, teamID, participantID uuid.UUID, direction models.InviteDirection) (*models.Invite, string, error) {
	var (
		invite     *models.Invite
		target     *models.User
		notifyText string
	)

	err := s.store.InTx(ctx, func(tx Tx) error {
		existing, err := tx.PendingInvite(ctx, teamID, participantID, direction)
		if err != nil {
			return fmt.Errorf("lookup pending invite: %w", err)
		}
		if existing != nil {
			return ErrDuplicateProposal
		}

		team, err := tx.TeamByID(ctx, teamID)
		if err != nil {
			return fmt.Errorf("load team: %w", err)
		}
		if team == nil {
			return fmt.Errorf("team %s not found", teamID)
		}
		participant, err := tx.ParticipantByID(ctx, participantID)
		if err != nil {
			return fmt.Errorf("load participant: %w", err)
		}
		if participant == nil {
			return fmt.Errorf("participant %s not found", participantID)
		}
		if team.HackathonID != participant.HackathonID {
			return ErrTeamNotInHackathon
		}

		invite, err = tx.CreateInvite(ctx, teamID, participantID, direction)
		if err != nil {
			return fmt.Errorf("create invite: %w", err)
		}

		switch direction {
		case models.DirectionInvite:
			target, err = tx.UserByID(ctx, participant.Profile.UserID)
			if err != nil {
				return fmt.Errorf("load invited user: %w", err)
			}
			notifyText = fmt.Sprintf("You have been invited to join team <b>%s</b>", team.Name)
		case models.DirectionRequest:
			target, err = tx.TeamCaptain(ctx, teamID)
			if err != nil {
				return fmt.Errorf("resolve team captain: %w", err)
			}
			proposer, err := tx.UserByID(ctx, participant.Profile.UserID)
			if err != nil {
				return fmt.Errorf("load requesting user: %w", err)
			}
			notifyText = fmt.Sprintf("<b>%s</b> wants to join your team <b>%s</b>", proposer.Name, team.Name)
		default:
			return fmt.Errorf("unknown invite direction %q", direction)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	if target == nil {
		s.logger.Warn("no notification target for invite", zap.String("invite_id", invite.ID.String()))
	} else {
		if err := s.notifier.NotifyInvite(ctx, target.TelegramID, notifyText, invite.ID); err != nil {
			s.logger.Warn("invite notification failed",
				zap.Error(err),
				zap.String("invite_id", invite.ID.String()),
				zap.Int64("chat_id", target.TelegramID),
			)
		}
	}

	confirmation := "Invite sent."
	if direction == models.DirectionRequest {
		confirmation = "Join request sent."
	}
	return invite, confirmation, nil
}

// Decide resolves a pending invite. A REJECT only flips the status. An
// ACCEPT additionally binds the participant's user into an open slot whose
// required role matches the participant's profile role, all inside one
// transaction, so that the terminal-status write, the hackathon-wide
// occupancy check, and the slot binding are atomic. An invite that is
// absent or already decided fails with ErrInviteNotActionable.
//
// Other PENDING invites of the participant are deliberately left alone:
// once one is accepted, a later accept for the same hackathon fails the
// occupancy check here rather than being auto-cancelled at accept time.
func (s *Service) Decide(ctx context.Context, inviteID uuid.UUID, decision Decision) error {
	return s.store.InTx(ctx, func(tx Tx) error {
		invite, err := tx.InviteForUpdate(ctx, inviteID)
		if err != nil {
			return fmt.Errorf("load invite: %w", err)
		}
		if invite == nil || invite.Status != models.StatusPending {
			return ErrInviteNotActionable
		}

		if decision == DecisionReject {
			if err := tx.SetInviteStatus(ctx, inviteID, models.StatusRejected); err != nil {
				return fmt.Errorf("reject invite: %w", err)
			}
			return nil
		}

		if err := tx.SetInviteStatus(ctx, inviteID, models.StatusAccepted); err != nil {
			return fmt.Errorf("accept invite: %w", err)
		}

		participant, err := tx.ParticipantByID(ctx, invite.ParticipantID)
		if err != nil {
			return fmt.Errorf("load participant: %w", err)
		}
		if participant == nil {
			return fmt.Errorf("participant %s not found", invite.ParticipantID)
		}
		team, err := tx.TeamByID(ctx, invite.TeamID)
		if err != nil {
			return fmt.Errorf("load team: %w", err)
		}
		if team == nil {
			return fmt.Errorf("team %s not found", invite.TeamID)
		}
		return bindIntoTeam(ctx, tx, team, participant)
	})
}

// Assign places a participant straight into a team, without an invite. The
// organizer surface uses this for manual placement; the occupancy and
// role-match rules are exactly those of an accepted invite.
func (s *Service) Assign(ctx context.Context, teamID, participantID uuid.UUID) error {
	return s.store.InTx(ctx, func(tx Tx) error {
		participant, err := tx.ParticipantByID(ctx, participantID)
		if err != nil {
			return fmt.Errorf("load participant: %w", err)
		}
		if participant == nil {
			return fmt.Errorf("participant %s not found", participantID)
		}
		team, err := tx.TeamByID(ctx, teamID)
		if err != nil {
			return fmt.Errorf("load team: %w", err)
		}
		if team == nil || team.HackathonID != participant.HackathonID {
			return ErrTeamNotInHackathon
		}
		return bindIntoTeam(ctx, tx, team, participant)
	})
}

// bindIntoTeam binds the participant's user into one of the team's open
// slots. The caller must already have verified that team and participant
// share a hackathon. Runs inside the caller's transaction.
func bindIntoTeam(ctx context.Context, tx Tx, team *models.Team, participant *models.Participant) error {
	if participant.Profile == nil || participant.Profile.Role == nil {
		return fmt.Errorf("participant %s has no role: %w", participant.ID, ErrRoleSlotUnavailable)
	}

	userID := participant.Profile.UserID
	if err := tx.LockUserOccupancy(ctx, team.HackathonID, userID); err != nil {
		return fmt.Errorf("lock occupancy: %w", err)
	}
	occupied, err := tx.OccupiedSlotCount(ctx, team.HackathonID, userID)
	if err != nil {
		return fmt.Errorf("count occupied slots: %w", err)
	}
	if occupied > 0 {
		return fmt.Errorf("user %s already holds a slot in hackathon %s: %w",
			userID, team.HackathonID, ErrRoleSlotUnavailable)
	}

	slot, err := tx.OpenSlotForUpdate(ctx, team.ID, *participant.Profile.Role)
	if err != nil {
		return fmt.Errorf("find open slot: %w", err)
	}
	if slot == nil {
		return fmt.Errorf("team %s has no open %s slot: %w",
			team.ID, *participant.Profile.Role, ErrRoleSlotUnavailable)
	}
	if err := tx.BindSlot(ctx, slot.ID, userID); err != nil {
		return fmt.Errorf("bind slot: %w", err)
	}
	return nil
}

// EmptySlotsByHackathon returns every team in the hackathon that still has
// unfilled slots, with the roles it is seeking. Read-only projection.
func (s *Service) EmptySlotsByHackathon(ctx context.Context, hackathonID uuid.UUID) ([]TeamOpenSlots, error) {
	return s.store.TeamsWithOpenSlots(ctx, hackathonID)
}
