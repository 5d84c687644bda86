package roster

import "errors"

var (
	// ErrDuplicateProposal means a PENDING invite of the same direction
	// already exists for the (team, participant) pair.
	ErrDuplicateProposal = errors.New("proposal already pending")

	// ErrInviteNotActionable means the invite is absent or already decided.
	// Callers cannot tell the two apart; the action is simply stale.
	ErrInviteNotActionable = errors.New("invite not actionable")

	// ErrTeamNotInHackathon means the team and the participant belong to
	// different hackathons. Proposals and placements never cross hackathon
	// boundaries.
	ErrTeamNotInHackathon = errors.New("team does not belong to this hackathon")

	// ErrRoleSlotUnavailable is an accept-time invariant violation: no open
	// slot matches the participant's role, or the participant already
	// occupies a slot elsewhere in the hackathon. Slots are provisioned to
	// cover every outstanding invite, so this signals broken state upstream
	// and is surfaced as a server fault, never silently absorbed.
	ErrRoleSlotUnavailable = errors.New("no matching role slot available")
)
