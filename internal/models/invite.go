package models

import (
	"time"

	"github.com/google/uuid"
)

// InviteDirection tags who initiated a proposal.
type InviteDirection string

const (
	// DirectionInvite is a team reaching out to a participant.
	DirectionInvite InviteDirection = "INVITE"
	// DirectionRequest is a participant asking to join a team.
	DirectionRequest InviteDirection = "REQUEST"
)

// ParseInviteDirection validates a raw direction string.
func ParseInviteDirection(s string) (InviteDirection, bool) {
	switch InviteDirection(s) {
	case DirectionInvite, DirectionRequest:
		return InviteDirection(s), true
	}
	return "", false
}

// InviteStatus is the invite lifecycle state. PENDING transitions exactly
// once to ACCEPTED or REJECTED; terminal states are immutable.
type InviteStatus string

const (
	StatusPending  InviteStatus = "PENDING"
	StatusAccepted InviteStatus = "ACCEPTED"
	StatusRejected InviteStatus = "REJECTED"
)

// Invite is a proposed binding between a team and a participant.
type Invite struct {
	ID            uuid.UUID       `json:"id"`
	TeamID        uuid.UUID       `json:"team_id"`
	ParticipantID uuid.UUID       `json:"participant_id"`
	Direction     InviteDirection `json:"direction"`
	Status        InviteStatus    `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	DecidedAt     *time.Time      `json:"decided_at,omitempty"`
}
