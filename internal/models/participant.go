package models

import (
	"time"

	"github.com/google/uuid"
)

// Participant is a user's registration for one specific hackathon,
// linking their profile to that event.
type Participant struct {
	ID          uuid.UUID `json:"id"`
	HackathonID uuid.UUID `json:"hackathon_id"`
	ProfileID   uuid.UUID `json:"profile_id"`
	CreatedAt   time.Time `json:"created_at"`

	// Profile is populated by joined reads; the roster core needs the
	// profile role and the owning user to act on an invite.
	Profile *Profile `json:"profile,omitempty"`
}
