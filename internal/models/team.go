package models

import (
	"time"

	"github.com/google/uuid"
)

// Team is a hackathon team. Its roster is the set of Slots it owns.
type Team struct {
	ID          uuid.UUID `json:"id"`
	HackathonID uuid.UUID `json:"hackathon_id"`
	Name        string    `json:"name"`
	About       string    `json:"about"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Slot is a position in a team's roster, tagged with a required role.
// Occupant is nil while the team is still looking for that role.
// CreatedAt is the captaincy ordering key: the captain is the occupant
// of the earliest-created occupied slot.
type Slot struct {
	ID        uuid.UUID  `json:"id"`
	TeamID    uuid.UUID  `json:"team_id"`
	Role      Role       `json:"role"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	Approved  bool       `json:"approved"`
	CreatedAt time.Time  `json:"created_at"`
}

// Occupied reports whether the slot has an occupant.
func (s *Slot) Occupied() bool { return s.UserID != nil }
