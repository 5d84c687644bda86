package models

import (
	"time"

	"github.com/google/uuid"
)

// Hackathon is an event owned by an organizer.
type Hackathon struct {
	ID          uuid.UUID `json:"id"`
	OrganizerID uuid.UUID `json:"organizer_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PhotoKey    string    `json:"photo_key,omitempty"` // S3 object key, empty if no photo
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Tags        string    `json:"tags"`
	MaxTeams    int       `json:"max_teams"`
	MinTeamSize int       `json:"min_team_size"`
	MaxTeamSize int       `json:"max_team_size"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
