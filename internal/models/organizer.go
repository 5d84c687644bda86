package models

import (
	"time"

	"github.com/google/uuid"
)

// Organizer is an event-organizer account with password auth.
type Organizer struct {
	ID           uuid.UUID `json:"id"`
	Login        string    `json:"login"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
