package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is a user's self-description: the role they play and their skills.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Role      *Role     `json:"role,omitempty"` // nil until the user picks one
	About     string    `json:"about"`
	Skills    []Skill   `json:"skills,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SkillType distinguishes hard and soft skills.
type SkillType string

const (
	SkillHard SkillType = "hard"
	SkillSoft SkillType = "soft"
)

// Skill is a tag a profile can carry.
type Skill struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Type SkillType `json:"type"`
}
