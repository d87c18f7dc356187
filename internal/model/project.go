package model

import (
	"time"
)

// InboxProjectID is the project seeded by the first migration
const InboxProjectID = "inbox"

// Project scopes a board. The board only reads projects.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	Archived    bool      `json:"archived"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Computed fields (not stored)
	TaskCount int `json:"task_count,omitempty"`
}

// IsInbox returns true if this is the default inbox project
func (p *Project) IsInbox() bool {
	return p.ID == InboxProjectID
}
