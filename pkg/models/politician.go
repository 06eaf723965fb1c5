package models

import (
	"time"

	"github.com/google/uuid"
)

// Politician is a tracked public official.
type Politician struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Party     string    `json:"party"`
	State     string    `json:"state"`
	District  string    `json:"district,omitempty"`
	Position  string    `json:"position"`
	Bio       string    `json:"bio,omitempty"`
	PhotoURL  string    `json:"photo_url,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PoliticianFilter narrows politician list queries. Zero values mean no filter.
type PoliticianFilter struct {
	Party         string
	State         string
	IncludeHidden bool // include deactivated politicians (admin views)
}
