package models

import "time"

type ChurchStatus string

const (
	ChurchPending  ChurchStatus = "pending"
	ChurchActive   ChurchStatus = "active"
	ChurchRejected ChurchStatus = "rejected"
)

func (s ChurchStatus) Valid() bool {
	switch s {
	case ChurchPending, ChurchActive, ChurchRejected:
		return true
	}
	return false
}

type Church struct {
	ID              int64        `json:"id" db:"id"`
	Name            string       `json:"name" db:"name"`
	Slug            string       `json:"slug" db:"slug"`
	City            *string      `json:"city,omitempty" db:"city"`
	State           *string      `json:"state,omitempty" db:"state"`
	Country         string       `json:"country" db:"country"`
	Website         *string      `json:"website,omitempty" db:"website"`
	ContactEmail    *string      `json:"contact_email,omitempty" db:"contact_email"`
	LogoURL         *string      `json:"logo_url,omitempty" db:"logo_url"`
	MemberCount     int          `json:"member_count" db:"member_count"`
	Status          ChurchStatus `json:"status" db:"status"`
	RejectionReason *string      `json:"rejection_reason,omitempty" db:"rejection_reason"`
	CreatedAt       time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at" db:"updated_at"`
}

// PublicChurch is the projection shown to donors; contact details and
// moderation notes stay with admins.
type PublicChurch struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Slug        string       `json:"slug"`
	City        *string      `json:"city,omitempty"`
	State       *string      `json:"state,omitempty"`
	Country     string       `json:"country"`
	LogoURL     *string      `json:"logo_url,omitempty"`
	MemberCount int          `json:"member_count"`
	Status      ChurchStatus `json:"status"`
}

func (c *Church) Public() *PublicChurch {
	if c == nil {
		return nil
	}
	return &PublicChurch{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		City:        c.City,
		State:       c.State,
		Country:     c.Country,
		LogoURL:     c.LogoURL,
		MemberCount: c.MemberCount,
		Status:      c.Status,
	}
}

// ChurchFilter drives church listing. Query matches name or city,
// case-insensitively.
type ChurchFilter struct {
	Query  string
	Status ChurchStatus
	Limit  int
	// NewestFirst orders by created_at desc instead of by name.
	NewestFirst bool
}
