package models

import (
	"time"

	"github.com/google/uuid"
)

// User mirrors the identity-provider account into an application-owned row.
// ID is the provider-issued subject, not generated locally, so rating and
// achievement rows can foreign-key against it. Rows are provisioned lazily on
// the first authenticated request and never deleted by the application.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"  json:"id"`
	Email     *string   `gorm:"type:text;uniqueIndex" json:"email"`
	CreatedAt time.Time `gorm:"autoCreateTime"        json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"        json:"updatedAt"`
}

// UserProfile is the public shape returned by the users endpoints
type UserProfile struct {
	ID        string     `json:"id"`
	Email     *string    `json:"email,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	MemberFor string     `json:"memberFor,omitempty"`
	LastRated *time.Time `json:"lastRated,omitempty"`
}

func (u *User) ToProfile() UserProfile {
	return UserProfile{
		ID:        u.ID.String(),
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
