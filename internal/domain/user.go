package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID              uuid.UUID
	Subject         string
	Email           string
	FirstName       string
	LastName        string
	ProfileImageURL string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DisplayName picks the friendliest available label for the user.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.Email != "":
		return u.Email
	default:
		return u.Subject
	}
}

// UserProfile is the identity provider's view of a user, used for upserts.
type UserProfile struct {
	Subject         string
	Email           string
	FirstName       string
	LastName        string
	ProfileImageURL string
}

type UserRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
	// Upsert inserts or updates the user keyed by subject. The first insert of a
	// subject increments the global user counter in the same transaction.
	Upsert(ctx context.Context, profile UserProfile) (*User, error)
}
