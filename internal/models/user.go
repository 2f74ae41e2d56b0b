package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a member of an expense group.
//
// Users are created once and never mutated. Equality is by ID alone:
// two users with the same name are still distinct members.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Name is the display name of the user.
	Name string

	// Email is an optional contact address. It is a label only and plays
	// no part in identity.
	Email string

	// CreatedAt is when the user was added.
	CreatedAt time.Time
}

// NewUser creates a user with a generated ID.
func NewUser(name, email string) User {
	return User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		CreatedAt: time.Now(),
	}
}
