// Package domain contains the core data types for the Coffee API.
// This package has almost no external dependencies and is imported by every
// other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that owns tags, items and coffees.
// Email is stored lower-cased and is unique across all users.
type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// AccessToken is a bearer credential issued to a user.
type AccessToken struct {
	Value     string
	ExpiresAt time.Time
}
