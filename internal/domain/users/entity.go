package users

import (
	"errors"
	"time"
)

// ErrNotFound indicates no user matches the lookup
var ErrNotFound = errors.New("user not found")

// ErrEmailTaken indicates a signup with an already registered email
var ErrEmailTaken = errors.New("email already registered")

// User account entity. PasswordHash never leaves the domain via JSON.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Department   string    `json:"department"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
