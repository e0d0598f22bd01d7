package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an administrator account authenticated with HTTP Basic credentials
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Login        string    `json:"login" db:"login"`
	PasswordHash string    `json:"-" db:"password_hash"` // bcrypt hash, never serialized
	Name         string    `json:"name,omitempty" db:"name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// NewUser creates a new User instance from an already hashed password
func NewUser(login, passwordHash, name string) *User {
	now := time.Now().UTC()
	return &User{
		ID:           uuid.New(),
		Login:        login,
		PasswordHash: passwordHash,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
