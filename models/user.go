package models

import (
	"time"

	"bhss/domain/core"
)

// Role decides which views and endpoints a user can reach
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User represents a system user. Field users are bound to one school.
type User struct {
	ID           core.ID   `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	Role         Role      `json:"role" db:"role"`
	Municipality string    `json:"municipality" db:"municipality"`
	School       string    `json:"school" db:"school"`
	PasswordHash string    `json:"-" db:"password_hash"`
	IsActive     bool      `json:"isActive" db:"is_active"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// GetID implements the store entity contract
func (u User) GetID() core.ID { return u.ID }

// UserInput is the payload for creating a user
type UserInput struct {
	Email        string `json:"email" validate:"required,email"`
	Name         string `json:"name" validate:"required"`
	Password     string `json:"password" validate:"required,min=8"`
	Role         Role   `json:"role" validate:"required,oneof=admin user"`
	Municipality string `json:"municipality"`
	School       string `json:"school"`
}

// LoginInput is the payload for the login endpoint
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is what a successful login returns and what clients persist
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}
