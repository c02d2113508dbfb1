package users

import (
	"time"

	"delivery-service/internal/auth"
)

// User represents an account of any role.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	Role         auth.Role `json:"role"`
	Active       bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Identity returns the authorization view of u.
func (u *User) Identity() auth.Identity {
	return auth.Identity{
		UserID: u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
		Active: u.Active,
	}
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthUser is the user summary returned on login.
type AuthUser struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  auth.Role `json:"role"`
}

// AuthResponse is returned on login.
type AuthResponse struct {
	Token string    `json:"token"`
	User  *AuthUser `json:"user,omitempty"`
}

// SeedUser describes an account created or reset by the seed command.
type SeedUser struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Role     auth.Role
}
