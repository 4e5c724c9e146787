// Package model defines domain entities for the application.
package model

import "time"

// Role values assigned to synced users.
const (
	// RoleCandidate is the role every user receives at sync time.
	// Role changes happen elsewhere; the webhook pipeline never updates it.
	RoleCandidate = "candidate"
)

// User is a user record mirrored from the identity provider.
// Created exactly once per Clerk user; the sync pipeline never mutates
// an existing record.
type User struct {
	ID        string    `json:"id"`
	ClerkID   string    `json:"clerk_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Image     string    `json:"image,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// UserResponse is the API representation of a user.
type UserResponse struct {
	ID        string    `json:"id"`
	ClerkID   string    `json:"clerk_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Image     string    `json:"image,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ToResponse converts a User to its API representation.
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		ClerkID:   u.ClerkID,
		Email:     u.Email,
		Name:      u.Name,
		Image:     u.Image,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
