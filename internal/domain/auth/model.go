// Package auth provides account registration, login, and token issuance.
//
// Every account belongs to a tenant. Registering creates a new tenant
// whose id is the owner's user id; staff accounts created by an admin
// join the admin's tenant.
package auth

import (
	"time"

	"stockbook/internal/core/id"
)

// Roles recognized by the access policy.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// User is an account within a tenant.
type User struct {
	ID           id.ID     `db:"id"`
	TenantID     string    `db:"tenant_id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Name         string    `db:"name"`
	Roles        []string  `db:"roles"`
	Active       bool      `db:"active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// HasRole reports whether the user carries the given role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RegisterRequest is the payload for creating a new tenant owner.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Token is an issued access token with its expiry.
type Token struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}
