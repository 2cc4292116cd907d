package model

import (
	"strings"
	"time"
)

const (
	RoleMahasiswa = "mahasiswa"
	RoleAdmin     = "admin"
)

// ValidRole reports whether role is one of the roles a user may hold.
func ValidRole(role string) bool {
	return role == RoleMahasiswa || role == RoleAdmin
}

// NormalizeEmail is the canonical form used for lookups and uniqueness.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u User) Public() AuthUser {
	return AuthUser{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role"`
}

// AuthClaims are the decoded, verified claims of an access token.
type AuthClaims struct {
	UserID    string
	Email     string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

func (c *AuthClaims) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}

type LoginResult struct {
	Token     string   `json:"token"`
	TokenType string   `json:"tokenType"`
	ExpiresIn int64    `json:"expiresIn"`
	User      AuthUser `json:"user"`
}
