// Package models defines the core data structures for users and sessions.
package models

import "time"

// User represents an account known to the auth API.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"id"`
	// Email is the login address.
	Email string `json:"email"`
	// Name is the display name.
	Name string `json:"name"`
	// Avatar is an optional picture URL.
	Avatar string `json:"avatar,omitempty"`
	// Role is "admin" or "user".
	Role string `json:"role"`
	// PasswordHash is the bcrypt hash of the password. It is never
	// serialized.
	PasswordHash []byte `json:"-"`
}

// Session is a token issued by login or social login.
type Session struct {
	// Token is the opaque session credential.
	Token string `json:"token"`
	// User is the account the token was issued to.
	User User `json:"user"`
	// ExpiresAt is when the token stops being accepted.
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Role values.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)
