package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issued_at"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID       int64    `json:"id"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	Role     UserRole `json:"role"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   int64    `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

// Principal is the already-authenticated caller. Operations that check
// authorization receive it explicitly.
type Principal struct {
	ID   int64    `json:"id"`
	Name string   `json:"name"`
	Role UserRole `json:"role"`
}

// Principal extracts the caller identity from the token claims.
func (c *JWTClaims) Principal() Principal {
	if c == nil {
		return Principal{}
	}
	return Principal{ID: c.UserID, Name: c.FullName, Role: c.Role}
}

// IsSuperAdmin reports whether the principal may perform privileged operations.
func (p Principal) IsSuperAdmin() bool {
	return p.Role == RoleSuperAdmin
}

// Authenticated reports whether the principal was resolved from a valid token.
func (p Principal) Authenticated() bool {
	return p.ID != 0 && p.Role != ""
}
