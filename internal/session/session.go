// Package session holds the credentials of a logged-in user.
//
// A Session is created on successful login and dropped on logout. Every
// authenticated store call receives it explicitly instead of reading a
// process-wide token.
package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is an authenticated user's bearer credential.
type Session struct {
	Email     string     `json:"email"`
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"` // nil = no known expiry
}

// New creates a Session for the given token.
// When the token is a JWT its exp claim becomes ExpiresAt. The signature is
// not verified; only the server can do that.
func New(email, token string) *Session {
	return &Session{
		Email:     email,
		Token:     token,
		ExpiresAt: tokenExpiry(token),
	}
}

// tokenExpiry reads the exp claim from an unverified JWT.
func tokenExpiry(token string) *time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil
	}
	if claims.ExpiresAt == nil {
		return nil
	}
	exp := claims.ExpiresAt.Time
	return &exp
}

// Valid reports whether the session can be used right now.
func (s *Session) Valid() bool {
	return s.ValidAt(time.Now())
}

// ValidAt reports whether the session can be used at the given time.
func (s *Session) ValidAt(now time.Time) bool {
	if s == nil || s.Token == "" {
		return false
	}
	if s.ExpiresAt != nil && !now.Before(*s.ExpiresAt) {
		return false
	}
	return true
}

// Bearer returns the Authorization header value.
func (s *Session) Bearer() string {
	return "Bearer " + s.Token
}
