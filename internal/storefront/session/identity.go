// Package session stores the shopper's identity and per-browser state in an
// encrypted cookie. The identity is read once per request and handed to every
// service call explicitly.
package session

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// RoleAdmin is the backend role that unlocks the catalog console.
const RoleAdmin = "admin"

// Identity is the signed-in shopper as returned by login or registration.
type Identity struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role,omitempty"`
	Email  string `json:"email,omitempty"`
	Mobile string `json:"mobile,omitempty"`
}

// Authenticated reports whether a backend token is present.
func (i Identity) Authenticated() bool {
	return strings.TrimSpace(i.Token) != ""
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return strings.EqualFold(strings.TrimSpace(i.Role), RoleAdmin)
}

// FlashKind classifies a queued message.
type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
	FlashInfo    FlashKind = "info"
)

// Flash is a one-shot message shown on the next page render.
type Flash struct {
	Kind    FlashKind `json:"kind"`
	Message string    `json:"message"`
}

// TokenExpiry reads the exp claim of a backend JWT without verifying its
// signature. The backend remains the authority on validity; this only lets the
// session end no later than the token does.
func TokenExpiry(token string) (time.Time, bool) {
	token = strings.TrimSpace(token)
	if token == "" || strings.Count(token, ".") != 2 {
		return time.Time{}, false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time.UTC(), true
}
