// Package jwtx extracts claims from the backend's bearer tokens.
//
// Decoding here is deliberately unverified: the client only needs the
// role claim to know which permission set to fetch, and the backend
// independently authorizes every request. This is a read optimization,
// not a security boundary. Keeping the extraction behind one function
// means a token format change touches exactly one place.
package jwtx

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the access-token claims the hospital backend embeds.
type Claims struct {
	jwt.RegisteredClaims

	// UserID is the numeric id of the authenticated user.
	UserID int64 `json:"user_id,omitempty"`

	// RoleID keys the role whose permission set applies to this user.
	RoleID int64 `json:"id_rol,omitempty"`
}

// DecodeUnverified parses the token payload without checking the
// signature. It fails on malformed tokens but never on invalid ones.
func DecodeUnverified(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return claims, nil
}

// HasRole reports whether the token carries a usable role claim.
func (c *Claims) HasRole() bool {
	return c.RoleID > 0
}
