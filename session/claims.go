package session

import (
	"strconv"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/aams-client/internal/errors"
)

// Claims are the simplejwt access/refresh token claims
type Claims struct {
	jwtlib.RegisteredClaims
	TokenType string `json:"token_type,omitempty"`
	UserID    any    `json:"user_id,omitempty"`
}

// ParseClaims decodes a token without verifying its signature. The client never
// holds the signing key, so the result is only fit for expiry checks and display.
func ParseClaims(rawToken string) (*Claims, error) {
	if rawToken == "" {
		return nil, errors.ErrInvalidToken
	}
	claims := &Claims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(rawToken, claims); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "%v", err)
	}
	return claims, nil
}

// Expiry returns the exp claim, zero if absent
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Expired reports whether exp is at or before now. Tokens without exp never expire.
func (c *Claims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return !now.Before(c.ExpiresAt.Time)
}

// UserIDString normalises user_id, which simplejwt emits as a number or a string
func (c *Claims) UserIDString() string {
	switch v := c.UserID.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
