package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Default token TTL constants. Access tokens are deliberately short-lived;
// the refresh window is the longer period during which a token may still be
// exchanged for a fresh one.
const (
	DefaultAccessTokenTTL  = 1 * time.Hour
	DefaultRefreshTokenTTL = 10 * time.Hour
)

// Claims is the signed token payload. Access and refresh use share this one
// encoding: the exp claim bounds access use, while refresh-class checks
// recompute a window from iat (see ValidateRefreshWindow). The jti claim is
// the key into the revocation ledger.
type Claims struct {
	jwt.RegisteredClaims

	// Scope is a space-delimited set of ROLE_<name> markers and permission
	// names describing what the bearer may do. Consumers must treat it as an
	// unordered set.
	Scope string `json:"scope,omitempty"`
}

// NewClaims builds the claim set for a freshly issued token.
func NewClaims(subject, issuer, scope string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Scope: scope,
	}
}

// NewJTI returns a random 128-bit identifier for the "jti" claim.
func NewJTI() string {
	return uuid.NewString()
}

// ValidateExpiry enforces the access-token window: now >= exp means expired.
// A missing exp claim is treated as expired rather than immortal.
func (c *Claims) ValidateExpiry(now time.Time) error {
	if c.ExpiresAt == nil || !now.Before(c.ExpiresAt.Time) {
		return ErrExpired
	}
	return nil
}

// ValidateRefreshWindow enforces the refresh-class window computed from the
// issue time: now >= iat+ttl means expired, regardless of the exp claim.
func (c *Claims) ValidateRefreshWindow(now time.Time, ttl time.Duration) error {
	if c.IssuedAt == nil || !now.Before(c.IssuedAt.Add(ttl)) {
		return ErrExpired
	}
	return nil
}
