package domain

import "time"

// IssuedToken is what the token endpoints return: the signed compact token
// and the instant its access window closes.
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RevokedToken is a revocation-ledger record. Presence of a jti in the ledger
// invalidates the token regardless of its own expiry claim; ExpiresAt only
// tells housekeeping when the record may be purged.
type RevokedToken struct {
	JTI       string
	ExpiresAt time.Time
	CreatedAt time.Time
}
