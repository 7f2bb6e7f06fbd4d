package jwtx

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLen is the minimum accepted shared-secret length in bytes. HMAC
// with a secret shorter than the hash's block input offers less entropy than
// the algorithm can use, so short secrets are rejected at construction.
const MinSecretLen = 32

// Signer is our interface for anything that can sign a claim set into a
// compact serialized token.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
	Validate() error
}

// HS512Signer signs tokens with HMAC-SHA512 over a shared symmetric secret.
// The secret is read-only after construction; Sign is safe for concurrent use.
type HS512Signer struct {
	secret []byte
}

// NewSignerHS512 creates an HS512 signer. A missing or short secret is a
// configuration error and must abort startup, never surface per-request.
func NewSignerHS512(secret []byte) (*HS512Signer, error) {
	s := &HS512Signer{secret: secret}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *HS512Signer) Alg() string { return jwt.SigningMethodHS512.Alg() }

// Validate checks the secret meets the minimum length requirement.
func (s *HS512Signer) Validate() error {
	if len(s.secret) < MinSecretLen {
		return ErrWeakSecret
	}
	return nil
}

// Sign serializes and MACs the claims. Failure here means the process is
// misconfigured; callers treat it as fatal, not user-recoverable.
func (s *HS512Signer) Sign(c Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}
