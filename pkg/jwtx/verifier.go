package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed  = errors.New("jwtx: malformed token")
	ErrInvalidSig = errors.New("jwtx: invalid signature")
	ErrIssuer     = errors.New("jwtx: issuer mismatch")
	ErrExpired    = errors.New("jwtx: token expired")
	ErrWeakSecret = errors.New("jwtx: signing secret too short")
)

// Verifier validates a token's structure and MAC and gives you back the
// claims if it's legit. Expiry is NOT checked here: access and refresh
// windows differ, so callers apply ValidateExpiry or ValidateRefreshWindow
// to the returned claims themselves.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// HS512Verifier recomputes the HMAC-SHA512 MAC against the shared secret.
type HS512Verifier struct {
	secret []byte
	issuer string // empty means "don't care"
}

// NewVerifierHS512 creates a verifier bound to the shared secret. If issuer
// is non-empty, tokens from any other issuer are rejected.
func NewVerifierHS512(secret []byte, issuer string) *HS512Verifier {
	return &HS512Verifier{secret: secret, issuer: issuer}
}

func (v *HS512Verifier) Verify(tokenStr string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenStr, &claims,
		func(t *jwt.Token) (any, error) {
			return v.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		// Window checks happen at the call site against the right TTL.
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return Claims{}, ErrMalformed
		}
		// Everything else (bad MAC, algorithm confusion) reduces to an
		// invalid signature; the distinction would only help an attacker.
		return Claims{}, ErrInvalidSig
	}

	if v.issuer != "" && claims.Issuer != v.issuer {
		return Claims{}, ErrIssuer
	}

	return claims, nil
}
