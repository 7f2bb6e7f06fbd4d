package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jb-labs/identity/internal/identity/domain"
	"github.com/jb-labs/identity/internal/identity/store"
	"github.com/jb-labs/identity/pkg/cryptox"
	"github.com/jb-labs/identity/pkg/jwtx"
	"github.com/jb-labs/identity/pkg/slogx"
)

// AuthService owns the token lifecycle: credential exchange, introspection,
// refresh rotation, and revocation.
type AuthService struct {
	Store      store.Store
	Signer     jwtx.Signer
	Verifier   jwtx.Verifier
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Clock overrides time.Now in tests. Leave nil in production.
	Clock func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

// Authenticate exchanges a username/password pair for a signed bearer token.
// Unknown usernames surface as ErrUserNotFound and wrong passwords as
// ErrInvalidCredentials; the HTTP layer collapses them into one response so
// the distinction only exists for logs and tests.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (domain.IssuedToken, error) {
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("authentication failed: unknown user", slog.String("username", username))
			return domain.IssuedToken{}, ErrUserNotFound
		}
		return domain.IssuedToken{}, fmt.Errorf("load user: %w", err)
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		l.Info("authentication failed: password mismatch", slog.String("username", username))
		return domain.IssuedToken{}, ErrInvalidCredentials
	}

	return s.issueToken(user)
}

// Introspect reports whether a token is currently usable as an access token.
// Every failure mode, including storage trouble, collapses to false; this
// endpoint never errors out to its caller.
func (s *AuthService) Introspect(ctx context.Context, token string) bool {
	if _, err := s.verifyToken(ctx, token, false); err != nil {
		slogx.FromContext(ctx).Debug("introspection rejected token", slog.Any("error", err))
		return false
	}
	return true
}

// Refresh rotates a token: the presented token is verified against the
// refresh window, its jti is revoked, and a fresh token is issued with the
// user's current roles. The old token must land in the ledger before the new
// one exists, so a failed revocation aborts the rotation.
func (s *AuthService) Refresh(ctx context.Context, token string) (domain.IssuedToken, error) {
	claims, err := s.verifyToken(ctx, token, true)
	if err != nil {
		return domain.IssuedToken{}, err
	}

	if err := s.Store.RevokedTokens().Put(ctx, claims.ID, s.ledgerExpiry(claims)); err != nil {
		return domain.IssuedToken{}, fmt.Errorf("revoke rotated token: %w", err)
	}

	user, err := s.Store.Users().GetUserByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Account deleted since issuance. The old token is already
			// revoked, nothing to rotate onto.
			return domain.IssuedToken{}, ErrUserNotFound
		}
		return domain.IssuedToken{}, fmt.Errorf("load user: %w", err)
	}

	return s.issueToken(user)
}

// Logout revokes the presented token. It is best effort and idempotent:
// invalid or already-expired tokens are ignored, and revoking twice
// succeeds, so clients can always call it on the way out.
func (s *AuthService) Logout(ctx context.Context, token string) {
	l := slogx.FromContext(ctx)

	// Verified against the wider refresh window so a token past its access
	// expiry but still refreshable gets revoked rather than skipped.
	claims, err := s.verifyToken(ctx, token, true)
	if err != nil {
		l.Debug("logout ignored unusable token", slog.Any("error", err))
		return
	}

	if err := s.Store.RevokedTokens().Put(ctx, claims.ID, s.ledgerExpiry(claims)); err != nil {
		l.Error("logout failed to persist revocation",
			slog.String("jti", claims.ID),
			slog.Any("error", err),
		)
	}
}

// VerifyAccessToken validates a bearer token for request authentication,
// enforcing the access window and the revocation ledger. Implements
// httpx.TokenVerifier.
func (s *AuthService) VerifyAccessToken(ctx context.Context, token string) (jwtx.Claims, error) {
	return s.verifyToken(ctx, token, false)
}

// verifyToken runs the full check chain: signature, the window selected by
// refreshWindow, then the revocation ledger. Signature and window failures
// collapse to ErrUnauthenticated; ledger lookups that fail for storage
// reasons propagate as-is so callers don't mistake an outage for a revoked
// token.
func (s *AuthService) verifyToken(ctx context.Context, token string, refreshWindow bool) (jwtx.Claims, error) {
	claims, err := s.Verifier.Verify(token)
	if err != nil {
		return jwtx.Claims{}, ErrUnauthenticated
	}

	now := s.now()
	if refreshWindow {
		err = claims.ValidateRefreshWindow(now, s.RefreshTTL)
	} else {
		err = claims.ValidateExpiry(now)
	}
	if err != nil {
		return jwtx.Claims{}, ErrUnauthenticated
	}

	revoked, err := s.Store.RevokedTokens().Exists(ctx, claims.ID)
	if err != nil {
		return jwtx.Claims{}, fmt.Errorf("revocation lookup: %w", err)
	}
	if revoked {
		return jwtx.Claims{}, ErrUnauthenticated
	}

	return claims, nil
}

// ledgerExpiry picks when a revocation row becomes purgeable: the later of
// the exp claim and the end of the refresh window. A token revoked after its
// access expiry is still refresh-valid until iat+RefreshTTL, so its row must
// outlive that window or a purge would un-revoke it.
func (s *AuthService) ledgerExpiry(claims jwtx.Claims) time.Time {
	expiry := s.now().Add(s.RefreshTTL)
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}
	if claims.IssuedAt != nil {
		if windowEnd := claims.IssuedAt.Time.Add(s.RefreshTTL); windowEnd.After(expiry) {
			expiry = windowEnd
		}
	}
	return expiry
}

// issueToken signs a fresh token for the user with scopes rebuilt from their
// current role memberships.
func (s *AuthService) issueToken(user domain.User) (domain.IssuedToken, error) {
	claims := jwtx.NewClaims(user.Username, s.Issuer, BuildScope(user.Roles), s.AccessTTL, s.now())
	signed, err := s.Signer.Sign(claims)
	if err != nil {
		return domain.IssuedToken{}, fmt.Errorf("sign token: %w", err)
	}
	return domain.IssuedToken{
		Token:     signed,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
