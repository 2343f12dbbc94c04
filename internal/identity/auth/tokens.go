// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"

	"github.com/taibuivan/yomira-id/internal/platform/apperr"
	"github.com/taibuivan/yomira-id/internal/platform/sec"
)

// # Token Engine

// Engine owns the token lifecycle: issuance, verification, rotation, and
// revocation. It is the only component that mints token pairs.
//
// # Concurrency
//
// Engine is safe for concurrent use. Rotation races on the same refresh
// token are resolved by the repository's first-writer-wins revocation write;
// the engine never needs its own locking.
type Engine struct {
	signer      *sec.TokenSigner
	principals  PrincipalRepository
	revocations RevocationStore
	accessTTL   time.Duration
	refreshTTL  time.Duration
}

// NewEngine assembles the token engine.
//
// # Parameters
//   - signer: RS256 signer holding the key pair.
//   - principals: Persistent principal repository.
//   - revocations: Persistent revocation list.
//   - accessTTL: Access token lifetime.
//   - refreshTTL: Refresh token lifetime.
func NewEngine(
	signer *sec.TokenSigner,
	principals PrincipalRepository,
	revocations RevocationStore,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) *Engine {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}
	return &Engine{
		signer:      signer,
		principals:  principals,
		revocations: revocations,
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
	}
}

/*
IssuePair mints a fresh access/refresh pair and installs the refresh token as
the principal's current one, revoking any predecessor.

Description: Used at login and enrollment. The previous refresh token (if one
exists) dies with this call, enforcing the one-live-refresh-token rule.

Parameters:
  - context: context.Context
  - principalID: int64
  - email: string (Embedded in access token claims)

Returns:
  - *TokenPair: Newly minted pair
  - error: Signing or persistence failures
*/
func (engine *Engine) IssuePair(context context.Context, principalID int64, email string) (*TokenPair, error) {
	pair, err := engine.mintPair(principalID, email)
	if err != nil {
		return nil, err
	}

	if err := engine.principals.SwapRefreshToken(context, principalID, pair.RefreshToken); err != nil {
		return nil, wrapStorage(err)
	}

	return pair, nil
}

/*
Rotate exchanges a refresh token for a brand-new pair.

Description: The old token is checked (signature, expiry, type, revocation)
before anything is minted, and the new pair is only returned after the
revoke-old/install-new transaction commits. A storage failure mid-rotation
therefore leaves the old token revoked and no new pair issued: the caller
must re-authenticate, but no stale pair survives.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - *TokenPair: Newly minted pair
  - error: apperr.ExpiredToken, apperr.MalformedToken, apperr.WrongTokenType,
    apperr.TokenRevoked, or apperr.StorageFailure
*/
func (engine *Engine) Rotate(context context.Context, refreshToken string) (*TokenPair, error) {

	// ── 1. Cryptographic and Type Checks ──────────────────────────────────
	claims, err := engine.signer.Verify(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != sec.TokenTypeRefresh {
		return nil, apperr.WrongTokenType(claims.TokenType, sec.TokenTypeRefresh)
	}

	// ── 2. Revocation Check ───────────────────────────────────────────────
	revoked, err := engine.revocations.IsRevoked(context, refreshToken)
	if err != nil {
		return nil, wrapStorage(err)
	}
	if revoked {
		return nil, apperr.TokenRevoked()
	}

	// ── 3. Mint Replacement Pair ──────────────────────────────────────────
	pair, err := engine.mintPair(claims.PrincipalID, claims.Email)
	if err != nil {
		return nil, err
	}

	// ── 4. Transactional Swap ─────────────────────────────────────────────
	if err := engine.principals.RotateRefreshToken(context, claims.PrincipalID, refreshToken, pair.RefreshToken); err != nil {
		return nil, wrapStorage(err)
	}

	return pair, nil
}

/*
VerifyAccessToken validates an access token for request authentication.

Description: Signature or expiry failures surface as apperr.NotAuthenticated
rather than the token-endpoint errors, because the caller here is a resource
request, not a token exchange. A refresh token presented as an access token
is rejected with apperr.WrongTokenType.

Parameters:
  - tokenString: string

Returns:
  - *sec.TokenClaims: Verified claims
  - error: apperr.NotAuthenticated or apperr.WrongTokenType
*/
func (engine *Engine) VerifyAccessToken(tokenString string) (*sec.TokenClaims, error) {
	claims, err := engine.signer.Verify(tokenString)
	if err != nil {
		return nil, apperr.NotAuthenticated("Invalid or expired token")
	}
	if claims.TokenType != sec.TokenTypeAccess {
		return nil, apperr.WrongTokenType(claims.TokenType, sec.TokenTypeAccess)
	}
	return claims, nil
}

/*
DecodeRefreshToken validates a refresh token without rotating it.

Parameters:
  - tokenString: string

Returns:
  - *sec.TokenClaims: Verified claims
  - error: apperr.ExpiredToken, apperr.MalformedToken, or apperr.WrongTokenType
*/
func (engine *Engine) DecodeRefreshToken(tokenString string) (*sec.TokenClaims, error) {
	claims, err := engine.signer.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != sec.TokenTypeRefresh {
		return nil, apperr.WrongTokenType(claims.TokenType, sec.TokenTypeRefresh)
	}
	return claims, nil
}

/*
RevokeRefreshToken puts a refresh token on the revocation list.

Description: Used at logout. Revoking an already-revoked token is a no-op,
keeping logout idempotent.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - error: Persistence failures
*/
func (engine *Engine) RevokeRefreshToken(context context.Context, refreshToken string) error {
	if _, err := engine.revocations.Revoke(context, refreshToken); err != nil {
		return wrapStorage(err)
	}
	return nil
}

/*
PruneRevocations removes revocation entries older than the refresh TTL.

Description: Entries past the refresh lifetime belong to tokens that would
fail expiry checks anyway, so they can be reclaimed safely.

Parameters:
  - context: context.Context

Returns:
  - int64: Number of entries removed
  - error: Cleanup failures
*/
func (engine *Engine) PruneRevocations(context context.Context) (int64, error) {
	cutoff := time.Now().Add(-engine.refreshTTL)
	removed, err := engine.revocations.DeleteBefore(context, cutoff)
	if err != nil {
		return 0, wrapStorage(err)
	}
	return removed, nil
}

// AccessTokenTTL exposes the configured access token lifetime.
func (engine *Engine) AccessTokenTTL() time.Duration { return engine.accessTTL }

// RefreshTokenTTL exposes the configured refresh token lifetime.
func (engine *Engine) RefreshTokenTTL() time.Duration { return engine.refreshTTL }

// mintPair signs a fresh access/refresh pair without touching storage.
func (engine *Engine) mintPair(principalID int64, email string) (*TokenPair, error) {
	accessToken, err := engine.signer.Sign(principalID, email, sec.TokenTypeAccess, engine.accessTTL)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	refreshToken, err := engine.signer.Sign(principalID, email, sec.TokenTypeRefresh, engine.refreshTTL)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    BearerTokenType,
		ExpiresIn:    int64(engine.accessTTL.Seconds()),
	}, nil
}

// wrapStorage maps raw storage errors to apperr.StorageFailure while letting
// already-classified domain errors pass through untouched.
func wrapStorage(err error) error {
	if apperr.IsAppError(err) {
		return err
	}
	return apperr.StorageFailure(err)
}
