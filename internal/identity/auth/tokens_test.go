// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-id/internal/identity/auth"
	"github.com/taibuivan/yomira-id/internal/platform/apperr"
	"github.com/taibuivan/yomira-id/internal/platform/sec"
)

// # Test Fixtures

type engineFixture struct {
	engine      *auth.Engine
	signer      *sec.TokenSigner
	principals  *auth.MemoryPrincipalRepository
	revocations *auth.MemoryRevocationStore
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	signer := sec.NewTokenSignerFromKeys(privateKey, &privateKey.PublicKey, "id.yomira.test")
	revocations := auth.NewMemoryRevocationStore()
	principals := auth.NewMemoryPrincipalRepository(revocations)

	require.NoError(t, principals.Create(context.Background(), &auth.Principal{
		PrincipalID:    101,
		CredentialHash: "irrelevant",
		IsActive:       true,
	}))

	return &engineFixture{
		engine:      auth.NewEngine(signer, principals, revocations, 15*time.Minute, 30*24*time.Hour),
		signer:      signer,
		principals:  principals,
		revocations: revocations,
	}
}

// failingRotationRepository simulates a transaction that cannot commit.
type failingRotationRepository struct {
	auth.PrincipalRepository
}

func (repository *failingRotationRepository) RotateRefreshToken(context.Context, int64, string, string) error {
	return apperr.StorageFailure(assert.AnError)
}

/*
TestEngine_IssuePair verifies that a freshly minted pair carries both token
types and installs the refresh token as current.
*/
func TestEngine_IssuePair(t *testing.T) {
	fixture := newEngineFixture(t)
	ctx := context.Background()

	pair, err := fixture.engine.IssuePair(ctx, 101, "tai@yomira.app")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, auth.BearerTokenType, pair.TokenType)
	assert.Equal(t, int64(900), pair.ExpiresIn)

	// The access token must carry the access type and the principal identity
	claims, err := fixture.engine.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(101), claims.PrincipalID)
	assert.Equal(t, "tai@yomira.app", claims.Email)

	// The refresh token must now be the principal's current one
	principal, err := fixture.principals.FindByID(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, pair.RefreshToken, principal.RefreshToken)
}

/*
TestEngine_IssuePair_RevokesPredecessor verifies the one-live-refresh-token
rule: a second login kills the first login's refresh token.
*/
func TestEngine_IssuePair_RevokesPredecessor(t *testing.T) {
	fixture := newEngineFixture(t)
	ctx := context.Background()

	first, err := fixture.engine.IssuePair(ctx, 101, "tai@yomira.app")
	require.NoError(t, err)

	_, err = fixture.engine.IssuePair(ctx, 101, "tai@yomira.app")
	require.NoError(t, err)

	_, err = fixture.engine.Rotate(ctx, first.RefreshToken)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeTokenRevoked))
}

/*
TestEngine_Rotate walks the full rotation chain: the old token dies with each
exchange, and replaying a consumed token is rejected.
*/
func TestEngine_Rotate(t *testing.T) {
	fixture := newEngineFixture(t)
	ctx := context.Background()

	pair, err := fixture.engine.IssuePair(ctx, 101, "tai@yomira.app")
	require.NoError(t, err)

	// First rotation succeeds
	rotated, err := fixture.engine.Rotate(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, rotated.RefreshToken)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// Replaying the consumed token is rejected
	_, err = fixture.engine.Rotate(ctx, pair.RefreshToken)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeTokenRevoked))

	// The freshly issued token still rotates
	_, err = fixture.engine.Rotate(ctx, rotated.RefreshToken)
	require.NoError(t, err)
}

/*
TestEngine_Rotate_Rejections covers the verification gate in front of
rotation: wrong type, expiry, and malformed input.
*/
func TestEngine_Rotate_Rejections(t *testing.T) {
	fixture := newEngineFixture(t)
	ctx := context.Background()

	t.Run("access_token_is_wrong_type", func(t *testing.T) {
		pair, err := fixture.engine.IssuePair(ctx, 101, "tai@yomira.app")
		require.NoError(t, err)

		_, err = fixture.engine.Rotate(ctx, pair.AccessToken)
		require.Error(t, err)
		assert.True(t, apperr.HasCode(err, apperr.CodeWrongTokenType))
	})

	t.Run("expired_refresh_token", func(t *testing.T) {
		expired, err := fixture.signer.Sign(101, "tai@yomira.app", sec.TokenTypeRefresh, -1*time.Second)
		require.NoError(t, err)

		_, err = fixture.engine.Rotate(ctx, expired)
		require.Error(t, err)
		assert.True(t, apperr.HasCode(err, apperr.CodeExpiredToken))
	})

	t.Run("malformed_token", func(t *testing.T) {
		_, err := fixture.engine.Rotate(ctx, "not.a.jwt")
		require.Error(t, err)
		assert.True(t, apperr.HasCode(err, apperr.CodeMalformedToken))
	})
}

/*
TestEngine_Rotate_FailClosed verifies that a storage failure during rotation
surfaces STORAGE_FAILURE and never hands out the new pair.
*/
func TestEngine_Rotate_FailClosed(t *testing.T) {
	fixture := newEngineFixture(t)
	ctx := context.Background()

	pair, err := fixture.engine.IssuePair(ctx, 101, "tai@yomira.app")
	require.NoError(t, err)

	broken := auth.NewEngine(
		fixture.signer,
		&failingRotationRepository{PrincipalRepository: fixture.principals},
		fixture.revocations,
		15*time.Minute,
		30*24*time.Hour,
	)

	rotated, err := broken.Rotate(ctx, pair.RefreshToken)
	require.Error(t, err)
	assert.Nil(t, rotated)
	assert.True(t, apperr.HasCode(err, apperr.CodeStorageFailure))
}

/*
TestEngine_VerifyAccessToken checks the resource-request verification path.
*/
func TestEngine_VerifyAccessToken(t *testing.T) {
	fixture := newEngineFixture(t)
	ctx := context.Background()

	pair, err := fixture.engine.IssuePair(ctx, 101, "tai@yomira.app")
	require.NoError(t, err)

	t.Run("valid_access_token", func(t *testing.T) {
		claims, err := fixture.engine.VerifyAccessToken(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, sec.TokenTypeAccess, claims.TokenType)
	})

	t.Run("refresh_token_rejected", func(t *testing.T) {
		_, err := fixture.engine.VerifyAccessToken(pair.RefreshToken)
		require.Error(t, err)
		assert.True(t, apperr.HasCode(err, apperr.CodeWrongTokenType))
	})

	t.Run("garbage_is_not_authenticated", func(t *testing.T) {
		_, err := fixture.engine.VerifyAccessToken("garbage")
		require.Error(t, err)
		assert.True(t, apperr.HasCode(err, apperr.CodeNotAuthenticated))
	})
}

/*
TestEngine_RevokeRefreshToken verifies logout semantics: revocation is
idempotent and kills future rotations.
*/
func TestEngine_RevokeRefreshToken(t *testing.T) {
	fixture := newEngineFixture(t)
	ctx := context.Background()

	pair, err := fixture.engine.IssuePair(ctx, 101, "tai@yomira.app")
	require.NoError(t, err)

	require.NoError(t, fixture.engine.RevokeRefreshToken(ctx, pair.RefreshToken))

	// Second revocation is a no-op, not an error
	require.NoError(t, fixture.engine.RevokeRefreshToken(ctx, pair.RefreshToken))

	_, err = fixture.engine.Rotate(ctx, pair.RefreshToken)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeTokenRevoked))
}

/*
TestEngine_PruneRevocations verifies that only entries older than the refresh
TTL are reclaimed.
*/
func TestEngine_PruneRevocations(t *testing.T) {
	fixture := newEngineFixture(t)
	ctx := context.Background()

	pair, err := fixture.engine.IssuePair(ctx, 101, "tai@yomira.app")
	require.NoError(t, err)
	require.NoError(t, fixture.engine.RevokeRefreshToken(ctx, pair.RefreshToken))

	// Fresh entries survive the prune
	removed, err := fixture.engine.PruneRevocations(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)

	revoked, err := fixture.revocations.IsRevoked(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.True(t, revoked)
}
