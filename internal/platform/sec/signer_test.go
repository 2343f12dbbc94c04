// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-id/internal/platform/apperr"
	"github.com/taibuivan/yomira-id/internal/platform/sec"
)

// newTestSigner generates an in-memory RSA key pair for signing tests.
func newTestSigner(t *testing.T) *sec.TokenSigner {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	return sec.NewTokenSignerFromKeys(key, &key.PublicKey, "test-issuer")
}

/*
TestTokenSigner_SignAndVerify checks the round trip of a freshly signed token.
*/
func TestTokenSigner_SignAndVerify(t *testing.T) {
	signer := newTestSigner(t)

	token, err := signer.Sign(42, "user@example.com", sec.TokenTypeAccess, 15*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := signer.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, int64(42), claims.PrincipalID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, sec.TokenTypeAccess, claims.TokenType)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "test-issuer", claims.Issuer)
}

/*
TestTokenSigner_Expiry verifies the boundary behavior around the embedded expiry:
a token past its expiry fails with EXPIRED_TOKEN, one still inside its window
(even by a second) verifies cleanly.
*/
func TestTokenSigner_Expiry(t *testing.T) {
	signer := newTestSigner(t)

	// Already expired at issuance.
	expired, err := signer.Sign(42, "", sec.TokenTypeAccess, -1*time.Second)
	require.NoError(t, err)

	_, err = signer.Verify(expired)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeExpiredToken))

	// Still valid for a moment.
	nearExpiry, err := signer.Sign(42, "", sec.TokenTypeAccess, 2*time.Second)
	require.NoError(t, err)

	_, err = signer.Verify(nearExpiry)
	assert.NoError(t, err)
}

/*
TestTokenSigner_Malformed checks that structural and signature failures map
to MALFORMED_TOKEN rather than leaking parser errors.
*/
func TestTokenSigner_Malformed(t *testing.T) {
	signer := newTestSigner(t)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"empty", ""},
		{"truncated", "eyJhbGciOiJSUzI1NiJ9.eyJzdWIiOiI0MiJ9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := signer.Verify(tt.token)
			require.Error(t, err)
			assert.True(t, apperr.HasCode(err, apperr.CodeMalformedToken))
		})
	}
}

/*
TestTokenSigner_ForeignKey verifies that a token signed by a different key
pair is rejected as malformed.
*/
func TestTokenSigner_ForeignKey(t *testing.T) {
	signer := newTestSigner(t)
	foreign := newTestSigner(t)

	token, err := foreign.Sign(42, "", sec.TokenTypeRefresh, time.Minute)
	require.NoError(t, err)

	_, err = signer.Verify(token)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeMalformedToken))
}
