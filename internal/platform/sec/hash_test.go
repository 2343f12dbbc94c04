// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-id/internal/platform/sec"
)

/*
TestHashPassword verifies the bcrypt round trip and mismatch rejection.
*/
func TestHashPassword(t *testing.T) {
	hash, err := sec.HashPassword("qwerty")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.True(t, sec.CheckPasswordHash("qwerty", hash))
	assert.False(t, sec.CheckPasswordHash("not-qwerty", hash))
	assert.False(t, sec.CheckPasswordHash("qwerty", "not-a-bcrypt-hash"))
}

/*
TestGenerateSecureToken verifies length and uniqueness of generated tokens.
*/
func TestGenerateSecureToken(t *testing.T) {
	first, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)
	assert.Len(t, first, 64) // hex doubles the byte length

	second, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

/*
TestConstantTimeEquals checks the comparison helper used for static tokens.
*/
func TestConstantTimeEquals(t *testing.T) {
	assert.True(t, sec.ConstantTimeEquals("static-token", "static-token"))
	assert.False(t, sec.ConstantTimeEquals("static-token", "static-tokeN"))
	assert.False(t, sec.ConstantTimeEquals("short", "longer-value"))
}
