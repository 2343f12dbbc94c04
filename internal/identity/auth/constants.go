// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "time"

// # Authentication Constraints

const (
	// DefaultAccessTokenTTL is the duration a JWT access token remains valid.
	// We keep it short (15m) to minimize the impact of a leaked token.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is the duration a refresh token remains valid.
	// Long-lived (30 days) to provide a good user experience.
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour

	// DefaultSessionTTL is the duration a cookie-backed session remains valid.
	DefaultSessionTTL = 24 * time.Hour

	// DefaultThrottleMaxAttempts is the number of failed logins allowed
	// before the account is temporarily blocked.
	DefaultThrottleMaxAttempts = 5

	// DefaultThrottleWindow is how long the failed-attempt counter lives.
	// Every failed attempt restarts the window.
	DefaultThrottleWindow = 5 * time.Minute

	// MinPasswordLength is the minimum accepted password length.
	MinPasswordLength = 8

	// MaxPasswordLength matches the bcrypt input limit of 72 bytes.
	MaxPasswordLength = 72

	// BearerTokenType is the token_type value reported in token responses.
	BearerTokenType = "bearer"
)
