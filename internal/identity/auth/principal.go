// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the credential and token lifecycle layer of Yomira ID.

It defines the core domain entities (Principal, SessionData) and logic for
credential verification, token issuance, rotation, revocation, and failed-login
throttling.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no external
dependencies and encapsulate all business rules related to authentication.
User profile data lives in the separate directory service; this package only
stores what it needs to authenticate: the credential hash, the active flag,
and the current refresh token.
*/
package auth

import "time"

// # Domain Entities

// Principal represents the authentication record for a directory user.
//
// The PrincipalID matches the user's ID in the directory service. Exactly one
// refresh token is considered current per principal; issuing a new one
// invalidates the previous.
type Principal struct {
	PrincipalID    int64     `json:"user_id"`
	CredentialHash string    `json:"-"` // Explicitly omitted from JSON for security.
	IsActive       bool      `json:"is_active"`
	RefreshToken   string    `json:"-"` // Current refresh token. Omitted for security.
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SessionData represents a cookie-backed session stored in Redis.
type SessionData struct {
	SessionID   string    `json:"session_id"`
	PrincipalID int64     `json:"user_id"`
	Email       string    `json:"email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TokenPair is the result of a successful issuance or rotation.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldRefreshToken = "refresh_token"
	FieldAccessToken  = "access_token"
	FieldTokenType    = "token_type"
	FieldExpiresIn    = "expires_in"
	FieldSessionID    = "session_id"
	FieldMessage      = "message"
)
