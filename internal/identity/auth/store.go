// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # Principal Data Access

// PrincipalRepository defines the data access contract for authentication records.
type PrincipalRepository interface {

	/*
		FindByID returns the authentication record for the given principal.

		Parameters:
		  - context: context.Context
		  - principalID: int64

		Returns:
		  - *Principal: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByID(context context.Context, principalID int64) (*Principal, error)

	/*
		Create persists a brand-new authentication record.

		Parameters:
		  - context: context.Context
		  - principal: *Principal

		Returns:
		  - error: apperr.Conflict on duplicate principal, persistence failures
	*/
	Create(context context.Context, principal *Principal) error

	/*
		UpdateCredential replaces only the principal's credential hash.

		Parameters:
		  - context: context.Context
		  - principalID: int64
		  - newHash: string

		Returns:
		  - error: Persistence failures
	*/
	UpdateCredential(context context.Context, principalID int64, newHash string) error

	/*
		SetActive toggles whether the principal may authenticate.

		Parameters:
		  - context: context.Context
		  - principalID: int64
		  - active: bool

		Returns:
		  - error: Persistence failures
	*/
	SetActive(context context.Context, principalID int64, active bool) error

	/*
		SwapRefreshToken installs newToken as the principal's current refresh
		token and revokes the previous one, atomically. Used at login, where
		the caller holds no prior token. Idempotent when no prior token exists.

		Parameters:
		  - context: context.Context
		  - principalID: int64
		  - newToken: string

		Returns:
		  - error: Persistence failures
	*/
	SwapRefreshToken(context context.Context, principalID int64, newToken string) error

	/*
		RotateRefreshToken atomically revokes oldToken and installs newToken
		as the principal's current refresh token. The revocation write is
		first-writer-wins: if oldToken was already revoked by a concurrent
		rotation, the transaction rolls back and nothing is installed.

		Parameters:
		  - context: context.Context
		  - principalID: int64
		  - oldToken: string
		  - newToken: string

		Returns:
		  - error: apperr.TokenRevoked when losing the rotation race,
		    apperr.StorageFailure when the transaction cannot commit
	*/
	RotateRefreshToken(context context.Context, principalID int64, oldToken, newToken string) error

	/*
		Delete removes the authentication record and revokes its current
		refresh token in the same transaction.

		Parameters:
		  - context: context.Context
		  - principalID: int64

		Returns:
		  - error: Persistence failures
	*/
	Delete(context context.Context, principalID int64) error
}

// # Revocation Data Access

// RevocationStore defines the contract for the persistent revocation list.
//
// Revocation is checked on every refresh: a refresh token found here is dead
// even if its signature and expiry are still valid.
type RevocationStore interface {

	/*
		Revoke adds a token to the revocation list.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - bool: true if this call revoked the token, false if it was
		    already on the list (first-writer-wins)
		  - error: Persistence failures
	*/
	Revoke(context context.Context, token string) (bool, error)

	/*
		IsRevoked reports whether a token is on the revocation list.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - bool: true if revoked
		  - error: Retrieval failures
	*/
	IsRevoked(context context.Context, token string) (bool, error)

	/*
		DeleteBefore physically removes revocation entries recorded before
		the cutoff. Entries older than the refresh TTL are unreachable and
		can be reclaimed.

		Parameters:
		  - context: context.Context
		  - cutoff: time.Time

		Returns:
		  - int64: Number of entries removed
		  - error: Cleanup failures
	*/
	DeleteBefore(context context.Context, cutoff time.Time) (int64, error)
}

// # Volatile Data Access

// SessionStore defines the contract for storing volatile cookie-backed sessions.
type SessionStore interface {

	/*
		Create stores a session for a limited duration.

		Parameters:
		  - context: context.Context
		  - session: *SessionData
		  - ttl: time.Duration

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, session *SessionData, ttl time.Duration) error

	/*
		Find retrieves the session with the given ID.

		Parameters:
		  - context: context.Context
		  - sessionID: string

		Returns:
		  - *SessionData: Hydrated session
		  - error: apperr.NotAuthenticated when absent or expired
	*/
	Find(context context.Context, sessionID string) (*SessionData, error)

	/*
		Delete removes a session on logout.

		Parameters:
		  - context: context.Context
		  - sessionID: string

		Returns:
		  - error: Persistence failures
	*/
	Delete(context context.Context, sessionID string) error
}

// Throttle defines the contract for counting failed login attempts.
//
// Keys identify the account under attack, not the caller's IP. The counter
// must be incremented and armed with its TTL atomically so a crash between
// the two steps cannot leave an immortal counter.
type Throttle interface {

	/*
		RecordFailure increments the failed-attempt counter for the key and
		restarts its expiry window.

		Parameters:
		  - context: context.Context
		  - key: string

		Returns:
		  - int64: Counter value after the increment
		  - error: Persistence failures
	*/
	RecordFailure(context context.Context, key string) (int64, error)

	/*
		IsBlocked reports whether the key has reached the attempt threshold.

		Parameters:
		  - context: context.Context
		  - key: string

		Returns:
		  - bool: true when the threshold is reached
		  - time.Duration: Time remaining until the window expires
		  - error: Retrieval failures
	*/
	IsBlocked(context context.Context, key string) (bool, time.Duration, error)

	/*
		Clear resets the counter after a successful login.

		Parameters:
		  - context: context.Context
		  - key: string

		Returns:
		  - error: Persistence failures
	*/
	Clear(context context.Context, key string) error
}
