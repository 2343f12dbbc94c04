// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/taibuivan/yomira-id/internal/identity/directory"
	"github.com/taibuivan/yomira-id/internal/platform/apperr"
	"github.com/taibuivan/yomira-id/internal/platform/sec"
	"github.com/taibuivan/yomira-id/pkg/uuid"
)

// # Contracts & Types

// DirectoryClient defines the contract for user profile lookups.
//
// # Why an interface?
//
// The directory is a remote service; abstracting it here lets tests swap in
// a local stub without standing up an HTTP server.
type DirectoryClient interface {
	// GetByID fetches a directory user by their numeric ID.
	GetByID(context context.Context, userID int64) (*directory.User, error)

	// GetByUsername fetches a directory user by their unique username.
	GetByUsername(context context.Context, username string) (*directory.User, error)
}

// redisDependency names the volatile store in DEPENDENCY_UNAVAILABLE errors.
const redisDependency = "redis"

// Service implements the credential and token lifecycle use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, throttling,
// or token rotation logic must be reviewed by the security team.
type Service struct {
	principals   PrincipalRepository
	engine       *Engine
	throttle     Throttle
	sessions     SessionStore
	directory    DirectoryClient
	staticTokens map[string]int64
	sessionTTL   time.Duration
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	principals PrincipalRepository,
	engine *Engine,
	throttle Throttle,
	sessions SessionStore,
	directoryClient DirectoryClient,
	staticTokens map[string]int64,
	sessionTTL time.Duration,
) *Service {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &Service{
		principals:   principals,
		engine:       engine,
		throttle:     throttle,
		sessions:     sessions,
		directory:    directoryClient,
		staticTokens: staticTokens,
		sessionTTL:   sessionTTL,
	}
}

// # Enrollment Flow

// RegisterInput holds the data required to enroll credentials for a directory user.
type RegisterInput struct {
	UserID   int64
	Password string
}

/*
Register enrolls authentication credentials for an existing directory user.

Description: The profile must already exist in the directory; this call only
creates the credential record that lets the user log in.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *Principal: Created entity
  - error: apperr.NotFound (unknown directory user), apperr.Forbidden
    (inactive user), apperr.Conflict (already enrolled), storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*Principal, error) {

	// The directory is the authority on who exists and who is active.
	user, err := service.directory.GetByID(context, input.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.Forbidden("User is inactive")
	}

	// Prevent storing plain-text passwords. Default cost is used for balance
	// between security and CPU utilization during enrollment spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	principal := &Principal{
		PrincipalID:    user.ID,
		CredentialHash: hashedPassword,
		IsActive:       true,
	}

	// Persist the credential record; duplicates surface as Conflict.
	if err := service.principals.Create(context, principal); err != nil {
		return nil, err
	}

	return principal, nil
}

// # Login Flow

// LoginInput holds the credentials presented at login.
type LoginInput struct {
	Username string
	Password string
}

/*
Login verifies credentials and issues a fresh token pair.

Description: The throttle gate runs before any credential work, so a blocked
account is rejected even when the password is correct. Every failed attempt
(unknown user, missing enrollment, wrong password) increments the counter and
restarts its window; a successful login clears it.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *TokenPair: Newly minted pair
  - error: apperr.TooManyAttempts, apperr.InvalidCredentials,
    apperr.Forbidden (inactive), apperr.DependencyUnavailable, storage errors
*/
func (service *Service) Login(context context.Context, input LoginInput) (*TokenPair, error) {
	throttleKey := strings.ToLower(strings.TrimSpace(input.Username))

	// ── 1. Throttle Gate ──────────────────────────────────────────────────
	blocked, remaining, err := service.throttle.IsBlocked(context, throttleKey)
	if err != nil {
		return nil, apperr.DependencyUnavailable(redisDependency, err)
	}
	if blocked {
		return nil, apperr.TooManyAttempts(int(remaining.Seconds()))
	}

	// ── 2. Directory Lookup ───────────────────────────────────────────────
	user, err := service.directory.GetByUsername(context, input.Username)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			// Unknown usernames count as failures and collapse into the
			// same client-facing error as a wrong password.
			return nil, service.failLogin(context, throttleKey)
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.Forbidden("User is inactive")
	}

	// ── 3. Credential Verification ────────────────────────────────────────
	principal, err := service.principals.FindByID(context, user.ID)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, service.failLogin(context, throttleKey)
		}
		return nil, wrapStorage(err)
	}
	if !principal.IsActive {
		return nil, apperr.Forbidden("User is inactive")
	}

	if !sec.CheckPasswordHash(input.Password, principal.CredentialHash) {
		return nil, service.failLogin(context, throttleKey)
	}

	// ── 4. Issue Tokens ───────────────────────────────────────────────────
	// Best-effort clear: a failed DEL only means the counter rides out its TTL.
	_ = service.throttle.Clear(context, throttleKey)

	return service.engine.IssuePair(context, user.ID, user.Email)
}

// failLogin records a throttle failure and returns the uniform credential error.
func (service *Service) failLogin(context context.Context, throttleKey string) error {
	if _, err := service.throttle.RecordFailure(context, throttleKey); err != nil {
		return apperr.DependencyUnavailable(redisDependency, err)
	}
	return apperr.InvalidCredentials()
}

// # Token Lifecycle

/*
Refresh exchanges a valid refresh token for a brand-new pair.

Description: The principal must still exist and be active; a refresh token
outliving its account is rejected before rotation.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - *TokenPair: Newly minted pair
  - error: apperr.ExpiredToken, apperr.MalformedToken, apperr.WrongTokenType,
    apperr.TokenRevoked, apperr.Forbidden, apperr.StorageFailure
*/
func (service *Service) Refresh(context context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := service.engine.DecodeRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	principal, err := service.principals.FindByID(context, claims.PrincipalID)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, apperr.TokenRevoked()
		}
		return nil, wrapStorage(err)
	}
	if !principal.IsActive {
		return nil, apperr.Forbidden("User is inactive")
	}

	return service.engine.Rotate(context, refreshToken)
}

/*
Logout revokes the presented refresh token.

Description: Idempotent; logging out twice with the same token succeeds both
times. The token must still be a structurally valid refresh token.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - error: apperr.ExpiredToken, apperr.MalformedToken, apperr.WrongTokenType,
    persistence failures
*/
func (service *Service) Logout(context context.Context, refreshToken string) error {
	if _, err := service.engine.DecodeRefreshToken(refreshToken); err != nil {
		return err
	}
	return service.engine.RevokeRefreshToken(context, refreshToken)
}

/*
DeleteAccount removes the credential record and revokes its refresh token.

Parameters:
  - context: context.Context
  - principalID: int64

Returns:
  - error: apperr.NotFound or storage errors
*/
func (service *Service) DeleteAccount(context context.Context, principalID int64) error {
	return wrapStorageNil(service.principals.Delete(context, principalID))
}

// # Cookie Session Flow

/*
CookieLogin exchanges a pre-shared static token for a cookie-backed session.

Description: Static tokens are compared in constant time. A valid token still
requires the mapped user to exist and be active in the directory.

Parameters:
  - context: context.Context
  - staticToken: string

Returns:
  - *SessionData: Created session
  - error: apperr.InvalidCredentials, apperr.Forbidden,
    apperr.DependencyUnavailable
*/
func (service *Service) CookieLogin(context context.Context, staticToken string) (*SessionData, error) {
	userID, found := service.lookupStaticToken(staticToken)
	if !found {
		return nil, apperr.InvalidCredentials()
	}

	user, err := service.directory.GetByID(context, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.Forbidden("User is inactive")
	}

	session := &SessionData{
		SessionID:   uuid.New(),
		PrincipalID: user.ID,
		Email:       user.Email,
	}

	if err := service.sessions.Create(context, session, service.sessionTTL); err != nil {
		return nil, apperr.DependencyUnavailable(redisDependency, err)
	}

	return session, nil
}

/*
CookieSession resolves a session cookie into its session data.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - *SessionData: Hydrated session
  - error: apperr.NotAuthenticated when absent or expired
*/
func (service *Service) CookieSession(context context.Context, sessionID string) (*SessionData, error) {
	return service.sessions.Find(context, sessionID)
}

/*
CookieLogout deletes the session, invalidating the cookie.

Description: Idempotent; deleting an already-expired session succeeds.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - error: Persistence failures
*/
func (service *Service) CookieLogout(context context.Context, sessionID string) error {
	if err := service.sessions.Delete(context, sessionID); err != nil {
		return apperr.DependencyUnavailable(redisDependency, err)
	}
	return nil
}

// lookupStaticToken scans the static token table in constant time per entry.
func (service *Service) lookupStaticToken(candidate string) (int64, bool) {
	var matchedID int64
	var matched bool

	// Scan every entry so timing does not reveal which token prefix matched.
	for token, userID := range service.staticTokens {
		if sec.ConstantTimeEquals(token, candidate) {
			matchedID = userID
			matched = true
		}
	}

	return matchedID, matched
}

// wrapStorageNil is wrapStorage for error-only call sites.
func wrapStorageNil(err error) error {
	if err == nil {
		return nil
	}
	return wrapStorage(err)
}

// # Configuration Helpers

/*
ParseStaticTokens parses the "token:userID,token:userID" config format.

Parameters:
  - raw: string (Comma-separated token:userID pairs; may be empty)

Returns:
  - map[string]int64: Token to user ID mapping
  - error: Malformed pair or non-numeric user ID
*/
func ParseStaticTokens(raw string) (map[string]int64, error) {
	tokens := make(map[string]int64)
	if strings.TrimSpace(raw) == "" {
		return tokens, nil
	}

	for _, pair := range strings.Split(raw, ",") {
		token, idPart, found := strings.Cut(strings.TrimSpace(pair), ":")
		if !found || token == "" {
			return nil, fmt.Errorf("auth: malformed static token pair %q", pair)
		}
		userID, err := strconv.ParseInt(idPart, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("auth: invalid user ID in static token pair %q: %w", pair, err)
		}
		tokens[token] = userID
	}

	return tokens, nil
}
