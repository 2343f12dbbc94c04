// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

// PostgreSQL implementations of the persistent stores.
//
// Repositories here implement the domain-defined interfaces (e.g.
// [PrincipalRepository]) on a [pgxpool.Pool]. Storage-specific errors (like
// pgx.ErrNoRows) are mapped to [apperr.AppError] values so no storage detail
// leaks past this file.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/yomira-id/internal/platform/apperr"
	"github.com/taibuivan/yomira-id/internal/platform/database/schema"
)

// # Shared Queries

// The revocation insert recurs across rotation, swap, deletion, and explicit
// revocation. The unique index on the token column makes it first-writer-wins.
var revokeInsertQuery = fmt.Sprintf(
	"INSERT INTO %s (%s, %s) VALUES ($1, $2) ON CONFLICT (%s) DO NOTHING",
	schema.AuthRevokedToken.Table, schema.AuthRevokedToken.Token, schema.AuthRevokedToken.RevokedAt,
	schema.AuthRevokedToken.Token,
)

// installTokenQuery makes a refresh token the principal's current one.
var installTokenQuery = fmt.Sprintf(
	"UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1",
	schema.AuthPrincipal.Table, schema.AuthPrincipal.RefreshToken, schema.AuthPrincipal.UpdatedAt,
	schema.AuthPrincipal.UserID,
)

// # Principal Repository

// PostgresPrincipalRepository implements the PrincipalRepository interface using pgx.
type PostgresPrincipalRepository struct {
	pool *pgxpool.Pool
}

// NewPrincipalRepository creates a new PostgreSQL implementation of the PrincipalRepository.
func NewPrincipalRepository(pool *pgxpool.Pool) *PostgresPrincipalRepository {
	return &PostgresPrincipalRepository{pool: pool}
}

/*
FindByID retrieves an authentication record by principal ID.

Parameters:
  - context: context.Context
  - principalID: int64

Returns:
  - *Principal: Hydrated entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresPrincipalRepository) FindByID(context context.Context, principalID int64) (*Principal, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1`,
		schema.AuthPrincipal.UserID, schema.AuthPrincipal.CredentialHash, schema.AuthPrincipal.IsActive,
		schema.AuthPrincipal.RefreshToken, schema.AuthPrincipal.CreatedAt, schema.AuthPrincipal.UpdatedAt,
		schema.AuthPrincipal.Table, schema.AuthPrincipal.UserID,
	)

	principal := &Principal{}
	err := repository.pool.QueryRow(context, query, principalID).Scan(
		&principal.PrincipalID,
		&principal.CredentialHash,
		&principal.IsActive,
		&principal.RefreshToken,
		&principal.CreatedAt,
		&principal.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Authentication record")
		}
		return nil, fmt.Errorf("postgres_principal_repo_find_by_id_failed: %w", err)
	}

	return principal, nil
}

/*
Create persists a new authentication record into the auth.principal table.

Description: Enrolls credentials for an existing directory user, initializing
timestamps if not provided.

Parameters:
  - context: context.Context
  - principal: *Principal (Entity to persist)

Returns:
  - error: apperr.Conflict on duplicate principal, connectivity errors
*/
func (repository *PostgresPrincipalRepository) Create(context context.Context, principal *Principal) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		schema.AuthPrincipal.Table,
		schema.AuthPrincipal.UserID, schema.AuthPrincipal.CredentialHash, schema.AuthPrincipal.IsActive,
		schema.AuthPrincipal.RefreshToken, schema.AuthPrincipal.CreatedAt, schema.AuthPrincipal.UpdatedAt,
	)

	now := time.Now()
	if principal.CreatedAt.IsZero() {
		principal.CreatedAt = now
	}
	principal.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		principal.PrincipalID,
		principal.CredentialHash,
		principal.IsActive,
		principal.RefreshToken,
		principal.CreatedAt,
		principal.UpdatedAt,
	)

	if err != nil {
		var pgError *pgconn.PgError
		if errors.As(err, &pgError) && pgError.Code == pgerrcode.UniqueViolation {
			return apperr.Conflict("Credentials already enrolled for this user")
		}
		return fmt.Errorf("postgres_principal_repo_create_failed: %w", err)
	}

	return nil
}

/*
UpdateCredential updates only the credential hash for a specific principal.

Parameters:
  - context: context.Context
  - principalID: int64
  - newHash: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresPrincipalRepository) UpdateCredential(context context.Context, principalID int64, newHash string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3
		WHERE %s = $1`,
		schema.AuthPrincipal.Table,
		schema.AuthPrincipal.CredentialHash, schema.AuthPrincipal.UpdatedAt,
		schema.AuthPrincipal.UserID,
	)

	_, err := repository.pool.Exec(context, query, principalID, newHash, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_principal_repo_update_credential_failed: %w", err)
	}

	return nil
}

/*
SetActive toggles whether the principal may authenticate.

Parameters:
  - context: context.Context
  - principalID: int64
  - active: bool

Returns:
  - error: Execution errors
*/
func (repository *PostgresPrincipalRepository) SetActive(context context.Context, principalID int64, active bool) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3
		WHERE %s = $1`,
		schema.AuthPrincipal.Table,
		schema.AuthPrincipal.IsActive, schema.AuthPrincipal.UpdatedAt,
		schema.AuthPrincipal.UserID,
	)

	_, err := repository.pool.Exec(context, query, principalID, active, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_principal_repo_set_active_failed: %w", err)
	}

	return nil
}

/*
SwapRefreshToken installs a new current refresh token at login time.

Description: Reads the previous token under a row lock, pushes it onto the
revocation list if one exists, then installs the replacement. All three steps
commit or roll back together, so a principal never ends up with two live
refresh tokens.

Parameters:
  - context: context.Context
  - principalID: int64
  - newToken: string

Returns:
  - error: apperr.StorageFailure when the transaction cannot commit
*/
func (repository *PostgresPrincipalRepository) SwapRefreshToken(context context.Context, principalID int64, newToken string) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_principal_repo_swap_begin_failed: %w", err)
	}
	defer func() { _ = transaction.Rollback(context) }()

	// 1. Lock the row and read the token being replaced
	lockQuery := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1 FOR UPDATE",
		schema.AuthPrincipal.RefreshToken, schema.AuthPrincipal.Table, schema.AuthPrincipal.UserID,
	)

	var previousToken string
	err = transaction.QueryRow(context, lockQuery, principalID).Scan(&previousToken)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("Authentication record")
		}
		return fmt.Errorf("postgres_principal_repo_swap_lock_failed: %w", err)
	}

	// 2. Revoke the previous token, if any (idempotent)
	if previousToken != "" {
		_, err = transaction.Exec(context, revokeInsertQuery, previousToken, time.Now())
		if err != nil {
			return fmt.Errorf("postgres_principal_repo_swap_revoke_failed: %w", err)
		}
	}

	// 3. Install the replacement
	_, err = transaction.Exec(context, installTokenQuery, principalID, newToken, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_principal_repo_swap_update_failed: %w", err)
	}

	if err := transaction.Commit(context); err != nil {
		return apperr.StorageFailure(err)
	}

	return nil
}

/*
RotateRefreshToken exchanges the current refresh token for a new one.

Description: The revocation insert is the linearization point. Under
concurrent rotations of the same token, exactly one transaction inserts the
revocation row; the loser observes zero affected rows, rolls back, and gets
apperr.TokenRevoked. The new token only becomes current if the commit
succeeds, so a failed write can never leave a usable pair behind.

Parameters:
  - context: context.Context
  - principalID: int64
  - oldToken: string
  - newToken: string

Returns:
  - error: apperr.TokenRevoked when losing the rotation race,
    apperr.StorageFailure when the transaction cannot commit
*/
func (repository *PostgresPrincipalRepository) RotateRefreshToken(context context.Context, principalID int64, oldToken, newToken string) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_principal_repo_rotate_begin_failed: %w", err)
	}
	defer func() { _ = transaction.Rollback(context) }()

	// 1. Claim the old token on the revocation list (first-writer-wins)
	commandTag, err := transaction.Exec(context, revokeInsertQuery, oldToken, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_principal_repo_rotate_revoke_failed: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		// A concurrent rotation already consumed this token.
		return apperr.TokenRevoked()
	}

	// 2. Install the replacement as the principal's current token
	_, err = transaction.Exec(context, installTokenQuery, principalID, newToken, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_principal_repo_rotate_update_failed: %w", err)
	}

	if err := transaction.Commit(context); err != nil {
		return apperr.StorageFailure(err)
	}

	return nil
}

/*
Delete removes an authentication record and revokes its current refresh token.

Description: Account deletion leaves no live tokens behind. The row removal
and the revocation insert commit together.

Parameters:
  - context: context.Context
  - principalID: int64

Returns:
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresPrincipalRepository) Delete(context context.Context, principalID int64) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_principal_repo_delete_begin_failed: %w", err)
	}
	defer func() { _ = transaction.Rollback(context) }()

	// 1. Remove the row, capturing the token being orphaned
	deleteQuery := fmt.Sprintf(
		"DELETE FROM %s WHERE %s = $1 RETURNING %s",
		schema.AuthPrincipal.Table, schema.AuthPrincipal.UserID, schema.AuthPrincipal.RefreshToken,
	)

	var currentToken string
	err = transaction.QueryRow(context, deleteQuery, principalID).Scan(&currentToken)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("Authentication record")
		}
		return fmt.Errorf("postgres_principal_repo_delete_failed: %w", err)
	}

	// 2. Revoke the orphaned token so it cannot be replayed
	if currentToken != "" {
		_, err = transaction.Exec(context, revokeInsertQuery, currentToken, time.Now())
		if err != nil {
			return fmt.Errorf("postgres_principal_repo_delete_revoke_failed: %w", err)
		}
	}

	if err := transaction.Commit(context); err != nil {
		return apperr.StorageFailure(err)
	}

	return nil
}

// # Revocation Store

// PostgresRevocationStore implements the RevocationStore interface.
type PostgresRevocationStore struct {
	pool *pgxpool.Pool
}

// NewRevocationStore creates a new PostgreSQL implementation of RevocationStore.
func NewRevocationStore(pool *pgxpool.Pool) *PostgresRevocationStore {
	return &PostgresRevocationStore{pool: pool}
}

/*
Revoke adds a token to the auth.revokedtoken table.

Description: The unique index on the token column makes revocation
first-writer-wins; a second revocation of the same token is a no-op.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - bool: true if this call revoked the token
  - error: Persistence failures
*/
func (store *PostgresRevocationStore) Revoke(context context.Context, token string) (bool, error) {
	commandTag, err := store.pool.Exec(context, revokeInsertQuery, token, time.Now())
	if err != nil {
		return false, fmt.Errorf("postgres_revocation_store_revoke_failed: %w", err)
	}

	return commandTag.RowsAffected() > 0, nil
}

/*
IsRevoked reports whether a token is on the revocation list.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - bool: true if revoked
  - error: Retrieval failures
*/
func (store *PostgresRevocationStore) IsRevoked(context context.Context, token string) (bool, error) {
	query := fmt.Sprintf(
		"SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)",
		schema.AuthRevokedToken.Table, schema.AuthRevokedToken.Token,
	)

	var revoked bool
	if err := store.pool.QueryRow(context, query, token).Scan(&revoked); err != nil {
		return false, fmt.Errorf("postgres_revocation_store_is_revoked_failed: %w", err)
	}

	return revoked, nil
}

/*
DeleteBefore permanently removes revocation entries recorded before the cutoff.

Description: Cleanup task to reclaim storage. Entries older than the refresh
TTL belong to tokens that would fail expiry checks anyway.

Parameters:
  - context: context.Context
  - cutoff: time.Time

Returns:
  - int64: Number of entries removed
  - error: Cleanup failures
*/
func (store *PostgresRevocationStore) DeleteBefore(context context.Context, cutoff time.Time) (int64, error) {
	query := fmt.Sprintf(
		"DELETE FROM %s WHERE %s < $1",
		schema.AuthRevokedToken.Table, schema.AuthRevokedToken.RevokedAt,
	)

	commandTag, err := store.pool.Exec(context, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres_revocation_store_delete_before_failed: %w", err)
	}

	return commandTag.RowsAffected(), nil
}
