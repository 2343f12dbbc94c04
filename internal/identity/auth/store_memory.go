// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"sync"
	"time"

	"github.com/taibuivan/yomira-id/internal/platform/apperr"
)

// # In-Memory Stores
//
// Mutex-guarded implementations of the persistent store interfaces.
// They back the token engine tests and local development without a
// PostgreSQL instance. Not suitable for multi-process deployments.

// MemoryRevocationStore implements RevocationStore with a mutex-guarded map.
type MemoryRevocationStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

// NewMemoryRevocationStore creates an empty in-memory revocation list.
func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{revoked: make(map[string]time.Time)}
}

// Revoke adds a token to the revocation list (first-writer-wins).
func (store *MemoryRevocationStore) Revoke(_ context.Context, token string) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, exists := store.revoked[token]; exists {
		return false, nil
	}
	store.revoked[token] = time.Now()
	return true, nil
}

// IsRevoked reports whether a token is on the revocation list.
func (store *MemoryRevocationStore) IsRevoked(_ context.Context, token string) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	_, exists := store.revoked[token]
	return exists, nil
}

// DeleteBefore removes entries recorded before the cutoff.
func (store *MemoryRevocationStore) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	var removed int64
	for token, revokedAt := range store.revoked {
		if revokedAt.Before(cutoff) {
			delete(store.revoked, token)
			removed++
		}
	}
	return removed, nil
}

// MemoryPrincipalRepository implements PrincipalRepository with a mutex-guarded map.
//
// It shares a [MemoryRevocationStore] so that SwapRefreshToken and
// RotateRefreshToken observe the same first-writer-wins semantics as the
// PostgreSQL implementation.
type MemoryPrincipalRepository struct {
	mu          sync.Mutex
	principals  map[int64]*Principal
	revocations *MemoryRevocationStore
}

// NewMemoryPrincipalRepository creates an empty in-memory principal repository
// backed by the given revocation store.
func NewMemoryPrincipalRepository(revocations *MemoryRevocationStore) *MemoryPrincipalRepository {
	return &MemoryPrincipalRepository{
		principals:  make(map[int64]*Principal),
		revocations: revocations,
	}
}

// FindByID returns a copy of the stored record.
func (repository *MemoryPrincipalRepository) FindByID(_ context.Context, principalID int64) (*Principal, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	principal, exists := repository.principals[principalID]
	if !exists {
		return nil, apperr.NotFound("Authentication record")
	}

	clone := *principal
	return &clone, nil
}

// Create stores a new record, rejecting duplicates.
func (repository *MemoryPrincipalRepository) Create(_ context.Context, principal *Principal) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if _, exists := repository.principals[principal.PrincipalID]; exists {
		return apperr.Conflict("Credentials already enrolled for this user")
	}

	now := time.Now()
	if principal.CreatedAt.IsZero() {
		principal.CreatedAt = now
	}
	principal.UpdatedAt = now

	clone := *principal
	repository.principals[principal.PrincipalID] = &clone
	return nil
}

// UpdateCredential replaces the stored credential hash.
func (repository *MemoryPrincipalRepository) UpdateCredential(_ context.Context, principalID int64, newHash string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	principal, exists := repository.principals[principalID]
	if !exists {
		return apperr.NotFound("Authentication record")
	}

	principal.CredentialHash = newHash
	principal.UpdatedAt = time.Now()
	return nil
}

// SetActive toggles whether the principal may authenticate.
func (repository *MemoryPrincipalRepository) SetActive(_ context.Context, principalID int64, active bool) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	principal, exists := repository.principals[principalID]
	if !exists {
		return apperr.NotFound("Authentication record")
	}

	principal.IsActive = active
	principal.UpdatedAt = time.Now()
	return nil
}

// SwapRefreshToken revokes the previous token (if any) and installs the new one.
func (repository *MemoryPrincipalRepository) SwapRefreshToken(ctx context.Context, principalID int64, newToken string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	principal, exists := repository.principals[principalID]
	if !exists {
		return apperr.NotFound("Authentication record")
	}

	if principal.RefreshToken != "" {
		if _, err := repository.revocations.Revoke(ctx, principal.RefreshToken); err != nil {
			return err
		}
	}

	principal.RefreshToken = newToken
	principal.UpdatedAt = time.Now()
	return nil
}

// RotateRefreshToken revokes oldToken and installs newToken, failing with
// apperr.TokenRevoked when a concurrent rotation already consumed oldToken.
func (repository *MemoryPrincipalRepository) RotateRefreshToken(ctx context.Context, principalID int64, oldToken, newToken string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	principal, exists := repository.principals[principalID]
	if !exists {
		return apperr.NotFound("Authentication record")
	}

	claimed, err := repository.revocations.Revoke(ctx, oldToken)
	if err != nil {
		return apperr.StorageFailure(err)
	}
	if !claimed {
		return apperr.TokenRevoked()
	}

	principal.RefreshToken = newToken
	principal.UpdatedAt = time.Now()
	return nil
}

// Delete removes the record and revokes its current refresh token.
func (repository *MemoryPrincipalRepository) Delete(ctx context.Context, principalID int64) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	principal, exists := repository.principals[principalID]
	if !exists {
		return apperr.NotFound("Authentication record")
	}

	if principal.RefreshToken != "" {
		if _, err := repository.revocations.Revoke(ctx, principal.RefreshToken); err != nil {
			return err
		}
	}

	delete(repository.principals, principalID)
	return nil
}
