// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer.
package sec

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taibuivan/yomira-id/internal/platform/apperr"
)

// # Token Types

// Discriminator values for the 'type' claim. Every token the service issues
// carries exactly one of these, and every decode path checks it before
// trusting the rest of the payload.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenClaims represents the payload embedded inside a signed token.
//
// # Why custom claims?
//
// By embedding the PrincipalID and token type directly inside the JWT,
// any service holding the public key can authenticate requests WITHOUT
// querying this service on every call. This provides massive read-scalability.
type TokenClaims struct {
	jwt.RegisteredClaims

	// Custom application claims.
	PrincipalID int64  `json:"user_id"`
	Email       string `json:"email,omitempty"`
	TokenType   string `json:"type"`
}

// TokenSigner handles generation and verification of JWT tokens using RS256.
//
// The private key signs; the public key verifies. Verification can therefore
// be distributed to other services without exposing signing capability.
type TokenSigner struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
}

// NewTokenSigner creates a new TokenSigner.
// It reads RSA keys from the provided filesystem paths.
func NewTokenSigner(privateKeyPath, publicKeyPath, issuer string) (*TokenSigner, error) {
	privateKeyData, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to read private key from %s: %w", privateKeyPath, err)
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyData)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to parse private key: %w", err)
	}

	publicKeyData, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to read public key from %s: %w", publicKeyPath, err)
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyData)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to parse public key: %w", err)
	}

	return &TokenSigner{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
	}, nil
}

// NewTokenSignerFromKeys creates a TokenSigner from in-memory keys.
// Used by tests and by deployments that load keys from a secret manager
// rather than the filesystem.
func NewTokenSignerFromKeys(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, issuer string) *TokenSigner {
	return &TokenSigner{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
	}
}

// Sign creates a signed token for the given principal.
//
// # Parameters
//   - principalID: The ID of the principal the token represents.
//   - email: The principal's email (informational claim).
//   - tokenType: [TokenTypeAccess] or [TokenTypeRefresh].
//   - timeToLive: The duration before the token expires.
//
// # Returns
//   - A signed JWT string, or an err if signing fails.
func (signer *TokenSigner) Sign(principalID int64, email, tokenType string, timeToLive time.Duration) (string, error) {
	currentTime := time.Now()
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(principalID, 10),
			Issuer:    signer.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		PrincipalID: principalID,
		Email:       email,
		TokenType:   tokenType,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signedToken, err := token.SignedString(signer.privateKey)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// Verify checks the signature and validity of a JWT string.
//
// # Error Mapping
//
// Failures collapse into the two spec-level kinds:
//   - apperr.ExpiredToken when the embedded expiry has passed.
//   - apperr.MalformedToken for any structural or signature failure.
func (signer *TokenSigner) Verify(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return signer.publicKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.ExpiredToken()
		}
		return nil, apperr.MalformedToken(err)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, apperr.MalformedToken(fmt.Errorf("sec: invalid token claims"))
	}

	return claims, nil
}
