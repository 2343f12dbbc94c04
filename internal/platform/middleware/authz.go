// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/taibuivan/yomira-id/internal/platform/apperr"
	"github.com/taibuivan/yomira-id/internal/platform/ctxutil"
	"github.com/taibuivan/yomira-id/internal/platform/respond"
	"github.com/taibuivan/yomira-id/internal/platform/sec"
)

// AccessTokenVerifier defines the interface needed to verify access tokens
// in middleware.
//
// # Why an interface?
//
// Defining AccessTokenVerifier here decouples the middleware from the token
// engine implementation, allowing us to easily inject mocks during unit testing.
type AccessTokenVerifier interface {
	VerifyAccessToken(tokenString string) (*sec.TokenClaims, error)
}

// Authenticate extracts and verifies the JWT from the Authorization header.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous.
//  3. If present, parse and verify the JWT via [AccessTokenVerifier].
//     Refresh tokens presented here are rejected by the verifier.
//  4. Inject [*sec.TokenClaims] into the request context for downstream use.
//
// # Parameters
//   - verifier: The AccessTokenVerifier instance.
//
// # Returns
//   - An [http.Handler] middleware.
func Authenticate(verifier AccessTokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get("Authorization")

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				respond.Error(writer, request, apperr.NotAuthenticated("Invalid authorization format"))
				return
			}

			// ── 3. Token Verification ─────────────────────────────────────────
			tokenString := parts[1]
			claims, err := verifier.VerifyAccessToken(tokenString)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithPrincipal(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
//
// # Flow
//  1. Check if [*sec.TokenClaims] exists in context.
//  2. If missing, abort with HTTP 401 Unauthorized.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		claims := GetPrincipal(request.Context())
		if claims == nil {
			respond.Error(writer, request, apperr.NotAuthenticated("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// GetPrincipal retrieves the [*sec.TokenClaims] from the [context.Context].
//
// # Returns
//   - A pointer to [*sec.TokenClaims] if the caller is authenticated.
//   - nil if the caller is anonymous.
func GetPrincipal(ctx context.Context) *sec.TokenClaims {
	return ctxutil.GetPrincipal(ctx)
}
