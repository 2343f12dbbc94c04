// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-id/internal/identity/auth"
	"github.com/taibuivan/yomira-id/internal/platform/constants"
	"github.com/taibuivan/yomira-id/internal/platform/middleware"
)

// newTestRouter mounts the auth routes behind the real authentication middleware.
func newTestRouter(fixture *serviceFixture) http.Handler {
	handler := auth.NewHandler(fixture.service)

	router := chi.NewRouter()
	router.Use(middleware.Authenticate(fixture.engine))
	router.Mount("/api/v1/auth", handler.Routes())
	return router
}

// doJSON performs a JSON request against the test router.
func doJSON(t *testing.T, router http.Handler, method, target string, body any, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var buffer bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buffer).Encode(body))
	}

	request := httptest.NewRequest(method, target, &buffer)
	request.Header.Set("Content-Type", "application/json")
	if mutate != nil {
		mutate(request)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

// decodeData unwraps the standard success envelope into target.
func decodeData(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()

	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, target))
}

// refreshCookie digs the refresh token cookie out of a recorded response.
func refreshCookie(t *testing.T, recorder *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == constants.RefreshTokenCookieName {
			return cookie
		}
	}
	t.Fatalf("refresh token cookie not set")
	return nil
}

/*
TestHandler_Login verifies the login endpoint: token pair in the body and the
refresh token mirrored into a scoped HttpOnly cookie.
*/
func TestHandler_Login(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.enroll(t, 101, "qwerty-secret")
	router := newTestRouter(fixture)

	recorder := doJSON(t, router, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"username": "john", "password": "qwerty-secret"}, nil)

	require.Equal(t, http.StatusOK, recorder.Code)

	var pair auth.TokenPair
	decodeData(t, recorder, &pair)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, auth.BearerTokenType, pair.TokenType)

	cookie := refreshCookie(t, recorder)
	assert.Equal(t, pair.RefreshToken, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, constants.RefreshTokenCookiePath, cookie.Path)
}

/*
TestHandler_Login_Failures covers validation and credential rejections at the
transport level.
*/
func TestHandler_Login_Failures(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.enroll(t, 101, "qwerty-secret")
	router := newTestRouter(fixture)

	t.Run("missing_fields", func(t *testing.T) {
		recorder := doJSON(t, router, http.MethodPost, "/api/v1/auth/login",
			map[string]string{"username": "john"}, nil)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "VALIDATION_ERROR")
	})

	t.Run("wrong_password", func(t *testing.T) {
		recorder := doJSON(t, router, http.MethodPost, "/api/v1/auth/login",
			map[string]string{"username": "john", "password": "wrong"}, nil)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "INVALID_CREDENTIALS")
	})
}

/*
TestHandler_Refresh verifies rotation via the cookie fallback and the
one-use property of refresh tokens over HTTP.
*/
func TestHandler_Refresh(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.enroll(t, 101, "qwerty-secret")
	router := newTestRouter(fixture)

	login := doJSON(t, router, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"username": "john", "password": "qwerty-secret"}, nil)
	require.Equal(t, http.StatusOK, login.Code)
	cookie := refreshCookie(t, login)

	// Rotate using only the cookie
	refreshed := doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", nil,
		func(request *http.Request) { request.AddCookie(cookie) })
	require.Equal(t, http.StatusOK, refreshed.Code)

	var pair auth.TokenPair
	decodeData(t, refreshed, &pair)
	assert.NotEqual(t, cookie.Value, pair.RefreshToken)

	// Replaying the consumed cookie is rejected
	replayed := doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", nil,
		func(request *http.Request) { request.AddCookie(cookie) })
	assert.Equal(t, http.StatusUnauthorized, replayed.Code)
	assert.Contains(t, replayed.Body.String(), "TOKEN_REVOKED")

	// Missing token entirely
	missing := doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, missing.Code)
}

/*
TestHandler_Logout verifies revocation plus cookie clearing.
*/
func TestHandler_Logout(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.enroll(t, 101, "qwerty-secret")
	router := newTestRouter(fixture)

	login := doJSON(t, router, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"username": "john", "password": "qwerty-secret"}, nil)
	cookie := refreshCookie(t, login)

	logout := doJSON(t, router, http.MethodPost, "/api/v1/auth/logout", nil,
		func(request *http.Request) { request.AddCookie(cookie) })
	require.Equal(t, http.StatusNoContent, logout.Code)

	cleared := refreshCookie(t, logout)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)

	// The revoked token no longer rotates
	replayed := doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", nil,
		func(request *http.Request) { request.AddCookie(cookie) })
	assert.Equal(t, http.StatusUnauthorized, replayed.Code)
}

/*
TestHandler_DeleteAccount verifies that the endpoint demands a valid access
token and removes the credential record.
*/
func TestHandler_DeleteAccount(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.enroll(t, 101, "qwerty-secret")
	router := newTestRouter(fixture)

	login := doJSON(t, router, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"username": "john", "password": "qwerty-secret"}, nil)

	var pair auth.TokenPair
	decodeData(t, login, &pair)

	t.Run("anonymous_rejected", func(t *testing.T) {
		recorder := doJSON(t, router, http.MethodDelete, "/api/v1/auth/account", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("authenticated_deletion", func(t *testing.T) {
		recorder := doJSON(t, router, http.MethodDelete, "/api/v1/auth/account", nil,
			func(request *http.Request) {
				request.Header.Set("Authorization", "Bearer "+pair.AccessToken)
			})
		require.Equal(t, http.StatusNoContent, recorder.Code)

		// Credentials are gone: the next login fails
		retry := doJSON(t, router, http.MethodPost, "/api/v1/auth/login",
			map[string]string{"username": "john", "password": "qwerty-secret"}, nil)
		assert.Equal(t, http.StatusUnauthorized, retry.Code)
	})
}

/*
TestHandler_CookieFlow covers the static-token session endpoints end to end.
*/
func TestHandler_CookieFlow(t *testing.T) {
	fixture := newServiceFixture(t)
	router := newTestRouter(fixture)

	t.Run("missing_static_token", func(t *testing.T) {
		recorder := doJSON(t, router, http.MethodPost, "/api/v1/auth/cookies/login", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("session_lifecycle", func(t *testing.T) {
		login := doJSON(t, router, http.MethodPost, "/api/v1/auth/cookies/login", nil,
			func(request *http.Request) {
				request.Header.Set(constants.StaticTokenHeader, testStaticToken)
			})
		require.Equal(t, http.StatusOK, login.Code)

		var sessionCookie *http.Cookie
		for _, cookie := range login.Result().Cookies() {
			if cookie.Name == constants.SessionCookieName {
				sessionCookie = cookie
			}
		}
		require.NotNil(t, sessionCookie)
		require.NotEmpty(t, sessionCookie.Value)

		me := doJSON(t, router, http.MethodGet, "/api/v1/auth/cookies/me", nil,
			func(request *http.Request) { request.AddCookie(sessionCookie) })
		require.Equal(t, http.StatusOK, me.Code)

		var session auth.SessionData
		decodeData(t, me, &session)
		assert.Equal(t, int64(101), session.PrincipalID)

		logout := doJSON(t, router, http.MethodPost, "/api/v1/auth/cookies/logout", nil,
			func(request *http.Request) { request.AddCookie(sessionCookie) })
		require.Equal(t, http.StatusNoContent, logout.Code)

		gone := doJSON(t, router, http.MethodGet, "/api/v1/auth/cookies/me", nil,
			func(request *http.Request) { request.AddCookie(sessionCookie) })
		assert.Equal(t, http.StatusUnauthorized, gone.Code)
	})
}
