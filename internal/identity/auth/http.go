// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/yomira-id/internal/platform/apperr"
	"github.com/taibuivan/yomira-id/internal/platform/constants"
	"github.com/taibuivan/yomira-id/internal/platform/middleware"
	requestutil "github.com/taibuivan/yomira-id/internal/platform/request"
	"github.com/taibuivan/yomira-id/internal/platform/respond"
	"github.com/taibuivan/yomira-id/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages the token lifecycle entry points (Enrollment, Login,
// Refresh, Logout, Account deletion) and the cookie-session flow.
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /register        : Enrolls credentials for a directory user.
//   - POST /login           : Authenticates and returns a token pair.
//   - POST /refresh         : Rotates a refresh token.
//   - POST /logout          : Revokes the presented refresh token.
//   - DELETE /account       : Removes the caller's credential record.
//   - POST /cookies/login   : Static-token login, sets a session cookie.
//   - GET  /cookies/me      : Resolves the session cookie.
//   - POST /cookies/logout  : Deletes the session.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/refresh", handler.refresh)
	router.Post("/logout", handler.logout)

	// Cookie-session endpoints
	router.Post("/cookies/login", handler.cookieLogin)
	router.Get("/cookies/me", handler.cookieMe)
	router.Post("/cookies/logout", handler.cookieLogout)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Delete("/account", handler.deleteAccount)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	UserID   int64  `json:"user_id"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

/*
Register enrolls authentication credentials for an existing directory user.

POST /api/v1/auth/register

Request:
  - Body: registerRequest (UserID, Password)

Response:
  - 201: Principal: Created credential record
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 404: NotFound: Unknown directory user
  - 409: Conflict: Credentials already enrolled
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Custom("user_id", input.UserID <= 0, "Must be positive").
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, MinPasswordLength).
		MaxLen(FieldPassword, input.Password, MaxPasswordLength)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	principal, err := handler.authService.Register(request.Context(), RegisterInput{
		UserID:   input.UserID,
		Password: input.Password,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, principal)
}

/*
Login authenticates a user and issues a fresh token pair.

POST /api/v1/auth/login

Description: Verifies credentials through the throttle gate, mints a token
pair, and injects a secure refresh token cookie into the response.

Request:
  - Body: loginRequest (Username, Password)

Response:
  - 200: TokenPair: Access and refresh tokens
  - 401: InvalidCredentials: Wrong username or password
  - 429: TooManyAttempts: Account temporarily blocked
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required("username", input.Username)
	validator.Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	pair, err := handler.authService.Login(request.Context(), LoginInput{
		Username: input.Username,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setRefreshCookie(writer, pair.RefreshToken)
	respond.OK(writer, pair)
}

/*
Refresh rotates a refresh token into a brand-new pair.

POST /api/v1/auth/refresh

Description: Accepts the refresh token from the JSON body or, failing that,
the scoped refresh cookie. The old token is dead after this call whether or
not the client saves the new pair.

Request:
  - Body: refreshRequest (RefreshToken, optional when the cookie is present)

Response:
  - 200: TokenPair: New access and refresh tokens
  - 401: ExpiredToken | MalformedToken | TokenRevoked | WrongTokenType
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	refreshToken := handler.extractRefreshToken(request)
	if refreshToken == "" {
		respond.Error(writer, request, apperr.NotAuthenticated("Missing refresh token"))
		return
	}

	pair, err := handler.authService.Refresh(request.Context(), refreshToken)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setRefreshCookie(writer, pair.RefreshToken)
	respond.OK(writer, pair)
}

/*
Logout revokes the presented refresh token and clears the cookie.

POST /api/v1/auth/logout

Response:
  - 204: No Content: Token revoked (idempotent)
  - 401: ExpiredToken | MalformedToken | WrongTokenType
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	refreshToken := handler.extractRefreshToken(request)

	if refreshToken != "" {
		if err := handler.authService.Logout(request.Context(), refreshToken); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	handler.clearRefreshCookie(writer)
	respond.NoContent(writer)
}

/*
DeleteAccount removes the caller's credential record and revokes its tokens.

DELETE /api/v1/auth/account

Description: Requires a valid access token. Outstanding refresh tokens are
revoked in the same transaction as the row removal.

Response:
  - 204: No Content: Record removed
  - 401: NotAuthenticated: Missing or invalid access token
  - 404: NotFound: No credential record for this principal
*/
func (handler *Handler) deleteAccount(writer http.ResponseWriter, request *http.Request) {
	claims := middleware.GetPrincipal(request.Context())
	if claims == nil {
		respond.Error(writer, request, apperr.NotAuthenticated("Authentication required"))
		return
	}

	if err := handler.authService.DeleteAccount(request.Context(), claims.PrincipalID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.clearRefreshCookie(writer)
	respond.NoContent(writer)
}

// # Cookie-Session Endpoints

/*
CookieLogin exchanges a pre-shared static token for a session cookie.

POST /api/v1/auth/cookies/login

Request:
  - Header: X-Auth-Token (pre-shared static token)

Response:
  - 200: SessionData: Created session
  - 401: InvalidCredentials: Unknown static token
*/
func (handler *Handler) cookieLogin(writer http.ResponseWriter, request *http.Request) {
	staticToken := request.Header.Get(constants.StaticTokenHeader)
	if staticToken == "" {
		respond.Error(writer, request, apperr.InvalidCredentials())
		return
	}

	session, err := handler.authService.CookieLogin(request.Context(), staticToken)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    session.SessionID,
		Path:     "/",
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	respond.OK(writer, session)
}

/*
CookieMe resolves the caller's session cookie.

GET /api/v1/auth/cookies/me

Response:
  - 200: SessionData: Current session
  - 401: NotAuthenticated: Missing, unknown, or expired session
*/
func (handler *Handler) cookieMe(writer http.ResponseWriter, request *http.Request) {
	cookie, err := request.Cookie(constants.SessionCookieName)
	if err != nil || cookie.Value == "" {
		respond.Error(writer, request, apperr.NotAuthenticated("Missing session cookie"))
		return
	}

	session, err := handler.authService.CookieSession(request.Context(), cookie.Value)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, session)
}

/*
CookieLogout deletes the caller's session and clears the cookie.

POST /api/v1/auth/cookies/logout

Response:
  - 204: No Content: Session deleted (idempotent)
*/
func (handler *Handler) cookieLogout(writer http.ResponseWriter, request *http.Request) {
	cookie, err := request.Cookie(constants.SessionCookieName)

	if err == nil && cookie != nil && cookie.Value != "" {
		if err := handler.authService.CookieLogout(request.Context(), cookie.Value); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	respond.NoContent(writer)
}

// # Cookie Helpers

// extractRefreshToken reads the refresh token from the JSON body, falling
// back to the scoped refresh cookie.
func (handler *Handler) extractRefreshToken(request *http.Request) string {
	var input refreshRequest
	if err := requestutil.DecodeJSON(request, &input); err == nil && input.RefreshToken != "" {
		return input.RefreshToken
	}

	cookie, err := request.Cookie(constants.RefreshTokenCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return cookie.Value
}

// setRefreshCookie installs the refresh token as a scoped HttpOnly cookie.
func (handler *Handler) setRefreshCookie(writer http.ResponseWriter, refreshToken string) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    refreshToken,
		Path:     constants.RefreshTokenCookiePath,
		MaxAge:   int(handler.authService.engine.RefreshTokenTTL().Seconds()),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearRefreshCookie expires the refresh cookie on the client.
func (handler *Handler) clearRefreshCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    "",
		Path:     constants.RefreshTokenCookiePath,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
