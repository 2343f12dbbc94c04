// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package directory provides the HTTP client for the Yomira user directory.

Profile data (username, email, active flag) lives in a separate service; the
authentication layer only consults it, never stores it. This client is the
single integration point.

# Error Mapping

A missing user (HTTP 404) maps to apperr.NotFound so callers can distinguish
"no such user" from "directory is down". Timeouts, transport errors, and any
other non-2xx status map to apperr.DependencyUnavailable. The client performs
no retries; callers decide whether the operation is worth repeating.
*/
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/taibuivan/yomira-id/internal/platform/apperr"
)

// serviceName identifies this dependency in DEPENDENCY_UNAVAILABLE errors.
const serviceName = "user-directory"

// User is the directory's view of an account.
type User struct {
	ID       int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

// Client talks to the user directory service over HTTP.
//
// # Concurrency
//
// Client is safe for concurrent use; it holds only an http.Client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a directory client.
//
// # Parameters
//   - baseURL: Root URL of the directory service (no trailing slash needed).
//   - timeout: Per-request deadline.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

/*
GetByID fetches a directory user by their numeric ID.

Parameters:
  - context: context.Context
  - userID: int64

Returns:
  - *User: Directory profile
  - error: apperr.NotFound or apperr.DependencyUnavailable
*/
func (client *Client) GetByID(context context.Context, userID int64) (*User, error) {
	endpoint := fmt.Sprintf("%s/api/v1/users/%d", client.baseURL, userID)
	return client.fetchUser(context, endpoint)
}

/*
GetByUsername fetches a directory user by their unique username.

Parameters:
  - context: context.Context
  - username: string

Returns:
  - *User: Directory profile
  - error: apperr.NotFound or apperr.DependencyUnavailable
*/
func (client *Client) GetByUsername(context context.Context, username string) (*User, error) {
	endpoint := fmt.Sprintf("%s/api/v1/users/by-username/%s", client.baseURL, url.PathEscape(username))
	return client.fetchUser(context, endpoint)
}

// fetchUser performs the GET and applies the standard error mapping.
func (client *Client) fetchUser(ctx context.Context, endpoint string) (*User, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("directory_client_build_request_failed: %w", err))
	}
	request.Header.Set("Accept", "application/json")

	response, err := client.httpClient.Do(request)
	if err != nil {
		// Covers timeouts, DNS failures, and connection refusals.
		return nil, apperr.DependencyUnavailable(serviceName, err)
	}
	defer func() { _ = response.Body.Close() }()

	switch {
	case response.StatusCode == http.StatusNotFound:
		return nil, apperr.NotFound("User")
	case response.StatusCode < 200 || response.StatusCode > 299:
		return nil, apperr.DependencyUnavailable(serviceName,
			fmt.Errorf("directory_client_unexpected_status: %d", response.StatusCode))
	}

	user := &User{}
	if err := json.NewDecoder(response.Body).Decode(user); err != nil {
		return nil, apperr.DependencyUnavailable(serviceName,
			fmt.Errorf("directory_client_decode_failed: %w", err))
	}

	return user, nil
}
