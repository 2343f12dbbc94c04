// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package directory_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-id/internal/identity/directory"
	"github.com/taibuivan/yomira-id/internal/platform/apperr"
)

/*
TestClient_GetByID covers the happy path and the standard error mapping.
*/
func TestClient_GetByID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		switch request.URL.Path {
		case "/api/v1/users/101":
			writer.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(writer).Encode(map[string]any{
				"user_id":   101,
				"username":  "john",
				"email":     "john@yomira.app",
				"is_active": true,
			})
		case "/api/v1/users/404":
			writer.WriteHeader(http.StatusNotFound)
		default:
			writer.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	client := directory.NewClient(server.URL, 5*time.Second)
	ctx := context.Background()

	t.Run("existing_user", func(t *testing.T) {
		user, err := client.GetByID(ctx, 101)
		require.NoError(t, err)
		assert.Equal(t, int64(101), user.ID)
		assert.Equal(t, "john", user.Username)
		assert.Equal(t, "john@yomira.app", user.Email)
		assert.True(t, user.IsActive)
	})

	t.Run("missing_user_maps_to_not_found", func(t *testing.T) {
		_, err := client.GetByID(ctx, 404)
		require.Error(t, err)
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
	})

	t.Run("server_error_maps_to_dependency_unavailable", func(t *testing.T) {
		_, err := client.GetByID(ctx, 500)
		require.Error(t, err)
		assert.True(t, apperr.HasCode(err, apperr.CodeDependencyUnavailable))
	})
}

/*
TestClient_GetByUsername verifies path construction and decoding for the
username lookup.
*/
func TestClient_GetByUsername(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		require.Equal(t, "/api/v1/users/by-username/john", request.URL.Path)
		writer.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(writer).Encode(map[string]any{
			"user_id":   101,
			"username":  "john",
			"email":     "john@yomira.app",
			"is_active": true,
		})
	}))
	defer server.Close()

	client := directory.NewClient(server.URL, 5*time.Second)

	user, err := client.GetByUsername(context.Background(), "john")
	require.NoError(t, err)
	assert.Equal(t, int64(101), user.ID)
}

/*
TestClient_Timeout verifies that a slow directory surfaces as
DEPENDENCY_UNAVAILABLE rather than hanging the login path.
*/
func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		time.Sleep(200 * time.Millisecond)
		writer.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := directory.NewClient(server.URL, 20*time.Millisecond)

	_, err := client.GetByID(context.Background(), 101)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeDependencyUnavailable))
}

/*
TestClient_MalformedBody verifies that an undecodable response is treated as
a dependency failure, not a user error.
*/
func TestClient_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte("{not json"))
	}))
	defer server.Close()

	client := directory.NewClient(server.URL, 5*time.Second)

	_, err := client.GetByID(context.Background(), 101)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeDependencyUnavailable))
}
