// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/yomira-id/internal/platform/apperr"
	"github.com/taibuivan/yomira-id/internal/platform/constants"
)

// # Failed-Attempt Throttle

// recordFailureScript increments the counter and arms its TTL in one atomic
// step, so a crash between the two commands cannot leave a counter without
// an expiry. Running EXPIRE on every call restarts the window per failure.
var recordFailureScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
redis.call("EXPIRE", KEYS[1], ARGV[1])
return count
`)

// RedisThrottle implements the Throttle interface using Redis counters.
type RedisThrottle struct {
	client      *redis.Client
	maxAttempts int64
	window      time.Duration
}

// NewThrottle creates a new Redis-backed failed-attempt throttle.
//
// # Parameters
//   - client: Redis client.
//   - maxAttempts: Failed logins allowed before the key is blocked.
//   - window: Lifetime of the counter, restarted on every failure.
func NewThrottle(client *redis.Client, maxAttempts int64, window time.Duration) *RedisThrottle {
	return &RedisThrottle{client: client, maxAttempts: maxAttempts, window: window}
}

/*
RecordFailure increments the failed-attempt counter and restarts its window.

Parameters:
  - context: context.Context
  - key: string (Account identifier, not caller IP)

Returns:
  - int64: Counter value after the increment
  - error: Execution errors
*/
func (throttle *RedisThrottle) RecordFailure(context context.Context, key string) (int64, error) {

	// Use constants for key prefix
	redisKey := constants.RedisPrefixThrottle + key

	// Atomic INCR + EXPIRE via Lua
	windowSeconds := int64(throttle.window.Seconds())
	count, err := recordFailureScript.Run(context, throttle.client, []string{redisKey}, windowSeconds).Int64()
	if err != nil {
		return 0, fmt.Errorf("redis_throttle_record_failure_failed: %w", err)
	}

	return count, nil
}

/*
IsBlocked reports whether the key has reached the attempt threshold.

Description: An absent counter means zero attempts. The remaining duration
comes from the key's TTL, so callers can surface an accurate Retry-After.

Parameters:
  - context: context.Context
  - key: string

Returns:
  - bool: true when the threshold is reached
  - time.Duration: Time remaining until the window expires
  - error: Retrieval failures
*/
func (throttle *RedisThrottle) IsBlocked(context context.Context, key string) (bool, time.Duration, error) {

	// Use constants for key prefix
	redisKey := constants.RedisPrefixThrottle + key

	// Read the counter; absence means a clean slate
	count, err := throttle.client.Get(context, redisKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("redis_throttle_is_blocked_failed: %w", err)
	}

	if count < throttle.maxAttempts {
		return false, 0, nil
	}

	// Threshold reached: report how long the caller must wait
	remaining, err := throttle.client.TTL(context, redisKey).Result()
	if err != nil {
		return true, throttle.window, fmt.Errorf("redis_throttle_ttl_failed: %w", err)
	}
	if remaining < 0 {
		remaining = throttle.window
	}

	return true, remaining, nil
}

/*
Clear resets the counter after a successful login.

Parameters:
  - context: context.Context
  - key: string

Returns:
  - error: Deletion failures
*/
func (throttle *RedisThrottle) Clear(context context.Context, key string) error {

	// Use constants for key prefix
	redisKey := constants.RedisPrefixThrottle + key

	// Delete the counter from Redis
	if err := throttle.client.Del(context, redisKey).Err(); err != nil {
		return fmt.Errorf("redis_throttle_clear_failed: %w", err)
	}

	// Return nil on success
	return nil
}

// # Session Store

// RedisSessionStore implements the SessionStore interface using Redis.
type RedisSessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a new Redis-backed SessionStore.
func NewSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

/*
Create stores a session as a JSON value with the given TTL.

Parameters:
  - context: context.Context
  - session: *SessionData
  - ttl: time.Duration

Returns:
  - error: Serialization or storage failures
*/
func (store *RedisSessionStore) Create(context context.Context, session *SessionData, ttl time.Duration) error {

	// Use constants for key prefix
	key := constants.RedisPrefixSession + session.SessionID

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("redis_session_store_marshal_failed: %w", err)
	}

	// Set the session with TTL
	if err := store.client.Set(context, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis_session_store_create_failed: %w", err)
	}

	// Return nil on success
	return nil
}

/*
Find retrieves the session with the given ID.

Description: Returns apperr.NotAuthenticated if the session is absent or
expired, so handlers can pass the error straight through.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - *SessionData: Hydrated session
  - error: apperr.NotAuthenticated or connectivity errors
*/
func (store *RedisSessionStore) Find(context context.Context, sessionID string) (*SessionData, error) {

	// Use constants for key prefix
	key := constants.RedisPrefixSession + sessionID

	// Get the session from Redis
	payload, err := store.client.Get(context, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.NotAuthenticated("Session is invalid or expired")
		}
		return nil, fmt.Errorf("redis_session_store_find_failed: %w", err)
	}

	session := &SessionData{}
	if err := json.Unmarshal(payload, session); err != nil {
		return nil, fmt.Errorf("redis_session_store_unmarshal_failed: %w", err)
	}

	// Return the session
	return session, nil
}

/*
Delete removes the session from Redis.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - error: Deletion failures
*/
func (store *RedisSessionStore) Delete(context context.Context, sessionID string) error {

	// Use constants for key prefix
	key := constants.RedisPrefixSession + sessionID

	// Delete the session from Redis
	if err := store.client.Del(context, key).Err(); err != nil {
		return fmt.Errorf("redis_session_store_delete_failed: %w", err)
	}

	// Return nil on success
	return nil
}
