// Package store holds the key-value state shared by the possession tracker
// and the disco simulator: possession snapshots, team→game pointers, the
// watch set, and simulator run state. The production implementation is
// Redis; tests and local runs use the in-memory implementation.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Get when a key is absent or its TTL has lapsed.
var ErrNotFound = errors.New("store: key not found")

// Store defines the key-value operations the engine needs. Values are opaque
// byte payloads (JSON in practice); writes replace the whole value.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set replaces the value at key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Expire resets the TTL on an existing key; absent keys are a no-op.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	SAdd(ctx context.Context, key, member string) error
	SRem(ctx context.Context, key, member string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// GetJSON reads key and unmarshals it into out.
func GetJSON(ctx context.Context, s Store, key string, out any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}

// SetJSON marshals v and writes it at key with the given TTL.
func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.Set(ctx, key, data, ttl)
}
