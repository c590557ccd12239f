// Package kvstore is the key-value store behind the attribute index and session
// recency windows: strings with expiry, sets, capped lists, and key enumeration.
package kvstore

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable wraps every failure to reach the backing store. Callers treat it as
// a degraded mode and fall back to empty results.
var ErrUnavailable = errors.New("kv store unavailable")

// Store is a minimal key-value store. A missing key is never an error: Get returns
// "", and set and list reads return empty slices.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	// Set stores value; ttl <= 0 means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)

	// PushRecent moves member to the front of the list at key, removes its other
	// occurrences, trims the list to maxLen entries and refreshes the expiry, as one
	// atomic step.
	PushRecent(ctx context.Context, key, member string, maxLen int, ttl time.Duration) error
	// LRange returns list entries start..stop inclusive; negative stop counts from the end.
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	// Keys returns every key matching a glob pattern.
	Keys(ctx context.Context, pattern string) ([]string, error)
	Del(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	Close() error
}
