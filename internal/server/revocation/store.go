// Package revocation implements the server-side token allow-list. Every
// issued token is registered under a namespaced key with a TTL matching its
// expiry; a token is only honored while its key still holds LiveValue. This
// lets the server invalidate a still-unexpired token instantly (logout,
// refresh consumption) without token-side revocation lists.
package revocation

import (
	"context"
	"fmt"
	"time"
)

const (
	// LiveValue marks an issuance as valid; anything else means revoked.
	LiveValue = "1"
	// RevokedValue overwrites a key on logout or refresh consumption while
	// keeping its expiry, preserving key history for audit.
	RevokedValue = "0"
)

// Store is the key-value contract consumed by the auth flow. Keys carry a
// per-key TTL; implementations must be safe for concurrent use.
type Store interface {
	// SetWithTTL writes value under key, expiring after ttl.
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns the value under key and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// ClearKeepTTL overwrites the value but retains the remaining expiry.
	// Writing to an absent key is a no-op.
	ClearKeepTTL(ctx context.Context, key, value string) error
}

// AccessKey names the allow-list entry for one access-token issuance.
func AccessKey(userID int64, jti string) string {
	return fmt.Sprintf("access_token:%d:%s", userID, jti)
}

// RefreshKey names the allow-list entry for one refresh-token issuance.
func RefreshKey(userID int64, jti string) string {
	return fmt.Sprintf("refresh_token:%d:%s", userID, jti)
}

// IsLive reports whether the issuance under key is still honored.
func IsLive(ctx context.Context, s Store, key string) (bool, error) {
	value, ok, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return ok && value == LiveValue, nil
}
