package revocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "revoked:access:"

// RedisList stores revoked access tokens until they would have expired anyway.
// Keys hold a SHA-256 of the token rather than the token itself.
type RedisList struct {
	client *redis.Client
	prefix string
}

// NewRedisList creates a revocation list. Prefix may be empty.
func NewRedisList(client *redis.Client, prefix string) *RedisList {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &RedisList{client: client, prefix: prefix}
}

func (r *RedisList) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return r.prefix + hex.EncodeToString(sum[:])
}

// Revoke marks token as revoked for ttl. A non-positive ttl is a no-op since
// the token is already expired.
func (r *RedisList) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if r == nil || r.client == nil || ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, r.key(token), "1", ttl).Err()
}

// IsRevoked returns true when the token is in the list. A nil list or
// client reports (false, nil).
func (r *RedisList) IsRevoked(ctx context.Context, token string) (bool, error) {
	if r == nil || r.client == nil {
		return false, nil
	}
	n, err := r.client.Exists(ctx, r.key(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
