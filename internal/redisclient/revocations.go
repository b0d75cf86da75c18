package redisclient

import (
	"context"
	"time"
)

const revokedPrefix = "revoked:"

// Revocations is the redis-backed session revocation list. Keys expire with
// the token they block, so the set never outgrows the live sessions.
type Revocations struct {
	c *Client
}

func NewRevocations(c *Client) *Revocations {
	return &Revocations{c: c}
}

func (r *Revocations) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.c.redisdb.Set(ctx, revokedPrefix+jti, 1, ttl).Err()
}

func (r *Revocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.c.redisdb.Exists(ctx, revokedPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
