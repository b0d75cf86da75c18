package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Abhinav5603/generator-1/internal/cache"
	"github.com/Abhinav5603/generator-1/internal/domain/user"
)

type UserGetter interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

// RevocationStore remembers logged-out token ids until their natural expiry.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Sessions is the authorization gate: it issues tokens for verified users and
// resolves presented tokens back to a live user record.
type Sessions struct {
	jwt     *Manager
	users   UserGetter
	revoked RevocationStore
	log     *slog.Logger
}

func NewSessions(jwt *Manager, users UserGetter, revoked RevocationStore, log *slog.Logger) *Sessions {
	if log == nil {
		log = slog.Default()
	}
	return &Sessions{jwt: jwt, users: users, revoked: revoked, log: log}
}

func (s *Sessions) Issue(userID string) (string, time.Time, error) {
	return s.jwt.Issue(userID)
}

func (s *Sessions) TTL() time.Duration {
	return s.jwt.TTL()
}

// Validate returns the user behind token, or ErrTokenExpired, ErrTokenInvalid,
// ErrTokenRevoked, user.ErrNotFound.
func (s *Sessions) Validate(ctx context.Context, token string) (user.User, *Claims, error) {
	claims, err := s.jwt.Parse(token)
	if err != nil {
		return user.User{}, nil, err
	}

	if s.revoked != nil {
		revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			// signature and expiry already hold
			s.log.WarnContext(ctx, "revocation lookup failed", "err", err)
		} else if revoked {
			return user.User{}, nil, ErrTokenRevoked
		}
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, nil, user.ErrNotFound
		}
		return user.User{}, nil, fmt.Errorf("resolve session user: %w", err)
	}

	return u, claims, nil
}

// Revoke blocks claims' token id for the rest of its lifetime.
func (s *Sessions) Revoke(ctx context.Context, claims *Claims) error {
	if s.revoked == nil || claims == nil || claims.ExpiresAt == nil {
		return nil
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}

	return s.revoked.Revoke(ctx, claims.ID, ttl)
}

// Claims parses a token without the revocation or user lookups. Logout uses it
// to find the jti of the cookie it is clearing.
func (s *Sessions) Claims(token string) (*Claims, error) {
	return s.jwt.Parse(token)
}

// MemoryRevocations keeps revoked ids in an in-process TTL cache. Revocations
// are lost on restart and are not shared between replicas.
type MemoryRevocations struct {
	c *cache.Cache
}

func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{c: cache.New(time.Hour)}
}

func (m *MemoryRevocations) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	m.c.SetWithTTL(jti, struct{}{}, ttl)
	return nil
}

func (m *MemoryRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	_, ok := m.c.Get(jti)
	return ok, nil
}
