package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Abhinav5603/generator-1/internal/actorctx"
	"github.com/Abhinav5603/generator-1/internal/auth"
	"github.com/Abhinav5603/generator-1/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (user.User, *auth.Claims, error)
}

type AuthMiddleware struct {
	sessions SessionValidator
	log      *slog.Logger
}

func NewAuthMiddleware(sessions SessionValidator, log *slog.Logger) *AuthMiddleware {
	if log == nil {
		log = slog.Default()
	}
	return &AuthMiddleware{sessions: sessions, log: log}
}

// RequireAuth rejects the request unless the session cookie resolves to a
// live user.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(SessionCookie)
		if err != nil || raw == "" {
			abort(c, http.StatusUnauthorized, "token_missing", "Token is missing!")
			return
		}

		u, claims, err := m.sessions.Validate(c.Request.Context(), raw)
		if err != nil {
			m.reject(c, err)
			return
		}

		setIdentity(c, u, claims)
		c.Next()
	}
}

// OptionalAuth attaches the user when a valid cookie is present. A missing or
// bad cookie leaves the request anonymous.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(SessionCookie)
		if err == nil && raw != "" {
			if u, claims, err := m.sessions.Validate(c.Request.Context(), raw); err == nil {
				setIdentity(c, u, claims)
			}
		}
		c.Next()
	}
}

func (m *AuthMiddleware) reject(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		abort(c, http.StatusUnauthorized, "token_expired", "Token has expired!")
	case errors.Is(err, auth.ErrTokenInvalid), errors.Is(err, auth.ErrTokenRevoked):
		abort(c, http.StatusUnauthorized, "token_invalid", "Invalid token!")
	case errors.Is(err, user.ErrNotFound):
		abort(c, http.StatusUnauthorized, "user_not_found", "User not found!")
	default:
		m.log.ErrorContext(c.Request.Context(), "session validation failed", "err", err)
		abort(c, http.StatusServiceUnavailable, "service_unavailable", "Could not verify session")
	}
}

func setIdentity(c *gin.Context, u user.User, claims *auth.Claims) {
	c.Set(CtxUser, u)
	c.Set(CtxClaims, claims)
	c.Set(CtxUserID, u.ID)
	c.Request = c.Request.WithContext(actorctx.WithUserID(c.Request.Context(), u.ID))
}

// Optional helpers so handlers don’t need to know the magic keys.

func UserFromContext(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(CtxUser)
	if !ok {
		return user.User{}, false
	}
	u, ok := v.(user.User)
	return u, ok
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	id := c.GetString(CtxUserID)
	return id, id != ""
}
