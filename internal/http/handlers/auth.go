package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Abhinav5603/generator-1/internal/accounts"
	"github.com/Abhinav5603/generator-1/internal/auth"
	"github.com/Abhinav5603/generator-1/internal/domain/user"
	"github.com/Abhinav5603/generator-1/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type AccountService interface {
	Register(ctx context.Context, username, email, password string) (user.User, error)
	Verify(ctx context.Context, email, password string) (user.User, error)
	ChangePassword(ctx context.Context, u user.User, current, next string) error
}

type SessionIssuer interface {
	Issue(userID string) (string, time.Time, error)
	Claims(token string) (*auth.Claims, error)
	Revoke(ctx context.Context, claims *auth.Claims) error
}

type AuthHandler struct {
	accounts     AccountService
	sessions     SessionIssuer
	secureCookie bool
	log          *slog.Logger
}

func NewAuthHandler(accounts AccountService, sessions SessionIssuer, secureCookie bool, log *slog.Logger) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{
		accounts:     accounts,
		sessions:     sessions,
		secureCookie: secureCookie,
		log:          log,
	}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,max=64"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	u, err := h.accounts.Register(ctx.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, accounts.ErrValidation):
			RespondBadRequest(ctx, err.Error(), nil)
		case errors.Is(err, user.ErrUsernameTaken):
			RespondConflict(ctx, "username_taken", "Username already exists")
		case errors.Is(err, user.ErrEmailTaken):
			RespondConflict(ctx, "email_taken", "Email already exists")
		default:
			respondDependencyError(ctx, err, "Could not create user")
		}
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    u.Summary(),
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	u, err := h.accounts.Verify(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, accounts.ErrInvalidCredentials):
			RespondUnauthorized(ctx, "invalid_credentials", "Invalid email or password")
		case errors.Is(err, accounts.ErrValidation):
			RespondBadRequest(ctx, err.Error(), nil)
		default:
			respondDependencyError(ctx, err, "Could not log in")
		}
		return
	}

	token, expiresAt, err := h.sessions.Issue(u.ID)
	if err != nil {
		respondDependencyError(ctx, err, "Could not create session")
		return
	}

	h.setSessionCookie(ctx, token, expiresAt)

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    u.Summary(),
	})
}

// Logout always clears the cookie. The token id is revoked when the cookie
// still parses.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	raw, err := ctx.Cookie(middlewares.SessionCookie)
	if err == nil && raw != "" {
		if claims, err := h.sessions.Claims(raw); err == nil {
			if err := h.sessions.Revoke(ctx.Request.Context(), claims); err != nil {
				h.log.WarnContext(ctx.Request.Context(), "session revoke failed", "user_id", claims.UserID, "err", err)
			}
		}
	}

	h.clearSessionCookie(ctx)
	ctx.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

func (h *AuthHandler) Profile(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "token_missing", "Token is missing!")
		return
	}

	ctx.JSON(http.StatusOK, u.Summary())
}

func (h *AuthHandler) ChangePassword(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "token_missing", "Token is missing!")
		return
	}

	var req ChangePasswordRequest
	if !BindJSON(ctx, &req) {
		return
	}

	err := h.accounts.ChangePassword(ctx.Request.Context(), u, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, accounts.ErrInvalidCredentials):
			RespondUnauthorized(ctx, "invalid_credentials", "Current password is incorrect")
		case errors.Is(err, accounts.ErrValidation):
			RespondBadRequest(ctx, err.Error(), nil)
		case errors.Is(err, user.ErrNotFound):
			RespondUnauthorized(ctx, "user_not_found", "User not found!")
		default:
			respondDependencyError(ctx, err, "Could not change password")
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// Helper functions

func (h *AuthHandler) setSessionCookie(ctx *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}

	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     middlewares.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(ctx *gin.Context) {
	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     middlewares.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
