package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Abhinav5603/generator-1/internal/domain/user"
	"github.com/Abhinav5603/generator-1/internal/security"
	"github.com/google/uuid"
)

var (
	ErrValidation         = errors.New("invalid account input")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// bcrypt ignores input past this many bytes
const maxPasswordBytes = 72

type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

type Service struct {
	users        UserStore
	storeTimeout time.Duration
	log          *slog.Logger
	now          func() time.Time
}

func NewService(users UserStore, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		users:        users,
		storeTimeout: 3 * time.Second,
		log:          log,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a user. It returns user.ErrUsernameTaken or
// user.ErrEmailTaken on conflicts; the unique indexes decide races.
func (s *Service) Register(ctx context.Context, username, email, password string) (user.User, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	password = strings.TrimSpace(password)

	if username == "" || email == "" || password == "" {
		return user.User{}, fmt.Errorf("%w: username, email and password are required", ErrValidation)
	}
	if len(password) > maxPasswordBytes {
		return user.User{}, fmt.Errorf("%w: password is longer than %d bytes", ErrValidation, maxPasswordBytes)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	u := user.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	cctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	created, err := s.users.Create(cctx, u)
	if err != nil {
		return user.User{}, err
	}

	s.log.InfoContext(ctx, "user registered", "user_id", created.ID)
	return created, nil
}

// Verify checks an email and password pair. Unknown email and wrong password
// both report ErrInvalidCredentials.
func (s *Service) Verify(ctx context.Context, email, password string) (user.User, error) {
	email = normalizeEmail(email)
	password = strings.TrimSpace(password)

	if email == "" || password == "" {
		return user.User{}, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	cctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	u, err := s.users.GetByEmail(cctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// burn the same bcrypt time as a real mismatch
			_ = security.CheckPassword(dummyHash(), password)
			return user.User{}, ErrInvalidCredentials
		}
		return user.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := security.CheckPassword(u.PasswordHash, password); err != nil {
		if !errors.Is(err, security.ErrPasswordMismatch) {
			s.log.ErrorContext(ctx, "stored password hash unusable", "user_id", u.ID, "err", err)
		}
		return user.User{}, ErrInvalidCredentials
	}

	return u, nil
}

// ChangePassword replaces the hash after checking current. A wrong current
// password reports ErrInvalidCredentials.
func (s *Service) ChangePassword(ctx context.Context, u user.User, current, next string) error {
	current = strings.TrimSpace(current)
	next = strings.TrimSpace(next)

	if current == "" || next == "" {
		return fmt.Errorf("%w: current password and new password are required", ErrValidation)
	}
	if len(next) > maxPasswordBytes {
		return fmt.Errorf("%w: password is longer than %d bytes", ErrValidation, maxPasswordBytes)
	}

	if err := security.CheckPassword(u.PasswordHash, current); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := security.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	cctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.users.UpdatePasswordHash(cctx, u.ID, hash); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "password changed", "user_id", u.ID)
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (user.User, error) {
	cctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	return s.users.GetByID(cctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var (
	dummyOnce sync.Once
	dummy     string
)

func dummyHash() string {
	dummyOnce.Do(func() {
		dummy, _ = security.HashPassword(uuid.NewString())
	})
	return dummy
}
