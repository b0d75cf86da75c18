package memory

import (
	"context"
	"sync"

	"github.com/Abhinav5603/generator-1/internal/domain/user"
)

// UsersRepo enforces the same uniqueness rules as the postgres table, under a
// single lock.
type UsersRepo struct {
	mu         sync.RWMutex
	items      map[string]user.User
	byEmail    map[string]string
	byUsername map[string]string
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items:      make(map[string]user.User),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
	}
}

func (r *UsersRepo) Create(_ context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUsername[u.Username]; ok {
		return user.User{}, user.ErrUsernameTaken
	}
	if _, ok := r.byEmail[u.Email]; ok {
		return user.User{}, user.ErrEmailTaken
	}

	r.items[u.ID] = u
	r.byEmail[u.Email] = u.ID
	r.byUsername[u.Username] = u.ID

	return u, nil
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.mu.RLock()
	id, ok := r.byEmail[email]
	r.mu.RUnlock()

	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *UsersRepo) UpdatePasswordHash(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]
	if !ok {
		return user.ErrNotFound
	}

	u.PasswordHash = hash
	u.UpdatedAt = now()
	r.items[id] = u

	return nil
}
