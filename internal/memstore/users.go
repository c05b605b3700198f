package memstore

import (
	"context"

	"github.com/go-petr/pet-ledger/internal/domain"
)

// Users is the in-memory user repository.
type Users struct {
	s *Store
}

// Create creates the user and then returns it.
func (r *Users) Create(_ context.Context, arg domain.CreateUserParams) (domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[arg.Username]; ok {
		return domain.User{}, domain.ErrUsernameAlreadyExists
	}

	if _, ok := r.s.emails[arg.Email]; ok {
		return domain.User{}, domain.ErrEmailAlreadyExists
	}

	u := domain.User{
		Username:       arg.Username,
		HashedPassword: arg.HashedPassword,
		FullName:       arg.FullName,
		Email:          arg.Email,
		CreatedAt:      r.s.now(),
	}

	r.s.users[u.Username] = u
	r.s.emails[u.Email] = struct{}{}

	return u, nil
}

// Get returns the user with the given username.
func (r *Users) Get(_ context.Context, username string) (domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[username]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}

	return u, nil
}
