package memstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/go-petr/pet-ledger/internal/domain"
)

// Sessions is the in-memory session repository.
type Sessions struct {
	s *Store
}

// Create stores the session and then returns it.
func (r *Sessions) Create(_ context.Context, arg domain.CreateSessionParams) (domain.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[arg.Username]; !ok {
		return domain.Session{}, domain.ErrUserNotFound
	}

	sess := domain.Session{
		ID:           arg.ID,
		Username:     arg.Username,
		RefreshToken: arg.RefreshToken,
		UserAgent:    arg.UserAgent,
		ClientIP:     arg.ClientIP,
		IsBlocked:    arg.IsBlocked,
		ExpiresAt:    arg.ExpiresAt,
		CreatedAt:    r.s.now(),
	}

	r.s.sessions[sess.ID] = sess

	return sess, nil
}

// Get returns session with the given id.
func (r *Sessions) Get(_ context.Context, id uuid.UUID) (domain.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sess, ok := r.s.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}

	return sess, nil
}
