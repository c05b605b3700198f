package memstore

import (
	"context"

	"github.com/go-petr/pet-ledger/internal/domain"
)

// Journal is the in-memory transaction journal.
type Journal struct {
	s *Store
}

// Append inserts a journal entry without touching balances.
func (r *Journal) Append(_ context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error) {
	if !arg.Amount.IsPositive() {
		return domain.Transaction{}, domain.ErrAmountTooSmall
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.accounts[arg.SenderAccountID] == nil || r.s.accounts[arg.ReceiverAccountID] == nil {
		return domain.Transaction{}, domain.ErrAccountNotFound
	}

	return r.s.appendLocked(arg), nil
}

// visibleLocked reports whether owner holds either side of t. s.mu must be held.
func (s *Store) visibleLocked(t domain.Transaction, owner string) bool {
	for _, id := range [...]int32{t.SenderAccountID, t.ReceiverAccountID} {
		if e := s.accounts[id]; e != nil && e.owner == owner {
			return true
		}
	}

	return false
}

// Get returns the transaction if owner holds its sender or receiver account.
func (r *Journal) Get(_ context.Context, id int64, owner string) (domain.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, t := range r.s.transactions {
		if t.ID == id && r.s.visibleLocked(t, owner) {
			return t, nil
		}
	}

	return domain.Transaction{}, domain.ErrTransactionNotFound
}

// List returns the transactions touching any account of owner ordered by id.
func (r *Journal) List(_ context.Context, owner string, limit, offset int32) ([]domain.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	items := []domain.Transaction{}

	for _, t := range r.s.transactions {
		if r.s.visibleLocked(t, owner) {
			items = append(items, t)
		}
	}

	return page(items, limit, offset), nil
}

// ListByAccount returns the full history of one account.
func (r *Journal) ListByAccount(_ context.Context, accountID int32) ([]domain.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	items := []domain.Transaction{}

	for _, t := range r.s.transactions {
		if t.SenderAccountID == accountID || t.ReceiverAccountID == accountID {
			items = append(items, t)
		}
	}

	return items, nil
}
