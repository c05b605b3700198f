package memstore

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-ledger/internal/domain"
)

// Accounts is the in-memory account repository.
type Accounts struct {
	s *Store
}

// Create creates the account with zero balance and then returns it.
func (r *Accounts) Create(_ context.Context, arg domain.CreateAccountParams) (domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[arg.Owner]; !ok {
		return domain.Account{}, domain.ErrOwnerNotFound
	}

	if _, ok := r.s.pinHashes[arg.PinHash]; ok {
		return domain.Account{}, domain.ErrDuplicateCredential
	}

	r.s.nextAccountID++

	a := domain.Account{
		ID:        r.s.nextAccountID,
		Owner:     arg.Owner,
		PinHash:   arg.PinHash,
		Balance:   decimal.Zero,
		CreatedAt: r.s.now(),
	}

	r.s.accounts[a.ID] = &accountEntry{owner: a.Owner, account: a}
	r.s.pinHashes[a.PinHash] = a.ID

	return a, nil
}

// snapshot returns a copy of the account if it is still live.
func (e *accountEntry) snapshot() (domain.Account, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.account, !e.deleted
}

// Get returns the account with the given id if it belongs to owner.
func (r *Accounts) Get(_ context.Context, id int32, owner string) (domain.Account, error) {
	e := r.s.entry(id)
	if e == nil || e.owner != owner {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	a, ok := e.snapshot()
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	return a, nil
}

// Exists reports whether an account with the given id exists regardless of owner.
func (r *Accounts) Exists(_ context.Context, id int32) (bool, error) {
	return r.s.entry(id) != nil, nil
}

// List returns the specified number of accounts for the given user ordered by id.
func (r *Accounts) List(_ context.Context, owner string, limit, offset int32) ([]domain.Account, error) {
	r.s.mu.RLock()

	entries := make([]*accountEntry, 0)
	for _, e := range r.s.accounts {
		if e.owner == owner {
			entries = append(entries, e)
		}
	}

	r.s.mu.RUnlock()

	items := make([]domain.Account, 0, len(entries))

	for _, e := range entries {
		if a, ok := e.snapshot(); ok {
			items = append(items, a)
		}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	return page(items, limit, offset), nil
}

// UpdatePinHash replaces the stored PIN hash of the owner's account.
func (r *Accounts) UpdatePinHash(_ context.Context, id int32, owner, pinHash string) (domain.Account, error) {
	e := r.s.entry(id)
	if e == nil || e.owner != owner {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.deleted {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.pinHashes[pinHash]; ok {
		return domain.Account{}, domain.ErrDuplicateCredential
	}

	delete(r.s.pinHashes, e.account.PinHash)
	r.s.pinHashes[pinHash] = id
	e.account.PinHash = pinHash

	return e.account, nil
}

// Delete removes the owner's account together with its journal entries.
//
// An account referenced by a pending transaction is kept and ErrAccountInUse is returned.
func (r *Accounts) Delete(_ context.Context, id int32, owner string) error {
	e := r.s.entry(id)
	if e == nil || e.owner != owner {
		return domain.ErrAccountNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.deleted {
		return domain.ErrAccountNotFound
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	kept := r.s.transactions[:0:0]

	for _, t := range r.s.transactions {
		touches := t.SenderAccountID == id || t.ReceiverAccountID == id
		if touches && t.Status == domain.StatusPending {
			return domain.ErrAccountInUse
		}

		if !touches {
			kept = append(kept, t)
		}
	}

	r.s.transactions = kept
	delete(r.s.accounts, id)
	delete(r.s.pinHashes, e.account.PinHash)
	e.deleted = true

	return nil
}

func page[T any](items []T, limit, offset int32) []T {
	if offset < 0 || int(offset) >= len(items) {
		return []T{}
	}

	end := len(items)
	if limit > 0 && int(offset)+int(limit) < end {
		end = int(offset) + int(limit)
	}

	return items[offset:end]
}
