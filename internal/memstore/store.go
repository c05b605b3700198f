// Package memstore keeps users, sessions, accounts and the journal in process memory.
//
// It implements the same repository contracts as the PostgreSQL repositories. Every
// account has its own mutex; a unit of work locks the accounts it touches in ascending
// id order, then takes the store lock to append to the journal. The store lock is never
// held while waiting on an account lock.
package memstore

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/go-petr/pet-ledger/internal/domain"
)

type accountEntry struct {
	mu      sync.Mutex
	owner   string // immutable
	account domain.Account
	deleted bool
}

// Store holds all in-memory state.
type Store struct {
	mu sync.RWMutex

	users    map[string]domain.User
	emails   map[string]struct{}
	sessions map[uuid.UUID]domain.Session

	accounts      map[int32]*accountEntry
	pinHashes     map[string]int32
	nextAccountID int32

	transactions []domain.Transaction
	nextTxID     int64

	now func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		users:     make(map[string]domain.User),
		emails:    make(map[string]struct{}),
		sessions:  make(map[uuid.UUID]domain.Session),
		accounts:  make(map[int32]*accountEntry),
		pinHashes: make(map[string]int32),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Users returns the user repository view.
func (s *Store) Users() *Users { return &Users{s} }

// Sessions returns the session repository view.
func (s *Store) Sessions() *Sessions { return &Sessions{s} }

// Accounts returns the account repository view.
func (s *Store) Accounts() *Accounts { return &Accounts{s} }

// Journal returns the transaction journal view.
func (s *Store) Journal() *Journal { return &Journal{s} }

// Ledger returns the unit of work view.
func (s *Store) Ledger() *Ledger { return &Ledger{s} }

// entry returns the live entry of an account or nil.
func (s *Store) entry(id int32) *accountEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.accounts[id]
}

// appendLocked appends a journal entry. s.mu must be held for writing.
func (s *Store) appendLocked(arg domain.CreateTransactionParams) domain.Transaction {
	s.nextTxID++

	t := domain.Transaction{
		ID:                s.nextTxID,
		SenderAccountID:   arg.SenderAccountID,
		ReceiverAccountID: arg.ReceiverAccountID,
		Amount:            arg.Amount,
		Status:            arg.Status,
		CreatedAt:         s.now(),
	}

	s.transactions = append(s.transactions, t)

	return t
}
