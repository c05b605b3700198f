// Package journalservice manages business logic layer of the transaction journal.
package journalservice

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
	"github.com/go-petr/pet-ledger/pkg/moneypkg"
)

// Repo provides data access layer interface needed by journal service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package journalservice
type Repo interface {
	Get(ctx context.Context, id int64, owner string) (domain.Transaction, error)
	List(ctx context.Context, owner string, limit, offset int32) ([]domain.Transaction, error)
	ListByAccount(ctx context.Context, accountID int32) ([]domain.Transaction, error)
}

// AccountGetter provides the owner-filtered account lookup.
type AccountGetter interface {
	Get(ctx context.Context, id int32, owner string) (domain.Account, error)
}

// Service facilitates journal service layer logic.
type Service struct {
	repo     Repo
	accounts AccountGetter
}

// New returns journal service.
func New(jr Repo, ag AccountGetter) *Service {
	return &Service{
		repo:     jr,
		accounts: ag,
	}
}

// Get returns the transaction if owner holds its sender or receiver account.
func (s *Service) Get(ctx context.Context, id int64, owner string) (domain.Transaction, error) {
	return s.repo.Get(ctx, id, owner)
}

// List returns a page of the owner's transactions.
func (s *Service) List(ctx context.Context, owner string, pageSize, pageID int32) ([]domain.Transaction, error) {
	limit := pageSize
	offset := dbpkg.PageOffset(pageID, pageSize)

	return s.repo.List(ctx, owner, limit, offset)
}

// Reconcile replays the account's journal and compares the result with the stored balance.
func (s *Service) Reconcile(ctx context.Context, accountID int32, owner string) (domain.Reconciliation, error) {
	account, err := s.accounts.Get(ctx, accountID, owner)
	if err != nil {
		return domain.Reconciliation{}, err
	}

	entries, err := s.repo.ListByAccount(ctx, accountID)
	if err != nil {
		return domain.Reconciliation{}, err
	}

	journalBalance := decimal.Zero
	for _, t := range entries {
		journalBalance = journalBalance.Add(t.SignedAmount(accountID))
	}

	r := domain.Reconciliation{
		AccountID:      accountID,
		Balance:        account.Balance,
		JournalBalance: journalBalance,
		Entries:        len(entries),
		Consistent:     account.Balance.Equal(journalBalance),
	}

	if !r.Consistent {
		zerolog.Ctx(ctx).Error().
			Int32("account_id", accountID).
			Str("balance", moneypkg.Format(r.Balance)).
			Str("journal_balance", moneypkg.Format(r.JournalBalance)).
			Msg("balance does not match journal")
	}

	return r, nil
}
