// Package depositservice manages business logic layer of cash deposits.
package depositservice

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/ledgermetrics"
	"github.com/go-petr/pet-ledger/pkg/moneypkg"
)

// Repo provides the unit of work needed by deposit service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package depositservice
type Repo interface {
	Deposit(ctx context.Context, arg domain.DepositParams) (domain.DepositResult, error)
}

// AccountGetter provides the owner-filtered account lookup.
type AccountGetter interface {
	Get(ctx context.Context, id int32, owner string) (domain.Account, error)
}

// PINVerifier checks a presented PIN against an account.
type PINVerifier interface {
	Verify(account domain.Account, pin string) bool
}

// Service facilitates deposit service layer logic.
type Service struct {
	repo     Repo
	accounts AccountGetter
	guard    PINVerifier
}

// New returns deposit service.
func New(dr Repo, ag AccountGetter, guard PINVerifier) *Service {
	return &Service{
		repo:     dr,
		accounts: ag,
		guard:    guard,
	}
}

func (s *Service) validate(ctx context.Context, req domain.DepositRequest) (domain.DepositParams, error) {
	amount, ok := moneypkg.ParseAmount(req.Amount)
	if !ok {
		return domain.DepositParams{}, domain.ErrInvalidAmount
	}

	switch moneypkg.CheckBounds(amount, moneypkg.MaxDepositAmount) {
	case moneypkg.BelowMin:
		return domain.DepositParams{}, domain.ErrAmountTooSmall
	case moneypkg.AboveMax:
		return domain.DepositParams{}, domain.ErrAmountTooLarge
	}

	account, err := s.accounts.Get(ctx, req.AccountID, req.Owner)
	if err != nil {
		return domain.DepositParams{}, err
	}

	if !s.guard.Verify(account, req.PIN) {
		return domain.DepositParams{}, domain.ErrInvalidPin
	}

	return domain.DepositParams{Owner: req.Owner, AccountID: req.AccountID, Amount: amount}, nil
}

// Deposit validates the request and credits the amount to the account.
func (s *Service) Deposit(ctx context.Context, req domain.DepositRequest) (domain.DepositResult, error) {
	l := zerolog.Ctx(ctx)

	arg, err := s.validate(ctx, req)
	if err == nil {
		var result domain.DepositResult

		result, err = s.repo.Deposit(ctx, arg)
		if err == nil {
			ledgermetrics.Succeeded.WithLabelValues(ledgermetrics.OpDeposit).Inc()
			ledgermetrics.MovedAmount.WithLabelValues(ledgermetrics.OpDeposit).Add(arg.Amount.InexactFloat64())

			l.Info().
				Int64("transaction_id", result.Transaction.ID).
				Int32("account_id", arg.AccountID).
				Str("amount", moneypkg.Format(arg.Amount)).
				Msg("deposit committed")

			return result, nil
		}
	}

	reason := ledgermetrics.Reason(err)
	ledgermetrics.Rejected.WithLabelValues(ledgermetrics.OpDeposit, reason).Inc()

	l.Info().
		Err(err).
		Str("reason", reason).
		Int32("account_id", req.AccountID).
		Str("amount", req.Amount).
		Msg("deposit rejected")

	return domain.DepositResult{}, err
}
