// Package transferservice manages business logic layer of transfers.
package transferservice

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/ledgermetrics"
	"github.com/go-petr/pet-ledger/pkg/moneypkg"
)

// Repo provides the unit of work needed by transfer service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package transferservice
type Repo interface {
	Transfer(ctx context.Context, arg domain.TransferParams) (domain.TransferResult, error)
}

// AccountReader provides account lookups needed to validate a transfer.
type AccountReader interface {
	Get(ctx context.Context, id int32, owner string) (domain.Account, error)
	Exists(ctx context.Context, id int32) (bool, error)
}

// PINVerifier checks a presented PIN against an account.
type PINVerifier interface {
	Verify(account domain.Account, pin string) bool
}

// Service facilitates transfer service layer logic.
type Service struct {
	repo     Repo
	accounts AccountReader
	guard    PINVerifier
}

// New return transfer service struct to manage transfer bussines logic.
func New(tr Repo, ar AccountReader, guard PINVerifier) *Service {
	return &Service{
		repo:     tr,
		accounts: ar,
		guard:    guard,
	}
}

// validate runs the checks in order and returns the first failure.
func (s *Service) validate(ctx context.Context, req domain.TransferRequest) (domain.TransferParams, error) {
	amount, ok := moneypkg.ParseAmount(req.Amount)
	if !ok {
		return domain.TransferParams{}, domain.ErrInvalidAmount
	}

	switch moneypkg.CheckBounds(amount, moneypkg.MaxTransferAmount) {
	case moneypkg.BelowMin:
		return domain.TransferParams{}, domain.ErrAmountTooSmall
	case moneypkg.AboveMax:
		return domain.TransferParams{}, domain.ErrAmountTooLarge
	}

	if req.SenderAccountID == req.ReceiverAccountID {
		return domain.TransferParams{}, domain.ErrSelfTransfer
	}

	exists, err := s.accounts.Exists(ctx, req.ReceiverAccountID)
	if err != nil {
		return domain.TransferParams{}, err
	}

	if !exists {
		return domain.TransferParams{}, domain.ErrReceiverNotFound
	}

	sender, err := s.accounts.Get(ctx, req.SenderAccountID, req.Owner)
	if err != nil {
		return domain.TransferParams{}, err
	}

	if sender.Balance.LessThan(amount) {
		return domain.TransferParams{}, domain.ErrInsufficientFunds
	}

	if !s.guard.Verify(sender, req.PIN) {
		return domain.TransferParams{}, domain.ErrInvalidPin
	}

	arg := domain.TransferParams{
		Owner:             req.Owner,
		SenderAccountID:   req.SenderAccountID,
		ReceiverAccountID: req.ReceiverAccountID,
		Amount:            amount,
	}

	return arg, nil
}

// Transfer checks if transfer request is valid and then executes transfer.
//
// A rejected transfer is logged and counted but never journaled.
func (s *Service) Transfer(ctx context.Context, req domain.TransferRequest) (domain.TransferResult, error) {
	l := zerolog.Ctx(ctx)

	arg, err := s.validate(ctx, req)
	if err == nil {
		var result domain.TransferResult

		result, err = s.repo.Transfer(ctx, arg)
		if err == nil {
			ledgermetrics.Succeeded.WithLabelValues(ledgermetrics.OpTransfer).Inc()
			ledgermetrics.MovedAmount.WithLabelValues(ledgermetrics.OpTransfer).Add(arg.Amount.InexactFloat64())

			l.Info().
				Int64("transaction_id", result.Transaction.ID).
				Int32("sender_account", arg.SenderAccountID).
				Int32("receiver_account", arg.ReceiverAccountID).
				Str("amount", moneypkg.Format(arg.Amount)).
				Msg("transfer committed")

			return result, nil
		}
	}

	reason := ledgermetrics.Reason(err)
	ledgermetrics.Rejected.WithLabelValues(ledgermetrics.OpTransfer, reason).Inc()

	l.Info().
		Err(err).
		Str("reason", reason).
		Int32("sender_account", req.SenderAccountID).
		Int32("receiver_account", req.ReceiverAccountID).
		Str("amount", req.Amount).
		Msg("transfer rejected")

	return domain.TransferResult{}, err
}
