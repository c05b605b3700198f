package memstore

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/moneypkg"
)

// Ledger runs transfers and deposits against the in-memory store.
type Ledger struct {
	s *Store
}

// addBalance is the only write of an account balance. e.mu must be held.
func (e *accountEntry) addBalance(delta decimal.Decimal) error {
	next := e.account.Balance.Add(delta)
	if next.IsNegative() {
		return domain.ErrInsufficientFunds
	}

	if next.GreaterThan(moneypkg.MaxBalance) {
		return domain.ErrBalanceLimit
	}

	e.account.Balance = next

	return nil
}

// Transfer moves arg.Amount from the sender to the receiver account and journals it.
func (r *Ledger) Transfer(_ context.Context, arg domain.TransferParams) (domain.TransferResult, error) {
	sender := r.s.entry(arg.SenderAccountID)
	receiver := r.s.entry(arg.ReceiverAccountID)

	if receiver == nil {
		return domain.TransferResult{}, domain.ErrReceiverNotFound
	}

	if sender == nil || sender.owner != arg.Owner {
		return domain.TransferResult{}, domain.ErrAccountNotFound
	}

	if sender == receiver {
		return domain.TransferResult{}, domain.ErrSelfTransfer
	}

	first, second := sender, receiver
	if arg.ReceiverAccountID < arg.SenderAccountID {
		first, second = receiver, sender
	}

	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	if receiver.deleted {
		return domain.TransferResult{}, domain.ErrReceiverNotFound
	}

	if sender.deleted {
		return domain.TransferResult{}, domain.ErrAccountNotFound
	}

	if sender.account.Balance.LessThan(arg.Amount) {
		return domain.TransferResult{}, domain.ErrInsufficientFunds
	}

	if err := sender.addBalance(arg.Amount.Neg()); err != nil {
		return domain.TransferResult{}, err
	}

	if err := receiver.addBalance(arg.Amount); err != nil {
		sender.account.Balance = sender.account.Balance.Add(arg.Amount)
		return domain.TransferResult{}, err
	}

	r.s.mu.Lock()
	t := r.s.appendLocked(domain.CreateTransactionParams{
		SenderAccountID:   arg.SenderAccountID,
		ReceiverAccountID: arg.ReceiverAccountID,
		Amount:            arg.Amount,
		Status:            domain.StatusSuccess,
	})
	r.s.mu.Unlock()

	result := domain.TransferResult{
		Transaction:     t,
		SenderAccount:   sender.account,
		ReceiverAccount: receiver.account,
	}

	return result, nil
}

// Deposit credits arg.Amount to the owner's account and journals a self-referencing entry.
func (r *Ledger) Deposit(_ context.Context, arg domain.DepositParams) (domain.DepositResult, error) {
	e := r.s.entry(arg.AccountID)
	if e == nil || e.owner != arg.Owner {
		return domain.DepositResult{}, domain.ErrAccountNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.deleted {
		return domain.DepositResult{}, domain.ErrAccountNotFound
	}

	if err := e.addBalance(arg.Amount); err != nil {
		return domain.DepositResult{}, err
	}

	r.s.mu.Lock()
	t := r.s.appendLocked(domain.CreateTransactionParams{
		SenderAccountID:   arg.AccountID,
		ReceiverAccountID: arg.AccountID,
		Amount:            arg.Amount,
		Status:            domain.StatusCashDeposit,
	})
	r.s.mu.Unlock()

	return domain.DepositResult{Account: e.account, Transaction: t}, nil
}
