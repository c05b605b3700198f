// Package ledgerrepo runs money movements as atomic units of work over accounts and the journal.
package ledgerrepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/accountrepo"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/journalrepo"
	"github.com/go-petr/pet-ledger/internal/ledgermetrics"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
)

const maxRetryDelay = time.Second

// RepoPGS facilitates ledger repository layer logic.
type RepoPGS struct {
	conn       *sql.DB
	maxRetries int
	baseDelay  time.Duration
}

// NewRepoPGS returns ledger RepoPGS with connection to start transactions.
func NewRepoPGS(conn *sql.DB, maxRetries int, baseDelay time.Duration) *RepoPGS {
	return &RepoPGS{
		conn:       conn,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
	}
}

type unitOfWork func(accounts *accountrepo.RepoPGS, journal *journalrepo.RepoPGS) error

// execTx executes fn within a database transaction.
func (r *RepoPGS) execTx(ctx context.Context, fn unitOfWork) error {
	l := zerolog.Ctx(ctx)

	tx, err := r.conn.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			l.Error().Err(err).Send()
		}
	}()

	if err := fn(accountrepo.NewRepoPGS(tx), journalrepo.NewRepoPGS(tx)); err != nil {
		return err
	}

	return tx.Commit()
}

// run executes fn, re-running it on serialization failures and deadlocks.
func (r *RepoPGS) run(ctx context.Context, op string, fn unitOfWork) error {
	l := zerolog.Ctx(ctx)

	for attempt := 0; ; attempt++ {
		err := r.execTx(ctx, fn)
		if err == nil {
			return nil
		}

		if !dbpkg.IsRetryable(err) {
			if isDomainError(err) {
				return err
			}

			l.Error().Err(err).Str("operation", op).Send()

			return errorspkg.ErrInternal
		}

		if attempt >= r.maxRetries {
			l.Warn().Err(err).Str("operation", op).Int("attempts", attempt+1).Msg("giving up on unit of work")
			return domain.ErrConcurrencyConflict
		}

		ledgermetrics.Retries.WithLabelValues(op).Inc()
		l.Info().Err(err).Str("operation", op).Int("attempt", attempt+1).Msg("retrying unit of work")

		if err := dbpkg.Sleep(ctx, dbpkg.Backoff(attempt+1, r.baseDelay, maxRetryDelay)); err != nil {
			return err
		}
	}
}

var domainErrors = []error{
	domain.ErrAccountNotFound,
	domain.ErrReceiverNotFound,
	domain.ErrInsufficientFunds,
	domain.ErrBalanceLimit,
	domain.ErrAmountTooSmall,
}

func isDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}

// Transfer moves arg.Amount from the sender to the receiver account and journals it.
//
// Both rows are locked in ascending id order, then the ownership and sufficiency checks are
// repeated against the locked balance. Any failure leaves no trace.
func (r *RepoPGS) Transfer(ctx context.Context, arg domain.TransferParams) (domain.TransferResult, error) {
	var result domain.TransferResult

	err := r.run(ctx, ledgermetrics.OpTransfer, func(accounts *accountrepo.RepoPGS, journal *journalrepo.RepoPGS) error {
		result = domain.TransferResult{}

		firstID, secondID := arg.SenderAccountID, arg.ReceiverAccountID
		if firstID > secondID {
			firstID, secondID = secondID, firstID
		}

		locked := make(map[int32]domain.Account, 2)

		for _, id := range []int32{firstID, secondID} {
			a, err := accounts.GetForUpdate(ctx, id)
			if err != nil {
				if err == domain.ErrAccountNotFound && id == arg.ReceiverAccountID {
					return domain.ErrReceiverNotFound
				}

				return err
			}

			locked[id] = a
		}

		sender := locked[arg.SenderAccountID]
		if sender.Owner != arg.Owner {
			return domain.ErrAccountNotFound
		}

		if sender.Balance.LessThan(arg.Amount) {
			return domain.ErrInsufficientFunds
		}

		for _, id := range []int32{firstID, secondID} {
			delta := arg.Amount
			if id == arg.SenderAccountID {
				delta = delta.Neg()
			}

			a, err := accounts.AddBalance(ctx, delta, id)
			if err != nil {
				return err
			}

			if id == arg.SenderAccountID {
				result.SenderAccount = a
			} else {
				result.ReceiverAccount = a
			}
		}

		t, err := journal.Append(ctx, domain.CreateTransactionParams{
			SenderAccountID:   arg.SenderAccountID,
			ReceiverAccountID: arg.ReceiverAccountID,
			Amount:            arg.Amount,
			Status:            domain.StatusSuccess,
		})
		if err != nil {
			return err
		}

		result.Transaction = t

		return nil
	})
	if err != nil {
		return domain.TransferResult{}, err
	}

	return result, nil
}

// Deposit credits arg.Amount to the owner's account and journals a self-referencing entry.
func (r *RepoPGS) Deposit(ctx context.Context, arg domain.DepositParams) (domain.DepositResult, error) {
	var result domain.DepositResult

	err := r.run(ctx, ledgermetrics.OpDeposit, func(accounts *accountrepo.RepoPGS, journal *journalrepo.RepoPGS) error {
		result = domain.DepositResult{}

		a, err := accounts.GetForUpdate(ctx, arg.AccountID)
		if err != nil {
			return err
		}

		if a.Owner != arg.Owner {
			return domain.ErrAccountNotFound
		}

		result.Account, err = accounts.AddBalance(ctx, arg.Amount, arg.AccountID)
		if err != nil {
			return err
		}

		result.Transaction, err = journal.Append(ctx, domain.CreateTransactionParams{
			SenderAccountID:   arg.AccountID,
			ReceiverAccountID: arg.AccountID,
			Amount:            arg.Amount,
			Status:            domain.StatusCashDeposit,
		})

		return err
	})
	if err != nil {
		return domain.DepositResult{}, err
	}

	return result, nil
}
