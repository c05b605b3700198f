// Package journalrepo manages repository layer of the transaction journal.
package journalrepo

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
)

// RepoPGS facilitates journal repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns journal RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const transactionColumns = `t.id, t.sender_account_id, t.receiver_account_id, t.amount, t.status, t.created_at`

func scanTransaction(row interface{ Scan(...any) error }) (domain.Transaction, error) {
	var t domain.Transaction

	err := row.Scan(
		&t.ID,
		&t.SenderAccountID,
		&t.ReceiverAccountID,
		&t.Amount,
		&t.Status,
		&t.CreatedAt,
	)

	return t, err
}

const appendQuery = `
INSERT INTO transactions AS t
    (sender_account_id, receiver_account_id, amount, status)
VALUES
    ($1, $2, $3, $4)
RETURNING ` + transactionColumns

// Append inserts a journal entry and returns it.
//
// Entries are never updated afterwards.
func (r *RepoPGS) Append(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx, appendQuery,
		arg.SenderAccountID,
		arg.ReceiverAccountID,
		arg.Amount,
		arg.Status,
	))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "transactions_sender_account_id_fkey", "transactions_receiver_account_id_fkey":
				return t, domain.ErrAccountNotFound
			case "transactions_amount_check":
				return t, domain.ErrAmountTooSmall
			}
		}

		return t, err
	}

	return t, nil
}

const getQuery = `
SELECT ` + transactionColumns + `
FROM transactions t
WHERE t.id = $1
  AND EXISTS (
    SELECT 1 FROM accounts a
    WHERE a.owner = $2 AND a.id IN (t.sender_account_id, t.receiver_account_id)
  )
`

// Get returns the transaction if owner holds its sender or receiver account.
func (r *RepoPGS) Get(ctx context.Context, id int64, owner string) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	t, err := scanTransaction(r.db.QueryRowContext(ctx, getQuery, id, owner))
	if err != nil {
		if err == sql.ErrNoRows {
			l.Info().Err(err).Int64("transaction_id", id).Send()
			return t, domain.ErrTransactionNotFound
		}

		l.Error().Err(err).Send()

		return t, errorspkg.ErrInternal
	}

	return t, nil
}

const listQuery = `
SELECT ` + transactionColumns + `
FROM transactions t
WHERE EXISTS (
    SELECT 1 FROM accounts a
    WHERE a.owner = $1 AND a.id IN (t.sender_account_id, t.receiver_account_id)
)
ORDER BY t.id
LIMIT $2 OFFSET $3
`

// List returns the transactions touching any account of owner.
func (r *RepoPGS) List(ctx context.Context, owner string, limit, offset int32) ([]domain.Transaction, error) {
	return r.query(ctx, listQuery, owner, limit, offset)
}

const listByAccountQuery = `
SELECT ` + transactionColumns + `
FROM transactions t
WHERE t.sender_account_id = $1 OR t.receiver_account_id = $1
ORDER BY t.id
`

// ListByAccount returns the full history of one account.
func (r *RepoPGS) ListByAccount(ctx context.Context, accountID int32) ([]domain.Transaction, error) {
	return r.query(ctx, listByAccountQuery, accountID)
}

func (r *RepoPGS) query(ctx context.Context, query string, args ...any) ([]domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Transaction{}

	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, t)
	}

	if err := rows.Close(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}
