// Package accountrepo manages repository layer of accounts.
package accountrepo

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
)

// RepoPGS facilitates account repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns account RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const accountColumns = `id, owner, pin_hash, balance, created_at`

func scanAccount(row interface{ Scan(...any) error }) (domain.Account, error) {
	var a domain.Account

	err := row.Scan(
		&a.ID,
		&a.Owner,
		&a.PinHash,
		&a.Balance,
		&a.CreatedAt,
	)

	return a, err
}

const createQuery = `
INSERT INTO 
    accounts (owner, pin_hash)
VALUES
    ($1, $2)
RETURNING ` + accountColumns

// Create creates the account with zero balance and then returns it.
//
// accounts_pin_hash_key guards a salted hash, so a collision is practically impossible;
// the constraint is kept and mapped anyway.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(r.db.QueryRowContext(ctx, createQuery, arg.Owner, arg.PinHash))
	if err != nil {
		l.Error().Err(err).Str("owner", arg.Owner).Send()

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "accounts_owner_fkey":
				return a, domain.ErrOwnerNotFound
			case "accounts_pin_hash_key":
				return a, domain.ErrDuplicateCredential
			}
		}

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

const getQuery = `
SELECT ` + accountColumns + `
FROM accounts
WHERE id = $1 AND owner = $2
`

// Get returns the account with the given id if it belongs to owner.
func (r *RepoPGS) Get(ctx context.Context, id int32, owner string) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(r.db.QueryRowContext(ctx, getQuery, id, owner))
	if err != nil {
		if err == sql.ErrNoRows {
			l.Info().Err(err).Int32("account_id", id).Send()
			return a, domain.ErrAccountNotFound
		}

		l.Error().Err(err).Send()

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

const existsQuery = `
SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)
`

// Exists reports whether an account with the given id exists regardless of owner.
func (r *RepoPGS) Exists(ctx context.Context, id int32) (bool, error) {
	l := zerolog.Ctx(ctx)

	var exists bool

	if err := r.db.QueryRowContext(ctx, existsQuery, id).Scan(&exists); err != nil {
		l.Error().Err(err).Send()
		return false, errorspkg.ErrInternal
	}

	return exists, nil
}

const getForUpdateQuery = `
SELECT ` + accountColumns + `
FROM accounts
WHERE id = $1
FOR UPDATE
`

// GetForUpdate returns the account and locks its row until the enclosing transaction ends.
func (r *RepoPGS) GetForUpdate(ctx context.Context, id int32) (domain.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, getForUpdateQuery, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return a, domain.ErrAccountNotFound
		}

		// Retryable lock conflicts are classified by the caller.
		return a, err
	}

	return a, nil
}

const addBalanceQuery = `
UPDATE accounts
SET balance = balance + $1
WHERE id = $2
RETURNING ` + accountColumns

// AddBalance changes the account's balance by delta and returns the changed account.
//
// It is the only statement writing accounts.balance.
func (r *RepoPGS) AddBalance(ctx context.Context, delta decimal.Decimal, id int32) (domain.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, addBalanceQuery, delta, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return a, domain.ErrAccountNotFound
		}

		if pqErr, ok := err.(*pq.Error); ok {
			switch {
			case pqErr.Constraint == "accounts_balance_check":
				return a, domain.ErrInsufficientFunds
			case pqErr.Code == dbpkg.CodeNumericOutOfRange:
				return a, domain.ErrBalanceLimit
			}
		}

		return a, err
	}

	return a, nil
}

const updatePinHashQuery = `
UPDATE accounts
SET pin_hash = $1
WHERE id = $2 AND owner = $3
RETURNING ` + accountColumns

// UpdatePinHash replaces the stored PIN hash of the owner's account.
func (r *RepoPGS) UpdatePinHash(ctx context.Context, id int32, owner, pinHash string) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(r.db.QueryRowContext(ctx, updatePinHashQuery, pinHash, id, owner))
	if err != nil {
		if err == sql.ErrNoRows {
			l.Info().Err(err).Int32("account_id", id).Send()
			return a, domain.ErrAccountNotFound
		}

		l.Error().Err(err).Send()

		if dbpkg.ConstraintName(err) == "accounts_pin_hash_key" {
			return a, domain.ErrDuplicateCredential
		}

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

const listQuery = `
SELECT ` + accountColumns + `
FROM accounts
WHERE owner = $1
ORDER BY id
LIMIT $2 OFFSET $3
`

// List returns the specified number of accounts for the given user.
func (r *RepoPGS) List(ctx context.Context, owner string, limit, offset int32) ([]domain.Account, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery, owner, limit, offset)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Account{}

	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, a)
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

const deleteQuery = `
DELETE FROM accounts a
WHERE a.id = $1 AND a.owner = $2
  AND NOT EXISTS (
    SELECT 1 FROM transactions t
    WHERE (t.sender_account_id = a.id OR t.receiver_account_id = a.id)
      AND t.status = 'Pending'
  )
`

const ownedQuery = `
SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1 AND owner = $2)
`

// Delete removes the owner's account together with its journal entries.
//
// An account referenced by a pending transaction is kept and ErrAccountInUse is returned.
func (r *RepoPGS) Delete(ctx context.Context, id int32, owner string) error {
	l := zerolog.Ctx(ctx)

	res, err := r.db.ExecContext(ctx, deleteQuery, id, owner)
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	n, err := res.RowsAffected()
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	if n == 1 {
		return nil
	}

	var owned bool
	if err := r.db.QueryRowContext(ctx, ownedQuery, id, owner).Scan(&owned); err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	if owned {
		return domain.ErrAccountInUse
	}

	return domain.ErrAccountNotFound
}
