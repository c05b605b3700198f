package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount indicates an amount that is not a decimal with at most 2 fractional digits.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrAmountTooSmall indicates an amount below the minimum of 0.01.
	ErrAmountTooSmall = errors.New("transaction amount must be at least 0.01")
	// ErrAmountTooLarge indicates an amount above the operation maximum.
	ErrAmountTooLarge = errors.New("transaction amount exceeds maximum limit")
	// ErrSelfTransfer indicates that sender and receiver are the same account.
	ErrSelfTransfer = errors.New("cannot transfer to the same account")
	// ErrConcurrencyConflict indicates that the unit of work kept losing races on commit.
	ErrConcurrencyConflict = errors.New("concurrent update conflict, retry later")
	// ErrTransactionNotFound indicates that the transaction is not found or not visible to the caller.
	ErrTransactionNotFound = errors.New("transaction not found")
)

// TransactionStatus is the lifecycle state of a journal entry.
//
// Only committed movements are journaled. A rejected transfer or deposit leaves a log line
// and a rejected-movement counter increment, never a row.
type TransactionStatus string

// Journal statuses.
const (
	StatusPending     TransactionStatus = "Pending"
	StatusSuccess     TransactionStatus = "Success"
	StatusCashDeposit TransactionStatus = "Cash Deposit"
)

// Transaction is an immutable journal entry of a money movement.
type Transaction struct {
	ID                int64             `json:"transaction_id"`
	SenderAccountID   int32             `json:"sender_account"`
	ReceiverAccountID int32             `json:"receiver_account"`
	Amount            decimal.Decimal   `json:"amount"`
	Status            TransactionStatus `json:"status"`
	CreatedAt         time.Time         `json:"created_at"`
}

// SignedAmount returns the effect of the transaction on the given account balance.
func (t Transaction) SignedAmount(accountID int32) decimal.Decimal {
	switch {
	case t.SenderAccountID == t.ReceiverAccountID && t.ReceiverAccountID == accountID:
		return t.Amount
	case t.SenderAccountID == accountID:
		return t.Amount.Neg()
	case t.ReceiverAccountID == accountID:
		return t.Amount
	}

	return decimal.Zero
}

// CreateTransactionParams is the input data to append a journal entry.
type CreateTransactionParams struct {
	SenderAccountID   int32
	ReceiverAccountID int32
	Amount            decimal.Decimal
	Status            TransactionStatus
}

// TransferRequest is the unvalidated input of a transfer.
type TransferRequest struct {
	Owner             string
	SenderAccountID   int32
	ReceiverAccountID int32
	Amount            string
	PIN               string
}

// TransferParams is the validated input of the transfer unit of work.
type TransferParams struct {
	Owner             string
	SenderAccountID   int32
	ReceiverAccountID int32
	Amount            decimal.Decimal
}

// TransferResult is the result of the transfer unit of work.
type TransferResult struct {
	Transaction     Transaction
	SenderAccount   Account
	ReceiverAccount Account
}

// DepositRequest is the unvalidated input of a cash deposit.
type DepositRequest struct {
	Owner     string
	AccountID int32
	Amount    string
	PIN       string
}

// DepositParams is the validated input of the deposit unit of work.
type DepositParams struct {
	Owner     string
	AccountID int32
	Amount    decimal.Decimal
}

// DepositResult is the result of the deposit unit of work.
type DepositResult struct {
	Account     Account
	Transaction Transaction
}

// Reconciliation compares a stored balance with the balance replayed from the journal.
type Reconciliation struct {
	AccountID      int32           `json:"account_id"`
	Balance        decimal.Decimal `json:"balance"`
	JournalBalance decimal.Decimal `json:"journal_balance"`
	Entries        int             `json:"entries"`
	Consistent     bool            `json:"consistent"`
}
