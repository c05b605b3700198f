// Package domain provides definitions of all ledger entities and their errors.
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrAccountNotFound indicates that the account is not found or is not owned by the caller.
	ErrAccountNotFound = errors.New("account not found")
	// ErrReceiverNotFound indicates that the transfer receiver account does not exist.
	ErrReceiverNotFound = errors.New("receiver account not found")
	// ErrOwnerNotFound indicates that the owner for the account is not found.
	ErrOwnerNotFound = errors.New("owner not found")
	// ErrAccountInUse indicates that the account is referenced by a pending transaction.
	ErrAccountInUse = errors.New("account is referenced by a pending transaction")
	// ErrInvalidPinFormat indicates that the PIN is not exactly 4 digits.
	ErrInvalidPinFormat = errors.New("PIN must be exactly 4 digits")
	// ErrInvalidPin indicates that the PIN does not match the account.
	ErrInvalidPin = errors.New("invalid PIN")
	// ErrDuplicateCredential indicates that another account already stores the same PIN hash.
	ErrDuplicateCredential = errors.New("duplicate account credential")
	// ErrInsufficientFunds indicates that the account balance cannot cover the amount.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrBalanceLimit indicates that a credit would take the balance above the storable maximum.
	ErrBalanceLimit = errors.New("account balance limit exceeded")
)

// Account holds a user balance protected by a PIN.
type Account struct {
	ID        int32           `json:"account_id"`
	Owner     string          `json:"owner"`
	PinHash   string          `json:"-"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

// CreateAccountParams is the input data to create an account.
type CreateAccountParams struct {
	Owner   string
	PinHash string
}
