// Package helpers seeds database records for integration tests.
package helpers

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/go-petr/pet-ledger/internal/accountrepo"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/journalrepo"
	"github.com/go-petr/pet-ledger/internal/sessionrepo"
	"github.com/go-petr/pet-ledger/internal/userrepo"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
	"github.com/go-petr/pet-ledger/pkg/passpkg"
	"github.com/go-petr/pet-ledger/pkg/randompkg"
)

// SeedPIN is the PIN of every seeded account.
const SeedPIN = "1234"

// SeedUser creates random User.
func SeedUser(t *testing.T, db dbpkg.SQLInterface) domain.User {
	t.Helper()

	hashedPassword, err := passpkg.HashCost(randompkg.String(32), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("passpkg.HashCost(randompkg.String(32), bcrypt.MinCost) returned error: %v", err)
	}

	arg := domain.CreateUserParams{
		Username:       randompkg.Owner(),
		HashedPassword: hashedPassword,
		FullName:       randompkg.String(10),
		Email:          randompkg.Email(),
	}

	user, err := userrepo.NewRepoPGS(db).Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("userRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return user
}

// SeedAccount creates an empty Account protected by SeedPIN.
func SeedAccount(t *testing.T, db dbpkg.SQLInterface, owner string) domain.Account {
	t.Helper()

	pinHash, err := passpkg.HashCost(SeedPIN, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("passpkg.HashCost(%v, bcrypt.MinCost) returned error: %v", SeedPIN, err)
	}

	arg := domain.CreateAccountParams{Owner: owner, PinHash: pinHash}

	account, err := accountrepo.NewRepoPGS(db).Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("accountRepo.Create(context.Background(), %v) returned error: %v", owner, err)
	}

	return account
}

// SeedAccountWithBalance creates an Account funded by a cash deposit of balance.
//
// The deposit is journaled so that the account reconciles.
func SeedAccountWithBalance(t *testing.T, db dbpkg.SQLInterface, owner, balance string) domain.Account {
	t.Helper()

	account := SeedAccount(t, db, owner)

	amount := decimal.RequireFromString(balance)
	if amount.IsZero() {
		return account
	}

	account, err := accountrepo.NewRepoPGS(db).AddBalance(context.Background(), amount, account.ID)
	if err != nil {
		t.Fatalf("accountRepo.AddBalance(context.Background(), %v, %v) returned error: %v", amount, account.ID, err)
	}

	SeedTransaction(t, db, account.ID, account.ID, balance, domain.StatusCashDeposit)

	return account
}

// SeedTransaction appends a journal entry without touching balances.
func SeedTransaction(t *testing.T, db dbpkg.SQLInterface, senderID, receiverID int32, amount string, status domain.TransactionStatus) domain.Transaction {
	t.Helper()

	arg := domain.CreateTransactionParams{
		SenderAccountID:   senderID,
		ReceiverAccountID: receiverID,
		Amount:            decimal.RequireFromString(amount),
		Status:            status,
	}

	tr, err := journalrepo.NewRepoPGS(db).Append(context.Background(), arg)
	if err != nil {
		t.Fatalf("journalRepo.Append(context.Background(), %+v) returned error: %v", arg, err)
	}

	return tr
}

// SeedSession creates Session.
func SeedSession(t *testing.T, db dbpkg.SQLInterface, arg domain.CreateSessionParams) domain.Session {
	t.Helper()

	session, err := sessionrepo.NewRepoPGS(db).Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("sessionRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return session
}
