package memstore_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/go-petr/pet-ledger/internal/credential"
	"github.com/go-petr/pet-ledger/internal/depositservice"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/journalservice"
	"github.com/go-petr/pet-ledger/internal/memstore"
	"github.com/go-petr/pet-ledger/internal/transferservice"
	"github.com/go-petr/pet-ledger/pkg/moneypkg"
	"github.com/go-petr/pet-ledger/pkg/randompkg"
)

const pin = "1234"

type bank struct {
	store     *memstore.Store
	guard     *credential.Guard
	transfers *transferservice.Service
	deposits  *depositservice.Service
	journal   *journalservice.Service
}

func newBank() *bank {
	store := memstore.New()
	guard := credential.NewGuard(bcrypt.MinCost)

	return &bank{
		store:     store,
		guard:     guard,
		transfers: transferservice.New(store.Ledger(), store.Accounts(), guard),
		deposits:  depositservice.New(store.Ledger(), store.Accounts(), guard),
		journal:   journalservice.New(store.Journal(), store.Accounts()),
	}
}

func (b *bank) user(t *testing.T) string {
	t.Helper()

	u, err := b.store.Users().Create(context.Background(), domain.CreateUserParams{
		Username:       randompkg.Owner(),
		HashedPassword: "x",
		Email:          randompkg.Email(),
	})
	require.NoError(t, err)

	return u.Username
}

func (b *bank) account(t *testing.T, owner, balance string) domain.Account {
	t.Helper()

	ctx := context.Background()

	hash, err := b.guard.HashPIN(ctx, pin)
	require.NoError(t, err)

	a, err := b.store.Accounts().Create(ctx, domain.CreateAccountParams{Owner: owner, PinHash: hash})
	require.NoError(t, err)

	if balance != "0" {
		res, err := b.deposits.Deposit(ctx, domain.DepositRequest{Owner: owner, AccountID: a.ID, Amount: balance, PIN: pin})
		require.NoError(t, err)

		a = res.Account
	}

	return a
}

func (b *bank) balance(t *testing.T, a domain.Account) decimal.Decimal {
	t.Helper()

	got, err := b.store.Accounts().Get(context.Background(), a.ID, a.Owner)
	require.NoError(t, err)

	return got.Balance
}

func (b *bank) requireReconciled(t *testing.T, accounts ...domain.Account) {
	t.Helper()

	for _, a := range accounts {
		r, err := b.journal.Reconcile(context.Background(), a.ID, a.Owner)
		require.NoError(t, err)
		require.True(t, r.Consistent, "account %d: balance %v, journal %v", a.ID, r.Balance, r.JournalBalance)
	}
}

func requireAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "got %v, want %v", got, want)
}

func TestTransferConservesValue(t *testing.T) {
	b := newBank()
	alice, bob := b.user(t), b.user(t)
	a := b.account(t, alice, "100.00")
	c := b.account(t, bob, "5.00")

	res, err := b.transfers.Transfer(context.Background(), domain.TransferRequest{
		Owner:             alice,
		SenderAccountID:   a.ID,
		ReceiverAccountID: c.ID,
		Amount:            "60",
		PIN:               pin,
	})
	require.NoError(t, err)

	requireAmount(t, "40.00", res.SenderAccount.Balance)
	requireAmount(t, "65.00", res.ReceiverAccount.Balance)
	require.Equal(t, domain.StatusSuccess, res.Transaction.Status)
	require.Equal(t, a.ID, res.Transaction.SenderAccountID)
	require.Equal(t, c.ID, res.Transaction.ReceiverAccountID)

	requireAmount(t, "105.00", b.balance(t, a).Add(b.balance(t, c)))
	b.requireReconciled(t, a, c)
}

func TestConcurrentTransfersFromSameAccount(t *testing.T) {
	b := newBank()
	alice := b.user(t)
	a := b.account(t, alice, "100.00")
	receivers := []domain.Account{b.account(t, b.user(t), "0"), b.account(t, b.user(t), "0")}

	var (
		wg   sync.WaitGroup
		errs = make([]error, len(receivers))
	)

	for i := range receivers {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			_, errs[i] = b.transfers.Transfer(context.Background(), domain.TransferRequest{
				Owner:             alice,
				SenderAccountID:   a.ID,
				ReceiverAccountID: receivers[i].ID,
				Amount:            "60.00",
				PIN:               pin,
			})
		}(i)
	}

	wg.Wait()

	var succeeded int

	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}

		require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	}

	require.Equal(t, 1, succeeded)
	requireAmount(t, "40.00", b.balance(t, a))
	requireAmount(t, "60.00", b.balance(t, receivers[0]).Add(b.balance(t, receivers[1])))
	b.requireReconciled(t, a, receivers[0], receivers[1])
}

func TestOppositeTransfersDoNotDeadlock(t *testing.T) {
	b := newBank()
	alice, bob := b.user(t), b.user(t)
	a := b.account(t, alice, "1000.00")
	c := b.account(t, bob, "1000.00")

	const n = 50

	var (
		wg   sync.WaitGroup
		errs = make(chan error, 2*n)
	)

	send := func(owner string, from, to int32) {
		defer wg.Done()

		_, err := b.transfers.Transfer(context.Background(), domain.TransferRequest{
			Owner: owner, SenderAccountID: from, ReceiverAccountID: to, Amount: "10", PIN: pin,
		})
		errs <- err
	}

	for i := 0; i < n; i++ {
		wg.Add(2)

		go send(alice, a.ID, c.ID)
		go send(bob, c.ID, a.ID)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	requireAmount(t, "1000.00", b.balance(t, a))
	requireAmount(t, "1000.00", b.balance(t, c))
	b.requireReconciled(t, a, c)
}

func TestRejectedTransferLeavesNoTrace(t *testing.T) {
	b := newBank()
	alice, bob := b.user(t), b.user(t)
	a := b.account(t, alice, "50.00")
	c := b.account(t, bob, "0")

	ctx := context.Background()

	before, err := b.store.Journal().ListByAccount(ctx, a.ID)
	require.NoError(t, err)

	testCases := []struct {
		name    string
		req     domain.TransferRequest
		wantErr error
	}{
		{
			name:    "InsufficientFunds",
			req:     domain.TransferRequest{Owner: alice, SenderAccountID: a.ID, ReceiverAccountID: c.ID, Amount: "50.01", PIN: pin},
			wantErr: domain.ErrInsufficientFunds,
		},
		{
			name:    "ZeroAmount",
			req:     domain.TransferRequest{Owner: alice, SenderAccountID: a.ID, ReceiverAccountID: c.ID, Amount: "0.00", PIN: pin},
			wantErr: domain.ErrAmountTooSmall,
		},
		{
			name:    "AboveMaximum",
			req:     domain.TransferRequest{Owner: alice, SenderAccountID: a.ID, ReceiverAccountID: c.ID, Amount: "10000.01", PIN: pin},
			wantErr: domain.ErrAmountTooLarge,
		},
		{
			name:    "SelfTransfer",
			req:     domain.TransferRequest{Owner: alice, SenderAccountID: a.ID, ReceiverAccountID: a.ID, Amount: "1", PIN: pin},
			wantErr: domain.ErrSelfTransfer,
		},
		{
			name:    "WrongPIN",
			req:     domain.TransferRequest{Owner: alice, SenderAccountID: a.ID, ReceiverAccountID: c.ID, Amount: "1", PIN: "9999"},
			wantErr: domain.ErrInvalidPin,
		},
		{
			name:    "NotOwner",
			req:     domain.TransferRequest{Owner: bob, SenderAccountID: a.ID, ReceiverAccountID: c.ID, Amount: "1", PIN: pin},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name:    "UnknownReceiver",
			req:     domain.TransferRequest{Owner: alice, SenderAccountID: a.ID, ReceiverAccountID: 9999, Amount: "1", PIN: pin},
			wantErr: domain.ErrReceiverNotFound,
		},
	}

	for _, tc := range testCases {
		_, err := b.transfers.Transfer(ctx, tc.req)
		require.ErrorIs(t, err, tc.wantErr, tc.name)
	}

	after, err := b.store.Journal().ListByAccount(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, after, len(before))

	requireAmount(t, "50.00", b.balance(t, a))
	requireAmount(t, "0", b.balance(t, c))
}

func TestTransferAtMaximum(t *testing.T) {
	b := newBank()
	alice, bob := b.user(t), b.user(t)
	a := b.account(t, alice, "10000.00")
	c := b.account(t, bob, "0")

	_, err := b.transfers.Transfer(context.Background(), domain.TransferRequest{
		Owner: alice, SenderAccountID: a.ID, ReceiverAccountID: c.ID, Amount: "10000.00", PIN: pin,
	})
	require.NoError(t, err)

	requireAmount(t, "0", b.balance(t, a))
	requireAmount(t, "10000.00", b.balance(t, c))
}

func TestDeposit(t *testing.T) {
	b := newBank()
	alice := b.user(t)
	a := b.account(t, alice, "10.00")

	res, err := b.deposits.Deposit(context.Background(), domain.DepositRequest{
		Owner: alice, AccountID: a.ID, Amount: "25.50", PIN: pin,
	})
	require.NoError(t, err)

	requireAmount(t, "35.50", res.Account.Balance)
	require.Equal(t, domain.StatusCashDeposit, res.Transaction.Status)
	require.Equal(t, a.ID, res.Transaction.SenderAccountID)
	require.Equal(t, a.ID, res.Transaction.ReceiverAccountID)
	requireAmount(t, "25.50", res.Transaction.Amount)

	b.requireReconciled(t, a)
}

// fillToLimit deposits into a until it holds exactly moneypkg.MaxBalance.
func (b *bank) fillToLimit(t *testing.T, a domain.Account) {
	t.Helper()

	remaining := moneypkg.MaxBalance.Sub(b.balance(t, a))

	for remaining.IsPositive() {
		amount := decimal.Min(remaining, moneypkg.MaxDepositAmount)

		_, err := b.deposits.Deposit(context.Background(), domain.DepositRequest{
			Owner: a.Owner, AccountID: a.ID, Amount: moneypkg.Format(amount), PIN: pin,
		})
		require.NoError(t, err)

		remaining = remaining.Sub(amount)
	}

	requireAmount(t, moneypkg.Format(moneypkg.MaxBalance), b.balance(t, a))
}

func TestBalanceLimit(t *testing.T) {
	b := newBank()
	alice, bob := b.user(t), b.user(t)
	a := b.account(t, alice, "10.00")
	full := b.account(t, bob, "0")
	b.fillToLimit(t, full)

	ctx := context.Background()

	entries := func(acc domain.Account) int {
		got, err := b.store.Journal().ListByAccount(ctx, acc.ID)
		require.NoError(t, err)

		return len(got)
	}

	fullEntries, aEntries := entries(full), entries(a)

	_, err := b.deposits.Deposit(ctx, domain.DepositRequest{Owner: bob, AccountID: full.ID, Amount: "0.01", PIN: pin})
	require.ErrorIs(t, err, domain.ErrBalanceLimit)

	_, err = b.transfers.Transfer(ctx, domain.TransferRequest{
		Owner: alice, SenderAccountID: a.ID, ReceiverAccountID: full.ID, Amount: "1.00", PIN: pin,
	})
	require.ErrorIs(t, err, domain.ErrBalanceLimit)

	requireAmount(t, "10.00", b.balance(t, a))
	requireAmount(t, moneypkg.Format(moneypkg.MaxBalance), b.balance(t, full))
	require.Equal(t, aEntries, entries(a))
	require.Equal(t, fullEntries, entries(full))
	b.requireReconciled(t, a, full)

	_, err = b.transfers.Transfer(ctx, domain.TransferRequest{
		Owner: bob, SenderAccountID: full.ID, ReceiverAccountID: a.ID, Amount: "1.00", PIN: pin,
	})
	require.NoError(t, err)
}
