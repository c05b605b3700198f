package ledgermetrics

import (
	"errors"

	"github.com/go-petr/pet-ledger/internal/domain"
)

type reasonTable []struct {
	err   error
	label string
}

var reasons = reasonTable{
	{domain.ErrInvalidAmount, "invalid_amount"},
	{domain.ErrAmountTooSmall, "amount_too_small"},
	{domain.ErrAmountTooLarge, "amount_too_large"},
	{domain.ErrSelfTransfer, "self_transfer"},
	{domain.ErrReceiverNotFound, "receiver_not_found"},
	{domain.ErrAccountNotFound, "account_not_found"},
	{domain.ErrInsufficientFunds, "insufficient_funds"},
	{domain.ErrBalanceLimit, "balance_limit"},
	{domain.ErrInvalidPin, "invalid_pin"},
	{domain.ErrConcurrencyConflict, "concurrency_conflict"},
}

func (t reasonTable) lookup(err error) string {
	for _, r := range t {
		if errors.Is(err, r.err) {
			return r.label
		}
	}

	return "internal"
}
