// Package credential verifies and hashes account PINs.
//
// Plaintext PINs are never stored or logged.
package credential

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/passpkg"
)

// PINLength is the number of digits of an account PIN.
const PINLength = 4

// Guard hashes and verifies account PINs with bcrypt.
type Guard struct {
	cost int
}

// NewGuard returns a Guard hashing with the given bcrypt cost.
func NewGuard(cost int) *Guard {
	return &Guard{cost: cost}
}

// ValidPIN reports whether pin is exactly four ASCII digits.
func ValidPIN(pin string) bool {
	if len(pin) != PINLength {
		return false
	}

	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return false
		}
	}

	return true
}

// ValidPINField is the "pin" binding validator.
var ValidPINField validator.Func = func(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return ValidPIN(s)
	}

	return false
}

// HashPIN returns the salted hash of pin.
//
// A value that is already a hash is refused so that it is never hashed twice.
func (g *Guard) HashPIN(ctx context.Context, pin string) (string, error) {
	l := zerolog.Ctx(ctx)

	if passpkg.IsHash(pin) {
		l.Warn().Msg("refusing to hash a value that is already a PIN hash")
		return "", domain.ErrInvalidPinFormat
	}

	if !ValidPIN(pin) {
		return "", domain.ErrInvalidPinFormat
	}

	hashed, err := passpkg.HashCost(pin, g.cost)
	if err != nil {
		l.Error().Err(err).Send()
		return "", err
	}

	return hashed, nil
}

// Verify reports whether pin matches the account's stored hash.
func (g *Guard) Verify(account domain.Account, pin string) bool {
	if account.PinHash == "" {
		return false
	}

	return passpkg.Check(pin, account.PinHash) == nil
}
