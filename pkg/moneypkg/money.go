// Package moneypkg provides common money amount related functionality for apps.
package moneypkg

import (
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits an amount may carry.
const Scale = 2

// Amount limits of money movements.
var (
	MinAmount         = decimal.New(1, -Scale)
	MaxTransferAmount = decimal.NewFromInt(10_000)
	MaxDepositAmount  = decimal.RequireFromString("99999999.99")
	// MaxBalance is the largest balance an account can hold, numeric(12,2) in storage.
	MaxBalance = decimal.RequireFromString("9999999999.99")
)

// Exponent window accepted by ParseAmount. Rescaling a decimal costs time and memory
// proportional to its exponent, so "1e-20000000" must be refused before any arithmetic.
const (
	minExponent = -Scale - 16
	maxExponent = 16
)

// ParseAmount parses s as a decimal amount with at most two fractional digits.
//
// The sign and magnitude are not checked, see CheckBounds.
func ParseAmount(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}

	if exp := d.Exponent(); exp < minExponent || exp > maxExponent {
		return decimal.Zero, false
	}

	if !d.Equal(d.Truncate(Scale)) {
		return decimal.Zero, false
	}

	return d, true
}

// Bound describes where an amount falls relative to the allowed range.
type Bound int

// Bound values.
const (
	WithinBounds Bound = iota
	BelowMin
	AboveMax
)

// CheckBounds reports whether amount lies within [MinAmount, max].
func CheckBounds(amount, max decimal.Decimal) Bound {
	switch {
	case amount.LessThan(MinAmount):
		return BelowMin
	case amount.GreaterThan(max):
		return AboveMax
	}

	return WithinBounds
}

// Format renders the amount with exactly two fractional digits.
func Format(amount decimal.Decimal) string {
	return amount.StringFixed(Scale)
}

// ValidMoney validates whether the field holds a well formed amount.
//
// Both string and json.Number fields are accepted.
// Range checks stay in the services so that they report typed errors.
var ValidMoney validator.Func = func(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}

	_, ok := ParseAmount(fl.Field().String())

	return ok
}
