package models

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Balances and invoice amounts are stored as integer minor units (pence, cents).
const minorUnitExp = 2

var (
	ErrTooPrecise       = errors.New("amount has more than 2 fractional digits")
	ErrAmountOutOfRange = errors.New("amount out of range")
	ErrUnknownCurrency  = errors.New("unknown currency")
)

type Currency string

const (
	GBP Currency = "GBP"
	EUR Currency = "EUR"
	USD Currency = "USD"
)

func ParseCurrency(s string) (Currency, error) {
	switch c := Currency(strings.ToUpper(strings.TrimSpace(s))); c {
	case GBP, EUR, USD:
		return c, nil
	}
	return "", ErrUnknownCurrency
}

// ToMinorUnits converts an exact decimal amount to minor units. Amounts that
// cannot be represented without rounding are rejected.
func ToMinorUnits(d decimal.Decimal) (int64, error) {
	shifted := d.Shift(minorUnitExp)
	if !shifted.IsInteger() {
		return 0, ErrTooPrecise
	}
	bi := shifted.BigInt()
	if !bi.IsInt64() {
		return 0, ErrAmountOutOfRange
	}
	return bi.Int64(), nil
}

func FromMinorUnits(v int64) decimal.Decimal {
	return decimal.New(v, -minorUnitExp)
}

// FormatMinorUnits renders minor units with exactly two fractional digits.
func FormatMinorUnits(v int64) string {
	return FromMinorUnits(v).StringFixed(minorUnitExp)
}
