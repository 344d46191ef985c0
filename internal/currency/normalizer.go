// Package currency converts human-entered amounts into integer minor units and back.
package currency

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"wallet-ledger/internal/errors"
)

// MinorUnitsPerMajor is the number of kobo in one naira.
const MinorUnitsPerMajor = 100

// MaxAmountLength bounds the cleaned amount string. Anything longer cannot fit in
// int64 minor units anyway.
const MaxAmountLength = 32

var (
	maxMinor = decimal.NewFromInt(math.MaxInt64)

	// plainDecimal admits digits with an optional fraction, e.g. "1000.50". Exponents ("1e3") are
	// rejected before decimal ever scales them.
	plainDecimal = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

// Normalize parses a decimal amount such as "₦1,000.50" into minor units.
// The result is always strictly positive.
func Normalize(amount string) (int64, error) {
	minor, err := parse(amount)
	if err != nil {
		return 0, err
	}
	if minor <= 0 {
		return 0, errors.ErrNonPositiveAmount
	}
	return minor, nil
}

// NormalizeBalance is Normalize for opening balances, where zero is allowed.
func NormalizeBalance(amount string) (int64, error) {
	minor, err := parse(amount)
	if err != nil {
		return 0, err
	}
	if minor < 0 {
		return 0, errors.NewAppError(errors.InvalidAmount, "balance cannot be negative")
	}
	return minor, nil
}

// FormatMinor renders minor units as a major amount with two decimal places.
func FormatMinor(minor int64) string {
	return ToMajor(minor).StringFixed(2)
}

// ToMajor converts minor units to an exact major-unit decimal.
func ToMajor(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

func parse(amount string) (int64, error) {
	cleaned := clean(amount)
	if cleaned == "" {
		return 0, errors.ErrInvalidAmount.WithDetails("empty amount")
	}

	if len(cleaned) > MaxAmountLength {
		return 0, errors.ErrInvalidAmount.WithDetails("amount too long")
	}
	if !plainDecimal.MatchString(cleaned) {
		return 0, errors.ErrInvalidAmount.WithDetails("amount must be a plain decimal number")
	}

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, errors.ErrInvalidAmount.WithDetails(err.Error())
	}
	if value.IsNegative() {
		return -1, nil
	}

	// Truncate toward zero: "50.255" is 5025 kobo.
	minor := value.Shift(2).Truncate(0)
	if minor.GreaterThan(maxMinor) {
		return 0, errors.ErrInvalidAmount.WithDetails("amount too large")
	}
	return minor.IntPart(), nil
}

// clean drops currency symbols, grouping commas and whitespace.
func clean(amount string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == ',':
			return -1
		case unicode.IsSpace(r):
			return -1
		case unicode.Is(unicode.Sc, r):
			return -1
		}
		return r
	}, amount)
}
