package conv

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ericlagergren/decimal"
)

// Precision is the number of fractional digits kept by every ledger amount.
// It matches the scale of the decimal(36,18) columns.
const Precision = 18

var ErrInvalidDecimal = errors.New("invalid decimal amount")

var (
	ledgerContext decimal.Context
	zeroRounded   decimal.Big
)

func init() {
	ledgerContext = decimal.Context128
	ledgerContext.Precision = 56
	ledgerContext.RoundingMode = decimal.ToZero

	zeroRounded = decimal.Big{}
	zeroRounded.Context = ledgerContext
	zeroRounded.Quantize(Precision)
}

// NewDecimalWithPrecision returns a zero value carrying the ledger context.
// Arithmetic must always be done on values created here: scanned database
// values carry the library default context which rounds to 16 digits.
func NewDecimalWithPrecision() *decimal.Big {
	z := zeroRounded
	return &z
}

// FromString parses a plain or scientific decimal string. NaN and infinities are rejected.
func FromString(s string) (*decimal.Big, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidDecimal
	}
	z, ok := NewDecimalWithPrecision().SetString(s)
	if !ok || !z.IsFinite() {
		return nil, ErrInvalidDecimal
	}
	return z, nil
}

// MustFromString is FromString for constants and defaults; it panics on bad input.
func MustFromString(s string) *decimal.Big {
	z, err := FromString(s)
	if err != nil {
		panic(fmt.Sprintf("conv: %q: %v", s, err))
	}
	return z
}

func Add(x, y *decimal.Big) *decimal.Big {
	return NewDecimalWithPrecision().Add(x, y)
}

func Sub(x, y *decimal.Big) *decimal.Big {
	return NewDecimalWithPrecision().Sub(x, y)
}

func Mul(x, y *decimal.Big) *decimal.Big {
	return NewDecimalWithPrecision().Mul(x, y)
}

// Quo divides at the full ledger context precision. Callers round afterwards.
func Quo(x, y *decimal.Big) *decimal.Big {
	return NewDecimalWithPrecision().Quo(x, y)
}

// Neg returns -x.
func Neg(x *decimal.Big) *decimal.Big {
	return NewDecimalWithPrecision().Neg(x)
}

// CloneToPrecision copies the amount into a new value rounded to the ledger precision.
func CloneToPrecision(amount *decimal.Big) *decimal.Big {
	dec := NewDecimalWithPrecision()
	dec.Copy(amount)
	dec.Context = ledgerContext
	dec.Quantize(Precision)
	return dec
}

// RoundToPrecision rounds the amount in place toward zero and returns it.
func RoundToPrecision(amount *decimal.Big) *decimal.Big {
	amount.Context = ledgerContext
	amount.Quantize(Precision)
	return amount
}

// FitsPrecision reports whether x is finite and representable at the ledger precision without rounding
func FitsPrecision(x *decimal.Big) bool {
	if x == nil || !x.IsFinite() {
		return false
	}
	rounded := CloneToPrecision(x)
	return rounded.IsFinite() && rounded.Cmp(x) == 0
}

// IsPositive reports whether x is finite and strictly greater than zero.
func IsPositive(x *decimal.Big) bool {
	return x != nil && x.IsFinite() && x.Sign() > 0
}

// IsNegative reports whether x is strictly lower than zero.
func IsNegative(x *decimal.Big) bool {
	return x != nil && x.Sign() < 0
}

// IsZero reports whether x equals zero.
func IsZero(x *decimal.Big) bool {
	return x != nil && x.Sign() == 0
}

// Equal compares two amounts by value, ignoring their scale.
func Equal(x, y *decimal.Big) bool {
	return x.Cmp(y) == 0
}

// Fmt renders an amount in plain notation without trailing zeros.
func Fmt(x *decimal.Big) string {
	if x == nil {
		return "0"
	}
	if !x.IsFinite() {
		return x.String()
	}
	if x.Sign() == 0 {
		return "0"
	}
	z := NewDecimalWithPrecision().Copy(x)
	z.Reduce()
	if z.Scale() < 0 {
		z.Quantize(0)
	}
	s := fmt.Sprintf("%f", z)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s
}
