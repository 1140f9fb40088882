package calculator

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// places every displayed amount is rounded to
	places = 2

	// divisionPlaces intermediate precision kept by Divide before the final rounding
	divisionPlaces = 34

	// maxIntegerDigits bounds the integer part of a typed amount
	maxIntegerDigits = 18

	// maxFractionDigits bounds the fractional part of a typed amount
	maxFractionDigits = divisionPlaces
)

// Multiply returns amount × rate rounded half-up to two places.
// An empty, unparsable or out of range amount, or an absent rate, yields "".
func Multiply(amount string, rate decimal.NullDecimal) string {
	a, ok := parse(amount, rate)
	if !ok {
		return ""
	}
	return a.Mul(rate.Decimal).StringFixed(places)
}

// Divide returns amount ÷ rate rounded half-up to two places. The quotient is first
// computed to 34 decimal places. A zero rate yields "" like any other unusable input.
func Divide(amount string, rate decimal.NullDecimal) string {
	a, ok := parse(amount, rate)
	if !ok || rate.Decimal.IsZero() {
		return ""
	}
	return a.DivRound(rate.Decimal, divisionPlaces).StringFixed(places)
}

func parse(amount string, rate decimal.NullDecimal) (decimal.Decimal, bool) {
	if !rate.Valid || amount == "" {
		return decimal.Decimal{}, false
	}
	a, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return decimal.Decimal{}, false
	}
	// exponents are checked before any arithmetic, 1e20000000 is a valid decimal
	exp := int64(a.Exponent())
	if exp < -maxFractionDigits || exp > maxIntegerDigits {
		return decimal.Decimal{}, false
	}
	if int64(len(a.Abs().Coefficient().String()))+exp > maxIntegerDigits {
		return decimal.Decimal{}, false
	}
	return a, true
}
