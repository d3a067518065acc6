package pricing

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value stored in minor units (cents).
type Money = int64

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// FromDecimal converts a currency amount into minor units, rounding half-up at the cent.
func FromDecimal(amount decimal.Decimal) Money {
	return amount.Mul(hundred).Round(0).IntPart()
}

// ToDecimal converts minor units back into a currency amount.
func ToDecimal(m Money) decimal.Decimal {
	return decimal.New(m, -2)
}

// ApplyRate multiplies m by rate and rounds half-up to the cent.
func ApplyRate(m Money, rate decimal.Decimal) Money {
	return decimal.NewFromInt(m).Mul(rate).Round(0).IntPart()
}

// Format renders m for display. BRL uses the "R$ 1.234,56" convention, other
// currencies use "USD 1,234.56".
func Format(m Money, currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	whole := groupThousands(m/100, ".")
	cents := m % 100
	if currency == "" || currency == "BRL" {
		return sign + "R$ " + whole + "," + pad2(cents)
	}
	return sign + currency + " " + strings.ReplaceAll(whole, ".", ",") + "." + pad2(cents)
}

func groupThousands(v int64, sep string) string {
	digits := strconv.FormatInt(v, 10)
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func pad2(v int64) string {
	if v < 10 {
		return "0" + strconv.FormatInt(v, 10)
	}
	return strconv.FormatInt(v, 10)
}
