package invoice

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Money formats amounts with a fixed two-decimal layout and no digit grouping.
type Money struct {
	Symbol string
	Code   string
}

// DefaultMoney matches the formatting used across the calculator.
var DefaultMoney = Money{Symbol: "$", Code: "SGD"}

// Format renders v as Symbol followed by v with two decimals, e.g. "$1234.50".
func (m Money) Format(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return m.Symbol + strconv.FormatFloat(v, 'f', 2, 64)
	}
	return m.Symbol + cents(v).StringFixed(2)
}

// FormatWithCode prefixes the currency code, e.g. "SGD$1234.50".
func (m Money) FormatWithCode(v float64) string {
	return m.Code + m.Format(v)
}

// FormatQuantity renders a quantity with exactly two decimals.
func FormatQuantity(q int) string {
	return strconv.FormatFloat(float64(q), 'f', 2, 64)
}

// cents rounds a finite v to two decimals. The exact binary value decides the
// result and exact ties round away from zero, so 6.125 becomes 6.13 while
// 1.005 (stored just below the tie) stays 1.00.
func cents(v float64) decimal.Decimal {
	return decimal.RequireFromString(strconv.FormatFloat(v, 'f', 40, 64)).Round(2)
}
