package invoice

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	unitWords = []string{"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine"}
	teenWords = []string{"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen", "Seventeen", "Eighteen", "Nineteen"}
	tensWords = []string{"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety"}
)

var maxSpelled = decimal.NewFromInt(math.MaxInt64)

var scales = []struct {
	value int64
	word  string
}{
	{1_000_000_000_000, "Trillion"},
	{1_000_000_000, "Billion"},
	{1_000_000, "Million"},
	{1_000, "Thousand"},
}

// TotalInWords spells v in English after rounding it to cents, e.g.
// 1250.5 -> "One Thousand Two Hundred Fifty and 50/100". Non-finite input yields "".
func TotalInWords(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	d := cents(v)
	prefix := ""
	if d.IsNegative() {
		prefix = "Minus "
		d = d.Neg()
	}
	whole := d.Truncate(0)
	if whole.GreaterThan(maxSpelled) {
		return ""
	}
	cents := d.Sub(whole).Shift(2).IntPart()

	words := spell(whole.IntPart())
	if cents > 0 {
		words += " and " + strconv.FormatInt(cents, 10) + "/100"
	}
	return prefix + words
}

func spell(n int64) string {
	if n == 0 {
		return "Zero"
	}
	var parts []string
	for _, s := range scales {
		if n >= s.value {
			parts = append(parts, spell(n/s.value), s.word)
			n %= s.value
		}
	}
	if n > 0 {
		parts = append(parts, belowThousand(n))
	}
	return strings.Join(parts, " ")
}

func belowThousand(n int64) string {
	var parts []string
	if n >= 100 {
		parts = append(parts, unitWords[n/100], "Hundred")
		n %= 100
	}
	switch {
	case n >= 20:
		parts = append(parts, tensWords[n/10])
		if n%10 != 0 {
			parts = append(parts, unitWords[n%10])
		}
	case n >= 10:
		parts = append(parts, teenWords[n-10])
	case n > 0:
		parts = append(parts, unitWords[n])
	}
	return strings.Join(parts, " ")
}
