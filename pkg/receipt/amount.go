package receipt

import (
	"math"
	"strconv"
	"strings"
)

var (
	ones = []string{"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
		"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen", "Seventeen", "Eighteen", "Nineteen"}
	tens   = []string{"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety"}
	scales = []struct {
		value int64
		word  string
	}{
		{1_000_000_000, "Billion"},
		{1_000_000, "Million"},
		{1_000, "Thousand"},
	}
)

// FormatAmount renders v with exactly two decimals. NaN and infinities render as 0.00.
func FormatAmount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0.00"
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	if s == "-0.00" {
		return "0.00"
	}
	return s
}

// maxWordsAmount bounds the magnitudes AmountInWords will spell.
const maxWordsAmount = 1e15

// AmountInWords spells the integer part of v in English scale words.
// Zero, NaN, infinities and magnitudes of 1e15 or more render as "Zero";
// negative amounts are prefixed with "Minus".
func AmountInWords(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) >= maxWordsAmount {
		return "Zero"
	}
	v = math.Trunc(v)
	if v == 0 {
		return "Zero"
	}
	if v < 0 {
		return "Minus " + AmountInWords(-v)
	}
	n := int64(v)

	var parts []string
	for _, scale := range scales {
		if n >= scale.value {
			parts = append(parts, belowThousand(n/scale.value), scale.word)
			n %= scale.value
		}
	}
	if n > 0 {
		parts = append(parts, belowThousand(n))
	}
	return strings.Join(parts, " ")
}

// belowThousand spells n for 0 < n < 1000. Larger values are only reached for
// amounts above the billions scale and are spelled recursively.
func belowThousand(n int64) string {
	if n >= 1000 {
		return AmountInWords(float64(n))
	}
	var parts []string
	if n >= 100 {
		parts = append(parts, ones[n/100], "Hundred")
		n %= 100
	}
	if n >= 20 {
		word := tens[n/10]
		if n%10 != 0 {
			word += "-" + ones[n%10]
		}
		parts = append(parts, word)
	} else if n > 0 {
		parts = append(parts, ones[n])
	}
	return strings.Join(parts, " ")
}
