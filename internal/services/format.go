package services

import (
	"strconv"
	"strings"
)

// formatAmount renders f with two decimals and comma thousands separators,
// e.g. 1234567.5 -> "1,234,567.50"
func formatAmount(f float64) string {
	s := strconv.FormatFloat(f, 'f', 2, 64)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "." + frac
}
