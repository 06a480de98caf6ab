package services

import (
	"fmt"
	"strings"
)

// FormatBRL formats an amount as Brazilian currency: thousands separated by
// dots, comma before the cents, e.g. R$ 1.234.567,89. Always two decimals.
func FormatBRL(amount float64) string {
	negative := false
	if amount < 0 {
		negative = true
		amount = -amount
	}

	raw := fmt.Sprintf("%.2f", amount)
	parts := strings.SplitN(raw, ".", 2)
	intPart := parts[0]
	decPart := parts[1]

	result := "R$ " + groupThousands(intPart) + "," + decPart
	if negative {
		result = "-" + result
	}
	return result
}

// groupThousands inserts a dot every three digits from the right.
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	result := s[n-3:]
	remaining := s[:n-3]
	for len(remaining) > 3 {
		result = remaining[len(remaining)-3:] + "." + result
		remaining = remaining[:len(remaining)-3]
	}
	return remaining + "." + result
}

// FormatSignedBRL keeps the sign visible for delta amounts ("+R$ 5.000,00").
func FormatSignedBRL(amount float64) string {
	if amount >= 0 {
		return "+" + FormatBRL(amount)
	}
	return FormatBRL(amount)
}
