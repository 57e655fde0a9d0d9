// Package utils provides common utility functions for fairprice.
package utils

import (
	"fmt"
	"math"
	"strings"

	"github.com/seenimoa/fairprice/pkg/models"
)

// FormatMoney renders an amount the way the listing currency is usually
// written: won without decimals (₩71,500), dollars with two ($1,234.56).
func FormatMoney(c models.Currency, amount float64) string {
	switch c {
	case models.KRW:
		won := int64(math.Round(math.Abs(amount)))
		return sign(amount, won) + "₩" + groupThousands(won)
	default:
		cents := int64(math.Round(math.Abs(amount) * 100))
		return fmt.Sprintf("%s$%s.%02d", sign(amount, cents), groupThousands(cents/100), cents%100)
	}
}

// FormatMoneyCompact renders large amounts with a unit suffix.
// Won uses 억 (1e8) and 조 (1e12); dollars use K, M, B and T.
func FormatMoneyCompact(c models.Currency, amount float64) string {
	a := math.Abs(amount)
	prefix := ""
	if amount < 0 {
		prefix = "-"
	}

	if c == models.KRW {
		switch {
		case a >= 1e12:
			return fmt.Sprintf("%s₩%s조", prefix, formatWithDecimals(a/1e12))
		case a >= 1e8:
			return fmt.Sprintf("%s₩%s억", prefix, formatWithDecimals(a/1e8))
		default:
			return FormatMoney(c, amount)
		}
	}

	switch {
	case a >= 1e12:
		return fmt.Sprintf("%s$%sT", prefix, formatWithDecimals(a/1e12))
	case a >= 1e9:
		return fmt.Sprintf("%s$%sB", prefix, formatWithDecimals(a/1e9))
	case a >= 1e6:
		return fmt.Sprintf("%s$%sM", prefix, formatWithDecimals(a/1e6))
	case a >= 1e3:
		return fmt.Sprintf("%s$%sK", prefix, formatWithDecimals(a/1e3))
	default:
		return FormatMoney(c, amount)
	}
}

// FormatPct formats a percentage value with sign and suffix.
// e.g., 2.45 → "+2.45%", -1.23 → "-1.23%"
func FormatPct(pct float64) string {
	if pct >= 0 {
		return fmt.Sprintf("+%.2f%%", pct)
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// FormatMultiple renders a valuation multiple, e.g. 12.5 → "12.50x".
func FormatMultiple(m float64) string {
	return fmt.Sprintf("%.2fx", m)
}

// sign returns "-" for negative amounts that do not round to zero.
func sign(amount float64, rounded int64) string {
	if amount < 0 && rounded != 0 {
		return "-"
	}
	return ""
}

// groupThousands formats a non-negative integer with comma groups of three.
func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// formatWithDecimals formats a number with up to 2 decimal places,
// removing trailing zeros.
func formatWithDecimals(n float64) string {
	s := fmt.Sprintf("%.2f", n)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
