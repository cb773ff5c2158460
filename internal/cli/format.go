// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatBRL formats an amount in Brazilian reais, rounded half away from
// zero to cents: 1234.5 -> "R$ 1.234,50".
func FormatBRL(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")
	n, _ := strconv.ParseInt(intPart, 10, 64)
	return sign + "R$ " + FormatNumber(n) + "," + frac
}

// FormatNumber adds pt-BR thousands separators to an integer.
// e.g., 1234567 -> "1.234.567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte('.')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatDecimal writes v with a decimal comma and no grouping, the
// inverse of ParseAmount: 15.5 -> "15,5".
func FormatDecimal(v float64) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', -1, 64), ".", ",", 1)
}

// FormatPercent formats a 0-1 fraction as a percentage with a decimal comma.
func FormatPercent(f float64) string {
	return strings.Replace(fmt.Sprintf("%.1f%%", f*100), ".", ",", 1)
}

// FormatDate formats a calendar date as dd/mm/yyyy, or "-" when unset.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02/01/2006")
}

var groupedThousands = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)

// ParseAmount reads a currency amount typed the Brazilian way. A comma is
// the decimal separator and dots group thousands ("1.234,56"); without a
// comma, dots only group thousands when every group has three digits
// ("1.234" is 1234, "12.5" is 12.5). An "R$" prefix is ignored.
func ParseAmount(s string) (float64, error) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimPrefix(raw, "R$")
	raw = strings.ReplaceAll(raw, " ", "")

	neg := strings.HasPrefix(raw, "-")
	body := strings.TrimPrefix(raw, "-")

	switch {
	case strings.Contains(body, ","):
		body = strings.ReplaceAll(body, ".", "")
		body = strings.Replace(body, ",", ".", 1)
	case groupedThousands.MatchString(body):
		body = strings.ReplaceAll(body, ".", "")
	}

	d, err := decimal.NewFromString(body)
	if err != nil || body == "" {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if neg {
		d = d.Neg()
	}
	f, _ := d.Float64()
	return f, nil
}
