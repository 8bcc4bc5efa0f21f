package normalize

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	currencyMarkers = regexp.MustCompile(`(?i)us\$|clp|usd|\$`)
	leadingNumber   = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)`)
)

// NormalizeAmount parses a statement amount such as "$1.234.567" or
// "1.234,50". The dot is a thousands separator and the comma a decimal
// separator. The result is always non-negative; empty or unparseable input
// yields zero.
func NormalizeAmount(raw string) decimal.Decimal {
	s := currencyMarkers.ReplaceAllString(raw, "")
	s = strings.Join(strings.Fields(s), "")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")

	number := leadingNumber.FindString(s)
	if number == "" {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(number)
	if err != nil {
		return decimal.Zero
	}
	return d.Abs()
}

// FormatAmount renders an amount with a comma decimal separator, the form
// NormalizeAmount reads back to the same value.
func FormatAmount(d decimal.Decimal) string {
	return strings.Replace(d.String(), ".", ",", 1)
}
