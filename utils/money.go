// utils/money.go
package utils

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseDenomination parses a customer-facing denomination string such as
// "$25" or "25.00" into a numeric amount, stripping currency symbols,
// whitespace and thousands separators.
func ParseDenomination(denomination string) (float64, error) {
	s := strings.TrimSpace(denomination)
	if s == "" {
		return 0, errors.New("denomination is empty")
	}

	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	value, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, fmt.Errorf("invalid denomination %q", denomination)
	}
	if value < 0 {
		return 0, fmt.Errorf("negative denomination %q", denomination)
	}

	return value, nil
}

// RoundCents rounds a dollar amount to two decimal places
func RoundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// FormatAmount renders an amount as a dollar string for receipts and
// CSV export, e.g. 25 -> "25.00"
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(RoundCents(amount), 'f', 2, 64)
}
