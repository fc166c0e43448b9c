package repository

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// NUMERIC columns are scanned as text and parsed into decimals so money
// never passes through a float.
func parseMoney(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse money value %q: %w", s, err)
	}
	return d, nil
}
