package square

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// parseQuantity reads a Square decimal quantity string ("3", "3.00000").
// Fractional quantities are rejected since the ledger counts whole units.
func parseQuantity(raw string) (int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q: %w", raw, err)
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("fractional quantity %q", raw)
	}
	return int(d.IntPart()), nil
}

// parseStock reads an on-hand count. Fractions are truncated and negative
// counts are floored at zero.
func parseStock(raw string) (int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q: %w", raw, err)
	}
	if d.IsNegative() {
		return 0, nil
	}
	return int(d.IntPart()), nil
}
