package budget

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/expendi/expendi-cli/internal/config"
)

// ParseAmount converts a user-entered USDC amount to base units.
// Rejects zero, negatives, and more precision than the token carries.
func ParseAmount(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if d.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %s", s)
	}
	if d.Exponent() < -config.USDCDecimals {
		return nil, fmt.Errorf("USDC carries at most %d decimal places, got %s", config.USDCDecimals, s)
	}
	return d.Shift(config.USDCDecimals).BigInt(), nil
}

// FormatAmount renders base units as a decimal USDC string.
func FormatAmount(baseUnits *big.Int) string {
	if baseUnits == nil {
		return "0"
	}
	return decimal.NewFromBigInt(baseUnits, -config.USDCDecimals).String()
}

// ToDecimal converts base units to a decimal USDC value for rate math.
func ToDecimal(baseUnits *big.Int) decimal.Decimal {
	if baseUnits == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(baseUnits, -config.USDCDecimals)
}
