/*

This file contains the fixed-point primitives shared by every component.

All monetary amounts are carried as sdkmath.Int in the underlying asset's
smallest indivisible unit. Rates and fees are basis-point percentages;
auction prices are LegacyDec multipliers over fair value. No float64
touches an amount anywhere in the system.

*/

package types

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// PercentageDenominator is the fixed denominator for Percentage values.
// 10_000 basis points == 100%.
const PercentageDenominator = 10_000

var (
	ErrPercentageOverflow = errors.New("percentage exceeds one hundred percent")
	ErrAmountNotPositive  = errors.New("amount must be positive")
	ErrAmountNil          = errors.New("amount is nil")
)

// Percentage is a fixed-point fraction expressed in basis points.
type Percentage struct {
	Bps uint64 `json:"bps"`
}

// NewPercentage builds a Percentage from basis points. Values above 100%
// are representable (callers enforce their own caps); use Valid to reject.
func NewPercentage(bps uint64) Percentage {
	return Percentage{Bps: bps}
}

// Valid reports whether the percentage is within [0%, 100%].
func (p Percentage) Valid() bool {
	return p.Bps <= PercentageDenominator
}

// IsZero reports whether the percentage is exactly 0%.
func (p Percentage) IsZero() bool {
	return p.Bps == 0
}

// ApplyTo returns amount * p, truncated toward zero. Truncation keeps the
// skimmed share at or below the exact fraction, never above it.
func (p Percentage) ApplyTo(amount sdkmath.Int) sdkmath.Int {
	if amount.IsNil() || !amount.IsPositive() {
		return sdkmath.ZeroInt()
	}
	return amount.MulRaw(int64(p.Bps)).QuoRaw(PercentageDenominator)
}

func (p Percentage) String() string {
	whole := p.Bps / 100
	frac := p.Bps % 100
	return fmt.Sprintf("%d.%02d%%", whole, frac)
}

// ValidateAmount rejects nil and non-positive amounts with a single error
// shape so every operation reports malformed input the same way.
func ValidateAmount(amount sdkmath.Int) error {
	if amount.IsNil() {
		return ErrAmountNil
	}
	if !amount.IsPositive() {
		return ErrAmountNotPositive
	}
	return nil
}
