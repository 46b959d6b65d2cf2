package types_test

import (
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"

	"github.com/summer-earn/fleet/internal/types"
)

func TestPercentageApplyTo(t *testing.T) {
	onePercent := types.NewPercentage(100)

	// 1% of 10_000 units
	assert.Equal(t, sdkmath.NewInt(100), onePercent.ApplyTo(sdkmath.NewInt(10_000)))

	// Truncation: 1% of 150 is 1.5, skim must round down
	assert.Equal(t, sdkmath.NewInt(1), onePercent.ApplyTo(sdkmath.NewInt(150)))

	// Below one whole unit the skim is zero
	assert.True(t, onePercent.ApplyTo(sdkmath.NewInt(99)).IsZero())

	// Zero and negative inputs are clamped to zero
	assert.True(t, onePercent.ApplyTo(sdkmath.ZeroInt()).IsZero())
	assert.True(t, onePercent.ApplyTo(sdkmath.NewInt(-5)).IsZero())
}

func TestPercentageBounds(t *testing.T) {
	assert.True(t, types.NewPercentage(0).Valid())
	assert.True(t, types.NewPercentage(types.PercentageDenominator).Valid())
	assert.False(t, types.NewPercentage(types.PercentageDenominator+1).Valid())

	full := types.NewPercentage(types.PercentageDenominator)
	assert.Equal(t, sdkmath.NewInt(777), full.ApplyTo(sdkmath.NewInt(777)))
}

func TestPercentageString(t *testing.T) {
	assert.Equal(t, "1.50%", types.NewPercentage(150).String())
	assert.Equal(t, "100.00%", types.NewPercentage(10_000).String())
	assert.Equal(t, "0.01%", types.NewPercentage(1).String())
}

func TestValidateAmount(t *testing.T) {
	assert.NoError(t, types.ValidateAmount(sdkmath.NewInt(1)))
	assert.ErrorIs(t, types.ValidateAmount(sdkmath.Int{}), types.ErrAmountNil)
	assert.ErrorIs(t, types.ValidateAmount(sdkmath.ZeroInt()), types.ErrAmountNotPositive)
	assert.ErrorIs(t, types.ValidateAmount(sdkmath.NewInt(-1)), types.ErrAmountNotPositive)
}

func TestAuctionParametersValidate(t *testing.T) {
	valid := types.AuctionParameters{
		StartPriceMultiplier: sdkmath.LegacyMustNewDecFromStr("1.05"),
		FloorPriceMultiplier: sdkmath.LegacyMustNewDecFromStr("0.98"),
		Duration:             time.Hour,
		FloorDuration:        30 * time.Minute,
		DecayCurve:           types.DecayLinear,
	}
	assert.NoError(t, valid.Validate())

	flat := valid
	flat.StartPriceMultiplier = flat.FloorPriceMultiplier
	assert.ErrorIs(t, flat.Validate(), types.ErrInvalidAuctionParameters)

	negFloor := valid
	negFloor.FloorPriceMultiplier = sdkmath.LegacyZeroDec()
	assert.ErrorIs(t, negFloor.Validate(), types.ErrInvalidAuctionParameters)

	zeroDur := valid
	zeroDur.Duration = 0
	assert.ErrorIs(t, zeroDur.Validate(), types.ErrInvalidAuctionParameters)

	badCurve := valid
	badCurve.DecayCurve = "exponential"
	assert.ErrorIs(t, badCurve.Validate(), types.ErrInvalidAuctionParameters)
}
