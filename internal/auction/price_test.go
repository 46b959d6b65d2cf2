package auction

import (
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"

	"github.com/summer-earn/fleet/internal/types"
)

func linearParams() types.AuctionParameters {
	return types.AuctionParameters{
		StartPriceMultiplier: sdkmath.LegacyMustNewDecFromStr("1.05"),
		FloorPriceMultiplier: sdkmath.LegacyMustNewDecFromStr("0.98"),
		Duration:             time.Hour,
		FloorDuration:        30 * time.Minute,
		DecayCurve:           types.DecayLinear,
	}
}

func TestLinearDecay(t *testing.T) {
	p := linearParams()
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// At and before the start the price is the start multiplier.
	assert.True(t, priceAt(p, start, start).Equal(p.StartPriceMultiplier))
	assert.True(t, priceAt(p, start, start.Add(-time.Minute)).Equal(p.StartPriceMultiplier))

	// Halfway: 1.05 - 0.07/2 = 1.015
	mid := priceAt(p, start, start.Add(30*time.Minute))
	assert.True(t, mid.Equal(sdkmath.LegacyMustNewDecFromStr("1.015")), "got %s", mid)

	// At and past the duration the price clamps to the floor.
	assert.True(t, priceAt(p, start, start.Add(time.Hour)).Equal(p.FloorPriceMultiplier))
	assert.True(t, priceAt(p, start, start.Add(2*time.Hour)).Equal(p.FloorPriceMultiplier))
}

func TestLinearDecayMonotonic(t *testing.T) {
	p := linearParams()
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	prev := priceAt(p, start, start)
	for i := 1; i <= 60; i++ {
		cur := priceAt(p, start, start.Add(time.Duration(i)*time.Minute))
		assert.True(t, cur.LTE(prev), "price rose at minute %d: %s > %s", i, cur, prev)
		assert.True(t, cur.GTE(p.FloorPriceMultiplier))
		prev = cur
	}
}

func TestQuadraticDecay(t *testing.T) {
	p := linearParams()
	p.DecayCurve = types.DecayQuadratic
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, priceAt(p, start, start).Equal(p.StartPriceMultiplier))
	assert.True(t, priceAt(p, start, start.Add(time.Hour)).Equal(p.FloorPriceMultiplier))

	// Halfway: floor + diff*(1/2)^2 = 0.98 + 0.07*0.25 = 0.9975
	mid := priceAt(p, start, start.Add(30*time.Minute))
	assert.True(t, mid.Equal(sdkmath.LegacyMustNewDecFromStr("0.9975")), "got %s", mid)

	// Quadratic sits below linear everywhere strictly inside the window.
	lin := linearParams()
	for i := 1; i < 60; i++ {
		at := start.Add(time.Duration(i) * time.Minute)
		assert.True(t, priceAt(p, start, at).LTE(priceAt(lin, start, at)))
	}
}

func TestPaymentForRoundsUp(t *testing.T) {
	price := sdkmath.LegacyMustNewDecFromStr("1.05")
	assert.Equal(t, sdkmath.NewInt(420), paymentFor(price, sdkmath.NewInt(400)))

	// 1.05 * 401 = 421.05 rounds up to 422
	assert.Equal(t, sdkmath.NewInt(422), paymentFor(price, sdkmath.NewInt(401)))

	floor := sdkmath.LegacyMustNewDecFromStr("0.98")
	// 0.98 * 50 = 49 exactly
	assert.Equal(t, sdkmath.NewInt(49), paymentFor(floor, sdkmath.NewInt(50)))
	// 0.98 * 51 = 49.98 rounds up to 50
	assert.Equal(t, sdkmath.NewInt(50), paymentFor(floor, sdkmath.NewInt(51)))
}
