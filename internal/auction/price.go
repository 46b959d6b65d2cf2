package auction

import (
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/summer-earn/fleet/internal/types"
)

// priceAt computes the unit price of an auction at a point in time. Pure
// function of the parameters, the start time and the query time: strictly
// non-increasing, clamped to the floor once the decay window elapses,
// never negative (floor validation guarantees positivity).
func priceAt(p types.AuctionParameters, startedAt, at time.Time) sdkmath.LegacyDec {
	elapsed := at.Sub(startedAt)
	if elapsed <= 0 {
		return p.StartPriceMultiplier
	}
	if elapsed >= p.Duration {
		return p.FloorPriceMultiplier
	}

	diff := p.StartPriceMultiplier.Sub(p.FloorPriceMultiplier)
	elapsedNs := elapsed.Nanoseconds()
	durationNs := p.Duration.Nanoseconds()

	switch p.DecayCurve {
	case types.DecayQuadratic:
		// floor + diff * (remaining / duration)^2
		remainingNs := durationNs - elapsedNs
		return p.FloorPriceMultiplier.Add(
			diff.MulInt64(remainingNs).MulInt64(remainingNs).
				QuoInt64(durationNs).QuoInt64(durationNs))
	default:
		// start - diff * (elapsed / duration)
		return p.StartPriceMultiplier.Sub(
			diff.MulInt64(elapsedNs).QuoInt64(durationNs))
	}
}

// paymentFor converts a fill amount at a unit price into the bidder's
// debit. Rounds up so fractional units always favor the fleet.
func paymentFor(price sdkmath.LegacyDec, amount sdkmath.Int) sdkmath.Int {
	return price.MulInt(amount).Ceil().TruncateInt()
}
