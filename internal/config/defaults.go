/*

This file contains the default auction and tip parameters for the fleet.

These defaults are calibrated for rebalancing meaningful capital between
yield sources without an external price oracle. Each value balances speed
of price discovery against manipulation resistance.

*/

package config

import (
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/summer-earn/fleet/internal/types"
)

// DefaultAuctionParameters provides the baseline decaying-price auction
// configuration. These values are used if no active parameters are found
// in the database during initialization; governance updates insert a new
// version rather than mutating this record.
var DefaultAuctionParameters = types.AuctionParameters{
	StartPriceMultiplier: sdkmath.LegacyMustNewDecFromStr("1.05"),
	// Opening 5% above fair value gives early fillers no free premium.
	// Anyone willing to pay above par fills immediately; otherwise the
	// decay finds the clearing price.

	FloorPriceMultiplier: sdkmath.LegacyMustNewDecFromStr("0.98"),
	// A 2% discount floor bounds the worst case. Rebalancing at a deeper
	// discount would leak more value than holding the misallocation.

	Duration: time.Hour,
	// One hour from start to floor. Long enough for competitive fills,
	// short enough that a stale auction does not pin capital for a day.

	FloorDuration: 30 * time.Minute,
	// The lot stays available at the floor for half an hour before the
	// auction expires and the capital is re-planned on a later cycle.

	DecayCurve: types.DecayLinear,
	// Linear is the predictable default. Quadratic spends more of the
	// window near the start price and suits volatile sources; pairs can
	// override per key.
}

// DefaultTipRateBps is the initial tip rate in basis points (1%).
// Governance can move it anywhere in [0%, 100%]; the cap is structural.
const DefaultTipRateBps uint64 = 100

// DefaultRebalanceInterval is the engine cycle cadence.
const DefaultRebalanceInterval = 10 * time.Minute

// DefaultStabilityWindow is how many consecutive cycles the same ark must
// report the top rate before capital is auctioned toward it. Chasing a
// rate that flips every cycle would pay auction spreads for nothing.
const DefaultStabilityWindow = 12

// DefaultDustThreshold is the balance below which an ark is not worth
// auctioning.
var DefaultDustThreshold = sdkmath.NewInt(100)
