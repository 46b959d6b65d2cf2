/*

This file contains the per-cycle snapshot persisted by the engine. One row
captures the fleet before a rebalancing cycle, the directives the planner
produced, and the fleet afterwards.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// RebalanceSnapshot is the comprehensive record of one engine cycle.
type RebalanceSnapshot struct {
	CycleNumber int       `json:"cycle_number"`
	Timestamp   time.Time `json:"timestamp"`

	// Pre-cycle state
	InitialTotalAssets sdkmath.Int `json:"initial_total_assets"`
	InitialBuffer      sdkmath.Int `json:"initial_buffer"`
	InitialArks        []ArkStatus `json:"initial_arks"`

	// The plan
	Directives []RebalanceDirective `json:"directives"`

	// Auctions opened this cycle
	AuctionsStarted []uint64 `json:"auctions_started"`

	// Post-cycle state
	FinalTotalAssets sdkmath.Int `json:"final_total_assets"`
	FinalBuffer      sdkmath.Int `json:"final_buffer"`
	FinalArks        []ArkStatus `json:"final_arks"`
}

// TipAccrualRecord is the persisted row for one accrual run.
type TipAccrualRecord struct {
	TipAmount   sdkmath.Int `json:"tip_amount"`
	YieldDelta  sdkmath.Int `json:"yield_delta"`
	TipJar      Address     `json:"tip_jar"`
	TotalAssets sdkmath.Int `json:"total_assets"`
	Timestamp   time.Time   `json:"timestamp"`
}
