/*

This file contains the auction types: decay parameters, the per-auction
record exposed to readers, and fill receipts.

*/

package types

import (
	"errors"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
)

// DecayCurve selects how the auction price falls from start to floor.
type DecayCurve string

const (
	DecayLinear    DecayCurve = "linear"
	DecayQuadratic DecayCurve = "quadratic"
)

var ErrInvalidAuctionParameters = errors.New("invalid auction parameters")

// AuctionParameters is the versioned configuration record consumed by
// every auction at creation time. Defaults are process-wide with a
// governance-gated update path; per-pair overrides use the same shape.
type AuctionParameters struct {
	// StartPriceMultiplier is the opening unit price as a multiple of
	// fair value. Must exceed FloorPriceMultiplier.
	StartPriceMultiplier sdkmath.LegacyDec `json:"start_price_multiplier"`

	// FloorPriceMultiplier is the terminal unit price multiple. Must be
	// positive.
	FloorPriceMultiplier sdkmath.LegacyDec `json:"floor_price_multiplier"`

	// Duration is the decay window from start price down to the floor.
	Duration time.Duration `json:"duration"`

	// FloorDuration is how long the auction remains fillable at the floor
	// after the decay window ends. Past Duration+FloorDuration the auction
	// is expired.
	FloorDuration time.Duration `json:"floor_duration"`

	DecayCurve DecayCurve `json:"decay_curve"`
}

// Validate rejects parameter sets that could produce a zero, negative or
// non-monotonic price schedule.
func (p AuctionParameters) Validate() error {
	if p.StartPriceMultiplier.IsNil() || p.FloorPriceMultiplier.IsNil() {
		return fmt.Errorf("%w: nil price multiplier", ErrInvalidAuctionParameters)
	}
	if !p.FloorPriceMultiplier.IsPositive() {
		return fmt.Errorf("%w: floor price multiplier must be positive", ErrInvalidAuctionParameters)
	}
	if !p.StartPriceMultiplier.GT(p.FloorPriceMultiplier) {
		return fmt.Errorf("%w: start price multiplier must exceed floor", ErrInvalidAuctionParameters)
	}
	if p.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidAuctionParameters)
	}
	if p.FloorDuration < 0 {
		return fmt.Errorf("%w: floor duration cannot be negative", ErrInvalidAuctionParameters)
	}
	switch p.DecayCurve {
	case DecayLinear, DecayQuadratic:
	default:
		return fmt.Errorf("%w: unknown decay curve %q", ErrInvalidAuctionParameters, p.DecayCurve)
	}
	return nil
}

// AuctionKey identifies the single live auction allowed for a
// (source, destination, asset) triple.
type AuctionKey struct {
	Source      Address `json:"source"`
	Destination Address `json:"destination"`
	Asset       string  `json:"asset"`
}

func (k AuctionKey) String() string {
	return fmt.Sprintf("%s->%s/%s", k.Source, k.Destination, k.Asset)
}

// AuctionStatus is the auction lifecycle state.
type AuctionStatus string

const (
	AuctionOpen    AuctionStatus = "open"
	AuctionSettled AuctionStatus = "settled"
	AuctionExpired AuctionStatus = "expired"
)

// AuctionRecord is the read-only snapshot of one auction.
type AuctionRecord struct {
	ID           uint64            `json:"id"`
	Key          AuctionKey        `json:"key"`
	Round        uint64            `json:"round"`
	Lot          sdkmath.Int       `json:"lot"`
	Filled       sdkmath.Int       `json:"filled"`
	Parameters   AuctionParameters `json:"parameters"`
	StartedAt    time.Time         `json:"started_at"`
	Status       AuctionStatus     `json:"status"`
	CurrentPrice sdkmath.LegacyDec `json:"current_price"`
}

// FillReceipt records one executed fill for persistence and analytics.
type FillReceipt struct {
	AuctionID uint64            `json:"auction_id"`
	Key       AuctionKey        `json:"key"`
	Bidder    Address           `json:"bidder"`
	Amount    sdkmath.Int       `json:"amount"`
	Price     sdkmath.LegacyDec `json:"price"`
	Payment   sdkmath.Int       `json:"payment"`
	Settled   bool              `json:"settled"`
	Timestamp time.Time         `json:"timestamp"`
}
