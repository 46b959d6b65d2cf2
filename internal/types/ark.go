/*

This file contains the identity and configuration types for Arks and the
actors around them.

*/

package types

import (
	sdkmath "cosmossdk.io/math"
)

// Address identifies an actor on the fleet's ledger: an ark, the
// commander, the governor, the raft treasury, a bidder, or the tip jar.
type Address string

// ZeroAddress is the null address. Setters must reject it.
const ZeroAddress Address = ""

// IsZero reports whether the address is the null address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

func (a Address) String() string {
	return string(a)
}

// ArkType tags the concrete adapter variant behind the Ark interface.
type ArkType string

const (
	ArkTypeLending ArkType = "lending" // wraps an external lending pool
	ArkTypeBuffer  ArkType = "buffer"  // the commander's own liquid holding
)

// ArkCapabilities flags which sides of a rebalancing move an ark supports.
// A drained, deprecated ark keeps MoveOut so it can be emptied but loses
// MoveIn.
type ArkCapabilities struct {
	MoveIn  bool `json:"move_in"`
	MoveOut bool `json:"move_out"`
}

// ArkConfig is the immutable binding established at creation time.
type ArkConfig struct {
	ID           Address         `json:"id"`
	Type         ArkType         `json:"type"`
	Asset        string          `json:"asset"`
	Commander    Address         `json:"commander"`
	Raft         Address         `json:"raft"`
	DepositCap   sdkmath.Int     `json:"deposit_cap"`
	Capabilities ArkCapabilities `json:"capabilities"`
}

// ArkStatus is a read-only snapshot of one ark for the dashboard and for
// cycle snapshots.
type ArkStatus struct {
	ID           Address           `json:"id"`
	Type         ArkType           `json:"type"`
	Asset        string            `json:"asset"`
	TotalAssets  sdkmath.Int       `json:"total_assets"`
	DepositCap   sdkmath.Int       `json:"deposit_cap"`
	Rate         sdkmath.LegacyDec `json:"rate"`
	Capabilities ArkCapabilities   `json:"capabilities"`
}

// FleetSummary is the commander-level view served by the web dashboard.
type FleetSummary struct {
	Commander   Address     `json:"commander"`
	Asset       string      `json:"asset"`
	TotalAssets sdkmath.Int `json:"total_assets"`
	Buffer      sdkmath.Int `json:"buffer"`
	Principal   sdkmath.Int `json:"principal"`
	Arks        []ArkStatus `json:"arks"`
}

// RebalanceDirective is one planned capital movement, executed through an
// auction rather than a direct transfer.
type RebalanceDirective struct {
	FromArk Address     `json:"from_ark"`
	ToArk   Address     `json:"to_ark"`
	Amount  sdkmath.Int `json:"amount"`
}
