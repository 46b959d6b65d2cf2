/*

This file contains the event records emitted by the core components. Events
are facts about completed state transitions; they are emitted only after
the transition has fully succeeded.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// Event is a completed state transition record. Payloads are plain structs
// so sinks can marshal them without reflection tricks.
type Event interface {
	EventType() string
}

// BoardEvent records capital entering an ark's external yield source.
type BoardEvent struct {
	Ark        Address     `json:"ark"`
	Token      string      `json:"token"`
	Amount     sdkmath.Int `json:"amount"`
	OnBehalfOf Address     `json:"on_behalf_of"`
	Timestamp  time.Time   `json:"timestamp"`
}

func (BoardEvent) EventType() string { return "Board" }

// DisembarkEvent records capital leaving an ark back to the commander.
type DisembarkEvent struct {
	Ark       Address     `json:"ark"`
	Token     string      `json:"token"`
	Amount    sdkmath.Int `json:"amount"`
	To        Address     `json:"to"`
	Timestamp time.Time   `json:"timestamp"`
}

func (DisembarkEvent) EventType() string { return "Disembark" }

// MoveEvent records a direct ark-to-ark transfer.
type MoveEvent struct {
	FromArk   Address     `json:"from_ark"`
	ToArk     Address     `json:"to_ark"`
	Token     string      `json:"token"`
	Amount    sdkmath.Int `json:"amount"`
	Timestamp time.Time   `json:"timestamp"`
}

func (MoveEvent) EventType() string { return "Move" }

// AuctionStartedEvent records a new rebalancing auction.
type AuctionStartedEvent struct {
	AuctionID  uint64            `json:"auction_id"`
	Key        AuctionKey        `json:"key"`
	Round      uint64            `json:"round"`
	Lot        sdkmath.Int       `json:"lot"`
	Parameters AuctionParameters `json:"parameters"`
	Timestamp  time.Time         `json:"timestamp"`
}

func (AuctionStartedEvent) EventType() string { return "AuctionStarted" }

// FillEvent records one fill against an open auction.
type FillEvent struct {
	Receipt FillReceipt `json:"receipt"`
}

func (FillEvent) EventType() string { return "Fill" }

// AuctionExpiredEvent records the lazy expiry of an unfilled auction.
type AuctionExpiredEvent struct {
	AuctionID uint64      `json:"auction_id"`
	Key       AuctionKey  `json:"key"`
	Unfilled  sdkmath.Int `json:"unfilled"`
	Timestamp time.Time   `json:"timestamp"`
}

func (AuctionExpiredEvent) EventType() string { return "AuctionExpired" }

// AuctionDefaultParametersUpdatedEvent records a governance change to the
// process-wide auction defaults.
type AuctionDefaultParametersUpdatedEvent struct {
	Version   int               `json:"version"`
	NewConfig AuctionParameters `json:"new_config"`
	Timestamp time.Time         `json:"timestamp"`
}

func (AuctionDefaultParametersUpdatedEvent) EventType() string {
	return "AuctionDefaultParametersUpdated"
}

// TipRateUpdatedEvent records a governance change to the tip rate.
type TipRateUpdatedEvent struct {
	NewRate   Percentage `json:"new_rate"`
	Timestamp time.Time  `json:"timestamp"`
}

func (TipRateUpdatedEvent) EventType() string { return "TipRateUpdated" }

// TipJarUpdatedEvent records a governance change to the tip jar address.
type TipJarUpdatedEvent struct {
	NewTipJar Address   `json:"new_tip_jar"`
	Timestamp time.Time `json:"timestamp"`
}

func (TipJarUpdatedEvent) EventType() string { return "TipJarUpdated" }

// TipAccruedEvent records a completed yield skim.
type TipAccruedEvent struct {
	TipAmount  sdkmath.Int `json:"tip_amount"`
	YieldDelta sdkmath.Int `json:"yield_delta"`
	TipJar     Address     `json:"tip_jar"`
	Timestamp  time.Time   `json:"timestamp"`
}

func (TipAccruedEvent) EventType() string { return "TipAccrued" }

// ArkCreatedEvent records a factory-constructed ark.
type ArkCreatedEvent struct {
	Ark       Address   `json:"ark"`
	Raft      Address   `json:"raft"`
	Token     string    `json:"token"`
	ArkType   ArkType   `json:"ark_type"`
	Timestamp time.Time `json:"timestamp"`
}

func (ArkCreatedEvent) EventType() string { return "ArkCreated" }

// RaftUpdatedEvent records a change of the factory's treasury address.
type RaftUpdatedEvent struct {
	NewRaft   Address   `json:"new_raft"`
	Timestamp time.Time `json:"timestamp"`
}

func (RaftUpdatedEvent) EventType() string { return "RaftUpdated" }

// GovernorUpdatedEvent records a change of the factory's governor address.
type GovernorUpdatedEvent struct {
	NewGovernor Address   `json:"new_governor"`
	Timestamp   time.Time `json:"timestamp"`
}

func (GovernorUpdatedEvent) EventType() string { return "GovernorUpdated" }
