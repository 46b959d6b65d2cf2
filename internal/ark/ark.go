// Package ark implements the strategy adapters holding deployed capital in
// external yield sources. An ark's only mutating surface is the
// board/disembark/move triad, and every mutation is gated to the single
// commander the ark was bound to at creation. Arks do not take the fleet
// ledger lock themselves; they are reachable only through callers that
// already hold it.
package ark

import (
	"errors"

	sdkmath "cosmossdk.io/math"

	"github.com/summer-earn/fleet/internal/types"
)

var (
	// ErrUnauthorized rejects any mutating call from a non-commander.
	ErrUnauthorized = errors.New("caller is not the commander")

	// ErrCapExceeded rejects deposits that would push the ark past its
	// configured cap.
	ErrCapExceeded = errors.New("deposit cap exceeded")

	// ErrInsufficientBalance rejects withdrawals beyond the ark's holding.
	ErrInsufficientBalance = errors.New("insufficient ark balance")

	// ErrIncompatibleAsset rejects moves between arks bound to different
	// underlying assets.
	ErrIncompatibleAsset = errors.New("incompatible ark asset")

	// ErrMoveNotSupported rejects moves an ark's capability flags forbid.
	ErrMoveNotSupported = errors.New("move not supported by ark capabilities")
)

// YieldSource is the adapter boundary to the wrapped external protocol.
// Calls either fully succeed or return an error having changed nothing;
// internal ark bookkeeping happens only after a source call succeeds.
type YieldSource interface {
	// Deposit places amount into the external source.
	Deposit(amount sdkmath.Int) error

	// Withdraw removes amount from the external source.
	Withdraw(amount sdkmath.Int) error

	// Balance reports the currently held amount. Pure read.
	Balance() (sdkmath.Int, error)

	// Rate reports the source's current yield rate. Pure read.
	Rate() (sdkmath.LegacyDec, error)
}

// Ark is the single-strategy yield adapter contract. The commander and the
// auction manager depend only on this interface, never on a concrete
// variant.
type Ark interface {
	ID() types.Address
	Type() types.ArkType
	Asset() string
	Commander() types.Address
	DepositCap() sdkmath.Int
	Capabilities() types.ArkCapabilities

	// TotalAssets reports the ark's externally held balance. Pure read,
	// never negative.
	TotalAssets() (sdkmath.Int, error)

	// Rate reports the wrapped source's current yield rate. Pure read.
	Rate() (sdkmath.LegacyDec, error)

	// Board accepts capital from the commander into the external source.
	Board(caller types.Address, amount sdkmath.Int) error

	// Disembark withdraws capital from the external source back to the
	// commander.
	Disembark(caller types.Address, amount sdkmath.Int) error

	// Move transfers capital directly to another ark, all-or-nothing.
	Move(caller types.Address, amount sdkmath.Int, destination Ark) error
}
