package ark

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/summer-earn/fleet/internal/events"
	"github.com/summer-earn/fleet/internal/types"
)

// bufferSource holds liquid, uninvested capital in process. It earns
// nothing; it exists so auctions can target "the commander" through the
// same ark interface as any other destination.
type bufferSource struct {
	balance sdkmath.Int
}

func (s *bufferSource) Deposit(amount sdkmath.Int) error {
	s.balance = s.balance.Add(amount)
	return nil
}

func (s *bufferSource) Withdraw(amount sdkmath.Int) error {
	if s.balance.LT(amount) {
		return fmt.Errorf("buffer holds %s, requested %s", s.balance, amount)
	}
	s.balance = s.balance.Sub(amount)
	return nil
}

func (s *bufferSource) Balance() (sdkmath.Int, error) {
	return s.balance, nil
}

func (s *bufferSource) Rate() (sdkmath.LegacyDec, error) {
	return sdkmath.LegacyZeroDec(), nil
}

// BufferArk is the commander's own liquid holding expressed as an ark.
type BufferArk struct {
	base
}

// NewBufferArk creates the commander's buffer ark. Buffer arks always
// support move-in and move-out and are effectively uncapped.
func NewBufferArk(id types.Address, asset string, commander types.Address, sink events.Sink) (*BufferArk, error) {
	if id.IsZero() {
		return nil, fmt.Errorf("buffer ark requires a non-zero id")
	}
	if commander.IsZero() {
		return nil, fmt.Errorf("buffer ark %s requires a commander", id)
	}
	if asset == "" {
		return nil, fmt.Errorf("buffer ark %s requires an asset", id)
	}
	cfg := types.ArkConfig{
		ID:           id,
		Type:         types.ArkTypeBuffer,
		Asset:        asset,
		Commander:    commander,
		DepositCap:   sdkmath.NewIntWithDecimal(1, 30), // effectively unbounded
		Capabilities: types.ArkCapabilities{MoveIn: true, MoveOut: true},
	}
	return &BufferArk{base: newBase(cfg, &bufferSource{balance: sdkmath.ZeroInt()}, sink)}, nil
}
