package ark

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/summer-earn/fleet/internal/events"
	"github.com/summer-earn/fleet/internal/types"
)

// LendingPool is the slice of an external lending protocol a lending ark
// needs. Supply and Redeem either fully succeed or return an error having
// changed nothing on the pool side.
type LendingPool interface {
	Supply(amount sdkmath.Int) error
	Redeem(amount sdkmath.Int) error
	SuppliedBalance() (sdkmath.Int, error)
	SupplyRate() (sdkmath.LegacyDec, error)
}

// lendingSource adapts a LendingPool to the YieldSource boundary.
type lendingSource struct {
	pool LendingPool
}

func (s lendingSource) Deposit(amount sdkmath.Int) error  { return s.pool.Supply(amount) }
func (s lendingSource) Withdraw(amount sdkmath.Int) error { return s.pool.Redeem(amount) }
func (s lendingSource) Balance() (sdkmath.Int, error)     { return s.pool.SuppliedBalance() }
func (s lendingSource) Rate() (sdkmath.LegacyDec, error)  { return s.pool.SupplyRate() }

// LendingArk invests commander capital into one external lending pool.
type LendingArk struct {
	base
}

// NewLendingArk binds an ark to a lending pool. The binding is immutable
// for the ark's lifetime.
func NewLendingArk(cfg types.ArkConfig, pool LendingPool, sink events.Sink) (*LendingArk, error) {
	if cfg.ID.IsZero() {
		return nil, fmt.Errorf("lending ark requires a non-zero id")
	}
	if cfg.Commander.IsZero() {
		return nil, fmt.Errorf("lending ark %s requires a commander", cfg.ID)
	}
	if cfg.Asset == "" {
		return nil, fmt.Errorf("lending ark %s requires an asset", cfg.ID)
	}
	if pool == nil {
		return nil, fmt.Errorf("lending ark %s requires a pool", cfg.ID)
	}
	if cfg.DepositCap.IsNil() || cfg.DepositCap.IsNegative() {
		return nil, fmt.Errorf("lending ark %s requires a non-negative deposit cap", cfg.ID)
	}
	cfg.Type = types.ArkTypeLending
	return &LendingArk{base: newBase(cfg, lendingSource{pool: pool}, sink)}, nil
}
