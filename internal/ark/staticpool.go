package ark

import (
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
)

// StaticRatePool is an in-process LendingPool that accrues interest at a
// fixed annual rate. It backs sim-mode fleets and tests; live deployments
// plug real protocol adapters into the same interface.
type StaticRatePool struct {
	rate      sdkmath.LegacyDec // annual supply rate, e.g. 0.045
	principal sdkmath.Int
	accrued   sdkmath.Int
	lastTick  time.Time
	now       func() time.Time
}

const secondsPerYear = 365 * 24 * 60 * 60

// NewStaticRatePool creates a pool with the given annual supply rate.
// A nil clock defaults to time.Now.
func NewStaticRatePool(rate sdkmath.LegacyDec, now func() time.Time) (*StaticRatePool, error) {
	if rate.IsNil() || rate.IsNegative() {
		return nil, fmt.Errorf("static rate pool requires a non-negative rate")
	}
	if now == nil {
		now = time.Now
	}
	return &StaticRatePool{
		rate:      rate,
		principal: sdkmath.ZeroInt(),
		accrued:   sdkmath.ZeroInt(),
		lastTick:  now(),
		now:       now,
	}, nil
}

// pending computes interest earned since the last tick without touching
// state, so balance queries stay pure reads. Simple (non-compounding)
// interest keeps the simulation deterministic.
func (p *StaticRatePool) pending(at time.Time) sdkmath.Int {
	elapsed := at.Sub(p.lastTick)
	if elapsed <= 0 || !p.principal.IsPositive() || p.rate.IsZero() {
		return sdkmath.ZeroInt()
	}
	return p.rate.
		MulInt(p.principal).
		MulInt64(int64(elapsed / time.Second)).
		QuoInt64(secondsPerYear).
		TruncateInt()
}

// accrue folds pending interest into the balance before a mutation.
func (p *StaticRatePool) accrue() {
	nowT := p.now()
	p.accrued = p.accrued.Add(p.pending(nowT))
	p.lastTick = nowT
}

func (p *StaticRatePool) Supply(amount sdkmath.Int) error {
	p.accrue()
	p.principal = p.principal.Add(amount)
	return nil
}

func (p *StaticRatePool) Redeem(amount sdkmath.Int) error {
	p.accrue()
	total := p.principal.Add(p.accrued)
	if total.LT(amount) {
		return fmt.Errorf("pool holds %s, redeem %s", total, amount)
	}
	// Drain accrued interest first so principal keeps earning.
	fromAccrued := sdkmath.MinInt(p.accrued, amount)
	p.accrued = p.accrued.Sub(fromAccrued)
	p.principal = p.principal.Sub(amount.Sub(fromAccrued))
	return nil
}

func (p *StaticRatePool) SuppliedBalance() (sdkmath.Int, error) {
	return p.principal.Add(p.accrued).Add(p.pending(p.now())), nil
}

func (p *StaticRatePool) SupplyRate() (sdkmath.LegacyDec, error) {
	return p.rate, nil
}
