package tipper_test

import (
	"fmt"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summer-earn/fleet/internal/events"
	"github.com/summer-earn/fleet/internal/ledger"
	"github.com/summer-earn/fleet/internal/tipper"
	"github.com/summer-earn/fleet/internal/types"
)

const (
	governor = types.Address("governor-1")
	tipJar   = types.Address("jar-1")
)

// fakeFleet holds a managed balance the tests can move directly.
type fakeFleet struct {
	managed    sdkmath.Int
	principal  sdkmath.Int
	failPayout bool
}

func (f *fakeFleet) ManagedAssets() (sdkmath.Int, error) { return f.managed, nil }
func (f *fakeFleet) PrincipalDeposited() sdkmath.Int     { return f.principal }

func (f *fakeFleet) PayOut(to types.Address, amount sdkmath.Int) error {
	if f.failPayout {
		return fmt.Errorf("payout refused")
	}
	f.managed = f.managed.Sub(amount)
	return nil
}

func newTipper(t *testing.T, fleet *fakeFleet, rateBps uint64) (*tipper.Tipper, *events.Memory) {
	t.Helper()
	sink := &events.Memory{}
	tip, err := tipper.New(tipper.Config{
		Fleet:    fleet,
		Governor: governor,
		TipJar:   tipJar,
		TipRate:  types.NewPercentage(rateBps),
		Ledger:   ledger.New(),
		Events:   sink,
	})
	require.NoError(t, err)
	return tip, sink
}

func TestAccrueTipSkimsNewYieldOnly(t *testing.T) {
	fleet := &fakeFleet{managed: sdkmath.NewInt(1000), principal: sdkmath.NewInt(1000)}
	tip, sink := newTipper(t, fleet, 1000) // 10%

	// No yield yet, nothing to skim.
	paid, err := tip.AccrueTip()
	require.NoError(t, err)
	assert.True(t, paid.IsZero())

	// 200 units of yield appear: 10% skim.
	fleet.managed = sdkmath.NewInt(1200)
	paid, err = tip.AccrueTip()
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(20), paid)
	assert.Equal(t, sdkmath.NewInt(1180), fleet.managed)
	assert.Equal(t, sdkmath.NewInt(20), tip.TotalTipped())
	require.Len(t, sink.OfType("TipAccrued"), 1)
}

func TestAccrueTipIsIdempotent(t *testing.T) {
	fleet := &fakeFleet{managed: sdkmath.NewInt(1000), principal: sdkmath.NewInt(1000)}
	tip, _ := newTipper(t, fleet, 1000)

	fleet.managed = sdkmath.NewInt(1200)
	paid, err := tip.AccrueTip()
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(20), paid)

	// Balances unchanged since the skim: a second run pays nothing. The
	// payout itself lowered managed assets, which must not read as a loss
	// that later yield has to repay twice.
	paid, err = tip.AccrueTip()
	require.NoError(t, err)
	assert.True(t, paid.IsZero())
	assert.Equal(t, sdkmath.NewInt(1180), fleet.managed)

	// New yield is measured against the snapshot, which includes the 20
	// paid out: yield is now 280, snapshot 200, so the delta is 80.
	fleet.managed = sdkmath.NewInt(1280)
	paid, err = tip.AccrueTip()
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(8), paid)
}

func TestAccrueTipAfterLoss(t *testing.T) {
	fleet := &fakeFleet{managed: sdkmath.NewInt(1000), principal: sdkmath.NewInt(1000)}
	tip, _ := newTipper(t, fleet, 1000)

	fleet.managed = sdkmath.NewInt(1100)
	_, err := tip.AccrueTip()
	require.NoError(t, err)

	// A loss drops yield below the snapshot: no tip, and the snapshot
	// holds so the loss must be re-earned before tips resume.
	fleet.managed = sdkmath.NewInt(1040)
	paid, err := tip.AccrueTip()
	require.NoError(t, err)
	assert.True(t, paid.IsZero())

	// Recovering below the snapshot (100) still pays nothing.
	fleet.managed = sdkmath.NewInt(1090) // yield 90
	paid, err = tip.AccrueTip()
	require.NoError(t, err)
	assert.True(t, paid.IsZero())

	// Only yield beyond the high-water mark is skimmed.
	fleet.managed = sdkmath.NewInt(1140) // yield 140, delta 40
	paid, err = tip.AccrueTip()
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(4), paid)
}

func TestAccrueTipNeverTouchesPrincipal(t *testing.T) {
	fleet := &fakeFleet{managed: sdkmath.NewInt(10_000), principal: sdkmath.NewInt(10_000)}
	tip, _ := newTipper(t, fleet, 10_000) // 100%

	fleet.managed = sdkmath.NewInt(10_500)
	paid, err := tip.AccrueTip()
	require.NoError(t, err)

	// Even at a 100% rate the tip equals the yield, never more.
	assert.Equal(t, sdkmath.NewInt(500), paid)
	assert.Equal(t, fleet.principal, fleet.managed)
}

func TestSetTipRateGovernance(t *testing.T) {
	fleet := &fakeFleet{managed: sdkmath.NewInt(1000), principal: sdkmath.NewInt(1000)}
	tip, sink := newTipper(t, fleet, 100)

	assert.ErrorIs(t, tip.SetTipRate(tipJar, types.NewPercentage(200)), tipper.ErrUnauthorized)

	// A rate above 100% is rejected and the old rate stays in force.
	err := tip.SetTipRate(governor, types.NewPercentage(15_000))
	assert.ErrorIs(t, err, tipper.ErrTipRateTooHigh)
	assert.Equal(t, uint64(100), tip.TipRate().Bps)

	require.NoError(t, tip.SetTipRate(governor, types.NewPercentage(250)))
	assert.Equal(t, uint64(250), tip.TipRate().Bps)
	require.Len(t, sink.OfType("TipRateUpdated"), 1)

	// Zero disables skimming.
	require.NoError(t, tip.SetTipRate(governor, types.NewPercentage(0)))
	fleet.managed = sdkmath.NewInt(2000)
	paid, err := tip.AccrueTip()
	require.NoError(t, err)
	assert.True(t, paid.IsZero())
}

func TestSetTipJarGovernance(t *testing.T) {
	fleet := &fakeFleet{managed: sdkmath.NewInt(1000), principal: sdkmath.NewInt(1000)}
	tip, sink := newTipper(t, fleet, 100)

	assert.ErrorIs(t, tip.SetTipJar(tipJar, "jar-2"), tipper.ErrUnauthorized)

	// The zero address is rejected and the old jar stays in force.
	assert.ErrorIs(t, tip.SetTipJar(governor, types.ZeroAddress), tipper.ErrInvalidTipJar)
	assert.Equal(t, tipJar, tip.TipJar())

	require.NoError(t, tip.SetTipJar(governor, "jar-2"))
	assert.Equal(t, types.Address("jar-2"), tip.TipJar())
	require.Len(t, sink.OfType("TipJarUpdated"), 1)
}

func TestAccrueTipPayoutFailureKeepsSnapshot(t *testing.T) {
	fleet := &fakeFleet{managed: sdkmath.NewInt(1000), principal: sdkmath.NewInt(1000)}
	tip, _ := newTipper(t, fleet, 1000)

	fleet.managed = sdkmath.NewInt(1200)
	fleet.failPayout = true
	_, err := tip.AccrueTip()
	require.Error(t, err)
	assert.True(t, tip.TotalTipped().IsZero())

	// After the payout path recovers, the same yield is still skimmable.
	fleet.failPayout = false
	paid, err := tip.AccrueTip()
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(20), paid)
}

func TestNewTipperValidation(t *testing.T) {
	fleet := &fakeFleet{managed: sdkmath.NewInt(0), principal: sdkmath.NewInt(0)}

	_, err := tipper.New(tipper.Config{
		Fleet: fleet, Governor: governor, TipJar: types.ZeroAddress,
		TipRate: types.NewPercentage(100), Ledger: ledger.New(),
	})
	assert.ErrorIs(t, err, tipper.ErrInvalidTipJar)

	_, err = tipper.New(tipper.Config{
		Fleet: fleet, Governor: governor, TipJar: tipJar,
		TipRate: types.NewPercentage(10_001), Ledger: ledger.New(),
	})
	assert.ErrorIs(t, err, tipper.ErrTipRateTooHigh)
}
