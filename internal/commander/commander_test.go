package commander_test

import (
	"errors"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summer-earn/fleet/internal/ark"
	"github.com/summer-earn/fleet/internal/commander"
	"github.com/summer-earn/fleet/internal/events"
	"github.com/summer-earn/fleet/internal/ledger"
	"github.com/summer-earn/fleet/internal/types"
)

const (
	fleetAsset = "usdc"
	cmdrID     = types.Address("commander-1")
	governor   = types.Address("governor-1")
)

type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time          { return c.t }
func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newCommander(t *testing.T, window int) (*commander.Commander, *ledger.Ledger) {
	t.Helper()
	led := ledger.New()
	c, err := commander.New(commander.Config{
		ID:              cmdrID,
		Governor:        governor,
		Asset:           fleetAsset,
		Ledger:          led,
		Events:          &events.Memory{},
		StabilityWindow: window,
		DustThreshold:   sdkmath.NewInt(10),
	})
	require.NoError(t, err)
	return c, led
}

func addLendingArk(t *testing.T, c *commander.Commander, id string, cap int64, rate string, clock *testClock, moveIn bool) {
	t.Helper()
	pool, err := ark.NewStaticRatePool(sdkmath.LegacyMustNewDecFromStr(rate), clock.now)
	require.NoError(t, err)
	a, err := ark.NewLendingArk(types.ArkConfig{
		ID:           types.Address(id),
		Asset:        fleetAsset,
		Commander:    cmdrID,
		DepositCap:   sdkmath.NewInt(cap),
		Capabilities: types.ArkCapabilities{MoveIn: moveIn, MoveOut: true},
	}, pool, nil)
	require.NoError(t, err)
	require.NoError(t, c.RegisterArk(governor, a))
}

func TestRegisterArkGovernance(t *testing.T) {
	c, _ := newCommander(t, 2)
	clock := &testClock{t: time.Now()}

	pool, err := ark.NewStaticRatePool(sdkmath.LegacyMustNewDecFromStr("0.05"), clock.now)
	require.NoError(t, err)
	a, err := ark.NewLendingArk(types.ArkConfig{
		ID:           "ark-a",
		Asset:        fleetAsset,
		Commander:    cmdrID,
		DepositCap:   sdkmath.NewInt(1000),
		Capabilities: types.ArkCapabilities{MoveIn: true, MoveOut: true},
	}, pool, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, c.RegisterArk(cmdrID, a), commander.ErrUnauthorized)
	require.NoError(t, c.RegisterArk(governor, a))
	assert.ErrorIs(t, c.RegisterArk(governor, a), commander.ErrDuplicateArk)

	// An ark bound to a different asset is rejected.
	otherPool, err := ark.NewStaticRatePool(sdkmath.LegacyMustNewDecFromStr("0.05"), clock.now)
	require.NoError(t, err)
	other, err := ark.NewLendingArk(types.ArkConfig{
		ID:           "ark-b",
		Asset:        "weth",
		Commander:    cmdrID,
		DepositCap:   sdkmath.NewInt(1000),
		Capabilities: types.ArkCapabilities{MoveIn: true, MoveOut: true},
	}, otherPool, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, c.RegisterArk(governor, other), commander.ErrAssetMismatch)
}

func TestDepositAllocateWithdraw(t *testing.T) {
	c, _ := newCommander(t, 2)
	clock := &testClock{t: time.Now()}
	addLendingArk(t, c, "ark-a", 600, "0.05", clock, true)

	require.NoError(t, c.Deposit(sdkmath.NewInt(1000)))

	// Allocation beyond the ark's cap fails and leaves the buffer whole.
	err := c.AllocateToArk("ark-a", sdkmath.NewInt(700))
	assert.ErrorIs(t, err, ark.ErrCapExceeded)
	summary, err := c.Summary()
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(1000), summary.Buffer)

	require.NoError(t, c.AllocateToArk("ark-a", sdkmath.NewInt(600)))
	summary, err = c.Summary()
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(400), summary.Buffer)
	assert.Equal(t, sdkmath.NewInt(1000), summary.TotalAssets)

	// Withdrawals come from the buffer only.
	assert.ErrorIs(t, c.WithdrawToDepositor(sdkmath.NewInt(500)), commander.ErrInsufficientCapital)
	require.NoError(t, c.DisembarkFromArk("ark-a", sdkmath.NewInt(100)))
	require.NoError(t, c.WithdrawToDepositor(sdkmath.NewInt(500)))

	summary, err = c.Summary()
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(500), summary.Principal)
	assert.Equal(t, sdkmath.NewInt(500), summary.TotalAssets)
}

func TestAllocateUnknownArk(t *testing.T) {
	c, _ := newCommander(t, 2)
	require.NoError(t, c.Deposit(sdkmath.NewInt(100)))
	assert.ErrorIs(t, c.AllocateToArk("nope", sdkmath.NewInt(50)), commander.ErrUnknownArk)
}

func TestPlanRebalanceWaitsForStability(t *testing.T) {
	c, _ := newCommander(t, 3)
	clock := &testClock{t: time.Now()}
	addLendingArk(t, c, "ark-low", 10_000, "0.02", clock, true)
	addLendingArk(t, c, "ark-high", 10_000, "0.09", clock, true)

	require.NoError(t, c.Deposit(sdkmath.NewInt(1000)))
	require.NoError(t, c.AllocateToArk("ark-low", sdkmath.NewInt(1000)))

	// The top ark must hold the lead for the whole window before any
	// directive is produced.
	for i := 0; i < 2; i++ {
		directives, err := c.PlanRebalance()
		require.NoError(t, err)
		assert.Empty(t, directives, "directive before window filled, observation %d", i+1)
	}

	directives, err := c.PlanRebalance()
	require.NoError(t, err)
	require.Len(t, directives, 1)
	assert.Equal(t, types.Address("ark-low"), directives[0].FromArk)
	assert.Equal(t, types.Address("ark-high"), directives[0].ToArk)
	assert.Equal(t, sdkmath.NewInt(1000), directives[0].Amount)
}

func TestPlanRebalanceIgnoresDust(t *testing.T) {
	c, _ := newCommander(t, 1)
	clock := &testClock{t: time.Now()}
	addLendingArk(t, c, "ark-low", 10_000, "0.02", clock, true)
	addLendingArk(t, c, "ark-high", 10_000, "0.09", clock, true)

	// Balance at the dust threshold is not worth auctioning.
	require.NoError(t, c.Deposit(sdkmath.NewInt(10)))
	require.NoError(t, c.AllocateToArk("ark-low", sdkmath.NewInt(10)))

	directives, err := c.PlanRebalance()
	require.NoError(t, err)
	assert.Empty(t, directives)
}

func TestPlanRebalanceSkipsImmovableTop(t *testing.T) {
	c, _ := newCommander(t, 1)
	clock := &testClock{t: time.Now()}
	addLendingArk(t, c, "ark-low", 10_000, "0.02", clock, true)
	// Highest rate but cannot accept move-in.
	addLendingArk(t, c, "ark-closed", 10_000, "0.20", clock, false)

	require.NoError(t, c.Deposit(sdkmath.NewInt(1000)))
	require.NoError(t, c.AllocateToArk("ark-low", sdkmath.NewInt(1000)))

	directives, err := c.PlanRebalance()
	require.NoError(t, err)
	assert.Empty(t, directives)
}

func TestPlanRebalanceTieBreaksDeterministically(t *testing.T) {
	c, _ := newCommander(t, 2)
	clock := &testClock{t: time.Now()}
	addLendingArk(t, c, "ark-a", 10_000, "0.05", clock, true)
	addLendingArk(t, c, "ark-b", 10_000, "0.05", clock, true)

	require.NoError(t, c.Deposit(sdkmath.NewInt(1000)))
	require.NoError(t, c.AllocateToArk("ark-b", sdkmath.NewInt(1000)))

	// Equal rates tie-break deterministically, so the window can fill;
	// the directive drains ark-b toward ark-a.
	_, err := c.PlanRebalance()
	require.NoError(t, err)
	directives, err := c.PlanRebalance()
	require.NoError(t, err)
	require.Len(t, directives, 1)
	assert.Equal(t, types.Address("ark-a"), directives[0].ToArk)
}

func TestPayOutGathersFromArks(t *testing.T) {
	c, led := newCommander(t, 2)
	clock := &testClock{t: time.Now()}
	addLendingArk(t, c, "ark-a", 10_000, "0", clock, true)

	require.NoError(t, c.Deposit(sdkmath.NewInt(1000)))
	require.NoError(t, c.AllocateToArk("ark-a", sdkmath.NewInt(900)))

	// Buffer holds 100; a 300 payout must disembark the shortfall.
	var payErr error
	require.NoError(t, led.Write(func() error {
		payErr = c.PayOut("jar-1", sdkmath.NewInt(300))
		return nil
	}))
	require.NoError(t, payErr)

	summary, err := c.Summary()
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(700), summary.TotalAssets)

	// Paying out more than the fleet holds fails.
	require.NoError(t, led.Write(func() error {
		payErr = c.PayOut("jar-1", sdkmath.NewInt(800))
		return nil
	}))
	assert.ErrorIs(t, payErr, commander.ErrInsufficientCapital)
}

// frozenPool accepts deposits but refuses redemptions, like a pool that
// has suspended withdrawals.
type frozenPool struct {
	balance sdkmath.Int
}

func (p *frozenPool) Supply(amount sdkmath.Int) error {
	p.balance = p.balance.Add(amount)
	return nil
}

func (p *frozenPool) Redeem(sdkmath.Int) error {
	return errors.New("pool withdrawals suspended")
}

func (p *frozenPool) SuppliedBalance() (sdkmath.Int, error)  { return p.balance, nil }
func (p *frozenPool) SupplyRate() (sdkmath.LegacyDec, error) { return sdkmath.LegacyZeroDec(), nil }

func TestPayOutPartialGatherKeepsFunds(t *testing.T) {
	c, led := newCommander(t, 2)
	clock := &testClock{t: time.Now()}
	addLendingArk(t, c, "ark-a", 10_000, "0", clock, true)

	frozen, err := ark.NewLendingArk(types.ArkConfig{
		ID:           "ark-b",
		Asset:        fleetAsset,
		Commander:    cmdrID,
		DepositCap:   sdkmath.NewInt(10_000),
		Capabilities: types.ArkCapabilities{MoveIn: true, MoveOut: true},
	}, &frozenPool{balance: sdkmath.ZeroInt()}, nil)
	require.NoError(t, err)
	require.NoError(t, c.RegisterArk(governor, frozen))

	require.NoError(t, c.Deposit(sdkmath.NewInt(1000)))
	require.NoError(t, c.AllocateToArk("ark-a", sdkmath.NewInt(500)))
	require.NoError(t, c.AllocateToArk("ark-b", sdkmath.NewInt(500)))

	// Covering 600 drains ark-a's 500, then dies on the frozen pool. The
	// gathered 500 stays in the buffer and nothing leaves the fleet.
	var payErr error
	require.NoError(t, led.Write(func() error {
		payErr = c.PayOut("jar-1", sdkmath.NewInt(600))
		return nil
	}))
	require.Error(t, payErr)

	summary, err := c.Summary()
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(500), summary.Buffer)
	assert.Equal(t, sdkmath.NewInt(1000), summary.TotalAssets)
}
