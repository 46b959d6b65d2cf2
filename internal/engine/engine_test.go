package engine_test

import (
	"context"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summer-earn/fleet/internal/ark"
	"github.com/summer-earn/fleet/internal/auction"
	"github.com/summer-earn/fleet/internal/commander"
	"github.com/summer-earn/fleet/internal/engine"
	"github.com/summer-earn/fleet/internal/events"
	"github.com/summer-earn/fleet/internal/ledger"
	"github.com/summer-earn/fleet/internal/tipper"
	"github.com/summer-earn/fleet/internal/types"
)

const (
	fleetAsset = "usdc"
	cmdrID     = types.Address("commander-1")
	governor   = types.Address("governor-1")
)

func buildFleet(t *testing.T) (*engine.Engine, *commander.Commander, *auction.Manager) {
	t.Helper()
	led := ledger.New()
	sink := &events.Memory{}

	cmdr, err := commander.New(commander.Config{
		ID:              cmdrID,
		Governor:        governor,
		Asset:           fleetAsset,
		Ledger:          led,
		Events:          sink,
		StabilityWindow: 1,
	})
	require.NoError(t, err)

	for _, spec := range []struct {
		id   string
		rate string
	}{
		{"ark-low", "0.02"},
		{"ark-high", "0.09"},
	} {
		pool, err := ark.NewStaticRatePool(sdkmath.LegacyMustNewDecFromStr(spec.rate), nil)
		require.NoError(t, err)
		a, err := ark.NewLendingArk(types.ArkConfig{
			ID:           types.Address(spec.id),
			Asset:        fleetAsset,
			Commander:    cmdrID,
			DepositCap:   sdkmath.NewInt(1_000_000),
			Capabilities: types.ArkCapabilities{MoveIn: true, MoveOut: true},
		}, pool, sink)
		require.NoError(t, err)
		require.NoError(t, cmdr.RegisterArk(governor, a))
	}

	mgr, err := auction.NewManager(auction.Config{
		Fleet:    cmdr,
		Governor: governor,
		Ledger:   led,
		Events:   sink,
		Defaults: types.AuctionParameters{
			StartPriceMultiplier: sdkmath.LegacyMustNewDecFromStr("1.05"),
			FloorPriceMultiplier: sdkmath.LegacyMustNewDecFromStr("0.98"),
			Duration:             time.Hour,
			FloorDuration:        30 * time.Minute,
			DecayCurve:           types.DecayLinear,
		},
	})
	require.NoError(t, err)

	tip, err := tipper.New(tipper.Config{
		Fleet:    cmdr,
		Governor: governor,
		TipJar:   types.Address("jar-1"),
		TipRate:  types.NewPercentage(100),
		Ledger:   led,
		Events:   sink,
	})
	require.NoError(t, err)

	eng, err := engine.NewEngine(engine.Config{
		Commander: cmdr,
		Auctions:  mgr,
		Tipper:    tip,
		Persist:   false,
	})
	require.NoError(t, err)
	return eng, cmdr, mgr
}

func TestRunCycleOpensAuctionsForDirectives(t *testing.T) {
	eng, cmdr, mgr := buildFleet(t)

	require.NoError(t, cmdr.Deposit(sdkmath.NewInt(1000)))
	require.NoError(t, cmdr.AllocateToArk("ark-low", sdkmath.NewInt(1000)))

	eng.RunCycle(context.Background())

	records := mgr.Snapshots()
	require.Len(t, records, 1)
	assert.Equal(t, types.Address("ark-low"), records[0].Key.Source)
	assert.Equal(t, types.Address("ark-high"), records[0].Key.Destination)
	assert.Equal(t, sdkmath.NewInt(1000), records[0].Lot)

	// A second cycle re-plans the same directive; the live auction blocks
	// a duplicate and the cycle carries on.
	eng.RunCycle(context.Background())
	assert.Len(t, mgr.Snapshots(), 1)
}

func TestRunCycleHoldsWithoutDirectives(t *testing.T) {
	eng, cmdr, mgr := buildFleet(t)

	// Everything already sits in the top-rate ark.
	require.NoError(t, cmdr.Deposit(sdkmath.NewInt(1000)))
	require.NoError(t, cmdr.AllocateToArk("ark-high", sdkmath.NewInt(1000)))

	eng.RunCycle(context.Background())
	assert.Empty(t, mgr.Snapshots())
}

func TestNewEngineValidation(t *testing.T) {
	_, err := engine.NewEngine(engine.Config{})
	assert.Error(t, err)
}
