// Package commander implements the central allocator. The commander owns
// the set of registered arks and their caps, routes depositor capital into
// arks, and is the sole caller authorized to instruct an ark to move
// funds. Its realized yield is taxed by the tipper.
package commander

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/summer-earn/fleet/internal/ark"
	"github.com/summer-earn/fleet/internal/events"
	"github.com/summer-earn/fleet/internal/ledger"
	"github.com/summer-earn/fleet/internal/logger"
	"github.com/summer-earn/fleet/internal/types"
)

var (
	// ErrUnauthorized rejects governance calls from non-governor callers.
	ErrUnauthorized = errors.New("caller is not the governor")

	// ErrInsufficientCapital rejects allocations beyond the unallocated
	// buffer.
	ErrInsufficientCapital = errors.New("insufficient unallocated capital")

	// ErrUnknownArk rejects operations against unregistered arks.
	ErrUnknownArk = errors.New("unknown ark")

	// ErrDuplicateArk rejects registering the same ark id twice.
	ErrDuplicateArk = errors.New("ark already registered")

	// ErrAssetMismatch rejects arks bound to a different underlying asset.
	ErrAssetMismatch = errors.New("ark asset does not match fleet asset")
)

// Config wires a commander.
type Config struct {
	ID       types.Address
	Governor types.Address
	Asset    string
	Ledger   *ledger.Ledger
	Events   events.Sink

	// StabilityWindow and DustThreshold tune the rebalance planner; zero
	// values fall back to package defaults.
	StabilityWindow int
	DustThreshold   sdkmath.Int
}

// Commander is the fleet's central allocator.
//
// Exported methods take the fleet ledger lock and form the public surface.
// The handful of methods documented as "ledger-internal" do not lock; they
// exist for the auction manager and tipper, which call them from inside
// their own ledger transactions.
type Commander struct {
	id       types.Address
	governor types.Address
	asset    string
	ledger   *ledger.Ledger
	sink     events.Sink
	log      zerolog.Logger

	arks  map[types.Address]ark.Ark
	order []types.Address

	// buffer is depositor capital not yet boarded anywhere. principal is
	// net depositor flow; totalAssets minus principal is realized yield.
	buffer    sdkmath.Int
	principal sdkmath.Int

	// rebalance planner state, see rebalance.go
	stabilityWindow int
	dustThreshold   sdkmath.Int
	topHistory      []types.Address
}

// New creates a commander. All addresses and the ledger are required.
func New(cfg Config) (*Commander, error) {
	if cfg.ID.IsZero() {
		return nil, fmt.Errorf("commander id cannot be zero")
	}
	if cfg.Governor.IsZero() {
		return nil, fmt.Errorf("governor address cannot be zero")
	}
	if cfg.Asset == "" {
		return nil, fmt.Errorf("fleet asset cannot be empty")
	}
	if cfg.Ledger == nil {
		return nil, fmt.Errorf("ledger cannot be nil")
	}
	sink := cfg.Events
	if sink == nil {
		sink = events.Nop{}
	}
	window := cfg.StabilityWindow
	if window <= 0 {
		window = defaultStabilityWindow
	}
	dust := cfg.DustThreshold
	if dust.IsNil() {
		dust = sdkmath.NewInt(defaultDustThreshold)
	}
	return &Commander{
		id:              cfg.ID,
		governor:        cfg.Governor,
		asset:           cfg.Asset,
		ledger:          cfg.Ledger,
		sink:            sink,
		log:             logger.GetForComponent("commander"),
		arks:            make(map[types.Address]ark.Ark),
		buffer:          sdkmath.ZeroInt(),
		principal:       sdkmath.ZeroInt(),
		stabilityWindow: window,
		dustThreshold:   dust,
	}, nil
}

// RegisterArk adds an ark to the fleet. Governance-gated; the ark must be
// bound to this commander and to the fleet asset.
func (c *Commander) RegisterArk(caller types.Address, a ark.Ark) error {
	return c.ledger.Write(func() error {
		if caller != c.governor {
			return fmt.Errorf("%w: caller %s", ErrUnauthorized, caller)
		}
		if a == nil {
			return fmt.Errorf("cannot register a nil ark")
		}
		if a.Commander() != c.id {
			return fmt.Errorf("ark %s is bound to commander %s, not %s", a.ID(), a.Commander(), c.id)
		}
		if a.Asset() != c.asset {
			return fmt.Errorf("%w: ark %s carries %s, fleet carries %s",
				ErrAssetMismatch, a.ID(), a.Asset(), c.asset)
		}
		if _, exists := c.arks[a.ID()]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateArk, a.ID())
		}
		c.arks[a.ID()] = a
		c.order = append(c.order, a.ID())
		c.log.Info().
			Str("ark", a.ID().String()).
			Str("type", string(a.Type())).
			Str("cap", a.DepositCap().String()).
			Msg("Ark registered")
		return nil
	})
}

// Deposit records depositor capital arriving into the unallocated buffer.
// Token transfer mechanics live outside this engine; by the time Deposit
// is called the funds are held.
func (c *Commander) Deposit(amount sdkmath.Int) error {
	return c.ledger.Write(func() error {
		if err := types.ValidateAmount(amount); err != nil {
			return err
		}
		c.buffer = c.buffer.Add(amount)
		c.principal = c.principal.Add(amount)
		c.log.Info().Str("amount", amount.String()).Msg("Deposit received")
		return nil
	})
}

// WithdrawToDepositor releases buffered capital back to a depositor. Fails
// atomically if the buffer cannot cover the amount; deployed capital must
// be disembarked first.
func (c *Commander) WithdrawToDepositor(amount sdkmath.Int) error {
	return c.ledger.Write(func() error {
		if err := types.ValidateAmount(amount); err != nil {
			return err
		}
		if c.buffer.LT(amount) {
			return fmt.Errorf("%w: buffer %s, requested %s", ErrInsufficientCapital, c.buffer, amount)
		}
		c.buffer = c.buffer.Sub(amount)
		c.principal = c.principal.Sub(amount)
		c.log.Info().Str("amount", amount.String()).Msg("Depositor withdrawal")
		return nil
	})
}

// AllocateToArk boards buffered capital into one ark. The buffer is
// debited only after the board succeeds, so a cap rejection or external
// failure leaves the fleet unchanged.
func (c *Commander) AllocateToArk(arkID types.Address, amount sdkmath.Int) error {
	return c.ledger.Write(func() error {
		if err := types.ValidateAmount(amount); err != nil {
			return err
		}
		a, ok := c.arks[arkID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownArk, arkID)
		}
		if c.buffer.LT(amount) {
			return fmt.Errorf("%w: buffer %s, allocation %s", ErrInsufficientCapital, c.buffer, amount)
		}
		if err := a.Board(c.id, amount); err != nil {
			return err
		}
		c.buffer = c.buffer.Sub(amount)
		c.log.Info().
			Str("ark", arkID.String()).
			Str("amount", amount.String()).
			Msg("Capital allocated")
		return nil
	})
}

// DisembarkFromArk withdraws ark capital back into the buffer.
func (c *Commander) DisembarkFromArk(arkID types.Address, amount sdkmath.Int) error {
	return c.ledger.Write(func() error {
		a, ok := c.arks[arkID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownArk, arkID)
		}
		if err := a.Disembark(c.id, amount); err != nil {
			return err
		}
		c.buffer = c.buffer.Add(amount)
		return nil
	})
}

// TotalAssets reports buffer plus every ark's held balance.
func (c *Commander) TotalAssets() (sdkmath.Int, error) {
	var total sdkmath.Int
	var err error
	c.ledger.Read(func() {
		total, err = c.ManagedAssets()
	})
	return total, err
}

// Summary returns the dashboard view of the fleet.
func (c *Commander) Summary() (types.FleetSummary, error) {
	var out types.FleetSummary
	var err error
	c.ledger.Read(func() {
		out, err = c.summary()
	})
	return out, err
}

func (c *Commander) summary() (types.FleetSummary, error) {
	statuses := make([]types.ArkStatus, 0, len(c.order))
	total := c.buffer
	for _, id := range c.order {
		a := c.arks[id]
		held, err := a.TotalAssets()
		if err != nil {
			return types.FleetSummary{}, fmt.Errorf("summarizing ark %s: %w", id, err)
		}
		rate, err := a.Rate()
		if err != nil {
			rate = sdkmath.LegacyZeroDec()
		}
		statuses = append(statuses, types.ArkStatus{
			ID:           a.ID(),
			Type:         a.Type(),
			Asset:        a.Asset(),
			TotalAssets:  held,
			DepositCap:   a.DepositCap(),
			Rate:         rate,
			Capabilities: a.Capabilities(),
		})
		total = total.Add(held)
	}
	return types.FleetSummary{
		Commander:   c.id,
		Asset:       c.asset,
		TotalAssets: total,
		Buffer:      c.buffer,
		Principal:   c.principal,
		Arks:        statuses,
	}, nil
}

// --- ledger-internal surface -------------------------------------------
//
// The methods below do not take the ledger lock. They are invoked by the
// auction manager and tipper from inside a ledger write transaction.

// ID returns the commander's ledger address. Ledger-internal.
func (c *Commander) ID() types.Address { return c.id }

// Asset returns the fleet's underlying asset. Ledger-internal.
func (c *Commander) Asset() string { return c.asset }

// ArkByID resolves a registered ark. Ledger-internal.
func (c *Commander) ArkByID(id types.Address) (ark.Ark, bool) {
	a, ok := c.arks[id]
	return a, ok
}

// ManagedAssets reports buffer plus ark balances. Ledger-internal.
func (c *Commander) ManagedAssets() (sdkmath.Int, error) {
	total := c.buffer
	for _, id := range c.order {
		held, err := c.arks[id].TotalAssets()
		if err != nil {
			return sdkmath.ZeroInt(), fmt.Errorf("querying ark %s: %w", id, err)
		}
		total = total.Add(held)
	}
	return total, nil
}

// PrincipalDeposited reports net depositor flow. Ledger-internal.
func (c *Commander) PrincipalDeposited() sdkmath.Int { return c.principal }

// CreditBuffer adds auction proceeds to the buffer without touching
// principal, so the payment surfaces as realized yield. Ledger-internal.
func (c *Commander) CreditBuffer(amount sdkmath.Int) {
	if amount.IsNil() || !amount.IsPositive() {
		return
	}
	c.buffer = c.buffer.Add(amount)
}

// PayOut transfers amount out of the fleet (to the tip jar). The buffer
// covers what it can; any shortfall is disembarked from arks in
// registration order first. On failure nothing leaves the fleet: capital
// already gathered stays in the buffer. Ledger-internal.
func (c *Commander) PayOut(to types.Address, amount sdkmath.Int) error {
	if err := types.ValidateAmount(amount); err != nil {
		return err
	}
	if to.IsZero() {
		return fmt.Errorf("payout destination cannot be the zero address")
	}
	if c.buffer.LT(amount) {
		shortfall := amount.Sub(c.buffer)
		if err := c.gatherFromArks(shortfall); err != nil {
			return fmt.Errorf("covering payout shortfall of %s: %w", shortfall, err)
		}
	}
	c.buffer = c.buffer.Sub(amount)
	c.log.Info().
		Str("to", to.String()).
		Str("amount", amount.String()).
		Msg("Payout executed")
	return nil
}

// gatherFromArks disembarks at least needed into the buffer.
func (c *Commander) gatherFromArks(needed sdkmath.Int) error {
	remaining := needed
	for _, id := range c.order {
		if !remaining.IsPositive() {
			return nil
		}
		a := c.arks[id]
		held, err := a.TotalAssets()
		if err != nil {
			return err
		}
		take := sdkmath.MinInt(held, remaining)
		if !take.IsPositive() {
			continue
		}
		if err := a.Disembark(c.id, take); err != nil {
			return err
		}
		c.buffer = c.buffer.Add(take)
		remaining = remaining.Sub(take)
	}
	if remaining.IsPositive() {
		return fmt.Errorf("%w: short by %s", ErrInsufficientCapital, remaining)
	}
	return nil
}
