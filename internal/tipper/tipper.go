// Package tipper skims a percentage of realized yield to the tip jar.
// Principal is never touched: tips come only out of the yield the fleet
// has earned above what depositors put in.
package tipper

import (
	"errors"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/summer-earn/fleet/internal/events"
	"github.com/summer-earn/fleet/internal/ledger"
	"github.com/summer-earn/fleet/internal/logger"
	"github.com/summer-earn/fleet/internal/types"
)

var (
	// ErrUnauthorized rejects non-governor callers on config changes.
	ErrUnauthorized = errors.New("caller is not the governor")

	// ErrTipRateTooHigh rejects rates above one hundred percent. The old
	// rate stays in force when a new one is rejected.
	ErrTipRateTooHigh = errors.New("tip rate cannot exceed one hundred percent")

	// ErrInvalidTipJar rejects the zero address as a tip destination.
	ErrInvalidTipJar = errors.New("tip jar address cannot be zero")
)

// Fleet is the slice of the commander the tipper reads and pays from.
// Methods are invoked from inside the tipper's ledger transaction and
// must not take the ledger lock themselves.
type Fleet interface {
	ManagedAssets() (sdkmath.Int, error)
	PrincipalDeposited() sdkmath.Int
	PayOut(to types.Address, amount sdkmath.Int) error
}

// Config wires a Tipper.
type Config struct {
	Fleet    Fleet
	Governor types.Address
	TipJar   types.Address
	TipRate  types.Percentage
	Ledger   *ledger.Ledger
	Events   events.Sink

	// Now is the clock; nil defaults to time.Now. Injected for tests.
	Now func() time.Time
}

// Tipper tracks how much yield has already been accounted and skims the
// configured percentage of each new increment. Accrual is idempotent:
// running it twice against the same balances pays nothing the second
// time, because the snapshot advances by the whole yield delta whether or
// not the floor-divided tip captured every unit of it.
type Tipper struct {
	fleet    Fleet
	governor types.Address
	ledger   *ledger.Ledger
	sink     events.Sink
	log      zerolog.Logger
	now      func() time.Time

	tipJar  types.Address
	tipRate types.Percentage

	// yieldSnapshot is the cumulative yield already accounted for.
	yieldSnapshot sdkmath.Int
	totalTipped   sdkmath.Int
	lastAccrual   *types.TipAccrualRecord
}

// New creates a Tipper. The initial rate and jar go through the same
// validation as later governance updates.
func New(cfg Config) (*Tipper, error) {
	if cfg.Fleet == nil {
		return nil, fmt.Errorf("fleet cannot be nil")
	}
	if cfg.Governor.IsZero() {
		return nil, fmt.Errorf("governor address cannot be zero")
	}
	if cfg.Ledger == nil {
		return nil, fmt.Errorf("ledger cannot be nil")
	}
	if cfg.TipJar.IsZero() {
		return nil, ErrInvalidTipJar
	}
	if !cfg.TipRate.Valid() {
		return nil, ErrTipRateTooHigh
	}
	sink := cfg.Events
	if sink == nil {
		sink = events.Nop{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Tipper{
		fleet:         cfg.Fleet,
		governor:      cfg.Governor,
		ledger:        cfg.Ledger,
		sink:          sink,
		log:           logger.GetForComponent("tipper"),
		now:           now,
		tipJar:        cfg.TipJar,
		tipRate:       cfg.TipRate,
		yieldSnapshot: sdkmath.ZeroInt(),
		totalTipped:   sdkmath.ZeroInt(),
	}, nil
}

// SetTipRate installs a new skim rate. Governance-gated; a rejected rate
// leaves the previous one in force. A zero rate is valid and disables
// skimming without disturbing the snapshot.
func (t *Tipper) SetTipRate(caller types.Address, rate types.Percentage) error {
	return t.ledger.Write(func() error {
		if caller != t.governor {
			return fmt.Errorf("%w: %s cannot set the tip rate", ErrUnauthorized, caller)
		}
		if !rate.Valid() {
			return fmt.Errorf("%w: %s", ErrTipRateTooHigh, rate)
		}
		t.tipRate = rate
		t.log.Info().Str("rate", rate.String()).Msg("Tip rate updated")
		t.sink.Emit(types.TipRateUpdatedEvent{NewRate: rate, Timestamp: t.now()})
		return nil
	})
}

// SetTipJar installs a new tip destination. Governance-gated.
func (t *Tipper) SetTipJar(caller types.Address, jar types.Address) error {
	return t.ledger.Write(func() error {
		if caller != t.governor {
			return fmt.Errorf("%w: %s cannot set the tip jar", ErrUnauthorized, caller)
		}
		if jar.IsZero() {
			return ErrInvalidTipJar
		}
		t.tipJar = jar
		t.log.Info().Str("tip_jar", jar.String()).Msg("Tip jar updated")
		t.sink.Emit(types.TipJarUpdatedEvent{NewTipJar: jar, Timestamp: t.now()})
		return nil
	})
}

// AccrueTip measures the yield earned since the last accrual and pays the
// configured percentage of it to the tip jar. Anyone may call it; the
// caller gains nothing beyond keeping the books current. Returns the tip
// paid, which is zero whenever the fleet has earned nothing new.
func (t *Tipper) AccrueTip() (sdkmath.Int, error) {
	tip := sdkmath.ZeroInt()
	err := t.ledger.Write(func() error {
		managed, err := t.fleet.ManagedAssets()
		if err != nil {
			return fmt.Errorf("measuring managed assets: %w", err)
		}
		yield := managed.Sub(t.fleet.PrincipalDeposited())
		delta := yield.Sub(t.yieldSnapshot)
		if !delta.IsPositive() {
			// Flat or negative since last accrual. The snapshot is not
			// lowered: a loss must be re-earned before tips resume.
			return nil
		}

		tip = t.tipRate.ApplyTo(delta)
		if !tip.IsPositive() {
			// The snapshot still advances by the full delta so the
			// remainder lost to truncation is never re-skimmed later.
			t.yieldSnapshot = t.yieldSnapshot.Add(delta)
			return nil
		}

		// Pay before advancing the snapshot: a failed payout leaves the
		// delta unaccounted and skimmable on the next run.
		if err := t.fleet.PayOut(t.tipJar, tip); err != nil {
			return fmt.Errorf("paying tip to %s: %w", t.tipJar, err)
		}
		t.yieldSnapshot = t.yieldSnapshot.Add(delta)
		t.totalTipped = t.totalTipped.Add(tip)
		t.lastAccrual = &types.TipAccrualRecord{
			TipAmount:   tip,
			YieldDelta:  delta,
			TipJar:      t.tipJar,
			TotalAssets: managed.Sub(tip),
			Timestamp:   t.now(),
		}
		t.log.Info().
			Str("tip", tip.String()).
			Str("yield_delta", delta.String()).
			Str("tip_jar", t.tipJar.String()).
			Msg("Tip accrued")
		t.sink.Emit(types.TipAccruedEvent{
			TipAmount:  tip,
			YieldDelta: delta,
			TipJar:     t.tipJar,
			Timestamp:  t.now(),
		})
		return nil
	})
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return tip, nil
}

// TipRate reports the current skim rate.
func (t *Tipper) TipRate() types.Percentage {
	var rate types.Percentage
	t.ledger.Read(func() { rate = t.tipRate })
	return rate
}

// TipJar reports the current tip destination.
func (t *Tipper) TipJar() types.Address {
	var jar types.Address
	t.ledger.Read(func() { jar = t.tipJar })
	return jar
}

// LastAccrual reports the record of the most recent skim that paid out,
// for persistence. Returns false before any tip has been paid.
func (t *Tipper) LastAccrual() (types.TipAccrualRecord, bool) {
	var rec types.TipAccrualRecord
	var ok bool
	t.ledger.Read(func() {
		if t.lastAccrual != nil {
			rec = *t.lastAccrual
			ok = true
		}
	})
	return rec, ok
}

// TotalTipped reports the cumulative tips paid since construction.
func (t *Tipper) TotalTipped() sdkmath.Int {
	total := sdkmath.ZeroInt()
	t.ledger.Read(func() { total = t.totalTipped })
	return total
}
