// Package factory constructs arks with consistent governance wiring. Every
// ark built here carries the same raft address and emits through the same
// event sink, so a fleet's provenance is auditable from its creation
// events alone.
package factory

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/summer-earn/fleet/internal/ark"
	"github.com/summer-earn/fleet/internal/events"
	"github.com/summer-earn/fleet/internal/logger"
	"github.com/summer-earn/fleet/internal/types"
)

var (
	// ErrUnauthorized rejects non-governor callers on factory changes.
	ErrUnauthorized = errors.New("caller is not the governor")

	// ErrInvalidAddress rejects the zero address for raft or governor.
	ErrInvalidAddress = errors.New("address cannot be zero")
)

// Config wires a Factory.
type Config struct {
	Governor types.Address
	Raft     types.Address
	Events   events.Sink

	// Now is the clock; nil defaults to time.Now. Injected for tests.
	Now func() time.Time
}

// Factory builds arks stamped with the current raft address.
type Factory struct {
	governor types.Address
	raft     types.Address
	sink     events.Sink
	log      zerolog.Logger
	now      func() time.Time
}

// New creates a Factory.
func New(cfg Config) (*Factory, error) {
	if cfg.Governor.IsZero() {
		return nil, fmt.Errorf("governor %w", ErrInvalidAddress)
	}
	if cfg.Raft.IsZero() {
		return nil, fmt.Errorf("raft %w", ErrInvalidAddress)
	}
	sink := cfg.Events
	if sink == nil {
		sink = events.Nop{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Factory{
		governor: cfg.Governor,
		raft:     cfg.Raft,
		sink:     sink,
		log:      logger.GetForComponent("ark_factory"),
		now:      now,
	}, nil
}

// CreateLendingArk builds a lending ark bound to pool. The config's Raft
// field is overwritten with the factory's current raft address.
func (f *Factory) CreateLendingArk(cfg types.ArkConfig, pool ark.LendingPool) (*ark.LendingArk, error) {
	cfg.Raft = f.raft
	a, err := ark.NewLendingArk(cfg, pool, f.sink)
	if err != nil {
		return nil, err
	}
	f.emitCreated(a.ID(), a.Asset(), types.ArkTypeLending)
	return a, nil
}

// CreateBufferArk builds the commander's buffer ark.
func (f *Factory) CreateBufferArk(id types.Address, asset string, commander types.Address) (*ark.BufferArk, error) {
	a, err := ark.NewBufferArk(id, asset, commander, f.sink)
	if err != nil {
		return nil, err
	}
	f.emitCreated(a.ID(), a.Asset(), types.ArkTypeBuffer)
	return a, nil
}

func (f *Factory) emitCreated(id types.Address, asset string, t types.ArkType) {
	f.log.Info().
		Str("ark", id.String()).
		Str("asset", asset).
		Str("type", string(t)).
		Msg("Ark created")
	f.sink.Emit(types.ArkCreatedEvent{
		Ark:       id,
		Raft:      f.raft,
		Token:     asset,
		ArkType:   t,
		Timestamp: f.now(),
	})
}

// SetRaft changes the treasury address stamped on future arks. Existing
// arks keep the raft they were created with.
func (f *Factory) SetRaft(caller types.Address, raft types.Address) error {
	if caller != f.governor {
		return fmt.Errorf("%w: %s cannot set the raft", ErrUnauthorized, caller)
	}
	if raft.IsZero() {
		return fmt.Errorf("raft %w", ErrInvalidAddress)
	}
	f.raft = raft
	f.log.Info().Str("raft", raft.String()).Msg("Raft updated")
	f.sink.Emit(types.RaftUpdatedEvent{NewRaft: raft, Timestamp: f.now()})
	return nil
}

// SetGovernor hands factory governance to a new address.
func (f *Factory) SetGovernor(caller types.Address, governor types.Address) error {
	if caller != f.governor {
		return fmt.Errorf("%w: %s cannot set the governor", ErrUnauthorized, caller)
	}
	if governor.IsZero() {
		return fmt.Errorf("governor %w", ErrInvalidAddress)
	}
	f.governor = governor
	f.log.Info().Str("governor", governor.String()).Msg("Governor updated")
	f.sink.Emit(types.GovernorUpdatedEvent{NewGovernor: governor, Timestamp: f.now()})
	return nil
}

// Raft reports the treasury address stamped on future arks.
func (f *Factory) Raft() types.Address { return f.raft }

// Governor reports the current factory governor.
func (f *Factory) Governor() types.Address { return f.governor }
