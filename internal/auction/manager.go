// Package auction runs the sealed decaying-price auctions that move
// capital between arks. Price discovery is competitive: the ask starts
// above fair value and decays toward a floor, and whoever fills first at
// the current price wins that slice of the lot. No oracle, no
// administratively chosen rate.
package auction

import (
	"errors"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/summer-earn/fleet/internal/ark"
	"github.com/summer-earn/fleet/internal/events"
	"github.com/summer-earn/fleet/internal/ledger"
	"github.com/summer-earn/fleet/internal/logger"
	"github.com/summer-earn/fleet/internal/types"
)

var (
	// ErrUnauthorized rejects callers that are neither the commander nor
	// the governor (for starts) or not the governor (for config changes).
	ErrUnauthorized = errors.New("caller not permitted")

	// ErrAuctionAlreadyActive rejects a second live auction on the same
	// (source, destination, asset) key, or a source already committed to
	// another open auction.
	ErrAuctionAlreadyActive = errors.New("auction already active")

	// ErrInvalidParameters rejects zero lots, lots beyond the source's
	// balance, and malformed fill amounts.
	ErrInvalidParameters = errors.New("invalid auction parameters")

	// ErrUnknownAuction rejects operations on auction ids never issued.
	ErrUnknownAuction = errors.New("unknown auction")

	// ErrAuctionExpired rejects fills past the duration+floor window.
	ErrAuctionExpired = errors.New("auction expired")

	// ErrAuctionSettled rejects fills after the lot is fully filled.
	ErrAuctionSettled = errors.New("auction settled")

	// ErrPriceExceedsLimit protects a bidder from price drift between
	// quoting and filling.
	ErrPriceExceedsLimit = errors.New("current price exceeds bidder limit")

	// ErrExceedsRemainingLot rejects fills larger than the unfilled lot.
	ErrExceedsRemainingLot = errors.New("fill exceeds remaining lot")

	// ErrInsufficientCredit rejects fills the bidder has not prefunded.
	ErrInsufficientCredit = errors.New("insufficient bidder credit")
)

// Fleet is the slice of the commander the auction manager drives. Methods
// are invoked from inside the manager's ledger transaction and must not
// take the ledger lock themselves.
type Fleet interface {
	ID() types.Address
	Asset() string
	ArkByID(id types.Address) (ark.Ark, bool)
	CreditBuffer(amount sdkmath.Int)
}

// Config wires a Manager.
type Config struct {
	Fleet    Fleet
	Governor types.Address
	Ledger   *ledger.Ledger
	Events   events.Sink

	// Defaults seeds version 1 of the process-wide auction parameters.
	Defaults types.AuctionParameters

	// DefaultsVersion carries the persisted version number across
	// restarts; zero means start at version 1.
	DefaultsVersion int

	// Now is the clock; nil defaults to time.Now. Injected for tests.
	Now func() time.Time
}

// auctionState is one live or finished auction.
type auctionState struct {
	id        uint64
	key       types.AuctionKey
	round     uint64
	lot       sdkmath.Int
	filled    sdkmath.Int
	params    types.AuctionParameters
	startedAt time.Time
	status    types.AuctionStatus
}

// Manager owns every auction in the process. One live auction per
// (source, destination, asset) key, and at most one open auction per
// source ark, so the same capital is never committed twice.
type Manager struct {
	fleet    Fleet
	governor types.Address
	ledger   *ledger.Ledger
	sink     events.Sink
	log      zerolog.Logger
	now      func() time.Time

	defaults        types.AuctionParameters
	defaultsVersion int
	overrides       map[types.AuctionKey]types.AuctionParameters

	auctions       map[uint64]*auctionState
	activeByKey    map[types.AuctionKey]uint64
	activeBySource map[types.Address]uint64
	rounds         map[types.AuctionKey]uint64
	credits        map[types.Address]sdkmath.Int
	nextID         uint64
}

// NewManager creates an auction manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Fleet == nil {
		return nil, fmt.Errorf("fleet cannot be nil")
	}
	if cfg.Governor.IsZero() {
		return nil, fmt.Errorf("governor address cannot be zero")
	}
	if cfg.Ledger == nil {
		return nil, fmt.Errorf("ledger cannot be nil")
	}
	if err := cfg.Defaults.Validate(); err != nil {
		return nil, fmt.Errorf("default parameters: %w", err)
	}
	sink := cfg.Events
	if sink == nil {
		sink = events.Nop{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	version := cfg.DefaultsVersion
	if version <= 0 {
		version = 1
	}
	return &Manager{
		fleet:           cfg.Fleet,
		governor:        cfg.Governor,
		ledger:          cfg.Ledger,
		sink:            sink,
		log:             logger.GetForComponent("auction_manager"),
		now:             now,
		defaults:        cfg.Defaults,
		defaultsVersion: version,
		overrides:       make(map[types.AuctionKey]types.AuctionParameters),
		auctions:        make(map[uint64]*auctionState),
		activeByKey:     make(map[types.AuctionKey]uint64),
		activeBySource:  make(map[types.Address]uint64),
		rounds:          make(map[types.AuctionKey]uint64),
		credits:         make(map[types.Address]sdkmath.Int),
	}, nil
}

// StartAuction opens a decaying-price auction moving lot from source to
// destination. Only the commander or the governor may start one. The
// active-auction check and the registration happen inside one ledger
// transaction, so the one-auction-per-key rule cannot race.
func (m *Manager) StartAuction(
	caller types.Address,
	source, destination types.Address,
	lot sdkmath.Int,
	override *types.AuctionParameters,
) (uint64, error) {
	var id uint64
	err := m.ledger.Write(func() error {
		if caller != m.fleet.ID() && caller != m.governor {
			return fmt.Errorf("%w: %s cannot start auctions", ErrUnauthorized, caller)
		}
		if err := types.ValidateAmount(lot); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidParameters, err)
		}
		src, ok := m.fleet.ArkByID(source)
		if !ok {
			return fmt.Errorf("%w: unknown source ark %s", ErrInvalidParameters, source)
		}
		if _, ok := m.fleet.ArkByID(destination); !ok {
			return fmt.Errorf("%w: unknown destination ark %s", ErrInvalidParameters, destination)
		}
		if source == destination {
			return fmt.Errorf("%w: source and destination are the same ark", ErrInvalidParameters)
		}

		key := types.AuctionKey{Source: source, Destination: destination, Asset: m.fleet.Asset()}
		if openID, live := m.activeByKey[key]; live {
			return fmt.Errorf("%w: key %s held by auction %d", ErrAuctionAlreadyActive, key, openID)
		}
		if openID, busy := m.activeBySource[source]; busy {
			return fmt.Errorf("%w: source %s committed to auction %d", ErrAuctionAlreadyActive, source, openID)
		}

		available, err := src.TotalAssets()
		if err != nil {
			return fmt.Errorf("querying source ark %s: %w", source, err)
		}
		if available.LT(lot) {
			return fmt.Errorf("%w: source holds %s, lot %s", ErrInvalidParameters, available, lot)
		}

		params := m.parametersFor(key, override)
		if err := params.Validate(); err != nil {
			return err
		}

		m.nextID++
		m.rounds[key]++
		a := &auctionState{
			id:        m.nextID,
			key:       key,
			round:     m.rounds[key],
			lot:       lot,
			filled:    sdkmath.ZeroInt(),
			params:    params,
			startedAt: m.now(),
			status:    types.AuctionOpen,
		}
		m.auctions[a.id] = a
		m.activeByKey[key] = a.id
		m.activeBySource[source] = a.id
		id = a.id

		m.log.Info().
			Uint64("auction", a.id).
			Str("key", key.String()).
			Uint64("round", a.round).
			Str("lot", lot.String()).
			Msg("Auction started")
		m.sink.Emit(types.AuctionStartedEvent{
			AuctionID:  a.id,
			Key:        key,
			Round:      a.round,
			Lot:        lot,
			Parameters: params,
			Timestamp:  a.startedAt,
		})
		return nil
	})
	return id, err
}

// parametersFor resolves the parameter record for a new auction: explicit
// override, then per-pair override, then the current process defaults.
// Read at creation time, never cached across operations.
func (m *Manager) parametersFor(key types.AuctionKey, override *types.AuctionParameters) types.AuctionParameters {
	if override != nil {
		return *override
	}
	if p, ok := m.overrides[key]; ok {
		return p
	}
	return m.defaults
}

// CurrentPrice quotes the auction's price right now. Pure read.
func (m *Manager) CurrentPrice(id uint64) (sdkmath.LegacyDec, error) {
	var price sdkmath.LegacyDec
	var err error
	m.ledger.Read(func() {
		a, ok := m.auctions[id]
		if !ok {
			err = fmt.Errorf("%w: %d", ErrUnknownAuction, id)
			return
		}
		price = priceAt(a.params, a.startedAt, m.now())
	})
	return price, err
}

// FundBidder adds prepaid credit a bidder can spend on fills. How the
// credit got here (token transfer, escrow) is outside this engine.
func (m *Manager) FundBidder(bidder types.Address, amount sdkmath.Int) error {
	return m.ledger.Write(func() error {
		if bidder.IsZero() {
			return fmt.Errorf("%w: zero bidder address", ErrInvalidParameters)
		}
		if err := types.ValidateAmount(amount); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidParameters, err)
		}
		credit, ok := m.credits[bidder]
		if !ok {
			credit = sdkmath.ZeroInt()
		}
		m.credits[bidder] = credit.Add(amount)
		return nil
	})
}

// BidderCredit reports a bidder's unspent credit.
func (m *Manager) BidderCredit(bidder types.Address) sdkmath.Int {
	credit := sdkmath.ZeroInt()
	m.ledger.Read(func() {
		if c, ok := m.credits[bidder]; ok {
			credit = c
		}
	})
	return credit
}

// Fill commits amount of the lot at the auction's current price. The fill
// executes the source→destination move, debits the bidder's credit and
// credits the payment to the commander's buffer, all inside one ledger
// transaction; if any step fails nothing is recorded. Expiry is lazy:
// the first fill attempt past the window flips the auction to expired.
func (m *Manager) Fill(
	id uint64,
	bidder types.Address,
	amount sdkmath.Int,
	maxAcceptablePrice sdkmath.LegacyDec,
) (types.FillReceipt, error) {
	var receipt types.FillReceipt
	err := m.ledger.Write(func() error {
		a, ok := m.auctions[id]
		if !ok {
			return fmt.Errorf("%w: %d", ErrUnknownAuction, id)
		}
		switch a.status {
		case types.AuctionSettled:
			return fmt.Errorf("%w: auction %d", ErrAuctionSettled, id)
		case types.AuctionExpired:
			return fmt.Errorf("%w: auction %d", ErrAuctionExpired, id)
		}

		now := m.now()
		if now.Sub(a.startedAt) > a.params.Duration+a.params.FloorDuration {
			m.expire(a, now)
			return fmt.Errorf("%w: auction %d", ErrAuctionExpired, id)
		}

		price := priceAt(a.params, a.startedAt, now)
		if maxAcceptablePrice.IsNil() || price.GT(maxAcceptablePrice) {
			return fmt.Errorf("%w: current %s, limit %s", ErrPriceExceedsLimit, price, maxAcceptablePrice)
		}
		if err := types.ValidateAmount(amount); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidParameters, err)
		}
		remaining := a.lot.Sub(a.filled)
		if amount.GT(remaining) {
			return fmt.Errorf("%w: remaining %s, fill %s", ErrExceedsRemainingLot, remaining, amount)
		}

		payment := paymentFor(price, amount)
		credit, ok := m.credits[bidder]
		if !ok || credit.LT(payment) {
			return fmt.Errorf("%w: bidder %s needs %s", ErrInsufficientCredit, bidder, payment)
		}

		src, ok := m.fleet.ArkByID(a.key.Source)
		if !ok {
			return fmt.Errorf("%w: source ark %s no longer registered", ErrInvalidParameters, a.key.Source)
		}
		dst, ok := m.fleet.ArkByID(a.key.Destination)
		if !ok {
			return fmt.Errorf("%w: destination ark %s no longer registered", ErrInvalidParameters, a.key.Destination)
		}

		// External calls first; bookkeeping only after they succeed.
		if err := src.Move(m.fleet.ID(), amount, dst); err != nil {
			return err
		}

		m.credits[bidder] = credit.Sub(payment)
		m.fleet.CreditBuffer(payment)
		a.filled = a.filled.Add(amount)
		settled := a.filled.Equal(a.lot)
		if settled {
			a.status = types.AuctionSettled
			m.release(a)
		}

		receipt = types.FillReceipt{
			AuctionID: a.id,
			Key:       a.key,
			Bidder:    bidder,
			Amount:    amount,
			Price:     price,
			Payment:   payment,
			Settled:   settled,
			Timestamp: now,
		}
		m.log.Info().
			Uint64("auction", a.id).
			Str("bidder", bidder.String()).
			Str("amount", amount.String()).
			Str("price", price.String()).
			Bool("settled", settled).
			Msg("Auction filled")
		m.sink.Emit(types.FillEvent{Receipt: receipt})
		return nil
	})
	return receipt, err
}

// expire flips an auction past its window and frees its key and source.
func (m *Manager) expire(a *auctionState, at time.Time) {
	a.status = types.AuctionExpired
	m.release(a)
	m.log.Info().
		Uint64("auction", a.id).
		Str("key", a.key.String()).
		Str("unfilled", a.lot.Sub(a.filled).String()).
		Msg("Auction expired")
	m.sink.Emit(types.AuctionExpiredEvent{
		AuctionID: a.id,
		Key:       a.key,
		Unfilled:  a.lot.Sub(a.filled),
		Timestamp: at,
	})
}

// release frees the one-live-auction locks held by a finished auction.
func (m *Manager) release(a *auctionState) {
	if m.activeByKey[a.key] == a.id {
		delete(m.activeByKey, a.key)
	}
	if m.activeBySource[a.key.Source] == a.id {
		delete(m.activeBySource, a.key.Source)
	}
}

// SetDefaultParameters installs a new version of the process-wide auction
// defaults. Governance-gated; consumers read at use-time so no auction
// ever sees a stale mix.
func (m *Manager) SetDefaultParameters(caller types.Address, params types.AuctionParameters) error {
	return m.ledger.Write(func() error {
		if caller != m.governor {
			return fmt.Errorf("%w: %s cannot update auction defaults", ErrUnauthorized, caller)
		}
		if err := params.Validate(); err != nil {
			return err
		}
		m.defaults = params
		m.defaultsVersion++
		m.log.Info().Int("version", m.defaultsVersion).Msg("Auction default parameters updated")
		m.sink.Emit(types.AuctionDefaultParametersUpdatedEvent{
			Version:   m.defaultsVersion,
			NewConfig: params,
			Timestamp: m.now(),
		})
		return nil
	})
}

// SetPairParameters installs a per-key override. Governance-gated.
func (m *Manager) SetPairParameters(caller types.Address, key types.AuctionKey, params types.AuctionParameters) error {
	return m.ledger.Write(func() error {
		if caller != m.governor {
			return fmt.Errorf("%w: %s cannot update pair parameters", ErrUnauthorized, caller)
		}
		if err := params.Validate(); err != nil {
			return err
		}
		m.overrides[key] = params
		m.log.Info().Str("key", key.String()).Msg("Auction pair parameters updated")
		return nil
	})
}

// DefaultParameters reports the current defaults and their version.
func (m *Manager) DefaultParameters() (types.AuctionParameters, int) {
	var params types.AuctionParameters
	var version int
	m.ledger.Read(func() {
		params = m.defaults
		version = m.defaultsVersion
	})
	return params, version
}

// Snapshot returns the read-only record of one auction.
func (m *Manager) Snapshot(id uint64) (types.AuctionRecord, error) {
	var rec types.AuctionRecord
	var err error
	m.ledger.Read(func() {
		a, ok := m.auctions[id]
		if !ok {
			err = fmt.Errorf("%w: %d", ErrUnknownAuction, id)
			return
		}
		rec = m.record(a)
	})
	return rec, err
}

// Snapshots returns records for every auction the manager has issued.
func (m *Manager) Snapshots() []types.AuctionRecord {
	var out []types.AuctionRecord
	m.ledger.Read(func() {
		out = make([]types.AuctionRecord, 0, len(m.auctions))
		for id := uint64(1); id <= m.nextID; id++ {
			if a, ok := m.auctions[id]; ok {
				out = append(out, m.record(a))
			}
		}
	})
	return out
}

func (m *Manager) record(a *auctionState) types.AuctionRecord {
	return types.AuctionRecord{
		ID:           a.id,
		Key:          a.key,
		Round:        a.round,
		Lot:          a.lot,
		Filled:       a.filled,
		Parameters:   a.params,
		StartedAt:    a.startedAt,
		Status:       a.status,
		CurrentPrice: priceAt(a.params, a.startedAt, m.now()),
	}
}
