package ark

import (
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/summer-earn/fleet/internal/events"
	"github.com/summer-earn/fleet/internal/logger"
	"github.com/summer-earn/fleet/internal/types"
)

// base carries the lifecycle and access-control contract shared by every
// concrete ark variant. Variants supply the YieldSource; base supplies the
// board/disembark/move surface around it.
type base struct {
	cfg    types.ArkConfig
	source YieldSource
	sink   events.Sink
	log    zerolog.Logger
}

func newBase(cfg types.ArkConfig, source YieldSource, sink events.Sink) base {
	if sink == nil {
		sink = events.Nop{}
	}
	return base{
		cfg:    cfg,
		source: source,
		sink:   sink,
		log:    logger.GetForComponent("ark").With().Str("ark", cfg.ID.String()).Logger(),
	}
}

func (a *base) ID() types.Address                    { return a.cfg.ID }
func (a *base) Type() types.ArkType                  { return a.cfg.Type }
func (a *base) Asset() string                        { return a.cfg.Asset }
func (a *base) Commander() types.Address             { return a.cfg.Commander }
func (a *base) DepositCap() sdkmath.Int              { return a.cfg.DepositCap }
func (a *base) Capabilities() types.ArkCapabilities { return a.cfg.Capabilities }

// TotalAssets queries the wrapped source without mutating anything.
func (a *base) TotalAssets() (sdkmath.Int, error) {
	bal, err := a.source.Balance()
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("querying source balance for ark %s: %w", a.cfg.ID, err)
	}
	if bal.IsNegative() {
		return sdkmath.ZeroInt(), fmt.Errorf("source reported negative balance for ark %s", a.cfg.ID)
	}
	return bal, nil
}

func (a *base) Rate() (sdkmath.LegacyDec, error) {
	return a.source.Rate()
}

func (a *base) authorize(caller types.Address) error {
	if caller != a.cfg.Commander {
		return fmt.Errorf("%w: caller %s, ark %s", ErrUnauthorized, caller, a.cfg.ID)
	}
	return nil
}

// Board deposits commander capital into the external source. The cap is
// checked against the live source balance, then bookkeeping and the event
// happen only after the external deposit succeeds.
func (a *base) Board(caller types.Address, amount sdkmath.Int) error {
	if err := a.authorize(caller); err != nil {
		return err
	}
	if err := types.ValidateAmount(amount); err != nil {
		return err
	}

	held, err := a.TotalAssets()
	if err != nil {
		return err
	}
	if held.Add(amount).GT(a.cfg.DepositCap) {
		return fmt.Errorf("%w: ark %s holds %s, cap %s, deposit %s",
			ErrCapExceeded, a.cfg.ID, held, a.cfg.DepositCap, amount)
	}

	if err := a.source.Deposit(amount); err != nil {
		return fmt.Errorf("boarding ark %s: %w", a.cfg.ID, err)
	}

	a.log.Debug().Str("amount", amount.String()).Msg("boarded")
	a.sink.Emit(types.BoardEvent{
		Ark:        a.cfg.ID,
		Token:      a.cfg.Asset,
		Amount:     amount,
		OnBehalfOf: caller,
		Timestamp:  time.Now().UTC(),
	})
	return nil
}

// Disembark withdraws capital from the external source back to the
// commander.
func (a *base) Disembark(caller types.Address, amount sdkmath.Int) error {
	if err := a.authorize(caller); err != nil {
		return err
	}
	if err := types.ValidateAmount(amount); err != nil {
		return err
	}

	held, err := a.TotalAssets()
	if err != nil {
		return err
	}
	if held.LT(amount) {
		return fmt.Errorf("%w: ark %s holds %s, requested %s",
			ErrInsufficientBalance, a.cfg.ID, held, amount)
	}

	if err := a.source.Withdraw(amount); err != nil {
		return fmt.Errorf("disembarking ark %s: %w", a.cfg.ID, err)
	}

	a.log.Debug().Str("amount", amount.String()).Msg("disembarked")
	a.sink.Emit(types.DisembarkEvent{
		Ark:       a.cfg.ID,
		Token:     a.cfg.Asset,
		Amount:    amount,
		To:        caller,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

// Move transfers capital directly to another ark without passing through
// the commander's general ledger. The destination is validated before the
// source withdrawal so a rejection leaves the source untouched; if the
// destination still fails after the withdrawal (external source failure),
// the withdrawn amount is restored.
func (a *base) Move(caller types.Address, amount sdkmath.Int, destination Ark) error {
	if err := a.authorize(caller); err != nil {
		return err
	}
	if err := types.ValidateAmount(amount); err != nil {
		return err
	}
	if destination == nil {
		return fmt.Errorf("%w: nil destination", ErrIncompatibleAsset)
	}
	if destination.Asset() != a.cfg.Asset {
		return fmt.Errorf("%w: %s vs %s", ErrIncompatibleAsset, a.cfg.Asset, destination.Asset())
	}
	if !a.cfg.Capabilities.MoveOut {
		return fmt.Errorf("%w: ark %s does not support move-out", ErrMoveNotSupported, a.cfg.ID)
	}
	if !destination.Capabilities().MoveIn {
		return fmt.Errorf("%w: ark %s does not support move-in", ErrMoveNotSupported, destination.ID())
	}

	held, err := a.TotalAssets()
	if err != nil {
		return err
	}
	if held.LT(amount) {
		return fmt.Errorf("%w: ark %s holds %s, move %s",
			ErrInsufficientBalance, a.cfg.ID, held, amount)
	}
	destHeld, err := destination.TotalAssets()
	if err != nil {
		return err
	}
	if destHeld.Add(amount).GT(destination.DepositCap()) {
		return fmt.Errorf("%w: destination ark %s holds %s, cap %s, move %s",
			ErrCapExceeded, destination.ID(), destHeld, destination.DepositCap(), amount)
	}

	if err := a.source.Withdraw(amount); err != nil {
		return fmt.Errorf("moving out of ark %s: %w", a.cfg.ID, err)
	}
	if err := destination.Board(a.cfg.Commander, amount); err != nil {
		if restoreErr := a.source.Deposit(amount); restoreErr != nil {
			return fmt.Errorf("move to ark %s failed (%w) and restore failed: %v",
				destination.ID(), err, restoreErr)
		}
		return fmt.Errorf("moving into ark %s: %w", destination.ID(), err)
	}

	a.log.Debug().
		Str("amount", amount.String()).
		Str("destination", destination.ID().String()).
		Msg("moved")
	a.sink.Emit(types.MoveEvent{
		FromArk:   a.cfg.ID,
		ToArk:     destination.ID(),
		Token:     a.cfg.Asset,
		Amount:    amount,
		Timestamp: time.Now().UTC(),
	})
	return nil
}
