// Package engine drives the autonomous allocation loop: observe ark
// rates, plan a rebalance, open auctions for each directive, and skim
// yield on a cron schedule. Depositor flows and bidder fills arrive
// through the component APIs; the engine only automates the cadence.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/summer-earn/fleet/internal/auction"
	"github.com/summer-earn/fleet/internal/commander"
	"github.com/summer-earn/fleet/internal/logger"
	"github.com/summer-earn/fleet/internal/state"
	"github.com/summer-earn/fleet/internal/tipper"
	"github.com/summer-earn/fleet/internal/types"
)

// Engine owns the periodic rebalance cycle and the tip accrual schedule.
type Engine struct {
	logger    zerolog.Logger
	commander *commander.Commander
	auctions  *auction.Manager
	tipper    *tipper.Tipper

	// Persist controls whether cycles and accruals are written to the
	// database. Disabled in tests.
	persist bool

	cron       *cron.Cron
	cycleCount int
}

// Config holds the configuration for creating a new Engine instance
type Config struct {
	Commander *commander.Commander
	Auctions  *auction.Manager
	Tipper    *tipper.Tipper
	Persist   bool
}

// NewEngine creates an engine instance with dependency injection
func NewEngine(cfg Config) (*Engine, error) {
	if err := validateEngineConfig(cfg); err != nil {
		return nil, fmt.Errorf("engine configuration validation failed: %w", err)
	}

	e := &Engine{
		logger:    logger.GetForComponent("engine_core"),
		commander: cfg.Commander,
		auctions:  cfg.Auctions,
		tipper:    cfg.Tipper,
		persist:   cfg.Persist,
		cron:      cron.New(),
	}

	e.logger.Info().Bool("persist", e.persist).Msg("Engine instance created")
	return e, nil
}

// validateEngineConfig validates the engine configuration
func validateEngineConfig(cfg Config) error {
	if cfg.Commander == nil {
		return fmt.Errorf("commander cannot be nil")
	}
	if cfg.Auctions == nil {
		return fmt.Errorf("auction manager cannot be nil")
	}
	if cfg.Tipper == nil {
		return fmt.Errorf("tipper cannot be nil")
	}
	return nil
}

// StartTipSchedule registers tip accrual on the given cron spec and
// starts the scheduler.
func (e *Engine) StartTipSchedule(spec string) error {
	_, err := e.cron.AddFunc(spec, e.runTipAccrual)
	if err != nil {
		return fmt.Errorf("failed to schedule tip accrual %q: %w", spec, err)
	}
	e.cron.Start()
	e.logger.Info().Str("spec", spec).Msg("Tip accrual scheduled")
	return nil
}

// StopTipSchedule stops the cron scheduler and waits for a running job.
func (e *Engine) StopTipSchedule() {
	ctx := e.cron.Stop()
	<-ctx.Done()
}

func (e *Engine) runTipAccrual() {
	tip, err := e.tipper.AccrueTip()
	if err != nil {
		e.logger.Error().Err(err).Msg("Tip accrual failed")
		return
	}
	if !tip.IsPositive() {
		e.logger.Debug().Msg("Tip accrual ran, nothing to skim")
		return
	}
	if !e.persist {
		return
	}

	record, ok := e.tipper.LastAccrual()
	if !ok {
		return
	}
	if _, err := state.SaveTipAccrual(record); err != nil {
		e.logger.Error().Err(err).Msg("Failed to persist tip accrual")
	}
}

// RunLoop starts the main engine loop with the specified interval
func (e *Engine) RunLoop(ctx context.Context, interval time.Duration) {
	e.logger.Info().
		Dur("interval", interval).
		Msg("Starting engine main loop")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run first cycle immediately
	e.cycleCount++
	e.logger.Info().Int("cycle", e.cycleCount).Msg("Initiating rebalance cycle")
	e.RunCycle(ctx)
	e.logger.Info().Int("cycle", e.cycleCount).Msg("Rebalance cycle completed")

	// Continue with ticker
	for {
		select {
		case <-ctx.Done():
			e.logger.Info().Msg("Engine loop stopped due to context cancellation")
			return
		case <-ticker.C:
			e.cycleCount++
			e.logger.Info().Int("cycle", e.cycleCount).Msg("Initiating rebalance cycle")
			e.RunCycle(ctx)
			e.logger.Info().Int("cycle", e.cycleCount).Msg("Rebalance cycle completed")
		}
	}
}

// RunCycle executes one complete rebalance cycle: snapshot the fleet, ask
// the commander for directives, and open an auction per directive. Fills
// happen asynchronously as bidders arrive; this cycle only opens the
// price discovery.
func (e *Engine) RunCycle(ctx context.Context) {
	cycleStartTime := time.Now()

	// Unique cycle ID for tracing logs across the entire cycle
	cycleID := uuid.New().String()
	cycleLogger := e.logger.With().Str("cycle_id", cycleID).Logger()

	cycleLogger.Info().Msg("--- Starting Rebalance Cycle ---")

	snapshot := types.RebalanceSnapshot{
		CycleNumber:     e.cycleNumber(cycleLogger),
		Timestamp:       cycleStartTime,
		AuctionsStarted: make([]uint64, 0),
	}

	// --- Step 1: Assess fleet state ---
	cycleLogger.Info().Msg("Step 1: Assessing fleet state...")
	initial, err := e.commander.Summary()
	if err != nil {
		cycleLogger.Error().Err(err).Msg("Cycle aborted: Failed to summarize fleet.")
		return
	}
	snapshot.InitialTotalAssets = initial.TotalAssets
	snapshot.InitialBuffer = initial.Buffer
	snapshot.InitialArks = initial.Arks
	cycleLogger.Info().
		Int("arks", len(initial.Arks)).
		Str("totalAssets", initial.TotalAssets.String()).
		Str("buffer", initial.Buffer.String()).
		Msg("Step 1: Fleet state assessed.")

	// --- Step 2: Plan ---
	cycleLogger.Info().Msg("Step 2: Planning rebalance...")
	directives, err := e.commander.PlanRebalance()
	if err != nil {
		cycleLogger.Error().Err(err).Msg("Cycle aborted: Failed to plan rebalance.")
		return
	}
	snapshot.Directives = directives
	if len(directives) == 0 {
		cycleLogger.Info().Msg("No directives produced. Holding current allocation.")
		snapshot.FinalTotalAssets = initial.TotalAssets
		snapshot.FinalBuffer = initial.Buffer
		snapshot.FinalArks = initial.Arks
		e.saveSnapshot(snapshot, cycleLogger)
		e.logEndOfCycleState(cycleStartTime, cycleLogger)
		return
	}
	cycleLogger.Info().Int("directives", len(directives)).Msg("Step 2: Rebalance planned.")

	// --- Step 3: Open auctions ---
	cycleLogger.Info().Msg("Step 3: Opening auctions...")
	for _, d := range directives {
		id, err := e.auctions.StartAuction(e.commander.ID(), d.FromArk, d.ToArk, d.Amount, nil)
		if err != nil {
			// An auction from a prior cycle may still be running for this
			// pair or source. That is expected between cycles.
			if errors.Is(err, auction.ErrAuctionAlreadyActive) {
				cycleLogger.Debug().
					Str("from", d.FromArk.String()).
					Str("to", d.ToArk.String()).
					Msg("Auction already active for directive, skipping")
				continue
			}
			cycleLogger.Error().Err(err).
				Str("from", d.FromArk.String()).
				Str("to", d.ToArk.String()).
				Msg("Failed to open auction for directive")
			continue
		}
		snapshot.AuctionsStarted = append(snapshot.AuctionsStarted, id)
	}
	cycleLogger.Info().
		Int("opened", len(snapshot.AuctionsStarted)).
		Msg("Step 3: Auctions opened.")

	// --- Step 4: Final snapshot ---
	final, err := e.commander.Summary()
	if err != nil {
		cycleLogger.Error().Err(err).Msg("Failed to take final fleet summary.")
		return
	}
	snapshot.FinalTotalAssets = final.TotalAssets
	snapshot.FinalBuffer = final.Buffer
	snapshot.FinalArks = final.Arks

	e.saveSnapshot(snapshot, cycleLogger)
	e.logEndOfCycleState(cycleStartTime, cycleLogger)
}

// cycleNumber reads the persistent counter, falling back to the in-memory
// count when persistence is disabled or unavailable.
func (e *Engine) cycleNumber(log zerolog.Logger) int {
	if !e.persist {
		return e.cycleCount
	}
	n, err := state.IncrementCycleNumber()
	if err != nil {
		log.Error().Err(err).Msg("Failed to increment persistent cycle counter")
		return e.cycleCount
	}
	return n
}

func (e *Engine) saveSnapshot(snapshot types.RebalanceSnapshot, log zerolog.Logger) {
	if !e.persist {
		return
	}
	if _, err := state.SaveRebalanceSnapshot(snapshot); err != nil {
		log.Error().Err(err).Msg("Failed to persist rebalance snapshot")
	}
}

func (e *Engine) logEndOfCycleState(start time.Time, log zerolog.Logger) {
	log.Info().
		Dur("duration", time.Since(start)).
		Msg("--- Rebalance Cycle Finished ---")
}
