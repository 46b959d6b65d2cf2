package main

import (
	"context"
	"fmt"
	"os"

	sdkmath "cosmossdk.io/math"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/summer-earn/fleet/internal/ark"
	"github.com/summer-earn/fleet/internal/auction"
	"github.com/summer-earn/fleet/internal/commander"
	"github.com/summer-earn/fleet/internal/config"
	"github.com/summer-earn/fleet/internal/engine"
	"github.com/summer-earn/fleet/internal/events"
	"github.com/summer-earn/fleet/internal/factory"
	"github.com/summer-earn/fleet/internal/ledger"
	"github.com/summer-earn/fleet/internal/logger"
	"github.com/summer-earn/fleet/internal/state"
	"github.com/summer-earn/fleet/internal/tipper"
	"github.com/summer-earn/fleet/internal/types"
	"github.com/summer-earn/fleet/internal/web"
)

// main is the entry point for the fleet engine.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	// Load configuration from environment variables
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE"))
	log.Info().Msg("Fleet Engine Starting...")

	// Initialize Database Connection
	dbCfg := state.DBConfig{
		Host: os.Getenv("DB_HOST"), Port: config.GetEnvAsInt("DB_PORT", 5432),
		User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
		DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
	}
	if err := state.InitDB(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer state.CloseDB()
	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	// Load the fleet definition
	fleetFile, err := config.LoadFleetFile(config.FleetConfigPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load fleet definition")
	}
	log.Info().Str("asset", fleetFile.Asset).Int("arks", len(fleetFile.Arks)).Msg("Fleet definition loaded")

	// Shared ledger and event sinks
	led := ledger.New()
	sink := events.Multi{
		events.Log{Logger: logger.GetForComponent("events")},
		state.PGSink{},
	}

	governor := types.Address(fleetFile.Governor)

	// --- 2. Build the fleet ---
	fact, err := factory.New(factory.Config{
		Governor: governor,
		Raft:     types.Address(fleetFile.Raft),
		Events:   sink,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create ark factory")
	}

	cmdr, err := commander.New(commander.Config{
		ID:              types.Address(fleetFile.Commander),
		Governor:        governor,
		Asset:           fleetFile.Asset,
		Ledger:          led,
		Events:          sink,
		StabilityWindow: config.DefaultStabilityWindow,
		DustThreshold:   config.DefaultDustThreshold,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create commander")
	}

	if config.FleetMode != "sim" {
		log.Fatal().Msg("FLEET_MODE is not set to 'sim'. Live protocol adapters are not wired yet; set FLEET_MODE=sim to run against simulated pools.")
	}

	for _, spec := range fleetFile.Arks {
		a, err := buildArk(fact, spec, fleetFile)
		if err != nil {
			log.Fatal().Err(err).Str("ark", spec.ID).Msg("Failed to construct ark")
		}
		if err := cmdr.RegisterArk(governor, a); err != nil {
			log.Fatal().Err(err).Str("ark", spec.ID).Msg("Failed to register ark")
		}
	}

	// --- 3. Auction manager with persisted parameters ---
	auctionParams, paramsVersion, err := state.LoadActiveAuctionParameters()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load active auction parameters, using defaults and saving.")
		defaults := config.DefaultAuctionParameters
		if _, err := state.SaveAuctionParameters(defaults, 1, true); err != nil {
			log.Fatal().Err(err).Msg("Failed to save initial default auction parameters.")
		}
		auctionParams = &defaults
		paramsVersion = 1
	}
	log.Info().Int("version", paramsVersion).Msg("Auction parameters ready.")

	auctions, err := auction.NewManager(auction.Config{
		Fleet:           cmdr,
		Governor:        governor,
		Ledger:          led,
		Events:          sink,
		Defaults:        *auctionParams,
		DefaultsVersion: paramsVersion,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auction manager")
	}

	// --- 4. Tipper ---
	tipRateBps := config.DefaultTipRateBps
	if fleetFile.TipRateBps != nil {
		tipRateBps = *fleetFile.TipRateBps
	}
	tip, err := tipper.New(tipper.Config{
		Fleet:    cmdr,
		Governor: governor,
		TipJar:   types.Address(fleetFile.TipJar),
		TipRate:  types.Percentage{Bps: tipRateBps},
		Ledger:   led,
		Events:   sink,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create tipper")
	}

	// --- 5. Web dashboard ---
	webServer := web.NewWebServer(config.WebPort, cmdr, auctions, tip)
	go func() {
		log.Info().Str("port", config.WebPort).Str("url", "http://localhost:"+config.WebPort).Msg("Starting fleet web dashboard")
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed to start")
		}
	}()

	// --- 6. Engine loop ---
	eng, err := engine.NewEngine(engine.Config{
		Commander: cmdr,
		Auctions:  auctions,
		Tipper:    tip,
		Persist:   true,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create engine")
	}

	if err := eng.StartTipSchedule(config.TipAccrualCron); err != nil {
		log.Fatal().Err(err).Msg("Failed to start tip accrual schedule")
	}
	defer eng.StopTipSchedule()

	log.Info().Str("interval", config.DefaultRebalanceInterval.String()).Msg("Starting engine main loop")
	eng.RunLoop(context.Background(), config.DefaultRebalanceInterval)
}

// buildArk constructs one ark from its YAML spec. Sim mode backs every
// lending ark with an in-process static-rate pool.
func buildArk(fact *factory.Factory, spec config.ArkSpec, fleetFile *config.FleetFile) (ark.Ark, error) {
	switch spec.Type {
	case "buffer":
		return fact.CreateBufferArk(
			types.Address(spec.ID), fleetFile.Asset, types.Address(fleetFile.Commander))
	case "lending":
		depositCap, ok := sdkmath.NewIntFromString(spec.DepositCap)
		if !ok {
			return nil, fmt.Errorf("invalid deposit cap %q", spec.DepositCap)
		}
		rateStr := spec.AnnualRate
		if rateStr == "" {
			rateStr = "0"
		}
		rate, err := sdkmath.LegacyNewDecFromStr(rateStr)
		if err != nil {
			return nil, fmt.Errorf("invalid annual rate %q: %w", spec.AnnualRate, err)
		}
		pool, err := ark.NewStaticRatePool(rate, nil)
		if err != nil {
			return nil, err
		}
		caps := types.ArkCapabilities{MoveIn: true, MoveOut: true}
		if spec.MoveIn != nil {
			caps.MoveIn = *spec.MoveIn
		}
		if spec.MoveOut != nil {
			caps.MoveOut = *spec.MoveOut
		}
		return fact.CreateLendingArk(types.ArkConfig{
			ID:           types.Address(spec.ID),
			Asset:        fleetFile.Asset,
			Commander:    types.Address(fleetFile.Commander),
			DepositCap:   depositCap,
			Capabilities: caps,
		}, pool)
	default:
		return nil, fmt.Errorf("unknown ark type %q", spec.Type)
	}
}
