// ./internal/state/db.go
package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

// DB is a global database connection pool.
var DB *sql.DB

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require", "verify-full", etc.
}

// InitDB initializes the database connection pool.
func InitDB(cfg DBConfig) error {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	var err error
	DB, err = sql.Open("postgres", psqlInfo)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	err = DB.Ping()
	if err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to the PostgreSQL database!")
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		log.Info().Msg("Closing database connection...")
		if err := DB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		}
	}
}

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
// Amounts are stored as NUMERIC(40, 0): the engine's integers can exceed
// int64 and must round-trip exactly.
func EnsureSchema() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	schemaSQL := `
		CREATE TABLE IF NOT EXISTS auction_parameters (
			params_id SERIAL PRIMARY KEY,
			version INTEGER NOT NULL DEFAULT 1,
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			activated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			start_price_multiplier DECIMAL(20, 18) NOT NULL,
			floor_price_multiplier DECIMAL(20, 18) NOT NULL,
			duration_seconds BIGINT NOT NULL,
			floor_duration_seconds BIGINT NOT NULL,
			decay_curve VARCHAR(20) NOT NULL,
			CONSTRAINT uq_auction_parameters_version UNIQUE (version)
		);
		CREATE INDEX IF NOT EXISTS idx_auction_parameters_active ON auction_parameters(is_active, activated_at DESC);

		CREATE TABLE IF NOT EXISTS fill_receipts (
			receipt_id SERIAL PRIMARY KEY,
			auction_id BIGINT NOT NULL,
			source_ark VARCHAR(255) NOT NULL,
			destination_ark VARCHAR(255) NOT NULL,
			asset VARCHAR(64) NOT NULL,
			bidder VARCHAR(255) NOT NULL,
			amount NUMERIC(40, 0) NOT NULL,
			price DECIMAL(20, 18) NOT NULL,
			payment NUMERIC(40, 0) NOT NULL,
			settled BOOLEAN NOT NULL,
			fill_timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_fill_receipts_auction ON fill_receipts(auction_id);
		CREATE INDEX IF NOT EXISTS idx_fill_receipts_timestamp ON fill_receipts(fill_timestamp DESC);

		CREATE TABLE IF NOT EXISTS tip_accruals (
			accrual_id SERIAL PRIMARY KEY,
			tip_amount NUMERIC(40, 0) NOT NULL,
			yield_delta NUMERIC(40, 0) NOT NULL,
			tip_jar VARCHAR(255) NOT NULL,
			total_assets NUMERIC(40, 0) NOT NULL,
			accrual_timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_tip_accruals_timestamp ON tip_accruals(accrual_timestamp DESC);

		CREATE TABLE IF NOT EXISTS rebalance_snapshots (
			snapshot_id SERIAL PRIMARY KEY,
			cycle_number INTEGER NOT NULL,
			snapshot_timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,

			-- Pre-cycle state
			initial_total_assets NUMERIC(40, 0) NOT NULL,
			initial_buffer NUMERIC(40, 0) NOT NULL,
			initial_arks JSONB,

			-- The plan
			directives JSONB,
			auctions_started JSONB,

			-- Post-cycle state
			final_total_assets NUMERIC(40, 0) NOT NULL,
			final_buffer NUMERIC(40, 0) NOT NULL,
			final_arks JSONB
		);
		CREATE INDEX IF NOT EXISTS idx_rebalance_snapshots_timestamp ON rebalance_snapshots(snapshot_timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_rebalance_snapshots_cycle ON rebalance_snapshots(cycle_number DESC);

		CREATE TABLE IF NOT EXISTS fleet_events (
			event_id SERIAL PRIMARY KEY,
			event_type VARCHAR(64) NOT NULL,
			payload JSONB,
			event_timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_fleet_events_type ON fleet_events(event_type);
		CREATE INDEX IF NOT EXISTS idx_fleet_events_timestamp ON fleet_events(event_timestamp DESC);

		-- Cycle counter table for persistent global cycle tracking
		CREATE TABLE IF NOT EXISTS cycle_counter (
			id INTEGER PRIMARY KEY DEFAULT 1,
			current_cycle INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT single_row_check CHECK (id = 1)
		);

		-- Insert initial row if it doesn't exist
		INSERT INTO cycle_counter (id, current_cycle)
		VALUES (1, 0)
		ON CONFLICT (id) DO NOTHING;
	`
	_, err := DB.Exec(schemaSQL)
	if err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}
	log.Info().Msg("Database schema ensured.")
	return nil
}

// TestDBConnection tests if the database connection is healthy
func TestDBConnection() error {
	if DB == nil {
		return fmt.Errorf("database connection is nil")
	}

	// Use a short timeout context for health checks
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := DB.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}
