// ./internal/state/parameters_store.go
package state

import (
	"database/sql"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/summer-earn/fleet/internal/types"
)

// SaveAuctionParameters saves a new version of the auction defaults.
func SaveAuctionParameters(params types.AuctionParameters, version int, makeActive bool) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	tx, err := DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p) // Re-panic after rollback
		} else if err != nil {
			tx.Rollback() // Rollback if error occurred
		}
	}()

	if makeActive {
		stmtDeactivate := `UPDATE auction_parameters SET is_active = FALSE WHERE is_active = TRUE;`
		_, err = tx.Exec(stmtDeactivate)
		if err != nil {
			return 0, fmt.Errorf("failed to deactivate existing active parameters: %w", err)
		}
	}

	stmt := `
        INSERT INTO auction_parameters (
            version, is_active, activated_at, created_at,
            start_price_multiplier, floor_price_multiplier,
            duration_seconds, floor_duration_seconds, decay_curve
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING params_id;`

	var paramsID int64
	currentTime := time.Now()
	err = tx.QueryRow(
		stmt,
		version, makeActive, currentTime, currentTime,
		params.StartPriceMultiplier.String(), params.FloorPriceMultiplier.String(),
		int64(params.Duration/time.Second), int64(params.FloorDuration/time.Second),
		string(params.DecayCurve),
	).Scan(&paramsID)

	if err != nil {
		return 0, fmt.Errorf("failed to insert auction parameters: %w", err)
	}

	err = tx.Commit()
	if err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info().
		Int("version", version).
		Int64("params_id", paramsID).
		Bool("active", makeActive).
		Msg("Saved auction parameters")
	return paramsID, nil
}

// LoadActiveAuctionParameters loads the currently active auction defaults
// and their version. Returns sql.ErrNoRows wrapped when none are active.
func LoadActiveAuctionParameters() (*types.AuctionParameters, int, error) {
	if DB == nil {
		return nil, 0, fmt.Errorf("database not initialized")
	}

	query := `
        SELECT version, start_price_multiplier, floor_price_multiplier,
               duration_seconds, floor_duration_seconds, decay_curve
        FROM auction_parameters
        WHERE is_active = TRUE
        ORDER BY activated_at DESC
        LIMIT 1;`

	var (
		version      int
		startStr     string
		floorStr     string
		durationSecs int64
		floorDurSecs int64
		decayCurve   string
	)
	row := DB.QueryRow(query)
	err := row.Scan(&version, &startStr, &floorStr, &durationSecs, &floorDurSecs, &decayCurve)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, 0, fmt.Errorf("no active auction parameters found: %w", err)
		}
		return nil, 0, fmt.Errorf("failed to scan active auction parameters: %w", err)
	}

	start, err := sdkmath.LegacyNewDecFromStr(startStr)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse start price multiplier %q: %w", startStr, err)
	}
	floor, err := sdkmath.LegacyNewDecFromStr(floorStr)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse floor price multiplier %q: %w", floorStr, err)
	}

	params := &types.AuctionParameters{
		StartPriceMultiplier: start,
		FloorPriceMultiplier: floor,
		Duration:             time.Duration(durationSecs) * time.Second,
		FloorDuration:        time.Duration(floorDurSecs) * time.Second,
		DecayCurve:           types.DecayCurve(decayCurve),
	}
	if err := params.Validate(); err != nil {
		return nil, 0, fmt.Errorf("persisted auction parameters are invalid: %w", err)
	}

	log.Info().Int("version", version).Msg("Loaded active auction parameters")
	return params, version, nil
}
