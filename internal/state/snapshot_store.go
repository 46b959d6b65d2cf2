// ./internal/state/snapshot_store.go
package state

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/summer-earn/fleet/internal/types"
)

// SaveRebalanceSnapshot saves a complete cycle snapshot to the database.
func SaveRebalanceSnapshot(snapshot types.RebalanceSnapshot) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	// Marshal all JSONB fields
	initialArksJSON, err := json.Marshal(snapshot.InitialArks)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal initial_arks: %w", err)
	}

	directivesJSON, err := json.Marshal(snapshot.Directives)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal directives: %w", err)
	}

	auctionsJSON, err := json.Marshal(snapshot.AuctionsStarted)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal auctions_started: %w", err)
	}

	finalArksJSON, err := json.Marshal(snapshot.FinalArks)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal final_arks: %w", err)
	}

	query := `
		INSERT INTO rebalance_snapshots (
			cycle_number, snapshot_timestamp,
			initial_total_assets, initial_buffer, initial_arks,
			directives, auctions_started,
			final_total_assets, final_buffer, final_arks
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING snapshot_id;
	`

	var snapshotID int64
	err = DB.QueryRow(
		query,
		snapshot.CycleNumber, snapshot.Timestamp,
		snapshot.InitialTotalAssets.String(), snapshot.InitialBuffer.String(), initialArksJSON,
		directivesJSON, auctionsJSON,
		snapshot.FinalTotalAssets.String(), snapshot.FinalBuffer.String(), finalArksJSON,
	).Scan(&snapshotID)

	if err != nil {
		return 0, fmt.Errorf("failed to save rebalance snapshot: %w", err)
	}

	log.Info().
		Int64("snapshot_id", snapshotID).
		Int("cycle_number", snapshot.CycleNumber).
		Str("final_total_assets", snapshot.FinalTotalAssets.String()).
		Msg("Rebalance snapshot saved to database")

	return snapshotID, nil
}

// GetRecentSnapshots loads the raw JSON of the most recent cycle
// snapshots, newest first, for the dashboard.
func GetRecentSnapshots(limit int) ([]map[string]interface{}, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT cycle_number, snapshot_timestamp,
		       initial_total_assets, initial_buffer,
		       directives, auctions_started,
		       final_total_assets, final_buffer
		FROM rebalance_snapshots
		ORDER BY cycle_number DESC
		LIMIT $1;`

	rows, err := DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query rebalance snapshots: %w", err)
	}
	defer rows.Close()

	var out []map[string]interface{}
	for rows.Next() {
		var (
			cycleNumber    int
			timestamp      time.Time
			initialTotal   string
			initialBuffer  string
			directivesJSON []byte
			auctionsJSON   []byte
			finalTotal     string
			finalBuffer    string
		)
		if err := rows.Scan(&cycleNumber, &timestamp, &initialTotal, &initialBuffer,
			&directivesJSON, &auctionsJSON, &finalTotal, &finalBuffer); err != nil {
			return nil, fmt.Errorf("failed to scan rebalance snapshot row: %w", err)
		}

		var directives, auctions interface{}
		if len(directivesJSON) > 0 {
			if err := json.Unmarshal(directivesJSON, &directives); err != nil {
				return nil, fmt.Errorf("failed to unmarshal directives: %w", err)
			}
		}
		if len(auctionsJSON) > 0 {
			if err := json.Unmarshal(auctionsJSON, &auctions); err != nil {
				return nil, fmt.Errorf("failed to unmarshal auctions_started: %w", err)
			}
		}

		out = append(out, map[string]interface{}{
			"cycle_number":         cycleNumber,
			"snapshot_timestamp":   timestamp,
			"initial_total_assets": initialTotal,
			"initial_buffer":       initialBuffer,
			"directives":           directives,
			"auctions_started":     auctions,
			"final_total_assets":   finalTotal,
			"final_buffer":         finalBuffer,
		})
	}
	return out, rows.Err()
}
