// ./internal/state/receipts.go
package state

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/summer-earn/fleet/internal/types"
)

// SaveFillReceipt persists one executed auction fill.
func SaveFillReceipt(receipt types.FillReceipt) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	query := `
		INSERT INTO fill_receipts (
			auction_id, source_ark, destination_ark, asset,
			bidder, amount, price, payment, settled, fill_timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING receipt_id;`

	var receiptID int64
	err := DB.QueryRow(
		query,
		receipt.AuctionID, receipt.Key.Source.String(), receipt.Key.Destination.String(), receipt.Key.Asset,
		receipt.Bidder.String(), receipt.Amount.String(), receipt.Price.String(),
		receipt.Payment.String(), receipt.Settled, receipt.Timestamp,
	).Scan(&receiptID)

	if err != nil {
		return 0, fmt.Errorf("failed to save fill receipt: %w", err)
	}

	log.Info().
		Int64("receipt_id", receiptID).
		Uint64("auction_id", receipt.AuctionID).
		Str("amount", receipt.Amount.String()).
		Msg("Fill receipt saved to database")
	return receiptID, nil
}

// SaveTipAccrual persists one completed yield skim.
func SaveTipAccrual(record types.TipAccrualRecord) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	query := `
		INSERT INTO tip_accruals (
			tip_amount, yield_delta, tip_jar, total_assets, accrual_timestamp
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING accrual_id;`

	var accrualID int64
	err := DB.QueryRow(
		query,
		record.TipAmount.String(), record.YieldDelta.String(),
		record.TipJar.String(), record.TotalAssets.String(), record.Timestamp,
	).Scan(&accrualID)

	if err != nil {
		return 0, fmt.Errorf("failed to save tip accrual: %w", err)
	}

	log.Info().
		Int64("accrual_id", accrualID).
		Str("tip_amount", record.TipAmount.String()).
		Msg("Tip accrual saved to database")
	return accrualID, nil
}
