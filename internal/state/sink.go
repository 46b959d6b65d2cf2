// ./internal/state/sink.go
package state

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/summer-earn/fleet/internal/types"
)

// PGSink persists every emitted event into the fleet_events table, and
// routes the events that have a dedicated table (fill receipts, auction
// parameter versions) into it as well. Event emission must never fail a
// state transition, so persistence errors are logged and swallowed.
type PGSink struct{}

// Emit implements events.Sink.
func (PGSink) Emit(e types.Event) {
	if DB == nil {
		return
	}

	switch ev := e.(type) {
	case types.FillEvent:
		if _, err := SaveFillReceipt(ev.Receipt); err != nil {
			log.Error().Err(err).Uint64("auction_id", ev.Receipt.AuctionID).Msg("Failed to persist fill receipt")
		}
	case types.AuctionDefaultParametersUpdatedEvent:
		if _, err := SaveAuctionParameters(ev.NewConfig, ev.Version, true); err != nil {
			log.Error().Err(err).Int("version", ev.Version).Msg("Failed to persist auction parameters")
		}
	}

	payload, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Str("event_type", e.EventType()).Msg("Failed to marshal event payload")
		return
	}

	_, err = DB.Exec(
		`INSERT INTO fleet_events (event_type, payload) VALUES ($1, $2);`,
		e.EventType(), payload,
	)
	if err != nil {
		log.Error().Err(err).Str("event_type", e.EventType()).Msg("Failed to persist event")
	}
}
