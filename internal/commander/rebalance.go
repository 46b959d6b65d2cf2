package commander

import (
	"sort"

	sdkmath "cosmossdk.io/math"

	"github.com/summer-earn/fleet/internal/types"
)

const (
	// defaultStabilityWindow is how many consecutive observations must
	// agree on the top-rate ark before capital is moved toward it.
	defaultStabilityWindow = 12

	// defaultDustThreshold is the minimum balance worth auctioning.
	defaultDustThreshold = 100
)

type rateObservation struct {
	ark     types.Address
	rate    sdkmath.LegacyDec
	balance sdkmath.Int
	moveOut bool
	moveIn  bool
}

// PlanRebalance observes every ark's reported rate and, once the same ark
// has held the top rate for a full stability window, plans draining every
// other ark's balance toward it. The returned directives are executed via
// auctions, not direct transfers; an empty slice means hold.
func (c *Commander) PlanRebalance() ([]types.RebalanceDirective, error) {
	var directives []types.RebalanceDirective
	err := c.ledger.Write(func() error {
		obs := c.observeRates()
		if len(obs) < 2 {
			return nil
		}
		// Highest rate first; ties break on address for determinism.
		sort.Slice(obs, func(i, j int) bool {
			if obs[i].rate.Equal(obs[j].rate) {
				return obs[i].ark < obs[j].ark
			}
			return obs[i].rate.GT(obs[j].rate)
		})
		top := obs[0]
		if !top.moveIn {
			c.log.Warn().Str("ark", top.ark.String()).Msg("Top-rate ark does not accept move-in, holding")
			c.topHistory = c.topHistory[:0]
			return nil
		}

		c.topHistory = append(c.topHistory, top.ark)
		if len(c.topHistory) > c.stabilityWindow {
			c.topHistory = c.topHistory[len(c.topHistory)-c.stabilityWindow:]
		}
		if !c.topStable() {
			c.log.Debug().
				Str("top", top.ark.String()).
				Int("window", len(c.topHistory)).
				Msg("Top ark not yet stable, holding")
			return nil
		}

		for _, o := range obs[1:] {
			if !o.moveOut || o.balance.LTE(c.dustThreshold) {
				continue
			}
			directives = append(directives, types.RebalanceDirective{
				FromArk: o.ark,
				ToArk:   top.ark,
				Amount:  o.balance,
			})
		}
		return nil
	})
	return directives, err
}

// observeRates reads rate and balance from every ark, skipping arks whose
// source fails the query. A failing source is logged, not fatal: one bad
// adapter must not stall the whole fleet.
func (c *Commander) observeRates() []rateObservation {
	obs := make([]rateObservation, 0, len(c.order))
	for _, id := range c.order {
		a := c.arks[id]
		rate, err := a.Rate()
		if err != nil {
			c.log.Error().Err(err).Str("ark", id.String()).Msg("Failed to read ark rate")
			continue
		}
		balance, err := a.TotalAssets()
		if err != nil {
			c.log.Error().Err(err).Str("ark", id.String()).Msg("Failed to read ark balance")
			continue
		}
		caps := a.Capabilities()
		obs = append(obs, rateObservation{
			ark:     id,
			rate:    rate,
			balance: balance,
			moveOut: caps.MoveOut,
			moveIn:  caps.MoveIn,
		})
	}
	return obs
}

// topStable reports whether the history window is full and unanimous.
func (c *Commander) topStable() bool {
	if len(c.topHistory) < c.stabilityWindow {
		return false
	}
	first := c.topHistory[0]
	for _, id := range c.topHistory[1:] {
		if id != first {
			return false
		}
	}
	return true
}
