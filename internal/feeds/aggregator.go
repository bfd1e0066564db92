package feeds

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/driftwatch/radar/internal/logging"
)

// Aggregator pulls items from every registered connector in one pass.
// Connector failures are isolated: a broken source logs a warning and the
// batch continues with whatever the remaining connectors return.
type Aggregator struct {
	registry *Registry
	limiter  *rate.Limiter
}

// NewAggregator creates an aggregator over the given registry.
// rps bounds how many connector fetches start per second (0 = unlimited).
func NewAggregator(registry *Registry, rps float64) *Aggregator {
	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return &Aggregator{registry: registry, limiter: limiter}
}

// Collect fetches from all connectors and decorates each item with its
// connector's source name, tier, and signal type.
func (a *Aggregator) Collect(ctx context.Context, since time.Time) ([]RawItem, error) {
	var items []RawItem

	connectors := a.registry.List()
	for i, c := range connectors {
		if a.limiter != nil {
			if err := a.limiter.Wait(ctx); err != nil {
				return items, err
			}
		}

		logging.Info("feeds: fetching",
			"connector", c.Name(),
			"source", c.SourceName(),
			"tier", c.SourceTier(),
			"progress", i+1,
			"total", len(connectors))

		fetched, err := c.Fetch(ctx, since)
		if err != nil {
			logging.Warn("feeds: connector failed, skipping",
				"connector", c.Name(), "error", err)
			continue
		}

		for _, it := range fetched {
			it.SourceName = c.SourceName()
			it.SourceTier = c.SourceTier()
			it.Signal = c.Signal()
			items = append(items, it)
		}

		logging.Info("feeds: fetched", "connector", c.Name(), "items", len(fetched))
	}

	logging.Info("feeds: collection complete", "total_items", len(items))
	return items, nil
}
