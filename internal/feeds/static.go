package feeds

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// StaticConnector serves a fixed item slice. It backs file-based ingestion
// in the CLI and fixtures in tests; real fetching lives outside this module.
type StaticConnector struct {
	name       string
	sourceName string
	sourceTier int
	signal     SignalType
	items      []RawItem

	// Err, when set, is returned by Fetch (for failure-isolation tests)
	Err error
}

// NewStaticConnector creates a connector that returns the given items
func NewStaticConnector(name, sourceName string, tier int, signal SignalType, items []RawItem) *StaticConnector {
	return &StaticConnector{
		name:       name,
		sourceName: sourceName,
		sourceTier: tier,
		signal:     signal,
		items:      items,
	}
}

func (c *StaticConnector) Name() string       { return c.name }
func (c *StaticConnector) SourceName() string { return c.sourceName }
func (c *StaticConnector) SourceTier() int    { return c.sourceTier }
func (c *StaticConnector) Signal() SignalType { return c.signal }

// Fetch returns items published at or after since
func (c *StaticConnector) Fetch(_ context.Context, since time.Time) ([]RawItem, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	var out []RawItem
	for _, it := range c.items {
		if it.Date.Before(since) {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

// ReplayBatch routes an already-fetched batch through the registry and
// aggregator, one static connector per source identity, so file-based
// ingestion takes the same path live connectors would.
func ReplayBatch(ctx context.Context, items []RawItem) ([]RawItem, error) {
	groups := make(map[string][]RawItem)
	for _, it := range items {
		key := fmt.Sprintf("%s|%d|%s", it.SourceName, it.SourceTier, it.Signal)
		groups[key] = append(groups[key], it)
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	registry := NewRegistry()
	for _, key := range keys {
		group := groups[key]
		first := group[0]
		c := NewStaticConnector(key, first.SourceName, first.SourceTier, first.Signal, group)
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return NewAggregator(registry, 0).Collect(ctx, time.Time{})
}
