// Package coverage reports how well each signal channel is supplied.
// Thin channels and single-source channels are the main way a scored
// theme ends up resting on less evidence than it appears to.
package coverage

import (
	"sort"

	"github.com/driftwatch/radar/internal/feeds"
	"github.com/driftwatch/radar/internal/normalize"
)

// Coverage flags
const (
	FlagLowVolume           = "LOW_VOLUME"
	FlagSourceConcentration = "SOURCE_CONCENTRATION"
	FlagHighConcentration   = "HIGH_CONCENTRATION"
)

// ChannelReport summarizes one signal type's supply
type ChannelReport struct {
	Signal         feeds.SignalType
	Items          int
	UniqueSources  int
	TopSourceShare float64
	Flags          []string
}

// Report computes per-channel coverage for a normalized batch,
// ordered by signal type name.
func Report(items []normalize.Item) []ChannelReport {
	byChannel := make(map[feeds.SignalType]int)
	bySource := make(map[feeds.SignalType]map[string]int)

	for _, it := range items {
		byChannel[it.Signal]++
		if bySource[it.Signal] == nil {
			bySource[it.Signal] = make(map[string]int)
		}
		bySource[it.Signal][it.SourceName]++
	}

	signals := make([]string, 0, len(byChannel))
	for sig := range byChannel {
		signals = append(signals, string(sig))
	}
	sort.Strings(signals)

	reports := make([]ChannelReport, 0, len(signals))
	for _, sig := range signals {
		signal := feeds.SignalType(sig)
		total := byChannel[signal]
		sources := bySource[signal]

		topCount := 0
		for _, n := range sources {
			if n > topCount {
				topCount = n
			}
		}
		topShare := 0.0
		if total > 0 {
			topShare = float64(topCount) / float64(total)
		}

		var flags []string
		if total < 5 {
			flags = append(flags, FlagLowVolume)
		}
		if len(sources) <= 1 {
			flags = append(flags, FlagSourceConcentration)
		}
		if topShare > 0.6 {
			flags = append(flags, FlagHighConcentration)
		}

		reports = append(reports, ChannelReport{
			Signal:         signal,
			Items:          total,
			UniqueSources:  len(sources),
			TopSourceShare: topShare,
			Flags:          flags,
		})
	}
	return reports
}
