package feeds

import (
	"context"
	"time"
)

// SignalType categorizes what kind of signal an item carries
type SignalType string

const (
	SignalResearch   SignalType = "research"
	SignalCapital    SignalType = "capital"
	SignalRegulatory SignalType = "regulatory"
	SignalInfra      SignalType = "infra"
	SignalCross      SignalType = "cross"
)

// RawItem is the stable shape every connector supplies.
// Items are immutable once ingested; downstream stages never write back.
type RawItem struct {
	EventUID   string     `json:"event_uid"`
	Date       time.Time  `json:"date"`
	Title      string     `json:"title"`
	URL        string     `json:"url"`
	RawText    string     `json:"raw_text"`
	SourceName string     `json:"source_name"`
	SourceTier int        `json:"source_tier"`
	Signal     SignalType `json:"signal_type"`
}

// Connector is the pull-only contract every source implements.
// Fetch is invoked once per collection cycle; connectors never push.
type Connector interface {
	// Name returns a unique connector identifier (e.g. "arxiv_cs")
	Name() string

	// SourceName returns the human-readable source (e.g. "arXiv")
	SourceName() string

	// SourceTier returns the trust tier: 1 (highest) through 3
	SourceTier() int

	// Signal returns the signal type this connector contributes
	Signal() SignalType

	// Fetch retrieves items published since the given time
	Fetch(ctx context.Context, since time.Time) ([]RawItem, error)
}
