package score

import (
	"fmt"

	"github.com/driftwatch/radar/internal/audit"
	"github.com/driftwatch/radar/internal/cluster"
	"github.com/driftwatch/radar/internal/config"
)

// Engine computes movement and theme scores from a fixed weight table.
// The weight table is versioned: changing it without bumping the scoring
// version breaks comparability across snapshots, so the version travels
// with every build and snapshot the engine feeds.
type Engine struct {
	version     string
	weights     map[string]float64
	factors     []Factor // name order, matches audit entry order
	aggregation string
	topK        int
	epsilon     float64
	minCount    int
}

// NewEngine creates a scoring engine from validated configuration.
// A weight naming an unknown factor is a *config.ConfigurationError.
func NewEngine(cfg *config.Config) (*Engine, error) {
	factors, err := FactorsForWeights(cfg.Weights)
	if err != nil {
		return nil, &config.ConfigurationError{Field: "weights", Reason: err.Error()}
	}

	weights := make(map[string]float64, len(cfg.Weights))
	for name, w := range cfg.Weights {
		weights[name] = w
	}

	return &Engine{
		version:     cfg.ScoringVersion,
		weights:     weights,
		factors:     factors,
		aggregation: cfg.Aggregation,
		topK:        cfg.TopK,
		epsilon:     cfg.TrendEpsilon,
		minCount:    cfg.MinMovementCount,
	}, nil
}

// Version returns the scoring version this engine was built with
func (e *Engine) Version() string { return e.version }

// ScoreMovement computes the movement's 0-100 score and records one audit
// entry per factor. The returned score always equals the clamped sum of
// the recorded contributions.
func (e *Engine) ScoreMovement(m *cluster.Movement, ctx *Context, trail *audit.Trail) (int, error) {
	entries := make([]audit.Entry, 0, len(e.factors))
	for _, f := range e.factors {
		raw := clamp01(f.Score(m, ctx))
		w := e.weights[f.Name()]
		entries = append(entries, audit.Entry{
			TargetID:     m.UID,
			Factor:       f.Name(),
			Raw:          raw,
			Weight:       w,
			Contribution: raw * w,
		})
	}

	if err := trail.Record(entries...); err != nil {
		return 0, fmt.Errorf("record audit entries for movement %s: %w", m.UID, err)
	}
	return audit.ScoreFromEntries(entries), nil
}
