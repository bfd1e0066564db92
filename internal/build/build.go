// Package build orchestrates one batch run of the pipeline:
// Normalize -> Cluster -> Score -> Audit.
//
// A build is an atomic unit of work. Everything it produces is build-local
// and recomputed fresh each run; only the snapshot store (a separate
// concern) carries state across invocations, so a failed build can simply
// be retried.
package build

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/driftwatch/radar/internal/audit"
	"github.com/driftwatch/radar/internal/cluster"
	"github.com/driftwatch/radar/internal/config"
	"github.com/driftwatch/radar/internal/feeds"
	"github.com/driftwatch/radar/internal/logging"
	"github.com/driftwatch/radar/internal/normalize"
	"github.com/driftwatch/radar/internal/score"
)

// Result is the complete output of one build, consumed by the snapshot
// store and the presentation layer. Immutable once the build returns.
type Result struct {
	BuildID string
	AsOf    time.Time

	// Reproducibility metadata: the exact configuration that shaped
	// this result.
	ScoringVersion    string
	DistanceThreshold float64
	Metric            string
	DayWindow         int

	Movements      []cluster.Movement
	MovementScores map[string]int // movement uid -> 0-100
	Themes         []score.Theme
	Trail          *audit.Trail

	RejectedItems int
}

// Pipeline runs builds for one validated configuration
type Pipeline struct {
	cfg    *config.Config
	metric cluster.Metric
	engine *score.Engine
}

// New creates a pipeline. Configuration problems (bad threshold, weight
// for an undeclared factor, unknown metric) fail here, before any build
// touches persisted state.
func New(cfg *config.Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	metric, err := cluster.MetricByName(cfg.Metric)
	if err != nil {
		return nil, &config.ConfigurationError{Field: "metric", Reason: err.Error()}
	}
	engine, err := score.NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	return &Pipeline{cfg: cfg, metric: metric, engine: engine}, nil
}

// Run executes one build over the raw items. priorThemeScores is the most
// recent committed snapshot's theme scores (nil on the first ever build);
// asOf anchors the time-based factors.
func (p *Pipeline) Run(raw []feeds.RawItem, priorThemeScores map[string]int, asOf time.Time) (*Result, error) {
	items, rejected := normalize.Run(raw)
	if len(items) == 0 {
		return nil, fmt.Errorf("build: no valid items in batch (%d raw, %d rejected)", len(raw), len(rejected))
	}

	buildID := BuildID(items, p.cfg)
	logging.Info("build: starting",
		"build_id", buildID,
		"items", len(items),
		"scoring_version", p.cfg.ScoringVersion,
		"threshold", p.cfg.DistanceThreshold)

	movements := cluster.NewEngine(p.cfg, p.metric).Build(items)

	ctx := &score.Context{
		AsOf:             asOf.UTC(),
		PriorThemeScores: priorThemeScores,
		ThemeKeywords:    themeKeywords(p.cfg),
	}

	trail := audit.NewTrail(buildID)
	movementScores := make(map[string]int, len(movements))
	for i := range movements {
		m := &movements[i]
		value, err := p.engine.ScoreMovement(m, ctx, trail)
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", buildID, err)
		}
		movementScores[m.UID] = value
	}

	themes, err := p.engine.BuildThemes(movements, movementScores, ctx, trail)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", buildID, err)
	}

	trail.Seal()

	logging.Info("build: complete",
		"build_id", buildID,
		"movements", len(movements),
		"themes", len(themes),
		"audit_entries", trail.Len())

	return &Result{
		BuildID:           buildID,
		AsOf:              asOf.UTC(),
		ScoringVersion:    p.cfg.ScoringVersion,
		DistanceThreshold: p.cfg.DistanceThreshold,
		Metric:            p.cfg.Metric,
		DayWindow:         p.cfg.DayWindow,
		Movements:         movements,
		MovementScores:    movementScores,
		Themes:            themes,
		Trail:             trail,
		RejectedItems:     len(rejected),
	}, nil
}

// BuildID derives a deterministic id from the input items and the
// configuration that shapes the build: identical inputs and config give
// the same id, so independent re-runs are bit-identical end to end.
func BuildID(items []normalize.Item, cfg *config.Config) string {
	uids := make([]string, len(items))
	for i, it := range items {
		uids[i] = it.EventUID
	}
	sort.Strings(uids)

	fingerprint := fmt.Sprintf("%s\n%s|%v|%s|%d",
		strings.Join(uids, "\n"),
		cfg.ScoringVersion, cfg.DistanceThreshold, cfg.Metric, cfg.DayWindow)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fingerprint)).String()
}

func themeKeywords(cfg *config.Config) map[string][]string {
	out := make(map[string][]string, len(cfg.Themes))
	for _, rule := range cfg.Themes {
		out[rule.Name] = rule.Keywords
	}
	return out
}
