package score

import (
	"fmt"
	"sort"

	"github.com/driftwatch/radar/internal/audit"
	"github.com/driftwatch/radar/internal/cluster"
)

// Arrow is a theme's trend versus its most recent prior snapshot
type Arrow string

const (
	ArrowUp   Arrow = "↑"
	ArrowFlat Arrow = "→"
	ArrowDown Arrow = "↓"
)

// Confidence labels how defensible a theme score is
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Theme is a named grouping of movements with an aggregate score.
// Derived per build; never stored outside a build result or snapshot.
type Theme struct {
	Name       string
	Score      int
	Arrow      Arrow
	Confidence string

	// MovementUIDs are the member movements ordered by score descending,
	// ties by uid
	MovementUIDs []string
}

// BuildThemes aggregates scored movements into ranked themes and records
// the audit entries backing each theme score. Aggregation is stable under
// reordering of the input: movements are re-sorted by (score desc, uid)
// inside each theme before the aggregator runs.
func (e *Engine) BuildThemes(movements []cluster.Movement, movementScores map[string]int, ctx *Context, trail *audit.Trail) ([]Theme, error) {
	byTheme := make(map[string][]*cluster.Movement)
	for i := range movements {
		m := &movements[i]
		byTheme[m.Theme] = append(byTheme[m.Theme], m)
	}

	names := make([]string, 0, len(byTheme))
	for name := range byTheme {
		names = append(names, name)
	}
	sort.Strings(names)

	themes := make([]Theme, 0, len(names))
	for _, name := range names {
		members := byTheme[name]
		sort.Slice(members, func(i, j int) bool {
			si, sj := movementScores[members[i].UID], movementScores[members[j].UID]
			if si != sj {
				return si > sj
			}
			return members[i].UID < members[j].UID
		})

		entries, err := e.aggregate(name, members, movementScores)
		if err != nil {
			return nil, err
		}
		if err := trail.Record(entries...); err != nil {
			return nil, fmt.Errorf("record audit entries for theme %s: %w", name, err)
		}
		value := audit.ScoreFromEntries(entries)

		uids := make([]string, len(members))
		for i, m := range members {
			uids[i] = m.UID
		}

		themes = append(themes, Theme{
			Name:         name,
			Score:        value,
			Arrow:        e.arrow(name, value, ctx),
			Confidence:   e.confidence(members),
			MovementUIDs: uids,
		})
	}

	sort.Slice(themes, func(i, j int) bool {
		if themes[i].Score != themes[j].Score {
			return themes[i].Score > themes[j].Score
		}
		return themes[i].Name < themes[j].Name
	})
	return themes, nil
}

// aggregate produces the audit entries whose contributions sum to the
// theme score. Members arrive ordered by (score desc, uid).
func (e *Engine) aggregate(theme string, members []*cluster.Movement, scores map[string]int) ([]audit.Entry, error) {
	switch e.aggregation {
	case "max":
		top := members[0]
		return []audit.Entry{{
			TargetID:     theme,
			Factor:       "movement:" + top.UID,
			Raw:          float64(scores[top.UID]) / 100.0,
			Weight:       1.0,
			Contribution: float64(scores[top.UID]) / 100.0,
		}}, nil

	case "topk_mean":
		k := e.topK
		if k > len(members) {
			k = len(members)
		}
		w := 1.0 / float64(k)
		entries := make([]audit.Entry, 0, k)
		for _, m := range members[:k] {
			raw := float64(scores[m.UID]) / 100.0
			entries = append(entries, audit.Entry{
				TargetID:     theme,
				Factor:       "movement:" + m.UID,
				Raw:          raw,
				Weight:       w,
				Contribution: raw * w,
			})
		}
		return entries, nil

	default:
		return nil, fmt.Errorf("unknown aggregation strategy %q", e.aggregation)
	}
}

// arrow compares the theme's score against the most recent committed
// snapshot. Within epsilon reads flat; a theme with no prior reads flat.
func (e *Engine) arrow(theme string, value int, ctx *Context) Arrow {
	prior, ok := ctx.PriorThemeScores[theme]
	if !ok {
		return ArrowFlat
	}
	diff := float64(value - prior)
	switch {
	case diff > e.epsilon:
		return ArrowUp
	case diff < -e.epsilon:
		return ArrowDown
	default:
		return ArrowFlat
	}
}

// confidence labels a theme from the number and diversity of its
// movements. Below the configured minimum movement count the label is
// always low, regardless of source quality.
func (e *Engine) confidence(members []*cluster.Movement) string {
	if len(members) < e.minCount {
		return ConfidenceLow
	}

	sources := make(map[string]bool)
	items, tier1 := 0, 0
	for _, m := range members {
		for _, it := range m.Items {
			items++
			if it.SourceName != "" {
				sources[it.SourceName] = true
			}
			if it.SourceTier == 1 {
				tier1++
			}
		}
	}

	srcDiv := float64(len(sources)) / 6.0
	if srcDiv > 1 {
		srcDiv = 1
	}
	tier1Share := 0.0
	if items > 0 {
		tier1Share = float64(tier1) / float64(items)
	}
	volume := float64(len(members)) / 10.0
	if volume > 1 {
		volume = 1
	}

	conf := 0.45*srcDiv + 0.40*tier1Share + 0.15*volume
	switch {
	case conf >= 0.70:
		return ConfidenceHigh
	case conf >= 0.45:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
