// Package cluster groups normalized items into movements.
//
// Clustering is single-link: two items merge when their distance is within
// the configured threshold AND they fall inside the temporal day window.
// Merges close transitively, so a movement can chain beyond the threshold
// (A~B, B~C puts A and C together even if A-C alone would not merge). Both
// the threshold and the metric are configuration so chaining can be tuned
// per deployment.
//
// Output is deterministic for a fixed item sequence, threshold, and metric:
// items arrive pre-sorted from the normalizer, union-find merges happen in
// that order, and movement uids are content-derived hashes.
package cluster

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/driftwatch/radar/internal/config"
	"github.com/driftwatch/radar/internal/logging"
	"github.com/driftwatch/radar/internal/normalize"
)

// Movement is a cluster of items judged to describe one underlying event.
// Movements are rebuilt from scratch each build; a finished build's
// movements are never mutated.
type Movement struct {
	// UID is a stable content hash over the member event uids
	UID string

	// Title is the representative title: earliest member by date,
	// ties broken by shortest title
	Title string

	// Theme is the assigned theme name
	Theme string

	// Members are the member event uids ordered by date ascending
	Members []string

	// Items are the member items, same order as Members. Build-local:
	// used by scoring factors, not persisted as part of the movement.
	Items []normalize.Item

	FirstSeen time.Time
	LastSeen  time.Time
}

// Size returns the member count
func (m *Movement) Size() int { return len(m.Members) }

// Engine partitions normalized items into movements
type Engine struct {
	metric    Metric
	threshold float64
	window    time.Duration
	rules     []config.ThemeRule
	fallback  string
}

// NewEngine creates a clustering engine from validated configuration
func NewEngine(cfg *config.Config, metric Metric) *Engine {
	return &Engine{
		metric:    metric,
		threshold: cfg.DistanceThreshold,
		window:    time.Duration(cfg.DayWindow) * 24 * time.Hour,
		rules:     cfg.Themes,
		fallback:  cfg.DefaultTheme,
	}
}

// Build partitions items into movements. Items must be in normalizer order.
// Returned movements are sorted by first-seen date, ties by uid.
func (e *Engine) Build(items []normalize.Item) []Movement {
	if len(items) == 0 {
		return nil
	}

	parent := make([]int, len(items))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			// Attach the later root to the earlier one so cluster roots
			// are stable across runs.
			if ra < rb {
				parent[rb] = ra
			} else {
				parent[ra] = rb
			}
		}
	}

	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if !e.withinWindow(&items[i], &items[j]) {
				continue
			}
			if e.metric.Distance(&items[i], &items[j]) <= e.threshold {
				union(i, j)
			}
		}
	}

	// Group members by root, preserving item order within each group
	groups := make(map[int][]int)
	var roots []int
	for i := range items {
		r := find(i)
		if _, ok := groups[r]; !ok {
			roots = append(roots, r)
		}
		groups[r] = append(groups[r], i)
	}
	sort.Ints(roots)

	movements := make([]Movement, 0, len(roots))
	for _, r := range roots {
		movements = append(movements, e.movement(items, groups[r]))
	}

	sort.Slice(movements, func(i, j int) bool {
		if !movements[i].FirstSeen.Equal(movements[j].FirstSeen) {
			return movements[i].FirstSeen.Before(movements[j].FirstSeen)
		}
		return movements[i].UID < movements[j].UID
	})

	logging.Info("cluster: build complete",
		"items", len(items),
		"movements", len(movements),
		"metric", e.metric.Name(),
		"threshold", e.threshold)
	return movements
}

// withinWindow applies the temporal gate: items further apart than the
// day window never merge regardless of textual similarity.
func (e *Engine) withinWindow(a, b *normalize.Item) bool {
	gap := a.Date.Sub(b.Date)
	if gap < 0 {
		gap = -gap
	}
	return gap <= e.window
}

// movement assembles one Movement from member indexes (already date-ordered)
func (e *Engine) movement(items []normalize.Item, idxs []int) Movement {
	members := make([]string, 0, len(idxs))
	memberItems := make([]normalize.Item, 0, len(idxs))
	for _, i := range idxs {
		members = append(members, items[i].EventUID)
		memberItems = append(memberItems, items[i])
	}

	// Representative title: earliest date, ties by shortest title.
	// Items are date-ordered, so scan the leading run of equal dates.
	rep := memberItems[0]
	for _, it := range memberItems[1:] {
		if !it.Date.Equal(rep.Date) {
			break
		}
		if len(it.Title) < len(rep.Title) {
			rep = it
		}
	}

	m := Movement{
		UID:       MovementUID(members),
		Title:     rep.Title,
		Members:   members,
		Items:     memberItems,
		FirstSeen: memberItems[0].Date,
		LastSeen:  memberItems[len(memberItems)-1].Date,
	}
	m.Theme = e.assignTheme(&m)
	return m
}

// assignTheme matches the movement's member titles against the theme rules
func (e *Engine) assignTheme(m *Movement) string {
	limit := len(m.Items)
	if limit > 5 {
		limit = 5
	}
	var sb strings.Builder
	for _, it := range m.Items[:limit] {
		sb.WriteString(strings.ToLower(it.Title))
		sb.WriteByte(' ')
	}
	text := sb.String()

	for _, rule := range e.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				return rule.Name
			}
		}
	}
	return e.fallback
}

// MovementUID derives a stable uid from the member event uids.
// Only the first 10 sorted uids feed the hash so a movement's identity
// survives long-tail membership churn.
func MovementUID(eventUIDs []string) string {
	sorted := make([]string, len(eventUIDs))
	copy(sorted, eventUIDs)
	sort.Strings(sorted)
	if len(sorted) > 10 {
		sorted = sorted[:10]
	}
	sum := sha256.Sum256([]byte(strings.Join(sorted, "|")))
	return hex.EncodeToString(sum[:])[:24]
}
