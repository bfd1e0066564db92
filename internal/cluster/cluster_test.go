package cluster

import (
	"reflect"
	"testing"
	"time"

	"github.com/driftwatch/radar/internal/config"
	"github.com/driftwatch/radar/internal/normalize"
)

// fixedMetric returns scripted pairwise distances keyed by uid pair.
// Unlisted pairs are maximally distant.
type fixedMetric struct {
	dist map[[2]string]float64
}

func (m *fixedMetric) Name() string { return "fixed" }

func (m *fixedMetric) Distance(a, b *normalize.Item) float64 {
	key := [2]string{a.EventUID, b.EventUID}
	if key[0] > key[1] {
		key[0], key[1] = key[1], key[0]
	}
	if d, ok := m.dist[key]; ok {
		return d
	}
	return 1.0
}

func pair(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

func testConfig(threshold float64, window int) *config.Config {
	cfg := config.DefaultConfig()
	cfg.DistanceThreshold = threshold
	cfg.DayWindow = window
	return cfg
}

func item(uid string, d int, title string) normalize.Item {
	return normalize.Item{
		EventUID:   uid,
		Date:       time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC),
		Title:      title,
		Summary:    title,
		SourceName: "src-" + uid,
		SourceTier: 2,
	}
}

func TestBuildMergeWithinWindow(t *testing.T) {
	// a and b are 2 days apart at distance 0.1 against threshold 0.2, so
	// they merge. c is textually near-identical (0.05) but 40 days after b,
	// outside the 30-day window, so it stands alone.
	metric := &fixedMetric{dist: map[[2]string]float64{
		pair("a", "b"): 0.1,
		pair("a", "c"): 0.05,
		pair("b", "c"): 0.05,
	}}
	items := []normalize.Item{
		item("a", 1, "alpha"),
		item("b", 3, "beta"),
		item("c", 43, "gamma"),
	}

	eng := NewEngine(testConfig(0.2, 30), metric)
	movements := eng.Build(items)

	if len(movements) != 2 {
		t.Fatalf("expected 2 movements, got %d", len(movements))
	}
	if got := movements[0].Members; !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("expected first movement members [a b], got %v", got)
	}
	if got := movements[1].Members; !reflect.DeepEqual(got, []string{"c"}) {
		t.Errorf("expected second movement members [c], got %v", got)
	}
}

func TestBuildDistanceAboveThreshold(t *testing.T) {
	metric := &fixedMetric{dist: map[[2]string]float64{
		pair("a", "b"): 0.3,
	}}
	items := []normalize.Item{item("a", 1, "alpha"), item("b", 2, "beta")}

	movements := NewEngine(testConfig(0.2, 30), metric).Build(items)
	if len(movements) != 2 {
		t.Fatalf("expected distance 0.3 > threshold 0.2 to keep items apart, got %d movements", len(movements))
	}
}

func TestBuildTransitiveChaining(t *testing.T) {
	// a~b and b~c merge even though a and c alone would not
	metric := &fixedMetric{dist: map[[2]string]float64{
		pair("a", "b"): 0.1,
		pair("b", "c"): 0.1,
		pair("a", "c"): 0.9,
	}}
	items := []normalize.Item{
		item("a", 1, "alpha"),
		item("b", 2, "beta"),
		item("c", 3, "gamma"),
	}

	movements := NewEngine(testConfig(0.2, 30), metric).Build(items)
	if len(movements) != 1 {
		t.Fatalf("expected transitive chain into 1 movement, got %d", len(movements))
	}
	if got := movements[0].Members; !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("expected members [a b c], got %v", got)
	}
}

func TestBuildRepresentativeTitle(t *testing.T) {
	metric := &fixedMetric{dist: map[[2]string]float64{
		pair("a", "b"): 0.1,
		pair("b", "c"): 0.1,
	}}
	items := []normalize.Item{
		item("a", 1, "a rather long early headline"),
		item("b", 1, "short headline"),
		item("c", 2, "x"),
	}

	movements := NewEngine(testConfig(0.2, 30), metric).Build(items)
	if len(movements) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(movements))
	}
	// Earliest date wins; among same-day items the shortest title wins.
	// c is shortest overall but a day later, so it never competes.
	if movements[0].Title != "short headline" {
		t.Errorf("expected representative title %q, got %q", "short headline", movements[0].Title)
	}
	if !movements[0].FirstSeen.Equal(items[0].Date) {
		t.Errorf("unexpected FirstSeen %v", movements[0].FirstSeen)
	}
	if !movements[0].LastSeen.Equal(items[2].Date) {
		t.Errorf("unexpected LastSeen %v", movements[0].LastSeen)
	}
}

func TestBuildThemeAssignment(t *testing.T) {
	cfg := testConfig(0.2, 30)
	cfg.Themes = []config.ThemeRule{
		{Name: "Payments", Keywords: []string{"payment", "instant"}},
		{Name: "Identity", Keywords: []string{"eid", "bankid"}},
	}
	cfg.DefaultTheme = "General Signals"

	metric := &fixedMetric{dist: map[[2]string]float64{}}
	items := []normalize.Item{
		item("a", 1, "New instant settlement rail announced"),
		item("b", 2, "Unrelated press release"),
	}

	movements := NewEngine(cfg, metric).Build(items)
	if len(movements) != 2 {
		t.Fatalf("expected 2 movements, got %d", len(movements))
	}

	byUID := map[string]string{}
	for _, m := range movements {
		byUID[m.Members[0]] = m.Theme
	}
	if byUID["a"] != "Payments" {
		t.Errorf("expected theme Payments for item a, got %q", byUID["a"])
	}
	if byUID["b"] != "General Signals" {
		t.Errorf("expected fallback theme for item b, got %q", byUID["b"])
	}
}

func TestBuildDeterministic(t *testing.T) {
	metric := &fixedMetric{dist: map[[2]string]float64{
		pair("a", "b"): 0.1,
		pair("c", "d"): 0.15,
	}}
	items := []normalize.Item{
		item("a", 1, "alpha"),
		item("b", 2, "beta"),
		item("c", 5, "gamma"),
		item("d", 6, "delta"),
		item("e", 9, "epsilon"),
	}

	eng := NewEngine(testConfig(0.2, 30), metric)
	first := eng.Build(items)
	second := eng.Build(items)
	if !reflect.DeepEqual(first, second) {
		t.Error("two builds over the same items differ")
	}
}

func TestMovementUID(t *testing.T) {
	uid := MovementUID([]string{"b", "a", "c"})
	if len(uid) != 24 {
		t.Fatalf("expected 24-char uid, got %d chars", len(uid))
	}

	// Member order must not matter
	if got := MovementUID([]string{"c", "b", "a"}); got != uid {
		t.Errorf("uid changed under member reordering: %s vs %s", got, uid)
	}

	// Only the first 10 sorted members feed the hash
	base := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	withTail := append(append([]string{}, base...), "z")
	if MovementUID(base) != MovementUID(withTail) {
		t.Error("uid changed when members beyond the first 10 were added")
	}

	if MovementUID([]string{"a"}) == MovementUID([]string{"b"}) {
		t.Error("distinct member sets produced identical uids")
	}
}
