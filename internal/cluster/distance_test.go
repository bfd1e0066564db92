package cluster

import (
	"testing"

	"github.com/driftwatch/radar/internal/normalize"
)

func textItem(title, summary string) *normalize.Item {
	return &normalize.Item{EventUID: "x", Title: title, Summary: summary}
}

func TestMetricByName(t *testing.T) {
	for _, name := range []string{"token", "simhash"} {
		m, err := MetricByName(name)
		if err != nil {
			t.Fatalf("MetricByName(%q) failed: %v", name, err)
		}
		if m.Name() != name {
			t.Errorf("metric %q reports name %q", name, m.Name())
		}
	}

	if _, err := MetricByName("cosine"); err == nil {
		t.Error("expected error for unknown metric name")
	}
}

func TestTokenDistance(t *testing.T) {
	m := &TokenMetric{}

	a := textItem("Riksbank launches instant payment pilot", "")
	b := textItem("Riksbank launches instant payment pilot", "")
	if d := m.Distance(a, b); d != 0 {
		t.Errorf("identical items: expected distance 0, got %f", d)
	}

	c := textItem("Quarterly housing price statistics", "")
	if d := m.Distance(a, c); d != 1.0 {
		t.Errorf("disjoint items: expected distance 1, got %f", d)
	}

	// Partial overlap lands strictly between the extremes
	e := textItem("Riksbank expands instant payment coverage", "")
	d := m.Distance(a, e)
	if d <= 0 || d >= 1 {
		t.Errorf("overlapping items: expected distance in (0,1), got %f", d)
	}

	// Symmetric
	if m.Distance(a, e) != m.Distance(e, a) {
		t.Error("token distance is not symmetric")
	}

	// Empty text is maximally distant
	if d := m.Distance(a, textItem("", "")); d != 1.0 {
		t.Errorf("empty item: expected distance 1, got %f", d)
	}
}

func TestTokenDistanceIgnoresShortTokens(t *testing.T) {
	m := &TokenMetric{}
	// Tokens of length <= 2 never count toward overlap
	a := textItem("of to in at settlement", "")
	b := textItem("of to in at clearing", "")
	if d := m.Distance(a, b); d != 1.0 {
		t.Errorf("expected short tokens to be dropped, got distance %f", d)
	}
}

func TestSimHashDistance(t *testing.T) {
	m := &SimHashMetric{}

	a := textItem("nordic central bank tests wholesale settlement platform today", "")
	b := textItem("nordic central bank tests wholesale settlement platform today", "")
	if d := m.Distance(a, b); d != 0 {
		t.Errorf("identical items: expected distance 0, got %f", d)
	}

	if m.Distance(a, b) != m.Distance(b, a) {
		t.Error("simhash distance is not symmetric")
	}

	c := textItem("unrelated retail lending survey results published this week again", "")
	if d := m.Distance(a, c); d <= 0 {
		t.Errorf("different items: expected positive distance, got %f", d)
	}
}

func TestSimilarityScore(t *testing.T) {
	if s := SimilarityScore(0xdeadbeef, 0xdeadbeef); s != 1.0 {
		t.Errorf("identical hashes: expected 1.0, got %f", s)
	}
	if s := SimilarityScore(0, ^uint64(0)); s != 0.0 {
		t.Errorf("inverted hashes: expected 0.0, got %f", s)
	}
}
