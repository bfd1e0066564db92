package cluster

import (
	"fmt"
	"strings"

	"github.com/driftwatch/radar/internal/normalize"
)

// Metric measures textual dissimilarity between two items.
// Distance returns a value in [0,1]: 0 = identical, 1 = unrelated.
// Implementations must be stateless, symmetric, and deterministic;
// the metric is selected by configuration, never hardcoded.
type Metric interface {
	// Name returns the configuration identifier for this metric
	Name() string

	// Distance returns the dissimilarity between a and b in [0,1]
	Distance(a, b *normalize.Item) float64
}

// MetricByName resolves a configured metric name
func MetricByName(name string) (Metric, error) {
	switch name {
	case "token":
		return &TokenMetric{}, nil
	case "simhash":
		return &SimHashMetric{}, nil
	default:
		return nil, fmt.Errorf("unknown distance metric %q", name)
	}
}

// TokenMetric computes Jaccard distance over lowercased word tokens of an
// item's title and summary. Short tokens carry little signal and are dropped.
type TokenMetric struct{}

func (m *TokenMetric) Name() string { return "token" }

func (m *TokenMetric) Distance(a, b *normalize.Item) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)

	if len(setA) == 0 || len(setB) == 0 {
		return 1.0
	}

	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}
	union := len(setA)
	for tok := range setB {
		if !setA[tok] {
			union++
		}
	}
	if union == 0 {
		return 1.0
	}
	return 1.0 - float64(intersection)/float64(union)
}

func tokenSet(it *normalize.Item) map[string]bool {
	set := make(map[string]bool)
	text := strings.ToLower(it.Title + " " + it.Summary)
	for _, tok := range strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		if len(tok) > 2 {
			set[tok] = true
		}
	}
	return set
}

// SimHashMetric compares 64-bit trigram fingerprints of item text.
// Cheaper than token sets on long texts; coarser on short titles.
type SimHashMetric struct{}

func (m *SimHashMetric) Name() string { return "simhash" }

func (m *SimHashMetric) Distance(a, b *normalize.Item) float64 {
	ha := SimHash(a.Title + " " + a.Summary)
	hb := SimHash(b.Title + " " + b.Summary)
	return 1.0 - SimilarityScore(ha, hb)
}

// SimHash calculates a similarity hash using a word trigram approach
func SimHash(text string) uint64 {
	// Normalize text
	text = strings.ToLower(text)
	text = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == ' ' {
			return r
		}
		return ' '
	}, text)

	// Generate 3-grams and hash them
	var hash uint64
	words := strings.Fields(text)

	for i := 0; i < len(words)-2; i++ {
		trigram := words[i] + " " + words[i+1] + " " + words[i+2]
		var h uint64 = 5381
		for _, c := range trigram {
			h = ((h << 5) + h) + uint64(c)
		}
		hash |= (1 << (h % 64))
	}

	return hash
}

// SimilarityScore calculates how similar two SimHash values are.
// Returns 0.0 to 1.0 (1.0 = identical).
func SimilarityScore(hash1, hash2 uint64) float64 {
	// Count matching bits (Hamming distance)
	xor := hash1 ^ hash2
	diff := 0
	for xor != 0 {
		diff++
		xor &= xor - 1
	}
	return float64(64-diff) / 64.0
}
