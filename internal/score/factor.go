// Package score computes fixed-weight, reproducible scores for movements
// and rolls them up into ranked themes.
//
// Design principles:
// - Factors are stateless functions: (movement, context) -> value in [0,1]
// - The factor set and weights come from versioned configuration
// - Factors don't mutate movements; they just score them
// - Every score is backed by audit entries that reproduce it exactly
package score

import (
	"fmt"
	"sort"
	"time"

	"github.com/driftwatch/radar/internal/cluster"
)

// Factor produces one normalized scoring signal for a movement.
// Implementations must be stateless and deterministic: the same movement
// and context always produce the same value.
type Factor interface {
	// Name returns the configuration identifier for this factor
	Name() string

	// Score returns the factor value for the movement, in [0,1]
	Score(m *cluster.Movement, ctx *Context) float64
}

// Context provides data factors may need for scoring decisions.
// Not all factors use all fields - take what you need.
type Context struct {
	// AsOf anchors time-based factors. Passed in explicitly so a build is
	// reproducible: two builds with the same AsOf score identically.
	AsOf time.Time

	// PriorThemeScores holds the most recent committed snapshot's theme
	// scores, for trend arrows. Nil on the first build.
	PriorThemeScores map[string]int

	// ThemeKeywords maps theme names to their configured keywords,
	// for the relevance factor.
	ThemeKeywords map[string][]string
}

// factorConstructors maps configuration names to factor builders
var factorConstructors = map[string]func() Factor{
	"recency":      func() Factor { return NewRecencyFactor() },
	"trust":        func() Factor { return &TrustFactor{} },
	"cluster_size": func() Factor { return &ClusterSizeFactor{} },
	"diversity":    func() Factor { return NewDiversityFactor() },
	"acceleration": func() Factor { return &AccelerationFactor{} },
	"relevance":    func() Factor { return &RelevanceFactor{} },
}

// FactorsForWeights resolves every declared weight to its factor,
// returned in name order for deterministic evaluation. A weight naming
// an unknown factor is a configuration error.
func FactorsForWeights(weights map[string]float64) ([]Factor, error) {
	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Strings(names)

	factors := make([]Factor, 0, len(names))
	for _, name := range names {
		ctor, ok := factorConstructors[name]
		if !ok {
			return nil, fmt.Errorf("weight declared for unknown factor %q", name)
		}
		factors = append(factors, ctor())
	}
	return factors, nil
}

// clamp01 bounds a factor value to [0,1]
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
