package score

import (
	"math"
	"strings"
	"time"

	"github.com/driftwatch/radar/internal/cluster"
)

// RecencyFactor scores movements by how recently they were last seen.
// Exponential decay, quantized to whole days so builds on the same day
// score identically.
type RecencyFactor struct {
	// HalfLifeDays is how many days until the value drops to 0.5
	HalfLifeDays float64
}

func NewRecencyFactor() *RecencyFactor {
	return &RecencyFactor{HalfLifeDays: 30}
}

func (f *RecencyFactor) Name() string { return "recency" }

func (f *RecencyFactor) Score(m *cluster.Movement, ctx *Context) float64 {
	age := ctx.AsOf.Sub(m.LastSeen)
	if age < 0 {
		age = 0 // Future-dated movements treated as brand new
	}
	days := math.Floor(age.Hours() / 24)
	return clamp01(math.Pow(0.5, days/f.HalfLifeDays))
}

// TrustFactor scores movements by the trust tier of their sources.
// Tier 1 sources are worth the most; the factor is the mean tier value
// across member items.
type TrustFactor struct{}

func (f *TrustFactor) Name() string { return "trust" }

var tierValues = map[int]float64{1: 1.0, 2: 0.6, 3: 0.3}

func (f *TrustFactor) Score(m *cluster.Movement, ctx *Context) float64 {
	if len(m.Items) == 0 {
		return 0
	}
	sum := 0.0
	for _, it := range m.Items {
		sum += tierValues[it.SourceTier]
	}
	return clamp01(sum / float64(len(m.Items)))
}

// ClusterSizeFactor scores movements by member count with diminishing
// returns: size 1 -> 0, 2 -> 0.5, 4 -> 0.75, 10 -> 0.9.
type ClusterSizeFactor struct{}

func (f *ClusterSizeFactor) Name() string { return "cluster_size" }

func (f *ClusterSizeFactor) Score(m *cluster.Movement, ctx *Context) float64 {
	n := m.Size()
	if n <= 0 {
		return 0
	}
	return 1.0 - 1.0/float64(n)
}

// DiversityFactor scores movements by how many distinct sources cover
// them. Saturates: a handful of independent sources is as good as many.
type DiversityFactor struct {
	// SaturationCount is the source count that maps to 1.0
	SaturationCount int
}

func NewDiversityFactor() *DiversityFactor {
	return &DiversityFactor{SaturationCount: 6}
}

func (f *DiversityFactor) Name() string { return "diversity" }

func (f *DiversityFactor) Score(m *cluster.Movement, ctx *Context) float64 {
	sources := make(map[string]bool)
	for _, it := range m.Items {
		if it.SourceName != "" {
			sources[it.SourceName] = true
		}
	}
	return clamp01(float64(len(sources)) / float64(f.SaturationCount))
}

// AccelerationFactor compares activity in the last 90 days against the
// 90-day window before that. A movement gaining items scores above 0.5,
// a fading one below. Smoothed so single-item movements stay near neutral.
type AccelerationFactor struct{}

func (f *AccelerationFactor) Name() string { return "acceleration" }

func (f *AccelerationFactor) Score(m *cluster.Movement, ctx *Context) float64 {
	cutoff90 := ctx.AsOf.Add(-90 * 24 * time.Hour)
	cutoff180 := ctx.AsOf.Add(-180 * 24 * time.Hour)

	recent, baseline := 0, 0
	for _, it := range m.Items {
		switch {
		case !it.Date.Before(cutoff90):
			recent++
		case !it.Date.Before(cutoff180):
			baseline++
		}
	}

	ratio := (float64(recent) + 1.0) / (float64(baseline) + 1.0)
	return clamp01(0.5 + 0.25*(ratio-1.0))
}

// RelevanceFactor scores how strongly a movement's text matches its
// assigned theme's keywords. Movements on the fallback theme (no keywords)
// score neutral.
type RelevanceFactor struct{}

func (f *RelevanceFactor) Name() string { return "relevance" }

func (f *RelevanceFactor) Score(m *cluster.Movement, ctx *Context) float64 {
	keywords := ctx.ThemeKeywords[m.Theme]
	if len(keywords) == 0 {
		return 0.5
	}

	var sb strings.Builder
	for _, it := range m.Items {
		sb.WriteString(strings.ToLower(it.Title))
		sb.WriteByte(' ')
		sb.WriteString(strings.ToLower(it.Summary))
		sb.WriteByte(' ')
	}
	text := sb.String()

	matched := 0
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			matched++
		}
	}
	return clamp01(float64(matched) / float64(len(keywords)))
}
