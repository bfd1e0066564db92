// Package config provides the versioned build configuration.
//
// The configuration is an explicit input to every build: it is loaded once
// at build start, validated, and passed by value into the engines. Nothing
// reads it from ambient global state, so two builds with different weight
// sets can run against the same store and every snapshot records exactly
// the configuration that produced it.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ConfigurationError reports an invalid build configuration.
// It is fatal at build start: no persisted state is touched.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// ThemeRule assigns movements to a theme by keyword match.
// Rules are checked in order; the first rule with a matching keyword wins.
type ThemeRule struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Config is the full build configuration
type Config struct {
	// ScoringVersion identifies the weight/factor table. Any change to
	// Weights must bump this; scores are only comparable across snapshots
	// that share a scoring version.
	ScoringVersion string `yaml:"scoring_version"`

	// DistanceThreshold is the maximum combined distance for two items to
	// merge into one movement (single-link, so chains can exceed it).
	DistanceThreshold float64 `yaml:"distance_threshold"`

	// DayWindow is the temporal gate: items further apart than this many
	// days never merge regardless of textual similarity.
	DayWindow int `yaml:"day_window"`

	// Metric selects the distance metric: "token" or "simhash"
	Metric string `yaml:"metric"`

	// Weights maps factor names to their fixed weights. The sum need not
	// be 1; the 0-100 clamp absorbs overflow.
	Weights map[string]float64 `yaml:"weights"`

	// Aggregation selects the theme aggregator: "topk_mean" or "max"
	Aggregation string `yaml:"aggregation"`

	// TopK is the k for the topk_mean aggregator
	TopK int `yaml:"top_k"`

	// TrendEpsilon is the flat band for trend arrows: a theme whose score
	// moved by at most this much versus the prior snapshot reads as flat.
	TrendEpsilon float64 `yaml:"trend_epsilon"`

	// MinMovementCount is the floor below which a theme's confidence is
	// always "low"
	MinMovementCount int `yaml:"min_movement_count"`

	// DefaultTheme catches movements matching no theme rule
	DefaultTheme string `yaml:"default_theme"`

	// Themes are the keyword rules for theme assignment
	Themes []ThemeRule `yaml:"themes"`

	// DBPath is the snapshot store location (":memory:" for tests)
	DBPath string `yaml:"db_path"`
}

// DefaultConfig returns the v1 configuration
func DefaultConfig() *Config {
	return &Config{
		ScoringVersion:    "v1",
		DistanceThreshold: 0.55,
		DayWindow:         30,
		Metric:            "token",
		Weights: map[string]float64{
			"recency":      0.25,
			"trust":        0.25,
			"cluster_size": 0.20,
			"diversity":    0.15,
			"acceleration": 0.15,
		},
		Aggregation:      "topk_mean",
		TopK:             3,
		TrendEpsilon:     2.0,
		MinMovementCount: 3,
		DefaultTheme:     "General Signals",
		Themes: []ThemeRule{
			{Name: "Foundation Models & Agents", Keywords: []string{"agent", "agentic", "multi-agent", "foundation model", "llm"}},
			{Name: "Compute & Infrastructure", Keywords: []string{"gpu", "datacenter", "inference", "accelerator", "chip"}},
			{Name: "Privacy & Cryptography", Keywords: []string{"zero-knowledge", "zkp", "mpc", "homomorphic", "post-quantum", "privacy"}},
			{Name: "Regulation & Policy", Keywords: []string{"regulation", "consultation", "framework", "guidance", "policy", "act"}},
			{Name: "Capital & Markets", Keywords: []string{"funding", "acquisition", "ipo", "valuation", "raises"}},
		},
		DBPath: "",
	}
}

// LoadFromFile loads configuration from a YAML file, layered over defaults
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return cfg, nil
}

// SaveToFile writes the configuration as YAML
func (c *Config) SaveToFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the configuration. It returns a *ConfigurationError on
// the first problem found.
func (c *Config) Validate() error {
	if c.ScoringVersion == "" {
		return &ConfigurationError{Field: "scoring_version", Reason: "must not be empty"}
	}
	if c.DistanceThreshold < 0 || c.DistanceThreshold > 1 {
		return &ConfigurationError{Field: "distance_threshold", Reason: fmt.Sprintf("must be in [0,1], got %v", c.DistanceThreshold)}
	}
	if c.DayWindow <= 0 {
		return &ConfigurationError{Field: "day_window", Reason: fmt.Sprintf("must be positive, got %d", c.DayWindow)}
	}
	if c.Metric != "token" && c.Metric != "simhash" {
		return &ConfigurationError{Field: "metric", Reason: fmt.Sprintf("unknown metric %q", c.Metric)}
	}
	if len(c.Weights) == 0 {
		return &ConfigurationError{Field: "weights", Reason: "at least one factor weight is required"}
	}
	for name, w := range c.Weights {
		if w < 0 {
			return &ConfigurationError{Field: "weights." + name, Reason: fmt.Sprintf("must be non-negative, got %v", w)}
		}
	}
	if c.Aggregation != "topk_mean" && c.Aggregation != "max" {
		return &ConfigurationError{Field: "aggregation", Reason: fmt.Sprintf("unknown strategy %q", c.Aggregation)}
	}
	if c.Aggregation == "topk_mean" && c.TopK <= 0 {
		return &ConfigurationError{Field: "top_k", Reason: fmt.Sprintf("must be positive, got %d", c.TopK)}
	}
	if c.TrendEpsilon < 0 {
		return &ConfigurationError{Field: "trend_epsilon", Reason: fmt.Sprintf("must be non-negative, got %v", c.TrendEpsilon)}
	}
	if c.MinMovementCount < 1 {
		return &ConfigurationError{Field: "min_movement_count", Reason: fmt.Sprintf("must be at least 1, got %d", c.MinMovementCount)}
	}
	if c.DefaultTheme == "" {
		return &ConfigurationError{Field: "default_theme", Reason: "must not be empty"}
	}
	for i, rule := range c.Themes {
		if rule.Name == "" {
			return &ConfigurationError{Field: fmt.Sprintf("themes[%d].name", i), Reason: "must not be empty"}
		}
		if len(rule.Keywords) == 0 {
			return &ConfigurationError{Field: fmt.Sprintf("themes[%d].keywords", i), Reason: "must not be empty"}
		}
	}
	return nil
}
