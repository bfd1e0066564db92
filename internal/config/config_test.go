package config

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default configuration does not validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty scoring version", func(c *Config) { c.ScoringVersion = "" }, "scoring_version"},
		{"negative threshold", func(c *Config) { c.DistanceThreshold = -0.1 }, "distance_threshold"},
		{"threshold above one", func(c *Config) { c.DistanceThreshold = 1.5 }, "distance_threshold"},
		{"zero day window", func(c *Config) { c.DayWindow = 0 }, "day_window"},
		{"unknown metric", func(c *Config) { c.Metric = "cosine" }, "metric"},
		{"no weights", func(c *Config) { c.Weights = nil }, "weights"},
		{"negative weight", func(c *Config) { c.Weights = map[string]float64{"recency": -0.5} }, "weights.recency"},
		{"unknown aggregation", func(c *Config) { c.Aggregation = "median" }, "aggregation"},
		{"zero top k", func(c *Config) { c.TopK = 0 }, "top_k"},
		{"negative epsilon", func(c *Config) { c.TrendEpsilon = -1 }, "trend_epsilon"},
		{"zero min movement count", func(c *Config) { c.MinMovementCount = 0 }, "min_movement_count"},
		{"empty default theme", func(c *Config) { c.DefaultTheme = "" }, "default_theme"},
		{"unnamed theme rule", func(c *Config) { c.Themes = []ThemeRule{{Keywords: []string{"x"}}} }, "themes[0].name"},
		{"keywordless theme rule", func(c *Config) { c.Themes = []ThemeRule{{Name: "T"}} }, "themes[0].keywords"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigurationError, got %T", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, cfgErr.Field)
			}
		})
	}
}

func TestValidateMaxAggregationIgnoresTopK(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Aggregation = "max"
	cfg.TopK = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("top_k should not be required for max aggregation: %v", err)
	}
}

func TestLoadFromFileLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "radar.yaml")
	cfg := DefaultConfig()
	cfg.DistanceThreshold = 0.42
	cfg.ScoringVersion = "v2"
	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.DistanceThreshold != 0.42 {
		t.Errorf("expected threshold 0.42, got %v", loaded.DistanceThreshold)
	}
	if loaded.ScoringVersion != "v2" {
		t.Errorf("expected scoring version v2, got %q", loaded.ScoringVersion)
	}
	// Untouched fields keep their defaults
	if loaded.Aggregation != "topk_mean" || loaded.TopK != 3 {
		t.Errorf("defaults not preserved: aggregation=%q top_k=%d", loaded.Aggregation, loaded.TopK)
	}
	if err := loaded.Validate(); err != nil {
		t.Errorf("round-tripped config does not validate: %v", err)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestConfigurationErrorMessage(t *testing.T) {
	err := &ConfigurationError{Field: "metric", Reason: "unknown metric \"cosine\""}
	want := `configuration error: metric: unknown metric "cosine"`
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}
