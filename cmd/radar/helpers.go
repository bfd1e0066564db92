package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/driftwatch/radar/internal/config"
	"github.com/driftwatch/radar/internal/feeds"
	"github.com/driftwatch/radar/internal/snapshot"
)

// dataDir returns ~/.radar/, creating it if needed.
func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("failed to get home directory: %v", err)
	}
	dir := filepath.Join(home, ".radar")
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Fatalf("failed to create data directory: %v", err)
	}
	return dir
}

// defaultDBPath returns the path to radar.db.
func defaultDBPath() string {
	return filepath.Join(dataDir(), "radar.db")
}

// openStore opens the snapshot store or fatals.
func openStore(path string) *snapshot.Store {
	if path == "" {
		path = defaultDBPath()
	}
	st, err := snapshot.Open(path)
	if err != nil {
		log.Fatalf("failed to open snapshot store: %v", err)
	}
	return st
}

// loadConfig loads the build configuration, or defaults when no path given.
func loadConfig(path string) *config.Config {
	if path == "" {
		return config.DefaultConfig()
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// loadItems reads a JSON array of raw items. This file is the connector
// boundary: whatever produced it (RSS pulls, API dumps) is not our concern.
// The batch is replayed through the connector layer so file ingestion and
// live sources share one code path.
func loadItems(path string) []feeds.RawItem {
	if path == "" {
		fmt.Fprintln(os.Stderr, "error: -items <path> is required")
		os.Exit(1)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("failed to read items file: %v", err)
	}
	var items []feeds.RawItem
	if err := json.Unmarshal(data, &items); err != nil {
		log.Fatalf("failed to parse items file: %v", err)
	}
	replayed, err := feeds.ReplayBatch(context.Background(), items)
	if err != nil {
		log.Fatalf("failed to replay items batch: %v", err)
	}
	return replayed
}

// parseAsOf parses the -as-of flag, defaulting to now.
func parseAsOf(s string) time.Time {
	if s == "" {
		return time.Now().UTC()
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		log.Fatalf("failed to parse -as-of (want YYYY-MM-DD): %v", err)
	}
	return t.UTC()
}
