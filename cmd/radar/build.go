package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/driftwatch/radar/internal/build"
	"github.com/driftwatch/radar/internal/normalize"
	"github.com/driftwatch/radar/internal/snapshot"
)

// runBuild executes one pipeline run. With commit=true the result is also
// persisted as a snapshot.
func runBuild(commit bool) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	itemsPath := fs.String("items", "", "JSON file of raw items (required)")
	configPath := fs.String("config", "", "YAML build configuration")
	dbPath := fs.String("db", "", "snapshot store path")
	asOf := fs.String("as-of", "", "score as of this date, YYYY-MM-DD (default: today)")
	label := fs.String("label", "", "snapshot label (default: current quarter)")
	fs.Parse(os.Args[1:])

	cfg := loadConfig(*configPath)
	raw := loadItems(*itemsPath)

	pipeline, err := build.New(cfg)
	if err != nil {
		log.Fatalf("build setup failed: %v", err)
	}

	st := openStore(*dbPath)
	defer st.Close()

	prior, err := st.LatestThemeScores()
	if err != nil {
		log.Fatalf("failed to read prior snapshot: %v", err)
	}

	res, err := pipeline.Run(raw, prior, parseAsOf(*asOf))
	if err != nil {
		log.Fatalf("build failed: %v", err)
	}

	printBuildResult(res)

	if commit {
		id, err := st.CreateSnapshot(*label, res)
		if err != nil {
			log.Fatalf("snapshot failed: %v", err)
		}
		lbl := *label
		if lbl == "" {
			lbl = snapshot.QuarterLabel(res.AsOf)
		}
		fmt.Printf("\ncommitted snapshot %d (label %s, build %s)\n", id, lbl, res.BuildID)
	}
}

// runCoverage prints the per-signal coverage report for an item batch.
func runCoverage() {
	fs := flag.NewFlagSet("coverage", flag.ExitOnError)
	itemsPath := fs.String("items", "", "JSON file of raw items (required)")
	fs.Parse(os.Args[1:])

	raw := loadItems(*itemsPath)
	items, rejected := normalize.Run(raw)
	printCoverage(items, len(rejected))
}
