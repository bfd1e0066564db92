// Command radar runs the movement clustering, scoring, and snapshot
// pipeline over batches of raw items.
//
// Usage:
//
//	radar                        Show help
//	radar build                  Run a build and print ranked themes
//	radar snapshot               Run a build and commit a snapshot
//	radar history <theme>        Theme score history across snapshots
//	radar audit <target> <build> Audit entries justifying a score
//	radar snapshots              List committed snapshots
//	radar coverage               Signal coverage report for an item batch
package main

import (
	"fmt"
	"os"

	"github.com/driftwatch/radar/internal/logging"
)

const usage = `radar - movement clustering, scoring & snapshot pipeline

Usage:
  radar <command> [flags]

Commands:
  build       Run a full build (normalize, cluster, score) and print themes
  snapshot    Run a build and commit it as a dated snapshot
  history     Print a theme's (label, score) series across snapshots
  audit       Print the audit entries justifying a movement or theme score
  snapshots   List committed snapshots with their build metadata
  coverage    Per-signal coverage report for an item batch

Common flags:
  -items <path>    JSON file of raw items (the connector boundary)
  -config <path>   YAML build configuration (defaults apply when omitted)
  -db <path>       Snapshot store (default ~/.radar/radar.db)

Run 'radar <command> -h' for command-specific help.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	if err := logging.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "radar: logging init failed: %v\n", err)
	}
	defer logging.Close()

	cmd := os.Args[1]
	// Strip the program name + subcommand so flag sets see only their flags
	os.Args = os.Args[1:]

	switch cmd {
	case "build":
		runBuild(false)
	case "snapshot":
		runBuild(true)
	case "history":
		runHistory()
	case "audit":
		runAudit()
	case "snapshots":
		runSnapshots()
	case "coverage":
		runCoverage()
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "radar: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}
