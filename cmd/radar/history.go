package main

import (
	"flag"
	"fmt"
	"log"
	"os"
)

// runHistory prints a theme's score series across committed snapshots.
func runHistory() {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	dbPath := fs.String("db", "", "snapshot store path")
	fs.Parse(os.Args[1:])

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: radar history [flags] <theme>")
		os.Exit(1)
	}
	theme := fs.Arg(0)

	st := openStore(*dbPath)
	defer st.Close()

	points, err := st.GetHistory(theme)
	if err != nil {
		log.Fatalf("history query failed: %v", err)
	}
	printHistory(theme, points)
}

// runAudit prints the audit entries that justify a score.
func runAudit() {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	dbPath := fs.String("db", "", "snapshot store path")
	fs.Parse(os.Args[1:])

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "usage: radar audit [flags] <target-id> <build-id>")
		os.Exit(1)
	}
	targetID, buildID := fs.Arg(0), fs.Arg(1)

	st := openStore(*dbPath)
	defer st.Close()

	entries, err := st.AuditEntries(targetID, buildID)
	if err != nil {
		log.Fatalf("audit query failed: %v", err)
	}
	printAudit(targetID, buildID, entries)
}

// runSnapshots lists committed snapshots.
func runSnapshots() {
	fs := flag.NewFlagSet("snapshots", flag.ExitOnError)
	dbPath := fs.String("db", "", "snapshot store path")
	fs.Parse(os.Args[1:])

	st := openStore(*dbPath)
	defer st.Close()

	metas, err := st.Snapshots()
	if err != nil {
		log.Fatalf("snapshot listing failed: %v", err)
	}
	printSnapshots(metas)
}
