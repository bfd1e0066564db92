package main

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/driftwatch/radar/internal/audit"
	"github.com/driftwatch/radar/internal/build"
	"github.com/driftwatch/radar/internal/coverage"
	"github.com/driftwatch/radar/internal/normalize"
	"github.com/driftwatch/radar/internal/snapshot"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	scoreStyle  = lipgloss.NewStyle().Bold(true)
	flagStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func printBuildResult(res *build.Result) {
	fmt.Println(headerStyle.Render(fmt.Sprintf("Build %s", res.BuildID)))
	fmt.Println(dimStyle.Render(fmt.Sprintf(
		"scoring %s · metric %s · threshold %.2f · window %dd · %d movements · %d rejected items",
		res.ScoringVersion, res.Metric, res.DistanceThreshold, res.DayWindow,
		len(res.Movements), res.RejectedItems)))
	fmt.Println()

	fmt.Println(headerStyle.Render("Themes"))
	for _, t := range res.Themes {
		fmt.Printf("  %s %s  %s  %s\n",
			scoreStyle.Render(fmt.Sprintf("%3d", t.Score)),
			t.Arrow,
			t.Name,
			dimStyle.Render(fmt.Sprintf("(%s confidence, %d movements)", t.Confidence, len(t.MovementUIDs))))
	}

	fmt.Println()
	fmt.Println(headerStyle.Render("Top movements"))
	shown := 0
	for _, t := range res.Themes {
		for _, uid := range t.MovementUIDs {
			if shown >= 10 {
				return
			}
			for i := range res.Movements {
				m := &res.Movements[i]
				if m.UID != uid {
					continue
				}
				fmt.Printf("  %s  %s  %s\n",
					scoreStyle.Render(fmt.Sprintf("%3d", res.MovementScores[uid])),
					truncate(m.Title, 70),
					dimStyle.Render(fmt.Sprintf("(%d items, %s)", m.Size(), m.Theme)))
				shown++
				break
			}
		}
	}
}

func printHistory(theme string, points []snapshot.HistoryPoint) {
	if len(points) == 0 {
		fmt.Printf("no committed snapshots contain theme %q\n", theme)
		return
	}
	fmt.Println(headerStyle.Render(theme))
	for _, p := range points {
		fmt.Printf("  %-8s %s  %s\n",
			p.Label,
			scoreStyle.Render(fmt.Sprintf("%3d", p.Score)),
			dimStyle.Render(p.CreatedAt.Format("2006-01-02 15:04")))
	}
}

func printAudit(targetID, buildID string, entries []audit.Entry) {
	if len(entries) == 0 {
		fmt.Printf("no audit entries for target %s in build %s\n", targetID, buildID)
		return
	}
	fmt.Println(headerStyle.Render(fmt.Sprintf("Audit: %s", targetID)))
	fmt.Println(dimStyle.Render("build " + buildID))
	for _, e := range entries {
		fmt.Printf("  %-28s raw=%.4f  weight=%.2f  contribution=%.4f\n",
			e.Factor, e.Raw, e.Weight, e.Contribution)
	}
	fmt.Printf("  %s\n", scoreStyle.Render(fmt.Sprintf("score = %d", audit.ScoreFromEntries(entries))))
}

func printSnapshots(metas []snapshot.Meta) {
	if len(metas) == 0 {
		fmt.Println("no committed snapshots")
		return
	}
	fmt.Println(headerStyle.Render("Snapshots"))
	for _, m := range metas {
		fmt.Printf("  %-4d %-8s %s  %s\n",
			m.ID, m.Label,
			dimStyle.Render(fmt.Sprintf("scoring %s, threshold %.2f", m.ScoringVersion, m.DistanceThreshold)),
			dimStyle.Render("build "+m.BuildID))
	}
}

func printCoverage(items []normalize.Item, rejected int) {
	fmt.Println(headerStyle.Render("Coverage"))
	fmt.Println(dimStyle.Render(fmt.Sprintf("%d items, %d rejected", len(items), rejected)))
	for _, r := range coverage.Report(items) {
		line := fmt.Sprintf("  %-12s items=%-4d sources=%-3d top_share=%.2f",
			r.Signal, r.Items, r.UniqueSources, r.TopSourceShare)
		if len(r.Flags) > 0 {
			line += "  " + flagStyle.Render(strings.Join(r.Flags, ", "))
		}
		fmt.Println(line)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
